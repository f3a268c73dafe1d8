// Package diff compares two schema graphs and synthesizes the SQL script
// that transforms the source schema into the target schema.
//
// A run classifies every non-bootstrap object of both graphs as a create, an
// in-place alter, a drop, or an ignore, then arranges the resulting entries
// in a dependency-safe order: drops run in reverse dependency order with
// constraints detached first, creates run in dependency order with constraint
// attachment deferred to a second pass, so mutually referencing foreign keys
// never deadlock the ordering.
//
// The differ is a pure function of its two graphs and options; it performs no
// I/O and mutates neither graph.
//
// Example:
//
//	d, err := diff.New(source, target, diff.Options{TargetVersion: "16.0"})
//	if err != nil {
//		return err
//	}
//	res, err := d.Run(ctx)
//	if err != nil {
//		return err
//	}
//	for _, stmt := range res.Script {
//		fmt.Println(stmt)
//	}
package diff
