// Package catalog imports a snapshot of a live PostgreSQL catalog into a
// schema graph.
//
// The importer reads pg_catalog in dependency-ordered tiers (roles and
// tablespaces first, then schemas, types, tables, and so on up to
// permissions), so most references resolve as soon as they are recorded;
// the remainder, such as a sequence's owning table or a trigger's function,
// bind through the graph's deferred slots and are verified at the end of the
// run.
//
// Example:
//
//	conn, err := catalog.Connect(ctx, dsn)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close(ctx)
//
//	imp := catalog.New(conn, catalog.Options{IncludeSystemObjs: true})
//	graph, err := imp.Import(ctx)
//
// Cancellation is checked between tiers; with ContinueOnError, per-object
// failures go to the Errors sink and the run keeps going, leaving out the
// failed object and anything that needed it.
package catalog
