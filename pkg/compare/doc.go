// Package compare provides generic comparison utilities for structural
// equality testing.
//
// The schema model implements an Equal method on every object definition so
// the differ can decide between Ignore, Alter, and Drop+Create. These helpers
// remove the nil-check and loop boilerplate those methods would otherwise
// repeat:
//
//	func (d *IndexDef) Equal(other *IndexDef) bool {
//	    if eq, more := compare.NilCheck(d, other); !more {
//	        return eq
//	    }
//	    return d.Method == other.Method &&
//	        d.Unique == other.Unique &&
//	        compare.Slices(d.Columns, other.Columns, func(a, b string) bool { return a == b })
//	}
package compare
