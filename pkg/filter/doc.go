// Package filter narrows a diff run to a subset of schema objects.
//
// A Spec holds ordered wildcard patterns ("table:public.users*"), a matching
// mode (display name vs. qualified signature), and an inclusion polarity.
// Resolve evaluates a spec against a schema graph and expands the result by
// relationship closure, so partially selected inheritance chains, partition
// hierarchies, and many-to-many link structures never reach the differ in an
// inconsistent state.
//
// Specs can also be derived from a changelog date range; those force
// signature matching and collapse table-child records into their containing
// table.
package filter
