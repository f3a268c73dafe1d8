// Package cmd implements the pgdrift command line interface.
//
// The CLI wires the import, diff, and apply phases together: diff prints the
// migration script reconciling two schemas, apply executes it against the
// source database behind a confirmation gate, and dump snapshots a catalog
// into a design model file for offline diffing.
package cmd
