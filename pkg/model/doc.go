// Package model defines the in-memory representation of a database schema:
// a graph of typed objects with containment and dependency edges.
//
// # Schema graphs
//
// A Graph is an arena of Objects indexed by stable ObjectIDs. Edges are
// stored as IDs rather than pointers, so references recorded before their
// target exists (a common situation during catalog import) are parked in
// deferred-binding slots and filled in when the target arrives:
//
//	g := model.NewGraph()
//	id, _ := g.Add(&model.Object{Kind: model.KindTable, Schema: "public", Name: "users", Def: &model.TableDef{}})
//	g.AddDependency(id, model.Key{Kind: model.KindSchema, Signature: "public"})
//	if err := g.ResolvePending(); err != nil {
//	    // a forward reference was never satisfied
//	}
//
// # Object kinds
//
// ObjectKind is a closed tag: each kind has exactly one Definition payload
// type, and the diff engine dispatches over kinds through exhaustive tables.
// Overloadable kinds (functions) are identified by signature rather than by
// display name, so overloads are distinct graph nodes.
//
// # Design-model files
//
// Save and Load round-trip a graph through a YAML document, providing the
// design-model input to a diff run when the source is a file rather than a
// live database.
package model
