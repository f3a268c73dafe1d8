package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Graph is the full set of schema objects for one snapshot, stored in an
// arena indexed by ObjectID. A fixed set of bootstrap objects (default
// schemas, built-in types, the default language, the default role and
// tablespace) is materialized at construction, since every user object
// ultimately references one of them.
//
// A graph is owned by whichever phase built it. The differ borrows two
// graphs without mutating either.
type Graph struct {
	// Database is the database name this snapshot was taken from, when known.
	Database string

	// ServerVersion is the server version this snapshot was taken from,
	// when known (e.g. "16.2").
	ServerVersion string

	objects  []*Object
	index    map[Key]ObjectID
	children map[ObjectID][]ObjectID
	pending  map[Key][]ObjectID
}

// builtinTypes are the pg_catalog types materialized as bootstrap objects.
// The list covers the types user DDL commonly references; anything else a
// catalog import encounters is added as a regular deferred reference.
var builtinTypes = []string{
	"bool", "bytea", "char", "int8", "int4", "int2", "text", "oid",
	"float4", "float8", "numeric", "money", "varchar", "bpchar", "name",
	"date", "time", "timetz", "timestamp", "timestamptz", "interval",
	"uuid", "json", "jsonb", "xml", "inet", "cidr", "macaddr", "bit",
	"varbit", "point", "line", "box", "tsvector", "tsquery",
}

// NewGraph creates an empty schema graph with its bootstrap objects in place.
func NewGraph() *Graph {
	g := &Graph{
		index:    make(map[Key]ObjectID),
		children: make(map[ObjectID][]ObjectID),
		pending:  make(map[Key][]ObjectID),
	}
	g.addBootstrap()
	return g
}

func (g *Graph) addBootstrap() {
	boot := func(o *Object) {
		o.Bootstrap = true
		// Bootstrap objects are constructed with unique keys; Add cannot fail.
		_, _ = g.Add(o)
	}

	boot(&Object{Kind: KindRole, Name: "postgres", Def: &RoleDef{Login: true, Superuser: true, Inherit: true}})
	boot(&Object{Kind: KindTablespace, Name: "pg_default", Owner: "postgres", Def: &TablespaceDef{}})
	boot(&Object{Kind: KindSchema, Name: "pg_catalog", Owner: "postgres", Def: &SchemaDef{}})
	boot(&Object{Kind: KindSchema, Name: "public", Owner: "postgres", Def: &SchemaDef{}})
	boot(&Object{Kind: KindLanguage, Name: "sql", Owner: "postgres", Def: &LanguageDef{Trusted: true}})
	boot(&Object{Kind: KindLanguage, Name: "plpgsql", Owner: "postgres", Def: &LanguageDef{Trusted: true}})

	for _, name := range builtinTypes {
		boot(&Object{
			Kind:   KindType,
			Schema: "pg_catalog",
			Name:   name,
			Owner:  "postgres",
			Def:    &TypeDef{Category: "base"},
		})
	}
}

// Add inserts an object into the arena, assigns its ID, and indexes it by
// (kind, signature). Any deferred references recorded against that key are
// bound to the new object. Adding a duplicate key is an error.
func (g *Graph) Add(o *Object) (ObjectID, error) {
	key := o.Key()
	if _, exists := g.index[key]; exists {
		return NoObject, errors.Errorf("duplicate object %s", key)
	}

	id := ObjectID(len(g.objects) + 1)
	o.ID = id

	g.objects = append(g.objects, o)
	g.index[key] = id

	if o.Parent != NoObject {
		g.children[o.Parent] = append(g.children[o.Parent], id)
	}

	// Fill deferred-binding slots waiting on this object.
	if waiting, ok := g.pending[key]; ok {
		for _, from := range waiting {
			obj := g.Get(from)
			obj.DependsOn = append(obj.DependsOn, id)
		}
		delete(g.pending, key)
	}

	return id, nil
}

// MustAdd is Add for construction code where a duplicate indicates a
// programming error (graph builders, tests).
func (g *Graph) MustAdd(o *Object) ObjectID {
	id, err := g.Add(o)
	if err != nil {
		panic(err)
	}
	return id
}

// AddDependency records a reference edge from an existing object to the
// object identified by key. If the referenced object is not yet in the arena,
// the edge is parked in a deferred slot that Add fills when the object
// arrives later in the same pass.
func (g *Graph) AddDependency(from ObjectID, key Key) {
	if to, ok := g.index[key]; ok {
		if to != from {
			obj := g.Get(from)
			obj.DependsOn = append(obj.DependsOn, to)
		}
		return
	}
	g.pending[key] = append(g.pending[key], from)
}

// ResolvePending verifies that every deferred reference was eventually bound.
// A graph with an unresolvable reference after a full import pass is a hard
// failure.
func (g *Graph) ResolvePending() error {
	if len(g.pending) == 0 {
		return nil
	}

	keys := make([]string, 0, len(g.pending))
	for key := range g.pending {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)

	key, _ := ParseKey(keys[0])
	deps := make([]string, 0, len(g.pending[key]))
	for _, from := range g.pending[key] {
		deps = append(deps, g.Get(from).Signature())
	}
	sort.Strings(deps)

	return &UnresolvedDependencyError{Key: key, Dependents: deps}
}

// Get returns the object for id, or nil if id is out of range.
func (g *Graph) Get(id ObjectID) *Object {
	if id < 1 || int(id) > len(g.objects) {
		return nil
	}
	return g.objects[id-1]
}

// Lookup returns the object matching kind and signature, or nil.
func (g *Graph) Lookup(kind ObjectKind, signature string) *Object {
	if id, ok := g.index[Key{Kind: kind, Signature: signature}]; ok {
		return g.Get(id)
	}
	return nil
}

// Objects returns all objects in arena order. Arena order reflects insertion
// order, which the importer keeps aligned with creation tiers.
func (g *Graph) Objects() []*Object {
	return g.objects
}

// ByKind returns all objects of one kind in arena order.
func (g *Graph) ByKind(kind ObjectKind) []*Object {
	var out []*Object
	for _, o := range g.objects {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// Children returns the contained objects of id in insertion order.
func (g *Graph) Children(id ObjectID) []*Object {
	ids := g.children[id]
	out := make([]*Object, 0, len(ids))
	for _, cid := range ids {
		out = append(out, g.Get(cid))
	}
	return out
}

// ChildrenOfKind returns the contained objects of id with the given kind.
func (g *Graph) ChildrenOfKind(id ObjectID, kind ObjectKind) []*Object {
	var out []*Object
	for _, c := range g.Children(id) {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of objects in the graph, bootstrap included.
func (g *Graph) Len() int {
	return len(g.objects)
}

// UnresolvedDependencyError reports a forward reference that was never
// satisfied during an import pass.
type UnresolvedDependencyError struct {
	// Key identifies the missing object.
	Key Key

	// Dependents are the signatures of the objects that referenced it.
	Dependents []string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("unresolved dependency on %s (required by %s)",
		e.Key, strings.Join(e.Dependents, ", "))
}
