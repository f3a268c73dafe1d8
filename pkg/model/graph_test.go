package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGraphBootstrap(t *testing.T) {
	g := NewGraph()

	require.NotNil(t, g.Lookup(KindSchema, "public"))
	require.NotNil(t, g.Lookup(KindSchema, "pg_catalog"))
	require.NotNil(t, g.Lookup(KindLanguage, "plpgsql"))
	require.NotNil(t, g.Lookup(KindType, "pg_catalog.int4"))
	require.NotNil(t, g.Lookup(KindRole, "postgres"))

	for _, o := range g.Objects() {
		require.True(t, o.Bootstrap, "all initial objects must be bootstrap: %s", o.Signature())
	}
}

func TestGraphAddAndLookup(t *testing.T) {
	g := NewGraph()

	id, err := g.Add(&Object{
		Kind:   KindTable,
		Schema: "public",
		Name:   "users",
		Owner:  "app",
		Def:    &TableDef{},
	})
	require.NoError(t, err)
	require.Equal(t, g.Get(id), g.Lookup(KindTable, "public.users"))

	// Duplicate key is rejected
	_, err = g.Add(&Object{Kind: KindTable, Schema: "public", Name: "users", Def: &TableDef{}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate object")
}

func TestGraphChildren(t *testing.T) {
	g := NewGraph()

	tableID := g.MustAdd(&Object{Kind: KindTable, Schema: "public", Name: "users", Def: &TableDef{}})
	g.MustAdd(&Object{
		Kind: KindColumn, Name: "id", Parent: tableID, ParentName: "public.users",
		Def: &ColumnDef{Type: "bigint", NotNull: true},
	})
	g.MustAdd(&Object{
		Kind: KindColumn, Name: "email", Parent: tableID, ParentName: "public.users",
		Def: &ColumnDef{Type: "text"},
	})
	g.MustAdd(&Object{
		Kind: KindConstraint, Name: "users_pkey", Parent: tableID, ParentName: "public.users",
		Def: &ConstraintDef{Type: "PRIMARY KEY", Columns: []string{"id"}},
	})

	require.Len(t, g.Children(tableID), 3)
	require.Len(t, g.ChildrenOfKind(tableID, KindColumn), 2)
	require.Len(t, g.ChildrenOfKind(tableID, KindConstraint), 1)

	col := g.Lookup(KindColumn, "public.users.id")
	require.NotNil(t, col)
	require.Equal(t, "public.users.id", col.QualifiedName())
}

func TestGraphDeferredBinding(t *testing.T) {
	g := NewGraph()

	// The view references a table that has not been imported yet.
	viewID := g.MustAdd(&Object{
		Kind: KindView, Schema: "public", Name: "v_active",
		Def: &ViewDef{Query: "SELECT * FROM users WHERE active"},
	})
	g.AddDependency(viewID, Key{Kind: KindTable, Signature: "public.users"})

	require.Empty(t, g.Get(viewID).DependsOn)

	// Adding the table later in the pass fills the slot.
	tableID := g.MustAdd(&Object{Kind: KindTable, Schema: "public", Name: "users", Def: &TableDef{}})
	require.Equal(t, []ObjectID{tableID}, g.Get(viewID).DependsOn)
	require.NoError(t, g.ResolvePending())
}

func TestGraphUnresolvedDependency(t *testing.T) {
	g := NewGraph()

	viewID := g.MustAdd(&Object{
		Kind: KindView, Schema: "public", Name: "v_orphan",
		Def: &ViewDef{Query: "SELECT 1"},
	})
	g.AddDependency(viewID, Key{Kind: KindTable, Signature: "public.missing"})

	err := g.ResolvePending()
	require.Error(t, err)

	var unresolved *UnresolvedDependencyError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, KindTable, unresolved.Key.Kind)
	require.Equal(t, "public.missing", unresolved.Key.Signature)
	require.Equal(t, []string{"public.v_orphan"}, unresolved.Dependents)
}

func TestFunctionSignature(t *testing.T) {
	fn := &Object{
		Kind: KindFunction, Schema: "public", Name: "add",
		Def: &FunctionDef{
			Language: "sql",
			Returns:  "integer",
			Arguments: []FunctionArg{
				{Name: "a", Type: "integer"},
				{Name: "b", Type: "integer"},
				{Name: "result", Type: "integer", Mode: "OUT"},
			},
		},
	}

	// OUT arguments do not participate in the signature.
	require.Equal(t, "public.add(integer,integer)", fn.Signature())

	// Overloads of the same name are distinct graph nodes.
	g := NewGraph()
	g.MustAdd(fn)
	g.MustAdd(&Object{
		Kind: KindFunction, Schema: "public", Name: "add",
		Def: &FunctionDef{
			Language:  "sql",
			Returns:   "numeric",
			Arguments: []FunctionArg{{Name: "a", Type: "numeric"}, {Name: "b", Type: "numeric"}},
		},
	})
	require.NotNil(t, g.Lookup(KindFunction, "public.add(integer,integer)"))
	require.NotNil(t, g.Lookup(KindFunction, "public.add(numeric,numeric)"))
}

func TestParseKey(t *testing.T) {
	key, ok := ParseKey("table:public.users")
	require.True(t, ok)
	require.Equal(t, Key{Kind: KindTable, Signature: "public.users"}, key)

	_, ok = ParseKey("no-separator")
	require.False(t, ok)

	// Signatures may themselves contain colons only in the remainder.
	key, ok = ParseKey("function:public.add(integer,integer)")
	require.True(t, ok)
	require.Equal(t, KindFunction, key.Kind)
}
