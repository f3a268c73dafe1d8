package diff_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pgdrift/pgdrift/pkg/diff"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pgdrift/pgdrift/pkg/utils"
	"github.com/stretchr/testify/require"
)

type col struct {
	name string
	typ  string
}

func addTable(g *model.Graph, name string, cols ...col) *model.Object {
	id := g.MustAdd(&model.Object{
		Kind:   model.KindTable,
		Schema: "public",
		Name:   name,
		Owner:  "postgres",
		Def:    &model.TableDef{},
	})
	tbl := g.Get(id)
	for n, c := range cols {
		g.MustAdd(&model.Object{
			Kind:       model.KindColumn,
			Schema:     "public",
			Name:       c.name,
			Parent:     id,
			ParentName: tbl.QualifiedName(),
			Def:        &model.ColumnDef{Type: c.typ, Position: n + 1},
		})
	}
	return tbl
}

func addView(g *model.Graph, name, query string, deps ...*model.Object) *model.Object {
	id := g.MustAdd(&model.Object{
		Kind:   model.KindView,
		Schema: "public",
		Name:   name,
		Owner:  "postgres",
		Def:    &model.ViewDef{Query: query},
	})
	v := g.Get(id)
	for _, dep := range deps {
		g.AddDependency(id, dep.Key())
	}
	return v
}

func addConstraint(g *model.Graph, tbl *model.Object, name string, def *model.ConstraintDef) *model.Object {
	id := g.MustAdd(&model.Object{
		Kind:       model.KindConstraint,
		Schema:     tbl.Schema,
		Name:       name,
		Parent:     tbl.ID,
		ParentName: tbl.QualifiedName(),
		Def:        def,
	})
	return g.Get(id)
}

func run(t *testing.T, source, target *model.Graph, opts diff.Options) *diff.Result {
	t.Helper()
	d, err := diff.New(source, target, opts)
	require.NoError(t, err)
	res, err := d.Run(context.Background())
	require.NoError(t, err)
	return res
}

func entriesOfKind(res *diff.Result, kind diff.DiffKind) []diff.Entry {
	var out []diff.Entry
	for _, e := range res.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func entryIndex(t *testing.T, res *diff.Result, kind diff.DiffKind, name string) int {
	t.Helper()
	for n, e := range res.Entries {
		if e.Kind == kind && e.Name == name {
			return n
		}
	}
	t.Fatalf("no %s entry for %s", kind, name)
	return -1
}

func TestDiffIdenticalGraphs(t *testing.T) {
	build := func() *model.Graph {
		g := model.NewGraph()
		users := addTable(g, "users", col{"id", "bigint"}, col{"email", "text"})
		addConstraint(g, users, "users_pkey", &model.ConstraintDef{
			Type:    "PRIMARY KEY",
			Columns: []string{"id"},
		})
		addView(g, "v_users", "SELECT id FROM users", users)
		return g
	}

	res := run(t, build(), build(), diff.Options{})
	require.Zero(t, res.Counts[diff.DiffCreate])
	require.Zero(t, res.Counts[diff.DiffAlter])
	require.Zero(t, res.Counts[diff.DiffDrop])
	require.NotZero(t, res.Counts[diff.DiffIgnore])
	require.Empty(t, res.Script)
}

func TestCreateTargetOnlyTable(t *testing.T) {
	target := model.NewGraph()
	users := addTable(target, "users", col{"id", "bigint"}, col{"email", "text"})
	addConstraint(target, users, "users_pkey", &model.ConstraintDef{
		Type:    "PRIMARY KEY",
		Columns: []string{"id"},
	})

	res := run(t, model.NewGraph(), target, diff.Options{})

	creates := entriesOfKind(res, diff.DiffCreate)
	require.Len(t, creates, 2)
	require.Zero(t, res.Counts[diff.DiffDrop])
	require.Zero(t, res.Counts[diff.DiffAlter])

	// Columns are folded into the CREATE TABLE statement.
	require.Equal(t, model.KindTable, creates[0].ObjectKind)
	require.Contains(t, creates[0].SQL[0], `CREATE TABLE "public"."users"`)
	require.Contains(t, creates[0].SQL[0], `"id" bigint`)
	require.Contains(t, creates[0].SQL[0], `"email" text`)

	// The constraint attaches in the second pass, after the table exists.
	require.Equal(t, model.KindConstraint, creates[1].ObjectKind)
	require.Contains(t, creates[1].SQL[0], "ADD CONSTRAINT")
}

func TestAddColumnToRetainedTable(t *testing.T) {
	source := model.NewGraph()
	addTable(source, "t", col{"a", "integer"})

	target := model.NewGraph()
	addTable(target, "t", col{"a", "integer"}, col{"b", "text"})

	res := run(t, source, target, diff.Options{})

	alters := entriesOfKind(res, diff.DiffAlter)
	require.Len(t, alters, 1)
	require.Equal(t, "public.t", alters[0].Name)
	require.Contains(t, alters[0].SQL[0], `ADD COLUMN "b" text`)
	require.Zero(t, res.Counts[diff.DiffCreate])
	require.Zero(t, res.Counts[diff.DiffDrop])
}

func TestDropOrderingFollowsDependencies(t *testing.T) {
	source := model.NewGraph()
	tbl := addTable(source, "t", col{"a", "integer"})
	addView(source, "v", "SELECT a FROM t", tbl)

	res := run(t, source, model.NewGraph(), diff.Options{})

	vDrop := entryIndex(t, res, diff.DiffDrop, "public.v")
	tDrop := entryIndex(t, res, diff.DiffDrop, "public.t")
	require.Less(t, vDrop, tDrop, "dependent view must drop before its table")
}

func TestCreateOrderingFollowsDependencies(t *testing.T) {
	target := model.NewGraph()
	tbl := addTable(target, "t", col{"a", "integer"})
	addView(target, "v", "SELECT a FROM t", tbl)

	res := run(t, model.NewGraph(), target, diff.Options{})

	tCreate := entryIndex(t, res, diff.DiffCreate, "public.t")
	vCreate := entryIndex(t, res, diff.DiffCreate, "public.v")
	require.Less(t, tCreate, vCreate, "table must exist before the view reading it")
}

func TestDontDropMissingObjs(t *testing.T) {
	source := model.NewGraph()
	tbl := addTable(source, "t", col{"a", "integer"})
	addView(source, "v", "SELECT a FROM t", tbl)

	res := run(t, source, model.NewGraph(), diff.Options{DontDropMissingObjs: true})
	require.Zero(t, res.Counts[diff.DiffDrop])
	require.Empty(t, res.Script)
}

func TestDropMissingColsConstrNarrowsProtection(t *testing.T) {
	source := model.NewGraph()
	st := addTable(source, "t", col{"a", "integer"}, col{"b", "text"})
	addConstraint(source, st, "t_b_check", &model.ConstraintDef{
		Type:       "CHECK",
		Expression: "b <> ''",
	})
	addTable(source, "gone", col{"x", "integer"})

	target := model.NewGraph()
	addTable(target, "t", col{"a", "integer"})

	res := run(t, source, target, diff.Options{
		DontDropMissingObjs:   true,
		DropMissingColsConstr: true,
	})

	drops := entriesOfKind(res, diff.DiffDrop)
	require.Len(t, drops, 2)
	for _, e := range drops {
		require.Contains(t, []model.ObjectKind{model.KindColumn, model.KindConstraint}, e.ObjectKind)
	}

	// The whole missing table stays protected.
	for _, e := range drops {
		require.NotEqual(t, "public.gone", e.Name)
	}
}

func TestAlterColumnType(t *testing.T) {
	source := model.NewGraph()
	addTable(source, "t", col{"a", "integer"})

	target := model.NewGraph()
	addTable(target, "t", col{"a", "bigint"})

	res := run(t, source, target, diff.Options{})

	alters := entriesOfKind(res, diff.DiffAlter)
	require.Len(t, alters, 1)
	require.Contains(t, alters[0].SQL[0], `ALTER COLUMN "a" TYPE bigint`)
}

func TestUnmodifiableDifferenceNeedsRecreation(t *testing.T) {
	build := func(partitioned bool) *model.Graph {
		g := model.NewGraph()
		def := &model.TableDef{}
		if partitioned {
			def.PartitionBy = "PARTITION BY RANGE (a)"
		}
		g.MustAdd(&model.Object{
			Kind:   model.KindTable,
			Schema: "public",
			Name:   "t",
			Owner:  "postgres",
			Def:    def,
		})
		return g
	}

	// Default policy refuses the destructive path and reports a warning.
	res := run(t, build(false), build(true), diff.Options{})
	require.Zero(t, res.Counts[diff.DiffCreate])
	require.Zero(t, res.Counts[diff.DiffDrop])

	var warned bool
	for _, e := range entriesOfKind(res, diff.DiffIgnore) {
		if e.Warning != "" {
			warned = true
		}
	}
	require.True(t, warned)

	// RecreateUnmodifiable opts in to the drop-and-create pair.
	res = run(t, build(false), build(true), diff.Options{RecreateUnmodifiable: true})
	dropAt := entryIndex(t, res, diff.DiffDrop, "public.t")
	createAt := entryIndex(t, res, diff.DiffCreate, "public.t")
	require.Less(t, dropAt, createAt)
}

func TestMutualForeignKeysAttachLast(t *testing.T) {
	target := model.NewGraph()
	a := addTable(target, "a", col{"id", "bigint"}, col{"b_id", "bigint"})
	b := addTable(target, "b", col{"id", "bigint"}, col{"a_id", "bigint"})
	addConstraint(target, a, "a_b_fkey", &model.ConstraintDef{
		Type:       "FOREIGN KEY",
		Columns:    []string{"b_id"},
		RefTable:   "public.b",
		RefColumns: []string{"id"},
	})
	addConstraint(target, b, "b_a_fkey", &model.ConstraintDef{
		Type:       "FOREIGN KEY",
		Columns:    []string{"a_id"},
		RefTable:   "public.a",
		RefColumns: []string{"id"},
	})

	res := run(t, model.NewGraph(), target, diff.Options{})

	aCreate := entryIndex(t, res, diff.DiffCreate, "public.a")
	bCreate := entryIndex(t, res, diff.DiffCreate, "public.b")
	aFk := entryIndex(t, res, diff.DiffCreate, "public.a.a_b_fkey")
	bFk := entryIndex(t, res, diff.DiffCreate, "public.b.b_a_fkey")
	require.Greater(t, aFk, aCreate)
	require.Greater(t, aFk, bCreate)
	require.Greater(t, bFk, aCreate)
	require.Greater(t, bFk, bCreate)
}

func TestVersionGating(t *testing.T) {
	_, err := diff.New(model.NewGraph(), model.NewGraph(), diff.Options{TargetVersion: "8.4"})
	var verr *diff.UnsupportedVersionError
	require.ErrorAs(t, err, &verr)

	_, err = diff.New(model.NewGraph(), model.NewGraph(), diff.Options{TargetVersion: "not-a-version"})
	require.ErrorAs(t, err, &verr)

	// An identity column cannot be expressed on a 9.6 target; the difference
	// is reported, not emitted.
	source := model.NewGraph()
	addTable(source, "t")
	target := model.NewGraph()
	tbl := addTable(target, "t")
	target.MustAdd(&model.Object{
		Kind:       model.KindColumn,
		Schema:     "public",
		Name:       "id",
		Parent:     tbl.ID,
		ParentName: "public.t",
		Def:        &model.ColumnDef{Type: "bigint", Identity: "ALWAYS", Position: 1},
	})

	res := run(t, source, target, diff.Options{TargetVersion: "9.6"})
	require.Zero(t, res.Counts[diff.DiffAlter])

	var warned bool
	for _, e := range entriesOfKind(res, diff.DiffIgnore) {
		if strings.Contains(e.Warning, "identity") {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestEnumValuesAppendInPlace(t *testing.T) {
	build := func(values ...string) *model.Graph {
		g := model.NewGraph()
		g.MustAdd(&model.Object{
			Kind:   model.KindType,
			Schema: "public",
			Name:   "status",
			Owner:  "postgres",
			Def:    &model.TypeDef{Category: "ENUM", EnumValues: values},
		})
		return g
	}

	res := run(t, build("active"), build("active", "disabled"), diff.Options{})
	alters := entriesOfKind(res, diff.DiffAlter)
	require.Len(t, alters, 1)
	require.Contains(t, alters[0].SQL[0], "ADD VALUE 'disabled'")

	// Reordered values cannot be altered in place.
	res = run(t, build("active", "disabled"), build("disabled", "active"), diff.Options{})
	require.Zero(t, res.Counts[diff.DiffAlter])
	require.NotZero(t, res.Counts[diff.DiffIgnore])
}

func TestKeepClusterObjsSuppressesRoles(t *testing.T) {
	source := model.NewGraph()
	source.MustAdd(&model.Object{
		Kind: model.KindRole,
		Name: "reporting",
		Def:  &model.RoleDef{Login: true},
	})

	res := run(t, source, model.NewGraph(), diff.Options{KeepClusterObjs: true})
	for _, e := range res.Entries {
		require.NotEqual(t, model.KindRole, e.ObjectKind)
	}

	res = run(t, source, model.NewGraph(), diff.Options{})
	require.Equal(t, 1, res.Counts[diff.DiffDrop])
}

func TestReuseSequences(t *testing.T) {
	build := func(ownedBy string) *model.Graph {
		g := model.NewGraph()
		addTable(g, "t", col{"id", "bigint"})
		g.MustAdd(&model.Object{
			Kind:   model.KindSequence,
			Schema: "public",
			Name:   "t_id_seq",
			Owner:  "postgres",
			Def: &model.SequenceDef{
				Start: 1, Increment: 1, MinValue: 1, MaxValue: 1 << 40, Cache: 1,
				OwnedBy: ownedBy,
			},
		})
		return g
	}

	res := run(t, build("public.t.id"), build("public.other.id"), diff.Options{ReuseSequences: true})
	require.Zero(t, res.Counts[diff.DiffAlter])

	res = run(t, build("public.t.id"), build("public.other.id"), diff.Options{})
	require.Equal(t, 1, res.Counts[diff.DiffAlter])
}

func TestStructuralInconsistency(t *testing.T) {
	target := model.NewGraph()
	tbl := addTable(target, "t", col{"a", "bigint"})
	addConstraint(target, tbl, "t_ghost_fkey", &model.ConstraintDef{
		Type:       "FOREIGN KEY",
		Columns:    []string{"a"},
		RefTable:   "public.ghost",
		RefColumns: []string{"id"},
	})

	d, err := diff.New(model.NewGraph(), target, diff.Options{})
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	var serr *diff.StructuralError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "public.ghost", serr.Ref)
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := diff.New(model.NewGraph(), model.NewGraph(), diff.Options{})
	require.NoError(t, err)

	_, err = d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCascadeMode(t *testing.T) {
	source := model.NewGraph()
	addTable(source, "t", col{"a", "integer"})

	res := run(t, source, model.NewGraph(), diff.Options{CascadeMode: true})
	drops := entriesOfKind(res, diff.DiffDrop)
	require.Len(t, drops, 1)
	require.Equal(t, utils.NewSQLBuilder().Drop("TABLE").QualifiedName("public", "t").Cascade().String(), drops[0].SQL[0])
}

func TestPreserveDbName(t *testing.T) {
	source := model.NewGraph()
	source.Database = "olddb"
	target := model.NewGraph()
	target.Database = "newdb"

	res := run(t, source, target, diff.Options{})
	require.Equal(t, "newdb", res.Database)

	res = run(t, source, target, diff.Options{PreserveDbName: true})
	require.Equal(t, "olddb", res.Database)
}
