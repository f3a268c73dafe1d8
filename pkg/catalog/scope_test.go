package catalog

import (
	"context"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgdrift/pgdrift/pkg/filter"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/stretchr/testify/require"
)

type (
	// fakeRows serves canned result sets through the pgx.Rows surface.
	fakeRows struct {
		rows [][]any
		idx  int
	}

	fakeRow struct {
		vals []any
	}

	// fakeQuerier maps query text to canned rows and records the arguments
	// each query was called with. Queries without a canned result return an
	// empty set.
	fakeQuerier struct {
		results map[string][][]any
		args    map[string][]any
	}
)

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.rows[r.idx-1], dest)
}

func (r *fakeRow) Scan(dest ...any) error {
	return scanInto(r.vals, dest)
}

// scanInto copies canned values into scan targets. A nil value leaves the
// target at its zero value, matching a SQL NULL scanned into a pointer.
func scanInto(vals []any, dest []any) error {
	for n, d := range dest {
		if vals[n] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(vals[n]))
	}
	return nil
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	if q.args == nil {
		q.args = make(map[string][]any)
	}
	q.args[sql] = args
	return &fakeRows{rows: q.results[sql]}, nil
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if q.args == nil {
		q.args = make(map[string][]any)
	}
	q.args[sql] = args
	return &fakeRow{vals: q.results[sql][0]}
}

func scopedCatalog() *fakeQuerier {
	return &fakeQuerier{
		results: map[string][][]any{
			queryServerInfo: {{"16.4", "appdb"}},
			querySchemas: {
				{uint32(10), "app", "postgres", ""},
			},
			queryTables: {
				{uint32(100), "app", "users", "postgres", false, "", "", "", []string{}, "", ""},
				{uint32(101), "app", "orders", "postgres", false, "", "", "", []string{}, "", ""},
			},
			queryColumns: {
				{"app", "users", "id", 1, "bigint", true, nil, "", "", nil, ""},
				{"app", "orders", "id", 1, "bigint", true, nil, "", "", nil, ""},
			},
			queryConstraints: {
				{"app", "orders", "orders_pkey", "p", []string{"id"}, "", []string{}, "a", "a", false, false, "PRIMARY KEY (id)"},
			},
		},
	}
}

func TestImportScopedToSelection(t *testing.T) {
	q := scopedCatalog()
	imp := New(q, Options{
		Only: []model.Key{{Kind: model.KindTable, Signature: "app.users"}},
	})

	g, err := imp.Import(context.Background())
	require.NoError(t, err, "children of deliberately skipped relations must not fail the import")

	users := g.Lookup(model.KindTable, "app.users")
	require.NotNil(t, users)
	require.Len(t, g.Children(users.ID), 1, "selected table keeps its column")

	require.Nil(t, g.Lookup(model.KindTable, "app.orders"))
	require.Nil(t, g.Lookup(model.KindConstraint, "app.orders.orders_pkey"))
}

func TestImportUnscopedKeepsEverything(t *testing.T) {
	q := scopedCatalog()

	g, err := New(q, Options{}).Import(context.Background())
	require.NoError(t, err)
	require.NotNil(t, g.Lookup(model.KindTable, "app.users"))
	require.NotNil(t, g.Lookup(model.KindTable, "app.orders"))
}

func TestImportChildQueriesExcludeExtensionObjects(t *testing.T) {
	q := scopedCatalog()

	_, err := New(q, Options{}).Import(context.Background())
	require.NoError(t, err)

	// Every child tier passes the extension-inclusion switch so extension
	// members excluded from the parent tiers never surface as orphan rows.
	for _, query := range []string{
		queryColumns, queryConstraints, queryIndexes, queryTriggers,
		queryRules, queryPermissions, querySequences, queryDomains,
	} {
		args, ok := q.args[query]
		require.True(t, ok)
		require.Len(t, args, 2)
		require.Equal(t, false, args[1])
	}
}

func TestIdentifiers(t *testing.T) {
	q := &fakeQuerier{
		results: map[string][][]any{
			queryUserSchemaIdents: {{"app"}, {"public"}},
			queryTableIdents: {
				{"app", "users"},
				{"app", "orders"},
			},
			queryViewIdents:     {{"app", "v_users"}},
			queryFunctionIdents: {{"app", "log_change(integer,text)"}},
		},
	}

	spec, err := filter.NewSpec([]string{"table:app.users"}, nil)
	require.NoError(t, err)
	spec.MatchSignature = true
	spec.OnlyMatching = true

	keys, err := Identifiers(context.Background(), q, spec)
	require.NoError(t, err)
	require.Equal(t, []model.Key{{Kind: model.KindTable, Signature: "app.users"}}, keys)
}

func TestIdentifiersExcludePolarity(t *testing.T) {
	q := &fakeQuerier{
		results: map[string][][]any{
			queryUserSchemaIdents: {{"app"}},
			queryTableIdents: {
				{"app", "users"},
				{"app", "orders"},
			},
		},
	}

	spec, err := filter.NewSpec([]string{"table:app.orders"}, nil)
	require.NoError(t, err)
	spec.MatchSignature = true

	keys, err := Identifiers(context.Background(), q, spec)
	require.NoError(t, err)
	require.Equal(t, []model.Key{{Kind: model.KindTable, Signature: "app.users"}}, keys)
}
