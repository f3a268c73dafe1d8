package filter

import (
	"testing"

	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    model.ObjectKind
		expr    string
		wantErr bool
	}{
		{name: "kind and expr", input: "table:public.users", kind: model.KindTable, expr: "public.users"},
		{name: "wildcard", input: "view:v_*", kind: model.KindView, expr: "v_*"},
		{name: "bare expr", input: "users", kind: "", expr: "users"},
		{name: "quoted identifiers", input: `table:"public"."Users"`, kind: model.KindTable, expr: "public.Users"},
		{name: "spaced argument list", input: "function:public.fn(integer, text)", kind: model.KindFunction, expr: "public.fn(integer,text)"},
		{name: "unknown kind", input: "widget:foo", wantErr: true},
		{name: "empty expr", input: "table:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePattern(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.kind, p.Kind)
			require.Equal(t, tt.expr, p.Expr)
		})
	}
}

func TestPatternWildcardMatching(t *testing.T) {
	table := &model.Object{Kind: model.KindTable, Schema: "public", Name: "user_accounts", Def: &model.TableDef{}}

	tests := []struct {
		pattern     string
		bySignature bool
		expected    bool
	}{
		{pattern: "table:user_*", expected: true},
		{pattern: "table:user_accounts", expected: true},
		{pattern: "table:accounts", expected: false},
		{pattern: "table:*accounts", expected: true},
		{pattern: "view:user_*", expected: false},
		{pattern: "table:public.*", bySignature: true, expected: true},
		{pattern: "table:public.*", bySignature: false, expected: false},
		{pattern: "table:audit.*", bySignature: true, expected: false},
		// "*" is the only metacharacter; regexp syntax is literal.
		{pattern: "table:user.accounts", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			require.Equal(t, tt.expected, p.Match(table, tt.bySignature))
		})
	}
}

func TestPatternCanonicalization(t *testing.T) {
	fn := &model.Object{
		Kind: model.KindFunction, Schema: "public", Name: "log_change",
		Def: &model.FunctionDef{
			Language: "sql", Returns: "void",
			Arguments: []model.FunctionArg{{Name: "id", Type: "integer"}, {Name: "msg", Type: "text"}},
			Body:      "SELECT 1",
		},
	}
	mixed := &model.Object{Kind: model.KindTable, Schema: "public", Name: "Users", Def: &model.TableDef{}}

	tests := []struct {
		pattern string
		obj     *model.Object
	}{
		// Spacing in the argument list differs from the rendered signature.
		{pattern: "function:public.log_change(integer, text)", obj: fn},
		// Quoted identifiers match the unquoted signature.
		{pattern: `table:"public"."Users"`, obj: mixed},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			require.True(t, p.Match(tt.obj, true))
		})
	}
}

func TestNewSpecDefaultPolarity(t *testing.T) {
	spec, err := NewSpec([]string{"table:users"}, nil)
	require.NoError(t, err)
	require.False(t, spec.OnlyMatching, "default selects everything except matches")
}

func TestNewSpecExpandsTableChildren(t *testing.T) {
	spec, err := NewSpec([]string{"table:public.users"}, nil)
	require.NoError(t, err)

	var derived []model.ObjectKind
	for _, p := range spec.Patterns {
		if p.Derived() {
			derived = append(derived, p.Kind)
		}
	}
	require.ElementsMatch(t, []model.ObjectKind{
		model.KindColumn, model.KindConstraint, model.KindIndex,
		model.KindTrigger, model.KindRule,
	}, derived)

	// A column of the filtered table is selected through the derived rule.
	spec.MatchSignature = true
	col := &model.Object{
		Kind: model.KindColumn, Name: "id", ParentName: "public.users",
		Def: &model.ColumnDef{Type: "bigint"},
	}
	require.True(t, spec.Matches(col))

	other := &model.Object{
		Kind: model.KindColumn, Name: "id", ParentName: "public.orders",
		Def: &model.ColumnDef{Type: "bigint"},
	}
	require.False(t, spec.Matches(other))
}

func TestSpecForcedKinds(t *testing.T) {
	spec, err := NewSpec(
		[]string{"users"},
		map[string]model.ObjectKind{"users": model.KindTable},
	)
	require.NoError(t, err)

	require.True(t, spec.Matches(&model.Object{Kind: model.KindTable, Schema: "public", Name: "users", Def: &model.TableDef{}}))
	require.False(t, spec.Matches(&model.Object{Kind: model.KindView, Schema: "public", Name: "users", Def: &model.ViewDef{}}))
}

func TestSpecEmpty(t *testing.T) {
	var nilSpec *Spec
	require.True(t, nilSpec.Empty())

	spec, err := NewSpec(nil, nil)
	require.NoError(t, err)
	require.True(t, spec.Empty())

	spec, err = NewSpec([]string{"table:users"}, nil)
	require.NoError(t, err)
	require.False(t, spec.Empty())
}
