package diff

import (
	"testing"

	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/stretchr/testify/require"
)

// Every kind must have an alteration rule, a create synthesis, and a drop
// synthesis. This keeps a newly added kind from silently falling through the
// dispatch tables.
func TestDispatchCoversEveryKind(t *testing.T) {
	d, err := New(model.NewGraph(), model.NewGraph(), Options{})
	require.NoError(t, err)

	for _, kind := range model.Kinds {
		require.Contains(t, alterFuncs, kind, "no alter rule for %s", kind)

		o := &model.Object{
			Kind:       kind,
			Schema:     "public",
			Name:       "thing",
			ParentName: "public.parent",
			Def:        model.NewDefinition(kind),
		}
		require.NotEmpty(t, d.createSQL(d.target, o), "no create SQL for %s", kind)
		require.NotEmpty(t, d.dropSQL(o), "no drop SQL for %s", kind)
	}
}

func TestTriggerReplaceDependsOnVersion(t *testing.T) {
	trigger := func(condition string) *model.Object {
		return &model.Object{
			Kind:       model.KindTrigger,
			Schema:     "public",
			Name:       "audit",
			ParentName: "public.users",
			Def: &model.TriggerDef{
				Timing:     "AFTER",
				Events:     []string{"INSERT"},
				ForEachRow: true,
				Condition:  condition,
				Function:   "public.log_change()",
			},
		}
	}

	modern, err := New(model.NewGraph(), model.NewGraph(), Options{TargetVersion: "16.0"})
	require.NoError(t, err)
	stmts, ok := alterTrigger(modern, trigger(""), trigger("new.id > 0"))
	require.True(t, ok)
	require.Len(t, stmts, 1)
	require.Contains(t, stmts[0], "CREATE OR REPLACE TRIGGER")

	legacy, err := New(model.NewGraph(), model.NewGraph(), Options{TargetVersion: "13.0"})
	require.NoError(t, err)
	stmts, ok = alterTrigger(legacy, trigger(""), trigger("new.id > 0"))
	require.True(t, ok)
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0], "DROP TRIGGER")
	require.Contains(t, stmts[1], "CREATE TRIGGER")
}
