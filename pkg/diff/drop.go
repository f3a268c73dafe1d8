package diff

import (
	"strings"

	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pgdrift/pgdrift/pkg/utils"
)

// dropSQL synthesizes the statements removing one source-side object.
func (d *Differ) dropSQL(o *model.Object) []string {
	cascade := func(b *utils.SQLBuilder) *utils.SQLBuilder {
		if d.opts.CascadeMode {
			b.Cascade()
		}
		return b
	}

	switch def := o.Def.(type) {
	case *model.ColumnDef:
		return []string{cascade(utils.NewSQLBuilder().
			Alter("TABLE").Name(o.ParentName).
			Raw("DROP COLUMN").Name(o.Name)).String()}

	case *model.ConstraintDef:
		return []string{cascade(utils.NewSQLBuilder().
			Alter("TABLE").Name(o.ParentName).
			Raw("DROP CONSTRAINT").Name(o.Name)).String()}

	case *model.IndexDef:
		return []string{cascade(utils.NewSQLBuilder().
			Drop("INDEX").QualifiedName(o.Schema, o.Name)).String()}

	case *model.TriggerDef:
		return []string{cascade(utils.NewSQLBuilder().
			Drop("TRIGGER").Name(o.Name).On(o.ParentName)).String()}

	case *model.RuleDef:
		return []string{cascade(utils.NewSQLBuilder().
			Drop("RULE").Name(o.Name).On(o.ParentName)).String()}

	case *model.ViewDef:
		kw := "VIEW"
		if def.Materialized {
			kw = "MATERIALIZED VIEW"
		}
		return []string{cascade(utils.NewSQLBuilder().
			Drop(kw).QualifiedName(o.Schema, o.Name)).String()}

	case *model.FunctionDef:
		kw := "FUNCTION"
		if def.IsProcedure {
			kw = "PROCEDURE"
		}
		return []string{cascade(utils.NewSQLBuilder().
			Drop(kw).Raw(functionSignature(o, def))).String()}

	case *model.PermissionDef:
		b := utils.NewSQLBuilder().
			Raw("REVOKE").Raw(strings.Join(def.Privileges, ", ")).
			On(o.ParentName).
			Raw("FROM").Name(def.Grantee)
		return []string{cascade(b).String()}

	case *model.RoleDef:
		return []string{utils.NewSQLBuilder().Drop("ROLE").Name(o.Name).String()}

	case *model.TablespaceDef:
		return []string{utils.NewSQLBuilder().Drop("TABLESPACE").Name(o.Name).String()}
	}

	return []string{cascade(utils.NewSQLBuilder().
		Drop(o.Kind.DDLName()).QualifiedName(o.Schema, o.Name)).String()}
}

// functionSignature renders the drop target for a function: qualified name
// plus the input argument types that identify the overload.
func functionSignature(o *model.Object, def *model.FunctionDef) string {
	types := make([]string, 0, len(def.Arguments))
	for _, a := range def.Arguments {
		if strings.EqualFold(a.Mode, "OUT") {
			continue
		}
		types = append(types, a.Type)
	}
	return utils.QualifiedName(o.Schema, o.Name) + "(" + strings.Join(types, ", ") + ")"
}
