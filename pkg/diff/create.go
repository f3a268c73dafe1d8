package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pgdrift/pgdrift/pkg/utils"
)

// createSQL synthesizes the CREATE statements for one target-side object.
// Table creates fold their columns in; constraints, indexes, triggers, rules,
// and grants stay separate entries so they can be ordered independently.
func (d *Differ) createSQL(g *model.Graph, o *model.Object) []string {
	switch def := o.Def.(type) {
	case *model.SchemaDef:
		b := utils.NewSQLBuilder().Create("SCHEMA").Name(o.Name)
		if o.Owner != "" {
			b.Raw("AUTHORIZATION").Name(o.Owner)
		}
		return withComment(o, b.String())

	case *model.ExtensionDef:
		b := utils.NewSQLBuilder().Create("EXTENSION").Name(o.Name)
		if o.Schema != "" {
			b.Raw("WITH SCHEMA").Name(o.Schema)
		}
		if def.Version != "" {
			b.Raw("VERSION").Escaped(def.Version)
		}
		return []string{b.String()}

	case *model.LanguageDef:
		kw := "LANGUAGE"
		if def.Trusted {
			kw = "TRUSTED LANGUAGE"
		}
		return []string{utils.NewSQLBuilder().Create(kw).Name(o.Name).String()}

	case *model.TypeDef:
		return d.createTypeSQL(o, def)

	case *model.DomainDef:
		return d.createDomainSQL(o, def)

	case *model.SequenceDef:
		return withComment(o, d.sequenceSQL(o, def, false)...)

	case *model.TableDef:
		return d.createTableSQL(g, o, def)

	case *model.ColumnDef:
		b := utils.NewSQLBuilder().
			Alter("TABLE").Name(o.ParentName).
			Raw("ADD COLUMN").Raw(columnClause(o.Name, def))
		return withComment(o, b.String())

	case *model.ConstraintDef:
		b := utils.NewSQLBuilder().
			Alter("TABLE").Name(o.ParentName).
			Raw("ADD CONSTRAINT").Name(o.Name).
			Raw(constraintClause(def))
		return []string{b.String()}

	case *model.IndexDef:
		return withComment(o, d.createIndexSQL(o, def))

	case *model.TriggerDef:
		return []string{d.triggerSQL(o, def, false)}

	case *model.RuleDef:
		return []string{ruleSQL(o, def)}

	case *model.ViewDef:
		return withComment(o, d.viewSQL(o, def, false))

	case *model.FunctionDef:
		return withComment(o, functionSQL(o, def, true))

	case *model.RoleDef:
		return []string{roleSQL(o, def, false)}

	case *model.TablespaceDef:
		b := utils.NewSQLBuilder().Create("TABLESPACE").Name(o.Name)
		if o.Owner != "" {
			b.Raw("OWNER").Name(o.Owner)
		}
		b.Raw("LOCATION").Escaped(def.Location)
		return []string{b.String()}

	case *model.PermissionDef:
		return []string{grantSQL(o, def)}
	}
	return nil
}

func (d *Differ) createTypeSQL(o *model.Object, def *model.TypeDef) []string {
	b := utils.NewSQLBuilder().Create("TYPE").QualifiedName(o.Schema, o.Name)

	switch def.Category {
	case "ENUM":
		values := make([]string, len(def.EnumValues))
		for n, v := range def.EnumValues {
			values[n] = utils.QuoteLiteral(v)
		}
		b.As("ENUM (" + strings.Join(values, ", ") + ")")
	case "COMPOSITE":
		attrs := make([]string, len(def.Attributes))
		for n, a := range def.Attributes {
			attrs[n] = utils.QuoteIdentifier(a.Name) + " " + a.Type
		}
		b.As("(" + strings.Join(attrs, ", ") + ")")
	case "RANGE":
		b.As("RANGE (subtype = " + def.Subtype + ")")
	}
	return withComment(o, b.String())
}

func (d *Differ) createDomainSQL(o *model.Object, def *model.DomainDef) []string {
	b := utils.NewSQLBuilder().
		Create("DOMAIN").QualifiedName(o.Schema, o.Name).
		As(def.BaseType)
	if def.Default != nil {
		b.Raw("DEFAULT").Raw(*def.Default)
	}
	if def.NotNull {
		b.Raw("NOT NULL")
	}
	for _, c := range def.Checks {
		b.Raw("CONSTRAINT").Name(c.Name).Raw("CHECK (" + c.Expression + ")")
	}
	return withComment(o, b.String())
}

// sequenceSQL renders CREATE SEQUENCE, or the attribute tail of ALTER
// SEQUENCE when altering is true.
func (d *Differ) sequenceSQL(o *model.Object, def *model.SequenceDef, altering bool) []string {
	b := utils.NewSQLBuilder()
	if altering {
		b.Alter("SEQUENCE").QualifiedName(o.Schema, o.Name)
	} else {
		b.Create("SEQUENCE").QualifiedName(o.Schema, o.Name)
	}

	b.Raw(fmt.Sprintf("START WITH %d INCREMENT BY %d MINVALUE %d MAXVALUE %d CACHE %d",
		def.Start, def.Increment, def.MinValue, def.MaxValue, def.Cache))
	if def.Cycle {
		b.Raw("CYCLE")
	} else if altering {
		b.Raw("NO CYCLE")
	}

	stmts := []string{b.String()}
	if def.OwnedBy != "" {
		stmts = append(stmts, utils.NewSQLBuilder().
			Alter("SEQUENCE").QualifiedName(o.Schema, o.Name).
			Raw("OWNED BY").Name(def.OwnedBy).String())
	}
	return stmts
}

func (d *Differ) createTableSQL(g *model.Graph, o *model.Object, def *model.TableDef) []string {
	b := utils.NewSQLBuilder()
	if def.Unlogged {
		b.Create("UNLOGGED TABLE")
	} else {
		b.Create("TABLE")
	}
	b.QualifiedName(o.Schema, o.Name)

	if def.PartitionOf != "" {
		b.Raw("PARTITION OF").Name(def.PartitionOf)
		if def.PartitionBound != "" {
			b.Raw(def.PartitionBound)
		}
	} else {
		var cols []string
		for _, col := range tableColumns(g, o.ID) {
			cols = append(cols, "    "+columnClause(col.Name, col.Def.(*model.ColumnDef)))
		}
		b.Raw("(\n" + strings.Join(cols, ",\n") + "\n)")
	}

	if len(def.Inherits) > 0 {
		parents := make([]string, len(def.Inherits))
		for n, p := range def.Inherits {
			parents[n] = utils.QuoteIdentifier(p)
		}
		b.Raw("INHERITS (" + strings.Join(parents, ", ") + ")")
	}
	if def.PartitionBy != "" {
		b.Raw(def.PartitionBy)
	}
	if def.Tablespace != "" {
		b.Raw("TABLESPACE").Name(def.Tablespace)
	}

	stmts := withComment(o, b.String())

	// Column comments ride along with the table.
	for _, col := range tableColumns(g, o.ID) {
		if col.Comment != "" {
			stmts = append(stmts, commentSQL("COLUMN", col.QualifiedName(), col.Comment))
		}
	}
	return stmts
}

// tableColumns returns a table's columns in declared position order.
func tableColumns(g *model.Graph, id model.ObjectID) []*model.Object {
	cols := g.ChildrenOfKind(id, model.KindColumn)
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].Def.(*model.ColumnDef).Position < cols[j].Def.(*model.ColumnDef).Position
	})
	return cols
}

func (d *Differ) createIndexSQL(o *model.Object, def *model.IndexDef) string {
	b := utils.NewSQLBuilder()
	if def.Unique {
		b.Create("UNIQUE INDEX")
	} else {
		b.Create("INDEX")
	}
	b.Name(o.Name).On(o.ParentName)
	if def.Method != "" {
		b.Raw("USING " + def.Method)
	}
	b.Raw("(" + strings.Join(def.Keys, ", ") + ")")
	if def.Tablespace != "" {
		b.Raw("TABLESPACE").Name(def.Tablespace)
	}
	if def.Predicate != "" {
		b.Raw("WHERE " + def.Predicate)
	}
	return b.String()
}

// triggerSQL renders the trigger create; replace selects CREATE OR REPLACE on
// servers that support it.
func (d *Differ) triggerSQL(o *model.Object, def *model.TriggerDef, replace bool) string {
	kw := "TRIGGER"
	if def.IsConstraint {
		kw = "CONSTRAINT TRIGGER"
	}

	b := utils.NewSQLBuilder()
	if replace {
		b.CreateOrReplace(kw)
	} else {
		b.Create(kw)
	}
	b.Name(o.Name).
		Raw(def.Timing).
		Raw(strings.Join(def.Events, " OR ")).
		On(o.ParentName)
	if def.Deferrable {
		b.Raw("DEFERRABLE INITIALLY DEFERRED")
	}
	if def.ForEachRow {
		b.Raw("FOR EACH ROW")
	} else {
		b.Raw("FOR EACH STATEMENT")
	}
	if def.Condition != "" {
		b.Raw("WHEN (" + def.Condition + ")")
	}

	call := strings.TrimSuffix(def.Function, "()")
	b.Raw("EXECUTE FUNCTION").Raw(utils.QuoteIdentifier(call) + "(" + strings.Join(def.Arguments, ", ") + ")")
	return b.String()
}

func ruleSQL(o *model.Object, def *model.RuleDef) string {
	b := utils.NewSQLBuilder().
		Create("RULE").Name(o.Name).
		As("ON " + def.Event).
		Raw("TO").Name(o.ParentName)
	if def.Condition != "" {
		b.Raw("WHERE " + def.Condition)
	}
	b.Raw("DO")
	if def.Instead {
		b.Raw("INSTEAD")
	}
	if len(def.Commands) == 0 {
		b.Raw("NOTHING")
	} else {
		b.Raw(strings.Join(def.Commands, "; "))
	}
	return b.String()
}

// viewSQL renders a view create; replace is only valid for plain views.
func (d *Differ) viewSQL(o *model.Object, def *model.ViewDef, replace bool) string {
	kw := "VIEW"
	if def.Materialized {
		kw = "MATERIALIZED VIEW"
	}

	b := utils.NewSQLBuilder()
	if replace && !def.Materialized {
		b.CreateOrReplace(kw)
	} else {
		b.Create(kw)
	}
	b.QualifiedName(o.Schema, o.Name)

	if len(def.Columns) > 0 {
		cols := make([]string, len(def.Columns))
		for n, c := range def.Columns {
			cols[n] = utils.QuoteIdentifier(c)
		}
		b.Raw("(" + strings.Join(cols, ", ") + ")")
	}
	b.As(strings.TrimSuffix(strings.TrimSpace(def.Query), ";"))
	if def.CheckOption != "" {
		b.Raw("WITH " + def.CheckOption + " CHECK OPTION")
	}
	return b.String()
}

// functionSQL renders a function or procedure; orReplace is always safe for
// functions since the signature stays fixed.
func functionSQL(o *model.Object, def *model.FunctionDef, orReplace bool) string {
	kw := "FUNCTION"
	if def.IsProcedure {
		kw = "PROCEDURE"
	}

	b := utils.NewSQLBuilder()
	if orReplace {
		b.CreateOrReplace(kw)
	} else {
		b.Create(kw)
	}

	var args []string
	for _, a := range def.Arguments {
		var parts []string
		if a.Mode != "" {
			parts = append(parts, a.Mode)
		}
		if a.Name != "" {
			parts = append(parts, utils.QuoteIdentifier(a.Name))
		}
		parts = append(parts, a.Type)
		if a.Default != "" {
			parts = append(parts, "DEFAULT", a.Default)
		}
		args = append(args, strings.Join(parts, " "))
	}
	b.Raw(utils.QualifiedName(o.Schema, o.Name) + "(" + strings.Join(args, ", ") + ")")

	if !def.IsProcedure && def.Returns != "" {
		returns := def.Returns
		if def.ReturnsSet && !strings.HasPrefix(returns, "SETOF") && !strings.HasPrefix(returns, "TABLE") {
			returns = "SETOF " + returns
		}
		b.Raw("RETURNS " + returns)
	}
	b.Raw("LANGUAGE " + def.Language)
	if !def.IsProcedure && def.Volatility != "" && def.Volatility != "VOLATILE" {
		b.Raw(def.Volatility)
	}
	if def.SecurityDefiner {
		b.Raw("SECURITY DEFINER")
	}
	b.As("$function$\n" + def.Body + "\n$function$")
	return b.String()
}

// roleSQL renders CREATE ROLE, or ALTER ROLE when altering is true; both
// carry the full attribute list.
func roleSQL(o *model.Object, def *model.RoleDef, altering bool) string {
	b := utils.NewSQLBuilder()
	if altering {
		b.Alter("ROLE")
	} else {
		b.Create("ROLE")
	}
	b.Name(o.Name).Raw("WITH")

	b.Raw(roleFlag(def.Login, "LOGIN"))
	b.Raw(roleFlag(def.Superuser, "SUPERUSER"))
	b.Raw(roleFlag(def.CreateDB, "CREATEDB"))
	b.Raw(roleFlag(def.CreateRole, "CREATEROLE"))
	b.Raw(roleFlag(def.Inherit, "INHERIT"))
	b.Raw(roleFlag(def.Replication, "REPLICATION"))
	if def.ConnLimit != 0 && def.ConnLimit != -1 {
		b.Raw(fmt.Sprintf("CONNECTION LIMIT %d", def.ConnLimit))
	}
	if def.ValidUntil != "" {
		b.Raw("VALID UNTIL").Escaped(def.ValidUntil)
	}
	return b.String()
}

func roleFlag(on bool, name string) string {
	if on {
		return name
	}
	return "NO" + name
}

func grantSQL(o *model.Object, def *model.PermissionDef) string {
	b := utils.NewSQLBuilder().
		Raw("GRANT").Raw(strings.Join(def.Privileges, ", ")).
		On(o.ParentName).
		Raw("TO").Name(def.Grantee)
	if def.WithGrant {
		b.Raw("WITH GRANT OPTION")
	}
	return b.String()
}

// columnClause renders one column definition for CREATE TABLE or ADD COLUMN.
func columnClause(name string, def *model.ColumnDef) string {
	parts := []string{utils.QuoteIdentifier(name), def.Type}
	if def.Collation != "" {
		parts = append(parts, "COLLATE", utils.QuoteIdentifier(def.Collation))
	}
	if def.NotNull {
		parts = append(parts, "NOT NULL")
	}
	switch {
	case def.Generated != nil:
		parts = append(parts, "GENERATED ALWAYS AS ("+*def.Generated+") STORED")
	case def.Identity != "":
		parts = append(parts, "GENERATED "+def.Identity+" AS IDENTITY")
	case def.Default != nil:
		parts = append(parts, "DEFAULT", *def.Default)
	}
	return strings.Join(parts, " ")
}

// constraintClause renders the body of a table constraint after its name.
func constraintClause(def *model.ConstraintDef) string {
	var parts []string
	switch def.Type {
	case "CHECK":
		parts = append(parts, "CHECK ("+def.Expression+")")
	case "EXCLUDE":
		parts = append(parts, def.Expression)
	default:
		parts = append(parts, def.Type, "("+quoteAll(def.Columns)+")")
		if def.Type == "FOREIGN KEY" {
			parts = append(parts, "REFERENCES", utils.QuoteIdentifier(def.RefTable),
				"("+quoteAll(def.RefColumns)+")")
			if def.OnUpdate != "" {
				parts = append(parts, "ON UPDATE", def.OnUpdate)
			}
			if def.OnDelete != "" {
				parts = append(parts, "ON DELETE", def.OnDelete)
			}
		}
	}
	if def.Deferrable {
		parts = append(parts, "DEFERRABLE")
		if def.InitiallyDeferred {
			parts = append(parts, "INITIALLY DEFERRED")
		}
	}
	return strings.Join(parts, " ")
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for n, name := range names {
		quoted[n] = utils.QuoteIdentifier(name)
	}
	return strings.Join(quoted, ", ")
}

func commentSQL(kind, name, comment string) string {
	return utils.NewSQLBuilder().
		Raw("COMMENT ON " + kind).Name(name).
		Raw("IS").Escaped(comment).String()
}

// withComment appends a COMMENT ON statement when the object carries one.
func withComment(o *model.Object, stmts ...string) []string {
	if o.Comment == "" {
		return stmts
	}
	kind := o.Kind.DDLName()
	if v, ok := o.Def.(*model.ViewDef); ok && v.Materialized {
		kind = "MATERIALIZED VIEW"
	}
	return append(stmts, commentSQL(kind, o.QualifiedName(), o.Comment))
}
