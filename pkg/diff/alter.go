package diff

import (
	"strings"

	"github.com/pgdrift/pgdrift/pkg/compare"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pgdrift/pgdrift/pkg/utils"
)

// alterFunc synthesizes the in-place statements transforming the source
// object's structure into the target's. The second result is false when no
// ALTER can express the difference and the pair needs a drop and a create.
type alterFunc func(d *Differ, src, tgt *model.Object) ([]string, bool)

// alterFuncs maps every object kind to its in-place alteration rule. A test
// asserts the table covers model.Kinds exactly, so adding a kind without
// deciding its alterability fails fast.
var alterFuncs = map[model.ObjectKind]alterFunc{
	model.KindRole:       alterRole,
	model.KindTablespace: alterTablespace,
	model.KindSchema:     alterNothing,
	model.KindExtension:  alterExtension,
	model.KindLanguage:   alterUnmodifiable,
	model.KindType:       alterType,
	model.KindDomain:     alterDomain,
	model.KindSequence:   alterSequence,
	model.KindTable:      alterTable,
	model.KindColumn:     alterColumn,
	model.KindConstraint: alterConstraint,
	model.KindIndex:      alterIndex,
	model.KindTrigger:    alterTrigger,
	model.KindRule:       alterRule,
	model.KindView:       alterView,
	model.KindFunction:   alterFunction,
	model.KindPermission: alterPermission,
}

// alterSQL synthesizes the full in-place alteration for a matched pair,
// including owner and comment changes. ok is false when the structural
// difference cannot be altered in place.
func (d *Differ) alterSQL(src, tgt *model.Object) ([]string, bool) {
	var stmts []string

	if !d.structurallyEqual(src, tgt) {
		body, ok := alterFuncs[tgt.Kind](d, src, tgt)
		if !ok {
			return nil, false
		}
		stmts = append(stmts, body...)
	}

	if src.Owner != tgt.Owner && tgt.Owner != "" && ownable(tgt.Kind) {
		stmts = append(stmts, utils.NewSQLBuilder().
			Alter(tgt.Kind.DDLName()).Name(tgt.QualifiedName()).
			OwnerTo(tgt.Owner).String())
	}
	if src.Comment != tgt.Comment {
		kind := tgt.Kind.DDLName()
		if v, ok := tgt.Def.(*model.ViewDef); ok && v.Materialized {
			kind = "MATERIALIZED VIEW"
		}
		stmts = append(stmts, commentSQL(kind, tgt.QualifiedName(), tgt.Comment))
	}
	return stmts, true
}

func (d *Differ) structurallyEqual(src, tgt *model.Object) bool {
	if d.opts.ReuseSequences {
		if a, ok := src.Def.(*model.SequenceDef); ok {
			return a.EqualIgnoringOwner(tgt.Def.(*model.SequenceDef))
		}
	}
	return src.Def.Equal(tgt.Def)
}

// ownable reports whether the kind supports ALTER ... OWNER TO.
func ownable(kind model.ObjectKind) bool {
	switch kind {
	case model.KindColumn, model.KindConstraint, model.KindIndex,
		model.KindTrigger, model.KindRule, model.KindPermission, model.KindRole:
		return false
	}
	return true
}

// alterNothing accepts any structural difference without emitting statements.
// Used for kinds whose definition payload is empty.
func alterNothing(*Differ, *model.Object, *model.Object) ([]string, bool) {
	return nil, true
}

// alterUnmodifiable rejects every structural difference.
func alterUnmodifiable(*Differ, *model.Object, *model.Object) ([]string, bool) {
	return nil, false
}

func alterRole(_ *Differ, _, tgt *model.Object) ([]string, bool) {
	return []string{roleSQL(tgt, tgt.Def.(*model.RoleDef), true)}, true
}

// alterTablespace cannot move a tablespace; only ownership changes are
// expressible, and those are handled by the generic owner clause.
func alterTablespace(_ *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.TablespaceDef), tgt.Def.(*model.TablespaceDef)
	return nil, a.Location == b.Location
}

func alterExtension(_ *Differ, _, tgt *model.Object) ([]string, bool) {
	def := tgt.Def.(*model.ExtensionDef)
	b := utils.NewSQLBuilder().Alter("EXTENSION").Name(tgt.Name).Raw("UPDATE")
	if def.Version != "" {
		b.Raw("TO").Escaped(def.Version)
	}
	return []string{b.String()}, true
}

// alterType supports append-only enum growth; every other type change is a
// recreate.
func alterType(_ *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.TypeDef), tgt.Def.(*model.TypeDef)
	if a.Category != "ENUM" || b.Category != "ENUM" {
		return nil, false
	}
	if len(b.EnumValues) < len(a.EnumValues) {
		return nil, false
	}
	for n, v := range a.EnumValues {
		if b.EnumValues[n] != v {
			return nil, false
		}
	}

	var stmts []string
	for _, v := range b.EnumValues[len(a.EnumValues):] {
		stmts = append(stmts, utils.NewSQLBuilder().
			Alter("TYPE").QualifiedName(tgt.Schema, tgt.Name).
			Raw("ADD VALUE").Escaped(v).String())
	}
	return stmts, true
}

func alterDomain(_ *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.DomainDef), tgt.Def.(*model.DomainDef)
	if a.BaseType != b.BaseType {
		return nil, false
	}

	base := func() *utils.SQLBuilder {
		return utils.NewSQLBuilder().Alter("DOMAIN").QualifiedName(tgt.Schema, tgt.Name)
	}

	var stmts []string
	if !compare.Pointers(a.Default, b.Default) {
		if b.Default == nil {
			stmts = append(stmts, base().Raw("DROP DEFAULT").String())
		} else {
			stmts = append(stmts, base().Raw("SET DEFAULT").Raw(*b.Default).String())
		}
	}
	if a.NotNull != b.NotNull {
		if b.NotNull {
			stmts = append(stmts, base().Raw("SET NOT NULL").String())
		} else {
			stmts = append(stmts, base().Raw("DROP NOT NULL").String())
		}
	}

	have := make(map[model.DomainCheck]bool, len(a.Checks))
	for _, c := range a.Checks {
		have[c] = true
	}
	want := make(map[model.DomainCheck]bool, len(b.Checks))
	for _, c := range b.Checks {
		want[c] = true
	}
	for _, c := range a.Checks {
		if !want[c] {
			stmts = append(stmts, base().Raw("DROP CONSTRAINT").Name(c.Name).String())
		}
	}
	for _, c := range b.Checks {
		if !have[c] {
			stmts = append(stmts, base().
				Raw("ADD CONSTRAINT").Name(c.Name).
				Raw("CHECK ("+c.Expression+")").String())
		}
	}
	return stmts, true
}

// alterSequence rewrites every attribute; ALTER SEQUENCE accepts the full
// list, so no per-attribute delta is needed.
func alterSequence(d *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.SequenceDef), tgt.Def.(*model.SequenceDef)
	stmts := d.sequenceSQL(tgt, b, true)
	if a.OwnedBy != "" && b.OwnedBy == "" {
		stmts = append(stmts, utils.NewSQLBuilder().
			Alter("SEQUENCE").QualifiedName(tgt.Schema, tgt.Name).
			Raw("OWNED BY NONE").String())
	}
	return stmts, true
}

func alterTable(_ *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.TableDef), tgt.Def.(*model.TableDef)
	if a.PartitionBy != b.PartitionBy || a.PartitionOf != b.PartitionOf ||
		a.PartitionBound != b.PartitionBound {
		return nil, false
	}

	base := func() *utils.SQLBuilder {
		return utils.NewSQLBuilder().Alter("TABLE").QualifiedName(tgt.Schema, tgt.Name)
	}

	var stmts []string
	if a.Unlogged != b.Unlogged {
		if b.Unlogged {
			stmts = append(stmts, base().Raw("SET UNLOGGED").String())
		} else {
			stmts = append(stmts, base().Raw("SET LOGGED").String())
		}
	}
	if a.Tablespace != b.Tablespace && b.Tablespace != "" {
		stmts = append(stmts, base().Raw("SET TABLESPACE").Name(b.Tablespace).String())
	}

	have := make(map[string]bool, len(a.Inherits))
	for _, p := range a.Inherits {
		have[p] = true
	}
	want := make(map[string]bool, len(b.Inherits))
	for _, p := range b.Inherits {
		want[p] = true
	}
	for _, p := range a.Inherits {
		if !want[p] {
			stmts = append(stmts, base().Raw("NO INHERIT").Name(p).String())
		}
	}
	for _, p := range b.Inherits {
		if !have[p] {
			stmts = append(stmts, base().Raw("INHERIT").Name(p).String())
		}
	}
	return stmts, true
}

func alterColumn(_ *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.ColumnDef), tgt.Def.(*model.ColumnDef)

	// A stored generation expression cannot be changed in place.
	if !compare.Pointers(a.Generated, b.Generated) {
		return nil, false
	}

	base := func() *utils.SQLBuilder {
		return utils.NewSQLBuilder().
			Alter("TABLE").Name(tgt.ParentName).
			Raw("ALTER COLUMN").Name(tgt.Name)
	}

	var stmts []string
	if a.Type != b.Type || a.Collation != b.Collation {
		t := base().Raw("TYPE " + b.Type)
		if b.Collation != "" {
			t.Raw("COLLATE").Name(b.Collation)
		}
		stmts = append(stmts, t.String())
	}
	if !compare.Pointers(a.Default, b.Default) && b.Identity == "" {
		if b.Default == nil {
			stmts = append(stmts, base().Raw("DROP DEFAULT").String())
		} else {
			stmts = append(stmts, base().Raw("SET DEFAULT").Raw(*b.Default).String())
		}
	}
	if a.NotNull != b.NotNull {
		if b.NotNull {
			stmts = append(stmts, base().Raw("SET NOT NULL").String())
		} else {
			stmts = append(stmts, base().Raw("DROP NOT NULL").String())
		}
	}
	if a.Identity != b.Identity {
		switch {
		case b.Identity == "":
			stmts = append(stmts, base().Raw("DROP IDENTITY").String())
		case a.Identity == "":
			stmts = append(stmts, base().Raw("ADD GENERATED "+b.Identity+" AS IDENTITY").String())
		default:
			stmts = append(stmts, base().Raw("SET GENERATED "+b.Identity).String())
		}
	}
	return stmts, true
}

// alterConstraint replaces the constraint under its own name. Dropping a
// constraint discards no table data, so the pair counts as in-place.
func alterConstraint(d *Differ, src, tgt *model.Object) ([]string, bool) {
	drop := utils.NewSQLBuilder().
		Alter("TABLE").Name(tgt.ParentName).
		Raw("DROP CONSTRAINT").Name(tgt.Name)
	if d.opts.CascadeMode {
		drop.Cascade()
	}
	add := utils.NewSQLBuilder().
		Alter("TABLE").Name(tgt.ParentName).
		Raw("ADD CONSTRAINT").Name(tgt.Name).
		Raw(constraintClause(tgt.Def.(*model.ConstraintDef)))
	return []string{drop.String(), add.String()}, true
}

func alterIndex(d *Differ, src, tgt *model.Object) ([]string, bool) {
	drop := utils.NewSQLBuilder().
		Drop("INDEX").QualifiedName(tgt.Schema, tgt.Name)
	if d.opts.CascadeMode {
		drop.Cascade()
	}
	return []string{
		drop.String(),
		d.createIndexSQL(tgt, tgt.Def.(*model.IndexDef)),
	}, true
}

func alterTrigger(d *Differ, src, tgt *model.Object) ([]string, bool) {
	def := tgt.Def.(*model.TriggerDef)
	if d.canReplaceTrigger() {
		return []string{d.triggerSQL(tgt, def, true)}, true
	}
	drop := utils.NewSQLBuilder().
		Drop("TRIGGER").Name(tgt.Name).On(tgt.ParentName)
	return []string{drop.String(), d.triggerSQL(tgt, def, false)}, true
}

func alterRule(_ *Differ, src, tgt *model.Object) ([]string, bool) {
	def := tgt.Def.(*model.RuleDef)
	sql := ruleSQL(tgt, def)
	return []string{strings.Replace(sql, "CREATE RULE", "CREATE OR REPLACE RULE", 1)}, true
}

// alterView handles plain views through CREATE OR REPLACE, which requires the
// declared column list to only grow. Materialized views hold data and are a
// recreate.
func alterView(d *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.ViewDef), tgt.Def.(*model.ViewDef)
	if a.Materialized || b.Materialized {
		return nil, false
	}
	if len(b.Columns) >= len(a.Columns) {
		compatible := true
		for n, c := range a.Columns {
			if b.Columns[n] != c {
				compatible = false
				break
			}
		}
		if compatible {
			return []string{d.viewSQL(tgt, b, true)}, true
		}
	}

	drop := utils.NewSQLBuilder().Drop("VIEW").QualifiedName(tgt.Schema, tgt.Name)
	if d.opts.CascadeMode {
		drop.Cascade()
	}
	return []string{drop.String(), d.viewSQL(tgt, b, false)}, true
}

// alterFunction relies on CREATE OR REPLACE, which cannot change the return
// type or turn a function into a procedure.
func alterFunction(_ *Differ, src, tgt *model.Object) ([]string, bool) {
	a, b := src.Def.(*model.FunctionDef), tgt.Def.(*model.FunctionDef)
	if a.IsProcedure != b.IsProcedure || a.Returns != b.Returns || a.ReturnsSet != b.ReturnsSet {
		return nil, false
	}
	return []string{functionSQL(tgt, b, true)}, true
}

func alterPermission(d *Differ, src, tgt *model.Object) ([]string, bool) {
	def := tgt.Def.(*model.PermissionDef)
	revoke := utils.NewSQLBuilder().
		Raw("REVOKE ALL").On(tgt.ParentName).
		Raw("FROM").Name(def.Grantee)
	if d.opts.CascadeMode {
		revoke.Cascade()
	}
	return []string{revoke.String(), grantSQL(tgt, def)}, true
}
