package model

import "github.com/pgdrift/pgdrift/pkg/compare"

type (
	// Definition is the per-kind structural payload of a SchemaObject. It
	// holds the attributes needed to regenerate DDL for the object, never raw
	// statement text. The set of implementations is closed; isDefinition is
	// unexported so no other package can add a variant.
	Definition interface {
		isDefinition()

		// Equal reports whether the other definition has the same structure.
		// The argument is expected to be the same concrete type; a mismatch
		// compares unequal.
		Equal(other Definition) bool
	}

	// SchemaDef describes a schema (namespace).
	SchemaDef struct{}

	// ExtensionDef describes an installed extension.
	ExtensionDef struct {
		Version string `yaml:"version,omitempty"`
	}

	// LanguageDef describes a procedural language.
	LanguageDef struct {
		Trusted bool `yaml:"trusted,omitempty"`
	}

	// TypeDef describes a user-defined type: an enum, a composite, or a range.
	TypeDef struct {
		Category   string          `yaml:"category"`
		EnumValues []string        `yaml:"enum_values,omitempty"`
		Attributes []TypeAttribute `yaml:"attributes,omitempty"`
		Subtype    string          `yaml:"subtype,omitempty"`
	}

	// TypeAttribute is one attribute of a composite type.
	TypeAttribute struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}

	// DomainDef describes a domain over a base type.
	DomainDef struct {
		BaseType string        `yaml:"base_type"`
		Default  *string       `yaml:"default,omitempty"`
		NotNull  bool          `yaml:"not_null,omitempty"`
		Checks   []DomainCheck `yaml:"checks,omitempty"`
	}

	// DomainCheck is a named check constraint attached to a domain.
	DomainCheck struct {
		Name       string `yaml:"name"`
		Expression string `yaml:"expression"`
	}

	// SequenceDef describes a sequence. OwnedBy carries the qualified
	// "schema.table.column" of the owning identity/serial column, or empty.
	SequenceDef struct {
		Start     int64  `yaml:"start"`
		Increment int64  `yaml:"increment"`
		MinValue  int64  `yaml:"min_value"`
		MaxValue  int64  `yaml:"max_value"`
		Cache     int64  `yaml:"cache"`
		Cycle     bool   `yaml:"cycle,omitempty"`
		OwnedBy   string `yaml:"owned_by,omitempty"`
	}

	// TableDef describes a table. Columns, constraints, indexes, triggers,
	// and rules are separate child objects, not part of this payload.
	TableDef struct {
		Unlogged       bool     `yaml:"unlogged,omitempty"`
		Inherits       []string `yaml:"inherits,omitempty"`
		PartitionBy    string   `yaml:"partition_by,omitempty"`
		PartitionOf    string   `yaml:"partition_of,omitempty"`
		PartitionBound string   `yaml:"partition_bound,omitempty"`
		Tablespace     string   `yaml:"tablespace,omitempty"`
	}

	// ColumnDef describes a table column. Position orders columns inside
	// CREATE TABLE output and is excluded from structural comparison.
	ColumnDef struct {
		Type      string  `yaml:"type"`
		NotNull   bool    `yaml:"not_null,omitempty"`
		Default   *string `yaml:"default,omitempty"`
		Collation string  `yaml:"collation,omitempty"`
		Identity  string  `yaml:"identity,omitempty"`
		Generated *string `yaml:"generated,omitempty"`
		Position  int     `yaml:"position,omitempty"`
	}

	// ConstraintDef describes a table constraint.
	ConstraintDef struct {
		Type              string   `yaml:"type"`
		Columns           []string `yaml:"columns,omitempty"`
		Expression        string   `yaml:"expression,omitempty"`
		RefTable          string   `yaml:"ref_table,omitempty"`
		RefColumns        []string `yaml:"ref_columns,omitempty"`
		OnUpdate          string   `yaml:"on_update,omitempty"`
		OnDelete          string   `yaml:"on_delete,omitempty"`
		Deferrable        bool     `yaml:"deferrable,omitempty"`
		InitiallyDeferred bool     `yaml:"initially_deferred,omitempty"`
	}

	// IndexDef describes an index. Keys are column names or expressions.
	IndexDef struct {
		Method     string   `yaml:"method"`
		Keys       []string `yaml:"keys"`
		Unique     bool     `yaml:"unique,omitempty"`
		Predicate  string   `yaml:"predicate,omitempty"`
		Tablespace string   `yaml:"tablespace,omitempty"`
	}

	// TriggerDef describes a trigger. Function is the qualified signature of
	// the trigger function.
	TriggerDef struct {
		Timing       string   `yaml:"timing"`
		Events       []string `yaml:"events"`
		ForEachRow   bool     `yaml:"for_each_row,omitempty"`
		Condition    string   `yaml:"condition,omitempty"`
		Function     string   `yaml:"function"`
		Arguments    []string `yaml:"arguments,omitempty"`
		IsConstraint bool     `yaml:"is_constraint,omitempty"`
		Deferrable   bool     `yaml:"deferrable,omitempty"`
	}

	// RuleDef describes a rewrite rule.
	RuleDef struct {
		Event     string   `yaml:"event"`
		Instead   bool     `yaml:"instead,omitempty"`
		Condition string   `yaml:"condition,omitempty"`
		Commands  []string `yaml:"commands,omitempty"`
	}

	// ViewDef describes a view or materialized view.
	ViewDef struct {
		Query        string   `yaml:"query"`
		Materialized bool     `yaml:"materialized,omitempty"`
		Columns      []string `yaml:"columns,omitempty"`
		CheckOption  string   `yaml:"check_option,omitempty"`
	}

	// FunctionDef describes a function or procedure.
	FunctionDef struct {
		Language        string        `yaml:"language"`
		Returns         string        `yaml:"returns,omitempty"`
		ReturnsSet      bool          `yaml:"returns_set,omitempty"`
		Arguments       []FunctionArg `yaml:"arguments,omitempty"`
		Body            string        `yaml:"body"`
		IsProcedure     bool          `yaml:"is_procedure,omitempty"`
		Volatility      string        `yaml:"volatility,omitempty"`
		SecurityDefiner bool          `yaml:"security_definer,omitempty"`
	}

	// FunctionArg is one declared argument of a function or procedure.
	FunctionArg struct {
		Name    string `yaml:"name,omitempty"`
		Type    string `yaml:"type"`
		Mode    string `yaml:"mode,omitempty"`
		Default string `yaml:"default,omitempty"`
	}

	// RoleDef describes a cluster role.
	RoleDef struct {
		Login       bool   `yaml:"login,omitempty"`
		Superuser   bool   `yaml:"superuser,omitempty"`
		CreateDB    bool   `yaml:"create_db,omitempty"`
		CreateRole  bool   `yaml:"create_role,omitempty"`
		Inherit     bool   `yaml:"inherit,omitempty"`
		Replication bool   `yaml:"replication,omitempty"`
		ConnLimit   int    `yaml:"conn_limit,omitempty"`
		ValidUntil  string `yaml:"valid_until,omitempty"`
	}

	// TablespaceDef describes a cluster tablespace.
	TablespaceDef struct {
		Location string `yaml:"location"`
	}

	// PermissionDef describes one grant on the parent object.
	PermissionDef struct {
		Grantee    string   `yaml:"grantee"`
		Privileges []string `yaml:"privileges"`
		WithGrant  bool     `yaml:"with_grant,omitempty"`
	}
)

// NewDefinition returns the empty definition payload for a kind. Every kind
// in Kinds has one; an unknown kind returns nil.
func NewDefinition(kind ObjectKind) Definition {
	switch kind {
	case KindSchema:
		return &SchemaDef{}
	case KindExtension:
		return &ExtensionDef{}
	case KindLanguage:
		return &LanguageDef{}
	case KindType:
		return &TypeDef{}
	case KindDomain:
		return &DomainDef{}
	case KindSequence:
		return &SequenceDef{}
	case KindTable:
		return &TableDef{}
	case KindColumn:
		return &ColumnDef{}
	case KindConstraint:
		return &ConstraintDef{}
	case KindIndex:
		return &IndexDef{}
	case KindTrigger:
		return &TriggerDef{}
	case KindRule:
		return &RuleDef{}
	case KindView:
		return &ViewDef{}
	case KindFunction:
		return &FunctionDef{}
	case KindRole:
		return &RoleDef{}
	case KindTablespace:
		return &TablespaceDef{}
	case KindPermission:
		return &PermissionDef{}
	}
	return nil
}

func (*SchemaDef) isDefinition()     {}
func (*ExtensionDef) isDefinition()  {}
func (*LanguageDef) isDefinition()   {}
func (*TypeDef) isDefinition()       {}
func (*DomainDef) isDefinition()     {}
func (*SequenceDef) isDefinition()   {}
func (*TableDef) isDefinition()      {}
func (*ColumnDef) isDefinition()     {}
func (*ConstraintDef) isDefinition() {}
func (*IndexDef) isDefinition()      {}
func (*TriggerDef) isDefinition()    {}
func (*RuleDef) isDefinition()       {}
func (*ViewDef) isDefinition()       {}
func (*FunctionDef) isDefinition()   {}
func (*RoleDef) isDefinition()       {}
func (*TablespaceDef) isDefinition() {}
func (*PermissionDef) isDefinition() {}

// Equal implements Definition.
func (d *SchemaDef) Equal(other Definition) bool {
	_, ok := other.(*SchemaDef)
	return ok
}

// Equal implements Definition.
func (d *ExtensionDef) Equal(other Definition) bool {
	o, ok := other.(*ExtensionDef)
	return ok && d.Version == o.Version
}

// Equal implements Definition.
func (d *LanguageDef) Equal(other Definition) bool {
	o, ok := other.(*LanguageDef)
	return ok && d.Trusted == o.Trusted
}

// Equal implements Definition.
func (d *TypeDef) Equal(other Definition) bool {
	o, ok := other.(*TypeDef)
	if !ok {
		return false
	}
	return d.Category == o.Category &&
		d.Subtype == o.Subtype &&
		compare.Slices(d.EnumValues, o.EnumValues, func(a, b string) bool { return a == b }) &&
		compare.Slices(d.Attributes, o.Attributes, func(a, b TypeAttribute) bool { return a == b })
}

// Equal implements Definition.
func (d *DomainDef) Equal(other Definition) bool {
	o, ok := other.(*DomainDef)
	if !ok {
		return false
	}
	return d.BaseType == o.BaseType &&
		d.NotNull == o.NotNull &&
		compare.Pointers(d.Default, o.Default) &&
		compare.SlicesUnordered(d.Checks, o.Checks, func(a, b DomainCheck) bool { return a == b })
}

// Equal implements Definition.
func (d *SequenceDef) Equal(other Definition) bool {
	o, ok := other.(*SequenceDef)
	if !ok {
		return false
	}
	return d.Start == o.Start &&
		d.Increment == o.Increment &&
		d.MinValue == o.MinValue &&
		d.MaxValue == o.MaxValue &&
		d.Cache == o.Cache &&
		d.Cycle == o.Cycle &&
		d.OwnedBy == o.OwnedBy
}

// EqualIgnoringOwner reports structural equality disregarding which column
// owns the sequence. Used by the ReuseSequences diff option.
func (d *SequenceDef) EqualIgnoringOwner(o *SequenceDef) bool {
	if eq, more := compare.NilCheck(d, o); !more {
		return eq
	}
	a, b := *d, *o
	a.OwnedBy, b.OwnedBy = "", ""
	return a.Equal(&b)
}

// Equal implements Definition.
func (d *TableDef) Equal(other Definition) bool {
	o, ok := other.(*TableDef)
	if !ok {
		return false
	}
	return d.Unlogged == o.Unlogged &&
		d.PartitionBy == o.PartitionBy &&
		d.PartitionOf == o.PartitionOf &&
		d.PartitionBound == o.PartitionBound &&
		d.Tablespace == o.Tablespace &&
		compare.Slices(d.Inherits, o.Inherits, func(a, b string) bool { return a == b })
}

// Equal implements Definition. Position is deliberately excluded: column
// order differences alone do not produce a diff.
func (d *ColumnDef) Equal(other Definition) bool {
	o, ok := other.(*ColumnDef)
	if !ok {
		return false
	}
	return d.Type == o.Type &&
		d.NotNull == o.NotNull &&
		d.Collation == o.Collation &&
		d.Identity == o.Identity &&
		compare.Pointers(d.Default, o.Default) &&
		compare.Pointers(d.Generated, o.Generated)
}

// Equal implements Definition.
func (d *ConstraintDef) Equal(other Definition) bool {
	o, ok := other.(*ConstraintDef)
	if !ok {
		return false
	}
	eqStr := func(a, b string) bool { return a == b }
	return d.Type == o.Type &&
		d.Expression == o.Expression &&
		d.RefTable == o.RefTable &&
		d.OnUpdate == o.OnUpdate &&
		d.OnDelete == o.OnDelete &&
		d.Deferrable == o.Deferrable &&
		d.InitiallyDeferred == o.InitiallyDeferred &&
		compare.Slices(d.Columns, o.Columns, eqStr) &&
		compare.Slices(d.RefColumns, o.RefColumns, eqStr)
}

// Equal implements Definition.
func (d *IndexDef) Equal(other Definition) bool {
	o, ok := other.(*IndexDef)
	if !ok {
		return false
	}
	return d.Method == o.Method &&
		d.Unique == o.Unique &&
		d.Predicate == o.Predicate &&
		d.Tablespace == o.Tablespace &&
		compare.Slices(d.Keys, o.Keys, func(a, b string) bool { return a == b })
}

// Equal implements Definition.
func (d *TriggerDef) Equal(other Definition) bool {
	o, ok := other.(*TriggerDef)
	if !ok {
		return false
	}
	eqStr := func(a, b string) bool { return a == b }
	return d.Timing == o.Timing &&
		d.ForEachRow == o.ForEachRow &&
		d.Condition == o.Condition &&
		d.Function == o.Function &&
		d.IsConstraint == o.IsConstraint &&
		d.Deferrable == o.Deferrable &&
		compare.SlicesUnordered(d.Events, o.Events, eqStr) &&
		compare.Slices(d.Arguments, o.Arguments, eqStr)
}

// Equal implements Definition.
func (d *RuleDef) Equal(other Definition) bool {
	o, ok := other.(*RuleDef)
	if !ok {
		return false
	}
	return d.Event == o.Event &&
		d.Instead == o.Instead &&
		d.Condition == o.Condition &&
		compare.Slices(d.Commands, o.Commands, func(a, b string) bool { return a == b })
}

// Equal implements Definition.
func (d *ViewDef) Equal(other Definition) bool {
	o, ok := other.(*ViewDef)
	if !ok {
		return false
	}
	return d.Query == o.Query &&
		d.Materialized == o.Materialized &&
		d.CheckOption == o.CheckOption &&
		compare.Slices(d.Columns, o.Columns, func(a, b string) bool { return a == b })
}

// Equal implements Definition.
func (d *FunctionDef) Equal(other Definition) bool {
	o, ok := other.(*FunctionDef)
	if !ok {
		return false
	}
	return d.Language == o.Language &&
		d.Returns == o.Returns &&
		d.ReturnsSet == o.ReturnsSet &&
		d.Body == o.Body &&
		d.IsProcedure == o.IsProcedure &&
		d.Volatility == o.Volatility &&
		d.SecurityDefiner == o.SecurityDefiner &&
		compare.Slices(d.Arguments, o.Arguments, func(a, b FunctionArg) bool { return a == b })
}

// Equal implements Definition.
func (d *RoleDef) Equal(other Definition) bool {
	o, ok := other.(*RoleDef)
	return ok && *d == *o
}

// Equal implements Definition.
func (d *TablespaceDef) Equal(other Definition) bool {
	o, ok := other.(*TablespaceDef)
	return ok && *d == *o
}

// Equal implements Definition.
func (d *PermissionDef) Equal(other Definition) bool {
	o, ok := other.(*PermissionDef)
	if !ok {
		return false
	}
	return d.Grantee == o.Grantee &&
		d.WithGrant == o.WithGrant &&
		compare.SlicesUnordered(d.Privileges, o.Privileges, func(a, b string) bool { return a == b })
}
