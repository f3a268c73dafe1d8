package model

// ObjectKind identifies the database entity a SchemaObject represents.
// The set is closed: the diff engine dispatches on it through per-kind tables
// and a test asserts every kind is handled.
type ObjectKind string

const (
	KindRole       ObjectKind = "role"
	KindTablespace ObjectKind = "tablespace"
	KindSchema     ObjectKind = "schema"
	KindExtension  ObjectKind = "extension"
	KindLanguage   ObjectKind = "language"
	KindType       ObjectKind = "type"
	KindDomain     ObjectKind = "domain"
	KindSequence   ObjectKind = "sequence"
	KindTable      ObjectKind = "table"
	KindColumn     ObjectKind = "column"
	KindConstraint ObjectKind = "constraint"
	KindIndex      ObjectKind = "index"
	KindTrigger    ObjectKind = "trigger"
	KindRule       ObjectKind = "rule"
	KindView       ObjectKind = "view"
	KindFunction   ObjectKind = "function"
	KindPermission ObjectKind = "permission"
)

// Kinds lists every object kind in creation-tier order: an object of a given
// kind never depends on an object of a later kind, except through reference
// edges the graph tracks explicitly (e.g. a view reading a later-created
// function is still a reference edge, not a tier violation the importer
// relies on).
var Kinds = []ObjectKind{
	KindRole,
	KindTablespace,
	KindSchema,
	KindExtension,
	KindLanguage,
	KindType,
	KindDomain,
	KindSequence,
	KindTable,
	KindColumn,
	KindConstraint,
	KindIndex,
	KindTrigger,
	KindRule,
	KindView,
	KindFunction,
	KindPermission,
}

// ClusterScoped reports whether objects of this kind are owned by the cluster
// rather than by a single database. Cluster objects are suppressed from diff
// output when the KeepClusterObjs option is set.
func (k ObjectKind) ClusterScoped() bool {
	return k == KindRole || k == KindTablespace
}

// TableChild reports whether objects of this kind are contained by a table.
func (k ObjectKind) TableChild() bool {
	switch k {
	case KindColumn, KindConstraint, KindIndex, KindTrigger, KindRule:
		return true
	}
	return false
}

// Overloadable reports whether objects of this kind are identified by a full
// signature (name plus argument types) rather than by name alone.
func (k ObjectKind) Overloadable() bool {
	return k == KindFunction
}

// SchemaScoped reports whether objects of this kind live inside a schema.
func (k ObjectKind) SchemaScoped() bool {
	switch k {
	case KindRole, KindTablespace, KindSchema, KindExtension, KindLanguage:
		return false
	}
	return true
}

// DDLName returns the keyword used for this kind in DDL statements.
func (k ObjectKind) DDLName() string {
	switch k {
	case KindRole:
		return "ROLE"
	case KindTablespace:
		return "TABLESPACE"
	case KindSchema:
		return "SCHEMA"
	case KindExtension:
		return "EXTENSION"
	case KindLanguage:
		return "LANGUAGE"
	case KindType:
		return "TYPE"
	case KindDomain:
		return "DOMAIN"
	case KindSequence:
		return "SEQUENCE"
	case KindTable:
		return "TABLE"
	case KindColumn:
		return "COLUMN"
	case KindConstraint:
		return "CONSTRAINT"
	case KindIndex:
		return "INDEX"
	case KindTrigger:
		return "TRIGGER"
	case KindRule:
		return "RULE"
	case KindView:
		return "VIEW"
	case KindFunction:
		return "FUNCTION"
	case KindPermission:
		return "GRANT"
	}
	return string(k)
}
