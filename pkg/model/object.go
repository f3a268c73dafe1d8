package model

import "strings"

// ObjectID is a stable arena index identifying one object inside a Graph.
// Dependency and containment edges are stored as ObjectIDs, never as
// pointers, so forward references recorded during import cannot dangle.
type ObjectID int

// NoObject is the zero reference: no parent, or an unresolved slot.
// IDs are 1-based so the zero value of Parent means "no parent".
const NoObject ObjectID = 0

// Object is one node of a schema graph: a single database entity with the
// structural attributes needed to regenerate its DDL.
//
// Uniqueness invariant: Signature() is unique within (Kind, containing
// schema). For overloadable kinds the signature carries argument types, so
// two overloads of the same function name are distinct nodes.
type Object struct {
	// ID is the object's arena index, assigned by Graph.Add.
	ID ObjectID

	// Kind is the closed variant tag.
	Kind ObjectKind

	// Schema is the containing schema name, empty for cluster and
	// database-global kinds.
	Schema string

	// Name is the unqualified display name.
	Name string

	// OID is the catalog identifier, present only for catalog-origin nodes.
	OID uint32

	// Owner is the owning role name.
	Owner string

	// Comment is the object's comment, if any.
	Comment string

	// Bootstrap marks objects materialized at graph construction (default
	// schemas, built-in types, the default language). Bootstrap objects are
	// never diffed.
	Bootstrap bool

	// Parent is the containment edge: a table owns its columns, constraints,
	// indexes, triggers, and rules; a permission's parent is the object it
	// grants on. NoObject for top-level objects.
	Parent ObjectID

	// ParentName is the qualified name (or signature) of the parent,
	// duplicated here so a serialized object remains self-describing.
	ParentName string

	// DependsOn lists reference edges: objects whose DDL must exist before
	// this object's DDL can run. Containment is not repeated here.
	DependsOn []ObjectID

	// Def is the per-kind structural payload.
	Def Definition
}

// QualifiedName returns "schema.name" for schema-scoped objects and the bare
// name otherwise. Table children are qualified by their parent table.
func (o *Object) QualifiedName() string {
	if o.Kind.TableChild() || o.Kind == KindPermission {
		if o.ParentName != "" {
			return o.ParentName + "." + o.Name
		}
		return o.Name
	}
	if o.Schema != "" {
		return o.Schema + "." + o.Name
	}
	return o.Name
}

// Signature returns the identity string used for matching objects between
// graphs. For overloadable kinds this includes the argument type list; for
// everything else it equals QualifiedName.
func (o *Object) Signature() string {
	if !o.Kind.Overloadable() {
		return o.QualifiedName()
	}

	fn, ok := o.Def.(*FunctionDef)
	if !ok {
		return o.QualifiedName() + "()"
	}

	types := make([]string, 0, len(fn.Arguments))
	for _, arg := range fn.Arguments {
		// OUT arguments do not participate in the identity of a function.
		if strings.EqualFold(arg.Mode, "OUT") {
			continue
		}
		types = append(types, arg.Type)
	}
	return o.QualifiedName() + "(" + strings.Join(types, ",") + ")"
}

// Key returns the arena lookup key for this object.
func (o *Object) Key() Key {
	return Key{Kind: o.Kind, Signature: o.Signature()}
}

// Key identifies one object within a graph by kind and signature.
type Key struct {
	Kind      ObjectKind
	Signature string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.Signature
}

// ParseKey parses the "kind:signature" form produced by Key.String.
func ParseKey(s string) (Key, bool) {
	kind, sig, ok := strings.Cut(s, ":")
	if !ok || kind == "" || sig == "" {
		return Key{}, false
	}
	return Key{Kind: ObjectKind(kind), Signature: sig}, true
}
