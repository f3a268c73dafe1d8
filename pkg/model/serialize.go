package model

import (
	"io"
	"os"

	"github.com/pgdrift/pgdrift/pkg/consts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// fileModel is the on-disk YAML form of a schema graph. Objects appear in
	// arena order, so parents always precede their children and most
	// references resolve immediately on load; the rest go through the same
	// deferred-binding slots a catalog import uses.
	fileModel struct {
		Database  string        `yaml:"database,omitempty"`
		PgVersion string        `yaml:"pg_version,omitempty"`
		Objects   []*fileObject `yaml:"objects"`
	}

	fileObject struct {
		Kind      string   `yaml:"kind"`
		Schema    string   `yaml:"schema,omitempty"`
		Name      string   `yaml:"name"`
		Owner     string   `yaml:"owner,omitempty"`
		Comment   string   `yaml:"comment,omitempty"`
		Parent    string   `yaml:"parent,omitempty"`
		DependsOn []string `yaml:"depends_on,omitempty"`

		Extension  *ExtensionDef  `yaml:"extension,omitempty"`
		Language   *LanguageDef   `yaml:"language,omitempty"`
		Type       *TypeDef       `yaml:"type,omitempty"`
		Domain     *DomainDef     `yaml:"domain,omitempty"`
		Sequence   *SequenceDef   `yaml:"sequence,omitempty"`
		Table      *TableDef      `yaml:"table,omitempty"`
		Column     *ColumnDef     `yaml:"column,omitempty"`
		Constraint *ConstraintDef `yaml:"constraint,omitempty"`
		Index      *IndexDef      `yaml:"index,omitempty"`
		Trigger    *TriggerDef    `yaml:"trigger,omitempty"`
		Rule       *RuleDef       `yaml:"rule,omitempty"`
		View       *ViewDef       `yaml:"view,omitempty"`
		Function   *FunctionDef   `yaml:"function,omitempty"`
		Role       *RoleDef       `yaml:"role,omitempty"`
		Tablespace *TablespaceDef `yaml:"tablespace,omitempty"`
		Permission *PermissionDef `yaml:"permission,omitempty"`
	}
)

// Save writes the graph to w as a YAML design-model document. Bootstrap
// objects are omitted: they are reconstructed by NewGraph on load.
func Save(w io.Writer, g *Graph) error {
	fm := &fileModel{
		Database:  g.Database,
		PgVersion: g.ServerVersion,
	}

	for _, o := range g.Objects() {
		if o.Bootstrap {
			continue
		}

		fo := &fileObject{
			Kind:    string(o.Kind),
			Schema:  o.Schema,
			Name:    o.Name,
			Owner:   o.Owner,
			Comment: o.Comment,
		}

		if parent := g.Get(o.Parent); parent != nil {
			fo.Parent = parent.Key().String()
		}
		for _, depID := range o.DependsOn {
			if dep := g.Get(depID); dep != nil {
				fo.DependsOn = append(fo.DependsOn, dep.Key().String())
			}
		}

		fo.setDefinition(o.Def)
		fm.Objects = append(fm.Objects, fo)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return errors.Wrap(enc.Close(), "failed to finalize model document")
}

// SaveFile writes the graph to a YAML design-model file.
func SaveFile(path string, g *Graph) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, consts.ModeFile)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return Save(f, g)
}

// Load reads a YAML design-model document and rebuilds the schema graph,
// bootstrap objects included.
func Load(r io.Reader) (*Graph, error) {
	var fm fileModel
	if err := yaml.NewDecoder(r).Decode(&fm); err != nil {
		return nil, errors.Wrap(err, "failed to decode model")
	}

	g := NewGraph()
	g.Database = fm.Database
	g.ServerVersion = fm.PgVersion

	type deferredDeps struct {
		id   ObjectID
		keys []string
	}
	var deps []deferredDeps

	for _, fo := range fm.Objects {
		o := &Object{
			Kind:    ObjectKind(fo.Kind),
			Schema:  fo.Schema,
			Name:    fo.Name,
			Owner:   fo.Owner,
			Comment: fo.Comment,
			Def:     fo.definition(),
		}

		if fo.Parent != "" {
			key, ok := ParseKey(fo.Parent)
			if !ok {
				return nil, errors.Errorf("invalid parent reference %q on %s", fo.Parent, fo.Name)
			}
			parent := g.Lookup(key.Kind, key.Signature)
			if parent == nil {
				return nil, errors.Errorf("parent %s of %s not defined before its child", fo.Parent, fo.Name)
			}
			o.Parent = parent.ID
			o.ParentName = parent.QualifiedName()
		}

		id, err := g.Add(o)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load model object")
		}
		if len(fo.DependsOn) > 0 {
			deps = append(deps, deferredDeps{id: id, keys: fo.DependsOn})
		}
	}

	for _, d := range deps {
		for _, raw := range d.keys {
			key, ok := ParseKey(raw)
			if !ok {
				return nil, errors.Errorf("invalid dependency reference %q", raw)
			}
			g.AddDependency(d.id, key)
		}
	}

	if err := g.ResolvePending(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadFile reads a schema graph from a YAML design-model file.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open model file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

func (fo *fileObject) setDefinition(def Definition) {
	switch d := def.(type) {
	case *ExtensionDef:
		fo.Extension = d
	case *LanguageDef:
		fo.Language = d
	case *TypeDef:
		fo.Type = d
	case *DomainDef:
		fo.Domain = d
	case *SequenceDef:
		fo.Sequence = d
	case *TableDef:
		fo.Table = d
	case *ColumnDef:
		fo.Column = d
	case *ConstraintDef:
		fo.Constraint = d
	case *IndexDef:
		fo.Index = d
	case *TriggerDef:
		fo.Trigger = d
	case *RuleDef:
		fo.Rule = d
	case *ViewDef:
		fo.View = d
	case *FunctionDef:
		fo.Function = d
	case *RoleDef:
		fo.Role = d
	case *TablespaceDef:
		fo.Tablespace = d
	case *PermissionDef:
		fo.Permission = d
	case *SchemaDef, nil:
		// SchemaDef carries no attributes; reconstructed on load.
	}
}

func (fo *fileObject) definition() Definition {
	switch {
	case fo.Extension != nil:
		return fo.Extension
	case fo.Language != nil:
		return fo.Language
	case fo.Type != nil:
		return fo.Type
	case fo.Domain != nil:
		return fo.Domain
	case fo.Sequence != nil:
		return fo.Sequence
	case fo.Table != nil:
		return fo.Table
	case fo.Column != nil:
		return fo.Column
	case fo.Constraint != nil:
		return fo.Constraint
	case fo.Index != nil:
		return fo.Index
	case fo.Trigger != nil:
		return fo.Trigger
	case fo.Rule != nil:
		return fo.Rule
	case fo.View != nil:
		return fo.View
	case fo.Function != nil:
		return fo.Function
	case fo.Role != nil:
		return fo.Role
	case fo.Tablespace != nil:
		return fo.Tablespace
	case fo.Permission != nil:
		return fo.Permission
	}
	return NewDefinition(ObjectKind(fo.Kind))
}
