package diff

import (
	"context"
	"fmt"

	goversion "github.com/hashicorp/go-version"
	"github.com/pgdrift/pgdrift/pkg/filter"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pgdrift/pgdrift/pkg/progress"
)

// DiffKind classifies one entry of a diff result.
type DiffKind string

const (
	DiffCreate DiffKind = "create"
	DiffAlter  DiffKind = "alter"
	DiffDrop   DiffKind = "drop"
	DiffIgnore DiffKind = "ignore"
)

type (
	// Entry is one classified difference between the source and target
	// graphs, carrying the SQL statements it contributes to the script.
	// Entries are produced in final emission order.
	Entry struct {
		Kind        DiffKind
		ObjectKind  model.ObjectKind
		Name        string
		Description string
		SQL         []string
		Warning     string
	}

	// Options control classification policy and SQL synthesis for one run.
	Options struct {
		// KeepClusterObjs suppresses statements for roles and tablespaces.
		// Cluster objects are not owned by a single database, so a
		// single-database diff must not drop or recreate them.
		KeepClusterObjs bool

		// CascadeMode makes drops cascade to dependent objects instead of
		// failing on them.
		CascadeMode bool

		// ForceRecreation recreates every object that differs, even when an
		// in-place ALTER could express the change.
		ForceRecreation bool

		// RecreateUnmodifiable allows drop-and-create for differences no
		// ALTER can express. When neither this nor ForceRecreation is set,
		// such differences become Ignore entries with a warning.
		RecreateUnmodifiable bool

		// KeepObjectPerms preserves grants on retained objects and re-emits
		// them after an object is recreated.
		KeepObjectPerms bool

		// ReuseSequences keeps a sequence whose only difference is the
		// owning column, instead of dropping and recreating it.
		ReuseSequences bool

		// PreserveDbName makes the result reference the source database
		// name rather than the target's.
		PreserveDbName bool

		// DontDropMissingObjs turns every would-be drop into an Ignore.
		DontDropMissingObjs bool

		// DropMissingColsConstr narrows DontDropMissingObjs: tables are
		// still protected, but columns and constraints missing from a
		// retained table are dropped. No effect on its own.
		DropMissingColsConstr bool

		// TargetVersion is the server version the script must run on.
		// Empty selects the default supported version.
		TargetVersion string

		// DatabaseName overrides the database name reported in the result.
		DatabaseName string
	}

	// Result is the outcome of one diff run.
	Result struct {
		Entries  []Entry
		Counts   map[DiffKind]int
		Script   []string
		Database string
	}

	// Differ compares a source graph to a target graph and synthesizes the
	// migration script that transforms source into target. It borrows both
	// graphs without mutating them.
	Differ struct {
		source   *model.Graph
		target   *model.Graph
		opts     Options
		version  *goversion.Version
		reporter progress.Reporter
		srcScope *filter.Selection
		tgtScope *filter.Selection
	}

	// change is one matched object pair awaiting SQL synthesis. src or tgt
	// is nil for one-sided changes.
	change struct {
		kind DiffKind
		src  *model.Object
		tgt  *model.Object

		// recreate marks a pair expressed as a drop plus a create.
		recreate bool
		warning  string
	}
)

// New creates a Differ over the two graphs. It fails when the declared target
// server version is unparsable or older than the minimum supported release.
func New(source, target *model.Graph, opts Options) (*Differ, error) {
	v, err := parseTargetVersion(opts.TargetVersion)
	if err != nil {
		return nil, err
	}
	return &Differ{source: source, target: target, opts: opts, version: v}, nil
}

// Scope restricts the run to the given selections. A nil selection means the
// whole graph on that side.
func (d *Differ) Scope(src, tgt *filter.Selection) *Differ {
	d.srcScope, d.tgtScope = src, tgt
	return d
}

// WithReporter sets the progress reporter for the run.
func (d *Differ) WithReporter(r progress.Reporter) *Differ {
	d.reporter = r
	return d
}

// Run classifies every object of both graphs, synthesizes SQL for each
// difference, and returns the entries in dependency-safe emission order.
func (d *Differ) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.checkStructure(); err != nil {
		return nil, err
	}

	var changes []change
	for n, kind := range model.Kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress.Emit(d.reporter, progress.Event{
			Percent:    progress.Scale(n, len(model.Kinds)),
			Message:    fmt.Sprintf("comparing %ss", kind),
			ObjectKind: string(kind),
		})
		changes = append(changes, d.classifyKind(kind)...)
	}

	entries := d.order(changes)

	res := &Result{
		Entries:  entries,
		Counts:   make(map[DiffKind]int, 4),
		Database: d.databaseName(),
	}
	for _, e := range entries {
		res.Counts[e.Kind]++
		res.Script = append(res.Script, e.SQL...)
	}
	progress.Emit(d.reporter, progress.Event{Percent: 100, Message: "comparison complete"})
	return res, nil
}

func (d *Differ) databaseName() string {
	switch {
	case d.opts.DatabaseName != "":
		return d.opts.DatabaseName
	case d.opts.PreserveDbName:
		return d.source.Database
	default:
		if d.target.Database != "" {
			return d.target.Database
		}
		return d.source.Database
	}
}

// classifyKind produces the raw change set for one object kind: target-side
// objects matched against source by signature, then source-side leftovers.
func (d *Differ) classifyKind(kind model.ObjectKind) []change {
	if kind.ClusterScoped() && d.opts.KeepClusterObjs {
		return nil
	}

	var changes []change
	for _, tgt := range d.target.ByKind(kind) {
		if tgt.Bootstrap || !inScope(d.tgtScope, tgt) {
			continue
		}
		src := d.source.Lookup(kind, tgt.Signature())
		if src == nil {
			if c, ok := d.classifyCreate(tgt); ok {
				changes = append(changes, c)
			}
			continue
		}
		changes = append(changes, d.classifyPair(src, tgt))
	}

	for _, src := range d.source.ByKind(kind) {
		if src.Bootstrap || !inScope(d.srcScope, src) {
			continue
		}
		if d.target.Lookup(kind, src.Signature()) != nil {
			continue
		}
		changes = append(changes, d.classifyMissing(src))
	}
	return changes
}

// classifyCreate handles a target-side object with no source counterpart.
// Columns of a table that is itself new are folded into the CREATE TABLE
// statement and produce no entry of their own; a new column on a retained
// table is an alteration of that table.
func (d *Differ) classifyCreate(tgt *model.Object) (change, bool) {
	if w := d.unsupported(tgt); w != "" {
		return change{kind: DiffIgnore, tgt: tgt, warning: w}, true
	}
	if tgt.Kind == model.KindColumn {
		if d.parentIsNew(tgt) {
			return change{}, false
		}
		return change{kind: DiffAlter, tgt: tgt}, true
	}
	return change{kind: DiffCreate, tgt: tgt}, true
}

// classifyMissing handles a source-side object with no target counterpart.
// Children of an object that is itself being dropped are covered by the
// parent's drop and produce no entry of their own.
func (d *Differ) classifyMissing(src *model.Object) change {
	if d.parentIsDropped(src) {
		return change{kind: DiffIgnore, src: src}
	}
	if d.opts.KeepObjectPerms && src.Kind == model.KindPermission {
		return change{kind: DiffIgnore, src: src}
	}
	if d.protectedFromDrop(src) {
		return change{
			kind:    DiffIgnore,
			src:     src,
			warning: "missing from target but drops are disabled",
		}
	}
	return change{kind: DiffDrop, src: src}
}

// protectedFromDrop applies the DontDropMissingObjs policy, narrowed by
// DropMissingColsConstr for columns and constraints of retained tables.
func (d *Differ) protectedFromDrop(src *model.Object) bool {
	if !d.opts.DontDropMissingObjs {
		return false
	}
	if !d.opts.DropMissingColsConstr {
		return true
	}
	if src.Kind != model.KindColumn && src.Kind != model.KindConstraint {
		return true
	}
	// The narrowed policy drops table-level leftovers only when the table
	// itself survives on both sides.
	return d.target.Lookup(model.KindTable, src.ParentName) == nil
}

// classifyPair handles an object present on both sides.
func (d *Differ) classifyPair(src, tgt *model.Object) change {
	if d.equal(src, tgt) {
		return change{kind: DiffIgnore, src: src, tgt: tgt}
	}
	if w := d.unsupported(tgt); w != "" {
		return change{kind: DiffIgnore, src: src, tgt: tgt, warning: w}
	}

	if !d.opts.ForceRecreation {
		if _, ok := d.alterSQL(src, tgt); ok {
			return change{kind: DiffAlter, src: src, tgt: tgt}
		}
	}
	if d.opts.ForceRecreation || d.opts.RecreateUnmodifiable {
		return change{kind: DiffAlter, src: src, tgt: tgt, recreate: true}
	}
	return change{
		kind:    DiffIgnore,
		src:     src,
		tgt:     tgt,
		warning: fmt.Sprintf("%s %s differs but cannot be altered in place", src.Kind, src.Signature()),
	}
}

// equal reports whether a matched pair needs no statement at all: same
// structure, owner, and comment. ReuseSequences additionally treats
// sequences differing only in their owning column as equal.
func (d *Differ) equal(src, tgt *model.Object) bool {
	if src.Owner != tgt.Owner && src.Kind != model.KindPermission {
		return false
	}
	if src.Comment != tgt.Comment {
		return false
	}
	if d.opts.ReuseSequences {
		if a, ok := src.Def.(*model.SequenceDef); ok {
			return a.EqualIgnoringOwner(tgt.Def.(*model.SequenceDef))
		}
	}
	return src.Def.Equal(tgt.Def)
}

// parentIsNew reports whether the object's containing parent exists only in
// the target graph.
func (d *Differ) parentIsNew(tgt *model.Object) bool {
	parent := d.target.Get(tgt.Parent)
	if parent == nil {
		return false
	}
	return d.source.Lookup(parent.Kind, parent.Signature()) == nil
}

// parentIsDropped reports whether the object's containing parent exists only
// in the source graph, meaning its own drop is implied.
func (d *Differ) parentIsDropped(src *model.Object) bool {
	parent := d.source.Get(src.Parent)
	if parent == nil {
		return false
	}
	if d.target.Lookup(parent.Kind, parent.Signature()) != nil {
		return false
	}
	return !d.protectedFromDrop(parent)
}

// checkStructure verifies cross-graph referential invariants before any SQL
// is synthesized: a partition parent or foreign-key target named by either
// graph must exist in at least one of them.
func (d *Differ) checkStructure() error {
	for _, g := range []*model.Graph{d.source, d.target} {
		for _, o := range g.Objects() {
			if o.Bootstrap {
				continue
			}
			switch def := o.Def.(type) {
			case *model.TableDef:
				if def.PartitionOf != "" && !d.tableKnown(def.PartitionOf) {
					return &StructuralError{
						Object: o.Signature(),
						Ref:    def.PartitionOf,
						Reason: "partition parent absent from both graphs",
					}
				}
			case *model.ConstraintDef:
				if def.RefTable != "" && !d.tableKnown(def.RefTable) {
					return &StructuralError{
						Object: o.Signature(),
						Ref:    def.RefTable,
						Reason: "referenced table absent from both graphs",
					}
				}
			}
		}
	}
	return nil
}

func (d *Differ) tableKnown(signature string) bool {
	return d.source.Lookup(model.KindTable, signature) != nil ||
		d.target.Lookup(model.KindTable, signature) != nil
}

func inScope(sel *filter.Selection, o *model.Object) bool {
	return sel == nil || sel.Contains(o.ID)
}
