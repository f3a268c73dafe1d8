package diff

import (
	"fmt"
	"sort"

	"github.com/pgdrift/pgdrift/pkg/model"
)

// kindTier maps each kind to its position in the creation-tier order, used as
// the primary tie-break for deterministic output.
var kindTier = func() map[model.ObjectKind]int {
	m := make(map[model.ObjectKind]int, len(model.Kinds))
	for n, k := range model.Kinds {
		m[k] = n
	}
	return m
}()

// order arranges the raw change set into final emission order and synthesizes
// the SQL for every entry. The sequence is: drops in reverse dependency order
// with constraints detached first, then creates in dependency order with
// constraint creation deferred to a second pass so cyclic foreign keys cannot
// deadlock the sort, then in-place alters, then the deferred constraints, and
// finally the ignores.
func (d *Differ) order(changes []change) []Entry {
	var (
		dropConstraints []*model.Object
		drops           []*model.Object
		creates         []*model.Object
		createRecreated = make(map[model.ObjectID]*model.Object)
		columnAdds      = make(map[model.ObjectID]bool)
		alters          []change
		ignores         []change
	)

	for _, c := range changes {
		switch {
		case c.kind == DiffIgnore:
			ignores = append(ignores, c)
		case c.kind == DiffDrop && c.src.Kind == model.KindConstraint:
			dropConstraints = append(dropConstraints, c.src)
		case c.kind == DiffDrop:
			drops = append(drops, c.src)
		case c.kind == DiffCreate:
			creates = append(creates, c.tgt)
		case c.kind == DiffAlter && c.src == nil:
			// Column additions ride with the creation pass so a new index or
			// constraint on the new column attaches after it exists; the tier
			// order puts columns ahead of both.
			creates = append(creates, c.tgt)
			columnAdds[c.tgt.ID] = true
		case c.recreate:
			// A recreate is a drop of the source object and a create of the
			// target object, sequenced with the other drops and creates.
			if c.src.Kind == model.KindConstraint {
				dropConstraints = append(dropConstraints, c.src)
			} else {
				drops = append(drops, c.src)
			}
			creates = append(creates, c.tgt)
			createRecreated[c.tgt.ID] = c.src
		default:
			alters = append(alters, c)
		}
	}

	var entries []Entry

	// Constraints are detached before anything else is dropped so that
	// foreign keys never block the drop of their referenced table.
	sortByTier(dropConstraints)
	for _, o := range dropConstraints {
		entries = append(entries, d.dropEntry(o))
	}
	dropOrder := topoOrder(d.source, drops)
	for n := len(dropOrder) - 1; n >= 0; n-- {
		entries = append(entries, d.dropEntry(dropOrder[n]))
	}

	// First creation pass: everything except constraints, in dependency
	// order.
	var plain, constraints []*model.Object
	for _, o := range creates {
		if o.Kind == model.KindConstraint {
			constraints = append(constraints, o)
		} else {
			plain = append(plain, o)
		}
	}
	for _, o := range topoOrder(d.target, plain) {
		if columnAdds[o.ID] {
			entries = append(entries, d.columnAddEntry(o))
			continue
		}
		entries = append(entries, d.createEntry(o, createRecreated[o.ID] != nil))
	}

	sort.SliceStable(alters, func(i, j int) bool {
		return changeLess(alters[i].tgt, alters[j].tgt)
	})
	for _, c := range alters {
		entries = append(entries, d.alterEntry(c))
	}

	// Second creation pass: constraints, with foreign keys last so that a
	// mutually referencing pair attaches only after both tables exist.
	sort.SliceStable(constraints, func(i, j int) bool {
		a, b := constraints[i], constraints[j]
		fa := a.Def.(*model.ConstraintDef).Type == "FOREIGN KEY"
		fb := b.Def.(*model.ConstraintDef).Type == "FOREIGN KEY"
		if fa != fb {
			return !fa
		}
		return a.Signature() < b.Signature()
	})
	for _, o := range constraints {
		entries = append(entries, d.createEntry(o, createRecreated[o.ID] != nil))
	}

	for _, c := range ignores {
		entries = append(entries, d.ignoreEntry(c))
	}
	return entries
}

func (d *Differ) dropEntry(o *model.Object) Entry {
	return Entry{
		Kind:        DiffDrop,
		ObjectKind:  o.Kind,
		Name:        o.Signature(),
		Description: fmt.Sprintf("drop %s %s", o.Kind, o.Signature()),
		SQL:         d.dropSQL(o),
	}
}

func (d *Differ) createEntry(o *model.Object, recreated bool) Entry {
	sql := d.createSQL(d.target, o)
	if recreated && d.opts.KeepObjectPerms {
		sql = append(sql, d.sourceGrants(o)...)
	}
	desc := fmt.Sprintf("create %s %s", o.Kind, o.Signature())
	if recreated {
		desc = fmt.Sprintf("recreate %s %s", o.Kind, o.Signature())
	}
	return Entry{
		Kind:        DiffCreate,
		ObjectKind:  o.Kind,
		Name:        o.Signature(),
		Description: desc,
		SQL:         sql,
	}
}

// columnAddEntry reports a new column on a retained table as an alteration
// of the table itself.
func (d *Differ) columnAddEntry(o *model.Object) Entry {
	return Entry{
		Kind:        DiffAlter,
		ObjectKind:  model.KindTable,
		Name:        o.ParentName,
		Description: fmt.Sprintf("alter table %s adding column %s", o.ParentName, o.Name),
		SQL:         d.createSQL(d.target, o),
	}
}

func (d *Differ) alterEntry(c change) Entry {
	sql, _ := d.alterSQL(c.src, c.tgt)
	return Entry{
		Kind:        DiffAlter,
		ObjectKind:  c.tgt.Kind,
		Name:        c.tgt.Signature(),
		Description: fmt.Sprintf("alter %s %s", c.tgt.Kind, c.tgt.Signature()),
		SQL:         sql,
	}
}

func (d *Differ) ignoreEntry(c change) Entry {
	o := c.tgt
	if o == nil {
		o = c.src
	}
	desc := fmt.Sprintf("unchanged %s %s", o.Kind, o.Signature())
	if c.warning != "" {
		desc = fmt.Sprintf("skipped %s %s", o.Kind, o.Signature())
	}
	return Entry{
		Kind:        DiffIgnore,
		ObjectKind:  o.Kind,
		Name:        o.Signature(),
		Description: desc,
		Warning:     c.warning,
	}
}

// sourceGrants returns the grant statements recorded on the source side for a
// recreated object, re-emitted when KeepObjectPerms is set.
func (d *Differ) sourceGrants(tgt *model.Object) []string {
	var stmts []string
	for _, p := range d.source.ByKind(model.KindPermission) {
		if p.ParentName != tgt.Signature() {
			continue
		}
		// The target side may carry its own grant for the same grantee; that
		// one is classified separately and must not be duplicated here.
		if d.target.Lookup(model.KindPermission, p.Signature()) != nil {
			continue
		}
		stmts = append(stmts, grantSQL(p, p.Def.(*model.PermissionDef)))
	}
	return stmts
}

// topoOrder arranges objs so that every object follows its containment parent
// and its reference dependencies, restricted to the given set. Ready objects
// are emitted lowest creation tier first, then by signature, which makes the
// output deterministic. A dependency cycle inside the set cannot stall the
// sort; the lowest-ranked remaining object is emitted and the walk continues.
func topoOrder(g *model.Graph, objs []*model.Object) []*model.Object {
	inSet := make(map[model.ObjectID]bool, len(objs))
	for _, o := range objs {
		inSet[o.ID] = true
	}

	prereqs := make(map[model.ObjectID][]model.ObjectID, len(objs))
	for _, o := range objs {
		var deps []model.ObjectID
		if inSet[o.Parent] {
			deps = append(deps, o.Parent)
		}
		for _, dep := range o.DependsOn {
			if inSet[dep] {
				deps = append(deps, dep)
			}
		}
		prereqs[o.ID] = deps
	}

	pending := make([]*model.Object, len(objs))
	copy(pending, objs)
	sortByTier(pending)

	done := make(map[model.ObjectID]bool, len(objs))
	out := make([]*model.Object, 0, len(objs))

	for len(pending) > 0 {
		picked := -1
		for n, o := range pending {
			ready := true
			for _, dep := range prereqs[o.ID] {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				picked = n
				break
			}
		}
		if picked < 0 {
			// Cycle: break it at the lowest-ranked object.
			picked = 0
		}

		o := pending[picked]
		pending = append(pending[:picked], pending[picked+1:]...)
		done[o.ID] = true
		out = append(out, o)
	}
	return out
}

func sortByTier(objs []*model.Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		return changeLess(objs[i], objs[j])
	})
}

func changeLess(a, b *model.Object) bool {
	if kindTier[a.Kind] != kindTier[b.Kind] {
		return kindTier[a.Kind] < kindTier[b.Kind]
	}
	return a.Signature() < b.Signature()
}
