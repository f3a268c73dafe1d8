package filter

import (
	"sort"

	"github.com/pgdrift/pgdrift/pkg/model"
)

// Selection is the resolved object set for a partial diff: every object the
// spec matched plus the relationship closure needed to keep the subgraph
// consistent.
type Selection struct {
	g   *model.Graph
	ids map[model.ObjectID]struct{}
}

// Resolve evaluates the spec against a schema graph and returns the selected
// object set expanded by relationship closure: parents of selected children,
// children of selected tables, inheritance and partitioning relatives, and
// many-to-many link tables touching a selected table. An empty spec selects
// everything.
func Resolve(g *model.Graph, spec *Spec) *Selection {
	sel := &Selection{g: g, ids: make(map[model.ObjectID]struct{})}

	if spec.Empty() {
		for _, o := range g.Objects() {
			sel.ids[o.ID] = struct{}{}
		}
		return sel
	}

	for _, o := range g.Objects() {
		if o.Bootstrap {
			// Built-in objects are always in scope; they anchor references
			// from everything else.
			sel.ids[o.ID] = struct{}{}
			continue
		}
		if spec.Matches(o) == spec.OnlyMatching {
			sel.ids[o.ID] = struct{}{}
		}
	}

	sel.close()
	return sel
}

// Contains reports whether the object is part of the selection.
func (s *Selection) Contains(id model.ObjectID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected objects.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected object IDs in arena order.
func (s *Selection) IDs() []model.ObjectID {
	ids := make([]model.ObjectID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Objects returns the selected objects in arena order.
func (s *Selection) Objects() []*model.Object {
	out := make([]*model.Object, 0, len(s.ids))
	for _, id := range s.IDs() {
		out = append(out, s.g.Get(id))
	}
	return out
}

// close expands the selection to a fixpoint over the relationship rules.
func (s *Selection) close() {
	for changed := true; changed; {
		changed = false
		for _, id := range s.IDs() {
			o := s.g.Get(id)

			// A selected child without its parent is meaningless.
			if o.Parent != model.NoObject {
				changed = s.add(o.Parent) || changed
			}

			if o.Kind != model.KindTable {
				continue
			}

			// A selected table brings its full subtree.
			for _, child := range s.g.Children(id) {
				changed = s.add(child.ID) || changed
			}

			changed = s.closeRelatives(o) || changed
			changed = s.closeLinkTables(o) || changed

			// A selected link table brings both referenced sides.
			if refs := foreignKeyTargets(s.g, id); len(refs) >= 2 {
				for _, ref := range refs {
					if t := s.g.Lookup(model.KindTable, ref); t != nil {
						changed = s.add(t.ID) || changed
					}
				}
			}
		}
	}
}

// closeRelatives pulls in inheritance parents/children and partition
// parents/partitions of a selected table.
func (s *Selection) closeRelatives(o *model.Object) bool {
	changed := false
	def, ok := o.Def.(*model.TableDef)
	if !ok {
		return false
	}

	for _, parent := range def.Inherits {
		if t := s.g.Lookup(model.KindTable, parent); t != nil {
			changed = s.add(t.ID) || changed
		}
	}
	if def.PartitionOf != "" {
		if t := s.g.Lookup(model.KindTable, def.PartitionOf); t != nil {
			changed = s.add(t.ID) || changed
		}
	}

	qualified := o.QualifiedName()
	for _, other := range s.g.ByKind(model.KindTable) {
		odef, ok := other.Def.(*model.TableDef)
		if !ok {
			continue
		}
		if odef.PartitionOf == qualified {
			changed = s.add(other.ID) || changed
		}
		for _, parent := range odef.Inherits {
			if parent == qualified {
				changed = s.add(other.ID) || changed
			}
		}
	}
	return changed
}

// closeLinkTables finds tables whose foreign keys reference the selected
// table alongside at least one other table. Such link tables, and every table
// they reference, join the selection so many-to-many relationships never
// appear half-selected.
func (s *Selection) closeLinkTables(o *model.Object) bool {
	changed := false
	qualified := o.QualifiedName()

	for _, candidate := range s.g.ByKind(model.KindTable) {
		refs := foreignKeyTargets(s.g, candidate.ID)
		if len(refs) < 2 {
			continue
		}

		touchesSelected := false
		for _, ref := range refs {
			if ref == qualified {
				touchesSelected = true
				break
			}
		}
		if !touchesSelected {
			continue
		}

		changed = s.add(candidate.ID) || changed
		for _, ref := range refs {
			if t := s.g.Lookup(model.KindTable, ref); t != nil {
				changed = s.add(t.ID) || changed
			}
		}
	}
	return changed
}

// foreignKeyTargets returns the distinct qualified names referenced by a
// table's foreign keys.
func foreignKeyTargets(g *model.Graph, tableID model.ObjectID) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range g.ChildrenOfKind(tableID, model.KindConstraint) {
		def, ok := c.Def.(*model.ConstraintDef)
		if !ok || def.Type != "FOREIGN KEY" || def.RefTable == "" {
			continue
		}
		if _, dup := seen[def.RefTable]; dup {
			continue
		}
		seen[def.RefTable] = struct{}{}
		out = append(out, def.RefTable)
	}
	return out
}

func (s *Selection) add(id model.ObjectID) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}
