package filter

import (
	"regexp"
	"strings"

	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pkg/errors"
)

type (
	// Pattern is a single match rule: an optional kind restriction plus a
	// wildcard expression where "*" matches any run of characters. Patterns
	// derived from a table rule match against the child's containing table
	// instead of the child's own name.
	Pattern struct {
		Kind model.ObjectKind
		Expr string

		re     *regexp.Regexp
		parent *Pattern
	}

	// Spec is an immutable filter specification for one diff run: ordered
	// patterns, the matching mode (display name vs. full signature), the
	// inclusion polarity, and a forced-kind override map for bare patterns
	// whose kind would otherwise be ambiguous.
	Spec struct {
		Patterns       []*Pattern
		MatchSignature bool
		OnlyMatching   bool
		ForcedKinds    map[string]model.ObjectKind

		// FromChangelog marks specs derived from change records. Matching is
		// forced to signatures and table-child expansion is suppressed for
		// these specs; see SpecFromChangelog.
		FromChangelog bool
	}
)

var knownKinds = func() map[model.ObjectKind]bool {
	m := make(map[model.ObjectKind]bool, len(model.Kinds))
	for _, k := range model.Kinds {
		m[k] = true
	}
	return m
}()

// NewSpec parses raw patterns of the form "kind:expr" (or a bare "expr"
// applying to every kind) into a specification. Table patterns are expanded
// with rules selecting the matched tables' columns, constraints, indexes,
// triggers, and rules, so filtering a table always selects a consistent
// subtree.
//
// The default polarity is exclude-matching: a resolved selection contains
// everything except the matched objects. Set OnlyMatching to restrict the
// selection to the matched set instead.
func NewSpec(raw []string, forced map[string]model.ObjectKind) (*Spec, error) {
	s := &Spec{ForcedKinds: forced}

	for _, r := range raw {
		p, err := ParsePattern(r)
		if err != nil {
			return nil, err
		}
		if p.Kind == "" {
			if k, ok := forced[p.Expr]; ok {
				p.Kind = k
			}
		}
		s.Patterns = append(s.Patterns, p)
	}

	s.expandTableChildren()
	return s, nil
}

// ParsePattern parses one "kind:expr" rule. A missing kind prefix leaves the
// pattern applicable to every object kind.
func ParsePattern(raw string) (*Pattern, error) {
	kind, expr := model.ObjectKind(""), raw
	if i := strings.Index(raw, ":"); i >= 0 {
		kind = model.ObjectKind(raw[:i])
		expr = raw[i+1:]
		if !knownKinds[kind] {
			return nil, errors.Errorf("unknown object kind %q in filter %q", raw[:i], raw)
		}
	}
	if expr == "" {
		return nil, errors.Errorf("empty filter pattern: %q", raw)
	}
	return newPattern(kind, expr)
}

func newPattern(kind model.ObjectKind, expr string) (*Pattern, error) {
	// Exact patterns are canonicalized through the signature grammar so that
	// quoted identifiers and spacing in argument lists never defeat a match:
	// `"public"."Users"` becomes public.Users and fn(integer, text) becomes
	// fn(integer,text), the form object signatures are rendered in. Wildcard
	// patterns stay as written.
	if !strings.Contains(expr, "*") {
		if sig, err := ParseSignature(expr); err == nil {
			expr = sig.String()
		}
	}

	re, err := compileWildcard(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid filter pattern %q", expr)
	}
	return &Pattern{Kind: kind, Expr: expr, re: re}, nil
}

// compileWildcard anchors the expression and treats "*" as a wildcard;
// everything else is literal.
func compileWildcard(expr string) (*regexp.Regexp, error) {
	parts := strings.Split(expr, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}

// Match reports whether the pattern selects the object. In signature mode the
// full qualified signature is tested; otherwise only the display name.
func (p *Pattern) Match(o *model.Object, bySignature bool) bool {
	if p.Kind != "" && p.Kind != o.Kind {
		return false
	}

	if p.parent != nil {
		// Derived child rule: test the containing table against the
		// originating table pattern.
		target := o.ParentName
		if !bySignature {
			if i := strings.LastIndex(target, "."); i >= 0 {
				target = target[i+1:]
			}
		}
		return p.parent.re.MatchString(target)
	}

	target := o.Name
	if bySignature {
		target = o.Signature()
	}
	return p.re.MatchString(target)
}

// Derived reports whether the pattern was auto-generated from a table rule.
func (p *Pattern) Derived() bool {
	return p.parent != nil
}

// Matches reports whether any pattern in the spec selects the object.
func (s *Spec) Matches(o *model.Object) bool {
	bySig := s.MatchSignature || s.FromChangelog
	for _, p := range s.Patterns {
		if p.Match(o, bySig) {
			return true
		}
	}
	return false
}

// MatchesName reports whether any non-derived pattern selects an object of
// the given kind, identified only by display name and qualified signature.
// Used for catalog-side screening before a graph exists.
func (s *Spec) MatchesName(kind model.ObjectKind, name, signature string) bool {
	bySig := s.MatchSignature || s.FromChangelog
	target := name
	if bySig {
		target = signature
	}
	for _, p := range s.Patterns {
		if p.parent != nil {
			continue
		}
		if p.Kind != "" && p.Kind != kind {
			continue
		}
		if p.re.MatchString(target) {
			return true
		}
	}
	return false
}

// Empty reports whether the spec restricts nothing.
func (s *Spec) Empty() bool {
	return s == nil || len(s.Patterns) == 0
}

func (s *Spec) expandTableChildren() {
	base := s.Patterns
	for _, p := range base {
		if p.Kind != model.KindTable {
			continue
		}
		for _, kind := range model.Kinds {
			if !kind.TableChild() {
				continue
			}
			s.Patterns = append(s.Patterns, &Pattern{
				Kind:   kind,
				Expr:   p.Expr,
				parent: p,
			})
		}
	}
}
