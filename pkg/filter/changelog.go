package filter

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// ChangelogEntry is one recorded schema change: when it happened, what it
	// touched, and how. Signatures are always fully qualified.
	ChangelogEntry struct {
		Date      time.Time        `yaml:"date"`
		Kind      model.ObjectKind `yaml:"kind"`
		Signature string           `yaml:"signature"`
		Action    string           `yaml:"action"`
	}

	changelogFile struct {
		Entries []ChangelogEntry `yaml:"changelog"`
	}
)

// Recorded changelog actions.
const (
	ActionCreate = "create"
	ActionAlter  = "alter"
	ActionDrop   = "drop"
)

// LoadChangelog reads changelog entries from a YAML document.
func LoadChangelog(r io.Reader) ([]ChangelogEntry, error) {
	var f changelogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "failed to decode changelog")
	}
	return f.Entries, nil
}

// LoadChangelogFile reads changelog entries from a YAML file.
func LoadChangelogFile(path string) ([]ChangelogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open changelog file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadChangelog(f)
}

// SpecFromChangelog derives a filter specification from the change records
// falling inside [from, to] (either bound may be zero for open-ended ranges).
// Matching is forced to signatures because log records store qualified
// signatures, not display names. Records for table children are replaced by a
// rule for their containing table: selecting a column or constraint apart
// from its table would produce an inconsistent partial subgraph.
func SpecFromChangelog(entries []ChangelogEntry, from, to time.Time) (*Spec, error) {
	s := &Spec{
		MatchSignature: true,
		OnlyMatching:   true,
		FromChangelog:  true,
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}

		if e.Signature == "" {
			return nil, errors.Errorf("changelog entry with empty signature (kind %s)", e.Kind)
		}

		// Canonicalize before collapsing children: records written by hand or
		// by other tools may quote identifiers or space argument lists, and
		// containingTable must not split inside a quoted part.
		parsed, err := ParseSignature(e.Signature)
		if err != nil {
			return nil, errors.Wrapf(err, "changelog entry %q", e.Signature)
		}

		kind, sig := e.Kind, parsed.String()
		if kind.TableChild() {
			kind, sig = model.KindTable, containingTable(sig)
		}

		key := string(kind) + ":" + sig
		if seen[key] {
			continue
		}
		seen[key] = true

		p, err := newPattern(kind, sig)
		if err != nil {
			return nil, errors.Wrapf(err, "changelog entry %s", sig)
		}
		s.Patterns = append(s.Patterns, p)
	}
	return s, nil
}

// containingTable strips the trailing component from a child signature:
// "public.users.id" becomes "public.users".
func containingTable(sig string) string {
	if i := strings.LastIndex(sig, "."); i >= 0 {
		return sig[:i]
	}
	return sig
}
