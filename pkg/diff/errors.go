package diff

import "fmt"

type (
	// UnsupportedVersionError reports a declared target server version the
	// differ cannot generate DDL for.
	UnsupportedVersionError struct {
		Version string
		Err     error
	}

	// StructuralError reports an input graph that violates a diff invariant,
	// such as a table whose partition parent exists in neither graph.
	StructuralError struct {
		Object string
		Ref    string
		Reason string
	}
)

func (e *UnsupportedVersionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid target server version %q: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("unsupported target server version %q", e.Version)
}

func (e *UnsupportedVersionError) Unwrap() error { return e.Err }

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural inconsistency at %s: %s (%s)", e.Object, e.Reason, e.Ref)
}
