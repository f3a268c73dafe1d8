package compare

// NilCheck performs a nil check on two pointers and returns whether they are
// equal and whether more comparison checks are needed.
//
// Returns (equal, needsMoreChecks) where:
//   - equal: true if both are nil, false if only one is nil
//   - needsMoreChecks: true if both pointers are non-nil and further comparison is needed
//
// Example:
//
//	func (d *TableDef) Equal(other *TableDef) bool {
//	    if eq, needsMoreChecks := compare.NilCheck(d, other); !needsMoreChecks {
//	        return eq
//	    }
//	    // Continue with field comparisons...
//	}
func NilCheck[T any](a, b *T) (equal bool, needsMoreChecks bool) {
	if a == nil && b == nil {
		return true, false
	}
	if a == nil || b == nil {
		return false, false
	}
	return false, true
}

// Pointers compares two pointer values for equality.
// Returns true if both are nil, or both are non-nil with equal values.
//
// Example:
//
//	func (d *ColumnDef) Equal(other *ColumnDef) bool {
//	    return compare.Pointers(d.Default, other.Default) &&
//	           compare.Pointers(d.Collation, other.Collation)
//	}
func Pointers[T comparable](a, b *T) bool {
	if (a != nil) != (b != nil) {
		return false
	}
	if a != nil && *a != *b {
		return false
	}
	return true
}

// Slices compares two slices for equality using an equality function for
// elements. Returns true if both slices have the same length and all
// corresponding elements are equal.
//
// Example:
//
//	compare.Slices(a.Arguments, b.Arguments, func(x, y FunctionArg) bool {
//	    return x == y
//	})
func Slices[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalFunc(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SlicesUnordered compares two slices for equality regardless of order.
// Returns true if both slices contain the same elements (by the equality
// function).
//
// Example:
//
//	compare.SlicesUnordered(a.Privileges, b.Privileges, func(x, y string) bool {
//	    return x == y
//	})
func SlicesUnordered[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}

	matched := make([]bool, len(b))

	for _, aElem := range a {
		found := false
		for j, bElem := range b {
			if !matched[j] && equalFunc(aElem, bElem) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Maps compares two maps for equality.
// Returns true if both maps have the same keys and all corresponding values
// are equal.
func Maps[K comparable, V comparable](a, b map[K]V) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
