package compare

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilCheck(t *testing.T) {
	var a, b *int
	eq, more := NilCheck(a, b)
	require.True(t, eq)
	require.False(t, more)

	v := 1
	eq, more = NilCheck(&v, b)
	require.False(t, eq)
	require.False(t, more)

	eq, more = NilCheck(&v, &v)
	require.False(t, eq)
	require.True(t, more)
}

func TestPointers(t *testing.T) {
	one, alsoOne, two := 1, 1, 2

	require.True(t, Pointers[int](nil, nil))
	require.True(t, Pointers(&one, &alsoOne))
	require.False(t, Pointers(&one, &two))
	require.False(t, Pointers(&one, nil))
}

func TestSlices(t *testing.T) {
	eq := func(a, b string) bool { return a == b }

	require.True(t, Slices([]string{"a", "b"}, []string{"a", "b"}, eq))
	require.False(t, Slices([]string{"a", "b"}, []string{"b", "a"}, eq))
	require.False(t, Slices([]string{"a"}, []string{"a", "b"}, eq))
	require.True(t, Slices(nil, []string{}, eq))
}

func TestSlicesUnordered(t *testing.T) {
	eq := func(a, b string) bool { return a == b }

	require.True(t, SlicesUnordered([]string{"a", "b"}, []string{"b", "a"}, eq))
	require.False(t, SlicesUnordered([]string{"a", "a"}, []string{"a", "b"}, eq))
	require.False(t, SlicesUnordered([]string{"a"}, []string{"a", "a"}, eq))
}

func TestMaps(t *testing.T) {
	require.True(t, Maps(map[string]int{"a": 1}, map[string]int{"a": 1}))
	require.False(t, Maps(map[string]int{"a": 1}, map[string]int{"a": 2}))
	require.False(t, Maps(map[string]int{"a": 1}, map[string]int{"b": 1}))
	require.True(t, Maps(nil, map[string]int{}))
}
