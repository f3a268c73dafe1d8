package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitNilReporter(t *testing.T) {
	// Must not panic
	Emit(nil, Event{Percent: 50, Message: "importing"})
}

func TestEmitReporterFunc(t *testing.T) {
	var got []Event
	r := ReporterFunc(func(e Event) { got = append(got, e) })

	Emit(r, Event{Percent: 10, Message: "tables", ObjectKind: "table"})
	Emit(r, Event{Percent: 20, Message: "views", ObjectKind: "view"})

	require.Len(t, got, 2)
	require.Equal(t, "tables", got[0].Message)
	require.Equal(t, 20, got[1].Percent)
}

func TestScale(t *testing.T) {
	tests := []struct {
		name     string
		i, n     int
		expected int
	}{
		{name: "zero of ten", i: 0, n: 10, expected: 0},
		{name: "half", i: 5, n: 10, expected: 50},
		{name: "complete", i: 10, n: 10, expected: 100},
		{name: "overflow clamped", i: 15, n: 10, expected: 100},
		{name: "zero total", i: 3, n: 0, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Scale(tt.i, tt.n))
		})
	}
}
