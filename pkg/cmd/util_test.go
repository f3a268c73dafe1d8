package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pgdrift/pgdrift/pkg/diff"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false}, // EOF before any answer
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, "proceed")
		require.Equal(t, tt.want, got, "input %q", tt.input)
		require.Contains(t, out.String(), "proceed [y/N]")
	}
}

func TestSummarize(t *testing.T) {
	color.NoColor = true

	res := &diff.Result{
		Counts: map[diff.DiffKind]int{
			diff.DiffCreate: 2,
			diff.DiffAlter:  1,
			diff.DiffIgnore: 4,
		},
		Entries: []diff.Entry{
			{Kind: diff.DiffIgnore, Name: "public.t", Warning: "partitioning requires PostgreSQL 10"},
		},
	}

	var out bytes.Buffer
	summarize(&out, res)

	require.Contains(t, out.String(), "create: 2  alter: 1  drop: 0  unchanged: 4")
	require.Contains(t, out.String(), "warning: public.t: partitioning requires PostgreSQL 10")
}
