package diff_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgdrift/pgdrift/pkg/apply"
	"github.com/pgdrift/pgdrift/pkg/diff"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

func TestGoldenScripts(t *testing.T) {
	pattern := filepath.Join("testdata", "*.source.yaml")
	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	require.NotEmpty(t, matches, "No *.source.yaml files found in testdata directory")

	for _, sourceFile := range matches {
		basename := filepath.Base(sourceFile)
		scenario := strings.TrimSuffix(basename, ".source.yaml")

		t.Run(scenario, func(t *testing.T) {
			source, err := model.LoadFile(sourceFile)
			require.NoError(t, err)

			target, err := model.LoadFile(filepath.Join("testdata", scenario+".target.yaml"))
			require.NoError(t, err)

			d, err := diff.New(source, target, diff.Options{TargetVersion: "16.0"})
			require.NoError(t, err)

			res, err := d.Run(context.Background())
			require.NoError(t, err)

			golden.Assert(t, apply.Preview(res.Script), scenario+".sql")
		})
	}
}
