package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgdrift/pgdrift/pkg/config"
	"github.com/pgdrift/pgdrift/pkg/consts"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
default_environment: dev
model_file: db/model.yaml
environments:
  dev:
    dsn: postgres://app@localhost:5432/appdb
  production:
    dsn: postgres://app@db.internal:5432/appdb
    version: "15.4"
diff:
  keep_cluster_objects: true
  dont_drop_missing_objects: true
  target_version: "15.4"
apply:
  ignore_codes: ["42P16"]
`

func TestLoadConfig(t *testing.T) {
	cfg, err := config.LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.DefaultEnvironment)
	require.Equal(t, "db/model.yaml", cfg.ModelFile)
	require.Len(t, cfg.Environments, 2)

	// Missing versions pick up the default.
	require.Equal(t, consts.DefaultPgVersion, cfg.Environments["dev"].Version)
	require.Equal(t, "15.4", cfg.Environments["production"].Version)

	opts := cfg.Diff.Options()
	require.True(t, opts.KeepClusterObjs)
	require.True(t, opts.DontDropMissingObjs)
	require.False(t, opts.CascadeMode)
	require.Equal(t, "15.4", opts.TargetVersion)

	require.Equal(t, []string{"42P16"}, cfg.Apply.IgnoreCodes)
}

func TestLoadConfigValidation(t *testing.T) {
	_, err := config.LoadConfig(strings.NewReader("environments: {}"))
	require.ErrorContains(t, err, "no environments")

	_, err = config.LoadConfig(strings.NewReader("environments:\n  dev: {}"))
	require.ErrorContains(t, err, `environment "dev" has no dsn`)

	_, err = config.LoadConfig(strings.NewReader(":::"))
	require.ErrorContains(t, err, "failed to unmarshal config")
}

func TestEnvironmentLookup(t *testing.T) {
	cfg, err := config.LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	env, err := cfg.Environment("production")
	require.NoError(t, err)
	require.Equal(t, "postgres://app@db.internal:5432/appdb", env.DSN)

	// Empty name falls back to the default environment.
	env, err = cfg.Environment("")
	require.NoError(t, err)
	require.Equal(t, "postgres://app@localhost:5432/appdb", env.DSN)

	_, err = cfg.Environment("staging")
	require.ErrorContains(t, err, `unknown environment "staging"`)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pgdrift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), consts.ModeFile))

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.DefaultEnvironment)

	_, err = config.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to open file")
}
