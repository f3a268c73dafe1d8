package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pgdrift/pgdrift/pkg/config"
	"github.com/urfave/cli/v3"
)

type (
	// Version carries the build identification stamped in at link time.
	Version struct {
		Version string
		Commit  string
		Date    string
	}

	// app holds the state shared by subcommands for one invocation.
	app struct {
		cfg *config.Config
	}
)

// Run creates and executes the pgdrift CLI application.
//
// The application reads its project configuration from pgdrift.yaml (or the
// file named by --config / PGDRIFT_CONFIG) when present; commands that need
// an environment fail with a clear error when it is missing.
//
// Example usage:
//
//	# show what must run on staging to bring it up to production's schema
//	pgdrift diff --source staging --target production
//
//	# apply the migration after reviewing it
//	pgdrift apply --source staging --target production
//
//	# snapshot a database into a design model file
//	pgdrift dump --env production --out db/model.yaml
func Run(ctx context.Context, version Version, args []string) error {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", version.Date)
	}

	a := &app{}

	root := &cli.Command{
		Name:  "pgdrift",
		Usage: "Compare PostgreSQL schemas and synthesize migration scripts",
		Description: `pgdrift imports schema snapshots from live PostgreSQL databases or design
model files, computes the structural differences between them, and produces
the SQL script that migrates the source database to the target schema.`,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the pgdrift config file",
				Sources: cli.EnvVars("PGDRIFT_CONFIG"),
				Value:   "pgdrift.yaml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging and per-object progress",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			path := cmd.String("config")
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return ctx, nil
			}
			cfg, err := config.LoadConfigFile(path)
			if err != nil {
				return ctx, err
			}
			a.cfg = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			a.diffCommand(),
			a.applyCommand(),
			a.dumpCommand(),
		},
	}

	return root.Run(ctx, args)
}
