package cmd

import (
	"context"
	"fmt"

	"github.com/pgdrift/pgdrift/pkg/catalog"
	"github.com/pgdrift/pgdrift/pkg/filter"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/urfave/cli/v3"
)

// dumpCommand snapshots a database catalog into a design model file, which
// can later serve as the desired schema in a diff.
func (a *app) dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Snapshot a database schema into a design model file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "environment to snapshot",
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "model file to write",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "object pattern to snapshot, e.g. 'table:app.*' (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "exclude",
				Usage: "invert filter polarity: snapshot everything except the matched objects",
			},
			&cli.BoolFlag{
				Name:  "match-signature",
				Usage: "match filter patterns against full signatures instead of names",
			},
			&cli.BoolFlag{Name: "include-system", Usage: "import roles and tablespaces"},
			&cli.BoolFlag{Name: "include-extensions", Usage: "import extension-owned objects"},
			&cli.BoolFlag{Name: "continue-on-error", Usage: "skip objects that fail to import"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			env, err := a.cfg.Environment(cmd.String("env"))
			if err != nil {
				return err
			}

			conn, err := catalog.Connect(ctx, env.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close(context.Background()) }()

			opts := catalogOptions(cmd, phaseReporter("import"))

			if patterns := cmd.StringSlice("filter"); len(patterns) > 0 {
				spec, err := filter.NewSpec(patterns, nil)
				if err != nil {
					return err
				}
				spec.MatchSignature = cmd.Bool("match-signature")
				spec.OnlyMatching = !cmd.Bool("exclude")

				// Resolve the selection against the live catalog and scope the
				// import to it.
				opts.Only, err = catalog.Identifiers(ctx, conn, spec)
				if err != nil {
					return err
				}
			}

			g, err := catalog.New(conn, opts).Import(ctx)
			if err != nil {
				return err
			}

			path := cmd.String("out")
			if err := model.SaveFile(path, g); err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "wrote %d objects from %q to %s\n", g.Len(), g.Database, path)
			return nil
		},
	}
}
