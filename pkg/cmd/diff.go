package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pgdrift/pgdrift/pkg/apply"
	"github.com/pgdrift/pgdrift/pkg/consts"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// diffCommand compares the source schema against the target environment and
// prints the migration script that reconciles them.
func (a *app) diffCommand() *cli.Command {
	flags := append(diffFlags(),
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "write the script to this file instead of stdout",
		},
	)

	return &cli.Command{
		Name:  "diff",
		Usage: "Show the SQL that migrates the source database to the target schema",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			res, _, err := a.runDiff(ctx, cmd)
			if err != nil {
				return err
			}

			summarize(cmd.Root().ErrWriter, res)
			script := apply.Preview(res.Script)

			if path := cmd.String("out"); path != "" {
				if err := os.WriteFile(path, []byte(script), consts.ModeFile); err != nil {
					return errors.Wrapf(err, "failed to write %s", path)
				}
				fmt.Fprintf(cmd.Root().Writer, "wrote %d statements to %s\n", len(res.Script), path)
				return nil
			}

			fmt.Fprint(cmd.Root().Writer, script)
			return nil
		},
	}
}
