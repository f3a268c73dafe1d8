package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pgdrift/pgdrift/pkg/apply"
	"github.com/pgdrift/pgdrift/pkg/catalog"
	"github.com/urfave/cli/v3"
)

// applyCommand diffs the source against the target and executes the
// resulting script against the source database after confirmation.
func (a *app) applyCommand() *cli.Command {
	flags := append(diffFlags(),
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "apply without asking for confirmation",
		},
		&cli.StringSliceFlag{
			Name:  "ignore-code",
			Usage: "SQLSTATE code to treat as ignorable (repeatable)",
		},
	)

	return &cli.Command{
		Name:  "apply",
		Usage: "Execute the migration script against the source database",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			res, srcEnv, err := a.runDiff(ctx, cmd)
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			summarize(cmd.Root().ErrWriter, res)
			if len(res.Script) == 0 {
				fmt.Fprintln(out, "schemas are identical, nothing to apply")
				return nil
			}

			fmt.Fprint(out, apply.Preview(res.Script))
			if !cmd.Bool("yes") && !confirm(os.Stdin, out, fmt.Sprintf("apply %d statements to %q", len(res.Script), res.Database)) {
				fmt.Fprintln(out, "aborted")
				return nil
			}

			conn, err := catalog.Connect(ctx, srcEnv.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close(context.Background()) }()

			codes := apply.DefaultIgnoreCodes
			if a.cfg != nil {
				codes = append(codes, a.cfg.Apply.IgnoreCodes...)
			}
			codes = append(codes, cmd.StringSlice("ignore-code")...)

			report, err := apply.New(conn, apply.Options{
				IgnoreCodes: codes,
				Reporter:    phaseReporter("apply"),
			}).Apply(ctx, res.Script)

			for _, ig := range report.Ignored {
				fmt.Fprintf(cmd.Root().ErrWriter, "ignored %s: %s\n", ig.Code, ig.Statement)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "applied %d statements (%d ignored)\n", report.Applied, len(report.Ignored))
			return nil
		},
	}
}
