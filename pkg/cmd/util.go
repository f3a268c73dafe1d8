package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pgdrift/pgdrift/pkg/catalog"
	"github.com/pgdrift/pgdrift/pkg/config"
	"github.com/pgdrift/pgdrift/pkg/diff"
	"github.com/pgdrift/pgdrift/pkg/filter"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pgdrift/pgdrift/pkg/progress"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func (a *app) requireConfig() error {
	if a.cfg == nil {
		return errors.New("pgdrift.yaml not found (see --config)")
	}
	return nil
}

// diffFlags are shared by the diff and apply commands.
func diffFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Usage:    "environment to migrate; the script runs against this database",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "target",
			Usage: "environment holding the desired schema",
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "design model file holding the desired schema, instead of a live database",
		},
		&cli.StringSliceFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "object pattern to diff, e.g. 'table:app.*' (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "exclude",
			Usage: "invert filter polarity: diff everything except the matched objects",
		},
		&cli.BoolFlag{
			Name:  "match-signature",
			Usage: "match filter patterns against full signatures instead of names",
		},
		&cli.StringFlag{
			Name:  "changelog",
			Usage: "derive filters from a changelog file",
		},
		&cli.TimestampFlag{
			Name:  "since",
			Usage: "only changelog entries at or after this time (RFC3339)",
			Config: cli.TimestampConfig{
				Layouts: []string{time.RFC3339},
			},
		},
		&cli.TimestampFlag{
			Name:  "until",
			Usage: "only changelog entries at or before this time (RFC3339)",
			Config: cli.TimestampConfig{
				Layouts: []string{time.RFC3339},
			},
		},
		&cli.BoolFlag{Name: "include-system", Usage: "import roles and tablespaces"},
		&cli.BoolFlag{Name: "include-extensions", Usage: "import extension-owned objects"},
		&cli.BoolFlag{Name: "continue-on-error", Usage: "skip objects that fail to import"},
		&cli.BoolFlag{Name: "keep-cluster-objects", Usage: "never drop or recreate roles and tablespaces"},
		&cli.BoolFlag{Name: "cascade", Usage: "drops cascade to dependent objects"},
		&cli.BoolFlag{Name: "force-recreation", Usage: "recreate every differing object"},
		&cli.BoolFlag{Name: "recreate-unmodifiable", Usage: "allow drop-and-create for unalterable differences"},
		&cli.BoolFlag{Name: "keep-permissions", Usage: "preserve grants across recreation"},
		&cli.BoolFlag{Name: "reuse-sequences", Usage: "keep sequences that differ only in owning column"},
		&cli.BoolFlag{Name: "preserve-db-name", Usage: "report the source database name"},
		&cli.BoolFlag{Name: "no-drops", Usage: "never drop objects missing from the target"},
		&cli.BoolFlag{Name: "drop-missing-cols", Usage: "with --no-drops, still drop missing columns and constraints"},
		&cli.StringFlag{Name: "target-version", Usage: "server version the script must run on"},
	}
}

// diffOptions merges the configured defaults with command-line overrides.
// The script dialect follows the server it will run on, which is the source
// environment.
func (a *app) diffOptions(cmd *cli.Command, source config.Environment) diff.Options {
	opts := diff.Options{}
	if a.cfg != nil {
		opts = a.cfg.Diff.Options()
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"keep-cluster-objects", &opts.KeepClusterObjs},
		{"cascade", &opts.CascadeMode},
		{"force-recreation", &opts.ForceRecreation},
		{"recreate-unmodifiable", &opts.RecreateUnmodifiable},
		{"keep-permissions", &opts.KeepObjectPerms},
		{"reuse-sequences", &opts.ReuseSequences},
		{"preserve-db-name", &opts.PreserveDbName},
		{"no-drops", &opts.DontDropMissingObjs},
		{"drop-missing-cols", &opts.DropMissingColsConstr},
	}
	for _, f := range flags {
		if cmd.Bool(f.name) {
			*f.dst = true
		}
	}

	if v := cmd.String("target-version"); v != "" {
		opts.TargetVersion = v
	}
	if opts.TargetVersion == "" {
		opts.TargetVersion = source.Version
	}
	return opts
}

// filterSpec builds the filter from --filter patterns or a changelog file.
func filterSpec(cmd *cli.Command) (*filter.Spec, error) {
	if path := cmd.String("changelog"); path != "" {
		entries, err := filter.LoadChangelogFile(path)
		if err != nil {
			return nil, err
		}
		return filter.SpecFromChangelog(entries, cmd.Timestamp("since"), cmd.Timestamp("until"))
	}

	patterns := cmd.StringSlice("filter")
	if len(patterns) == 0 {
		return nil, nil
	}
	spec, err := filter.NewSpec(patterns, nil)
	if err != nil {
		return nil, err
	}
	spec.MatchSignature = cmd.Bool("match-signature")
	spec.OnlyMatching = !cmd.Bool("exclude")
	return spec, nil
}

func catalogOptions(cmd *cli.Command, reporter progress.Reporter) catalog.Options {
	return catalog.Options{
		IncludeSystemObjs:    cmd.Bool("include-system"),
		IncludeExtensionObjs: cmd.Bool("include-extensions"),
		ContinueOnError:      cmd.Bool("continue-on-error"),
		Reporter:             reporter,
		Errors: func(err error) {
			slog.Warn("skipped object", "err", err)
		},
	}
}

// importEnv snapshots one environment's catalog into a graph.
func importEnv(ctx context.Context, env config.Environment, opts catalog.Options) (*model.Graph, error) {
	conn, err := catalog.Connect(ctx, env.DSN)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close(context.Background()) }()

	return catalog.New(conn, opts).Import(ctx)
}

// loadGraphs builds the source and target graphs. The two imports hit
// different databases and run concurrently; a model-file target is read
// inline since it needs no connection.
func (a *app) loadGraphs(ctx context.Context, cmd *cli.Command) (source, target *model.Graph, err error) {
	if err := a.requireConfig(); err != nil {
		return nil, nil, err
	}

	srcEnv, err := a.cfg.Environment(cmd.String("source"))
	if err != nil {
		return nil, nil, err
	}

	opts := catalogOptions(cmd, phaseReporter("import"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = importEnv(ctx, srcEnv, opts)
		return errors.Wrap(err, "importing source")
	})
	g.Go(func() error {
		if path := cmd.String("model"); path != "" {
			var err error
			target, err = model.LoadFile(path)
			return errors.Wrapf(err, "loading model %s", path)
		}
		tgtEnv, err := a.cfg.Environment(cmd.String("target"))
		if err != nil {
			return err
		}
		target, err = importEnv(ctx, tgtEnv, opts)
		return errors.Wrap(err, "importing target")
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

// runDiff is the shared pipeline behind the diff and apply commands. The
// returned environment is the source, the database the script runs against.
func (a *app) runDiff(ctx context.Context, cmd *cli.Command) (*diff.Result, config.Environment, error) {
	source, target, err := a.loadGraphs(ctx, cmd)
	if err != nil {
		return nil, config.Environment{}, err
	}
	srcEnv, err := a.cfg.Environment(cmd.String("source"))
	if err != nil {
		return nil, config.Environment{}, err
	}

	spec, err := filterSpec(cmd)
	if err != nil {
		return nil, config.Environment{}, err
	}

	d, err := diff.New(source, target, a.diffOptions(cmd, srcEnv))
	if err != nil {
		return nil, config.Environment{}, err
	}
	if spec != nil {
		d.Scope(filter.Resolve(source, spec), filter.Resolve(target, spec))
	}

	res, err := d.WithReporter(phaseReporter("diff")).Run(ctx)
	if err != nil {
		return nil, config.Environment{}, err
	}
	return res, srcEnv, nil
}

// phaseReporter routes progress events to the debug log.
func phaseReporter(phase string) progress.Reporter {
	return progress.ReporterFunc(func(e progress.Event) {
		slog.Debug(phase, "percent", e.Percent, "msg", e.Message, "kind", e.ObjectKind)
	})
}

var (
	createColor = color.New(color.FgGreen)
	alterColor  = color.New(color.FgYellow)
	dropColor   = color.New(color.FgRed)
)

// summarize prints the per-kind entry counts.
func summarize(w io.Writer, res *diff.Result) {
	fmt.Fprintf(w, "%s: %d  %s: %d  %s: %d  unchanged: %d\n",
		createColor.Sprint("create"), res.Counts[diff.DiffCreate],
		alterColor.Sprint("alter"), res.Counts[diff.DiffAlter],
		dropColor.Sprint("drop"), res.Counts[diff.DiffDrop],
		res.Counts[diff.DiffIgnore])

	for _, e := range res.Entries {
		if e.Warning != "" {
			fmt.Fprintf(w, "warning: %s: %s\n", e.Name, e.Warning)
		}
	}
}

// confirm asks for an explicit yes before an irreversible step.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
