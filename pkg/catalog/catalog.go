package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgdrift/pgdrift/pkg/model"
	"github.com/pgdrift/pgdrift/pkg/progress"
	"github.com/pkg/errors"
)

type (
	// Querier is the read-only database surface the importer needs. Both
	// *pgx.Conn and *pgxpool.Pool satisfy it.
	Querier interface {
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	}

	// Options controls what an import run reads from the catalog.
	Options struct {
		// IncludeSystemObjs imports roles, tablespaces, and system schemas in
		// addition to user objects.
		IncludeSystemObjs bool

		// IncludeExtensionObjs imports objects owned by extensions instead of
		// treating the extension itself as their representation.
		IncludeExtensionObjs bool

		// ContinueOnError reports per-object failures to Errors and keeps
		// importing instead of aborting. Objects that depend on a failed
		// object fail in turn and are skipped the same way.
		ContinueOnError bool

		// Only restricts the import to the named top-level objects (tables,
		// views, sequences, functions) and their children. Kinds not listed
		// in Identifiers are unaffected. Empty imports everything.
		Only []model.Key

		// Reporter receives progress events between import tiers. May be nil.
		Reporter progress.Reporter

		// Errors receives per-object failures when ContinueOnError is set.
		// May be nil.
		Errors func(error)
	}

	// Importer reads a snapshot of a live catalog into a schema graph.
	Importer struct {
		db   Querier
		opts Options

		only map[model.Key]bool

		// skipped records relations left out on purpose, either by Only or by
		// the extension-object exclusion, so their child rows are dropped
		// silently instead of surfacing as missing-parent errors.
		skipped map[string]bool
	}

	// ConnError reports a failed connection attempt. The DSN is not included
	// in the message; it may carry credentials.
	ConnError struct {
		Host string
		Err  error
	}

	// QueryError reports a failure while importing one catalog object or one
	// object tier.
	QueryError struct {
		Kind model.ObjectKind
		Name string
		Err  error
	}
)

// Connect opens a pgx connection for catalog import or script execution.
func Connect(ctx context.Context, dsn string) (*pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, &ConnError{Err: err}
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, &ConnError{Host: cfg.Host, Err: err}
	}
	return conn, nil
}

// New creates an importer over an open connection.
func New(db Querier, opts Options) *Importer {
	only := make(map[model.Key]bool, len(opts.Only))
	for _, k := range opts.Only {
		only[k] = true
	}
	return &Importer{db: db, opts: opts, only: only, skipped: make(map[string]bool)}
}

func (e *ConnError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("failed to connect: %v", e.Err)
	}
	return fmt.Sprintf("failed to connect to %s: %v", e.Host, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

func (e *QueryError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to import %ss: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("failed to import %s %s: %v", e.Kind, e.Name, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// tier is one sequential import phase. Tiers run in dependency order so most
// references resolve as soon as they are recorded.
type tier struct {
	name string
	run  func(context.Context, *model.Graph) error
}

// Import reads the catalog into a new schema graph. Cancellation is checked
// between tiers; a canceled import returns ctx.Err() and no graph.
func (i *Importer) Import(ctx context.Context) (*model.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := model.NewGraph()

	if err := i.db.QueryRow(ctx, queryServerInfo).Scan(&g.ServerVersion, &g.Database); err != nil {
		return nil, &QueryError{Kind: "server", Err: err}
	}

	tiers := []tier{
		{"roles", i.importRoles},
		{"tablespaces", i.importTablespaces},
		{"schemas", i.importSchemas},
		{"extensions", i.importExtensions},
		{"languages", i.importLanguages},
		{"types", i.importTypes},
		{"domains", i.importDomains},
		{"sequences", i.importSequences},
		{"tables", i.importTables},
		{"columns", i.importColumns},
		{"constraints", i.importConstraints},
		{"indexes", i.importIndexes},
		{"triggers", i.importTriggers},
		{"rules", i.importRules},
		{"views", i.importViews},
		{"functions", i.importFunctions},
		{"permissions", i.importPermissions},
	}

	for n, t := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress.Emit(i.opts.Reporter, progress.Event{
			Percent: progress.Scale(n, len(tiers)),
			Message: fmt.Sprintf("importing %s", t.name),
		})

		if err := t.run(ctx, g); err != nil {
			return nil, err
		}
	}

	if err := g.ResolvePending(); err != nil {
		if !i.opts.ContinueOnError {
			return nil, err
		}
		i.report(err)
	}

	progress.Emit(i.opts.Reporter, progress.Event{Percent: 100, Message: "import complete"})
	return g, nil
}

// fail wraps a per-object error; with ContinueOnError it is reported and
// swallowed so the tier can move on.
func (i *Importer) fail(kind model.ObjectKind, name string, err error) error {
	qerr := &QueryError{Kind: kind, Name: name, Err: err}
	if i.opts.ContinueOnError {
		i.report(qerr)
		return nil
	}
	return qerr
}

func (i *Importer) report(err error) {
	if i.opts.Errors != nil {
		i.opts.Errors(err)
	}
}

// userSchemas returns the names of the imported schemas, used to scope every
// later catalog query.
func userSchemas(g *model.Graph) []string {
	var names []string
	for _, o := range g.ByKind(model.KindSchema) {
		if o.Bootstrap {
			continue
		}
		names = append(names, o.Name)
	}
	// The public schema is bootstrap but always in scope.
	names = append(names, "public")
	return names
}

// add inserts an object built from a catalog row, translating duplicate and
// lookup failures into per-object errors.
func (i *Importer) add(g *model.Graph, o *model.Object) error {
	if _, err := g.Add(o); err != nil {
		return i.fail(o.Kind, o.QualifiedName(), err)
	}
	return nil
}

// wanted reports whether a top-level object is inside the Only selection. An
// empty selection admits everything.
func (i *Importer) wanted(kind model.ObjectKind, signature string) bool {
	return len(i.only) == 0 || i.only[model.Key{Kind: kind, Signature: signature}]
}

// skip records a relation excluded on purpose so its children are dropped
// without error.
func (i *Importer) skip(qualified string) {
	i.skipped[qualified] = true
}

// parentTable resolves the table (or view) a child row belongs to. A nil
// object with nil error means the parent was excluded on purpose and the
// child must be dropped silently; a missing parent that was never excluded
// is an import failure.
func (i *Importer) parentTable(g *model.Graph, schema, table string) (*model.Object, error) {
	qualified := schema + "." + table
	if t := g.Lookup(model.KindTable, qualified); t != nil {
		return t, nil
	}
	if v := g.Lookup(model.KindView, qualified); v != nil {
		return v, nil
	}
	if i.skipped[qualified] {
		return nil, nil
	}
	return nil, errors.Errorf("relation %s not imported", qualified)
}
