package apply

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgdrift/pgdrift/pkg/progress"
	"github.com/pkg/errors"
)

type (
	// Execer is the slice of a PostgreSQL connection the applier needs.
	// *pgx.Conn and pgxpool.Pool both satisfy it.
	Execer interface {
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	}

	// Applier executes a synthesized migration script statement by statement
	// against a live database.
	//
	// Execution is deliberately not wrapped in one transaction: several DDL
	// forms (CREATE INDEX CONCURRENTLY, ALTER TYPE ADD VALUE) refuse to run
	// inside one, and a partially applied script is recoverable by re-diffing.
	//
	// Example usage:
	//
	//	applier := apply.New(conn, apply.Options{
	//		IgnoreCodes: apply.DefaultIgnoreCodes,
	//	})
	//	report, err := applier.Apply(ctx, res.Script)
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//	fmt.Printf("applied %d statements, ignored %d errors\n",
	//		report.Applied, len(report.Ignored))
	Applier struct {
		db   Execer
		opts Options
	}

	// Options configure one Applier.
	Options struct {
		// IgnoreCodes lists the SQLSTATE codes that downgrade a failing
		// statement to a logged skip. DefaultIgnoreCodes covers the usual
		// already-exists family.
		IgnoreCodes []string

		// Reporter receives one progress event per executed statement.
		Reporter progress.Reporter
	}

	// IgnoredError records one statement whose failure matched the ignore
	// list.
	IgnoredError struct {
		Code      string
		Message   string
		Statement string
	}

	// Report summarizes one Apply run.
	Report struct {
		// Applied counts the statements that executed successfully.
		Applied int

		// Ignored lists the failures that matched the ignore list.
		Ignored []IgnoredError
	}

	// StatementError reports the statement that aborted a run, with the
	// server's SQLSTATE code when one was available.
	StatementError struct {
		Code      string
		Statement string
		Err       error
	}
)

// DefaultIgnoreCodes are the SQLSTATE codes treated as ignorable by default:
// the duplicate-object family raised when a script is re-applied over a
// partially migrated database, plus feature-not-supported, which some managed
// providers raise for harmless statements such as tablespace assignment.
var DefaultIgnoreCodes = []string{
	"42P07", // duplicate_table
	"42710", // duplicate_object
	"42701", // duplicate_column
	"42P06", // duplicate_schema
	"42P04", // duplicate_database
	"0A000", // feature_not_supported
}

func (e *StatementError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("statement failed with %s: %v (statement: %s)", e.Code, e.Err, e.Statement)
	}
	return fmt.Sprintf("statement failed: %v (statement: %s)", e.Err, e.Statement)
}

func (e *StatementError) Unwrap() error { return e.Err }

// New creates an Applier over the given connection.
func New(db Execer, opts Options) *Applier {
	return &Applier{db: db, opts: opts}
}

// Apply executes the script in order. A failing statement whose SQLSTATE is
// on the ignore list is recorded and skipped; any other failure aborts the
// remaining script and returns the report of what ran before it, alongside a
// StatementError. Statements already executed stay applied; there is no
// rollback.
func (a *Applier) Apply(ctx context.Context, script []string) (*Report, error) {
	report := &Report{}

	for n, stmt := range script {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		progress.Emit(a.opts.Reporter, progress.Event{
			Percent: progress.Scale(n, len(script)),
			Message: fmt.Sprintf("applying statement %d of %d", n+1, len(script)),
			SQL:     stmt,
		})

		if _, err := a.db.Exec(ctx, stmt); err != nil {
			code := sqlState(err)
			if a.ignorable(code) {
				report.Ignored = append(report.Ignored, IgnoredError{
					Code:      code,
					Message:   err.Error(),
					Statement: stmt,
				})
				continue
			}
			return report, &StatementError{Code: code, Statement: stmt, Err: err}
		}
		report.Applied++
	}

	progress.Emit(a.opts.Reporter, progress.Event{Percent: 100, Message: "apply complete"})
	return report, nil
}

func (a *Applier) ignorable(code string) bool {
	if code == "" {
		return false
	}
	for _, c := range a.opts.IgnoreCodes {
		if c == code {
			return true
		}
	}
	return false
}

// sqlState extracts the server-reported SQLSTATE from an execution error, or
// "" for client-side failures.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Preview renders the script as a single reviewable SQL text without
// executing anything. Callers gate irreversible application behind it.
func Preview(script []string) string {
	if len(script) == 0 {
		return ""
	}
	return strings.Join(script, "\n") + "\n"
}
