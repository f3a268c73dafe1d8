// Package progress defines the event type used by the import, diff, and apply
// phases to report incremental progress to a supervising layer.
//
// Reporting is an outward notification only. Emitting an event never blocks a
// phase, and a nil reporter is valid everywhere one is accepted, so library
// code calls Emit unconditionally between per-object work units.
package progress

// Event carries one incremental progress notification from a phase.
type Event struct {
	// Percent is the completion percentage of the current phase (0-100).
	Percent int

	// Message is a human-readable description of the current work unit.
	Message string

	// ObjectKind names the kind of object being processed, if any.
	ObjectKind string

	// SQL is the DDL fragment associated with the work unit, if any.
	SQL string
}

// Reporter receives progress events from a running phase.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(Event)

// Report implements Reporter.
func (f ReporterFunc) Report(e Event) { f(e) }

// Emit sends an event to r if r is non-nil. Phases call this between work
// units without checking whether a reporter was configured.
func Emit(r Reporter, e Event) {
	if r != nil {
		r.Report(e)
	}
}

// Scale returns the percentage for step i of n, clamped to 0-100.
func Scale(i, n int) int {
	if n <= 0 {
		return 100
	}
	p := i * 100 / n
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
