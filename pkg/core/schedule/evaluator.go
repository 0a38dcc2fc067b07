package schedule

import (
	"fmt"
	"time"
)

// VerdictKind is the outcome of checking a clock-in time against a shift window
type VerdictKind string

const (
	VerdictOK       VerdictKind = "OK"
	VerdictLate     VerdictKind = "LATE"
	VerdictTooEarly VerdictKind = "TOO_EARLY"
)

// Verdict is an arrival-status judgement with a volunteer-facing message
type Verdict struct {
	Kind    VerdictKind
	Message string
}

const (
	// DefaultArrivalBuffer is how long before shift start a volunteer must arrive
	DefaultArrivalBuffer = 30 * time.Minute

	// DefaultEarlyWindow is how far ahead of the arrival deadline a check-in is accepted
	DefaultEarlyWindow = 2 * time.Hour
)

const minutesPerDay = 24 * 60

// Evaluator classifies clock-in times against the shift table. It is a pure
// function of the table, the policy durations, and the instant passed to
// Evaluate; the same role and instant always yield the same verdict.
type Evaluator struct {
	table         Table
	arrivalBuffer time.Duration
	earlyWindow   time.Duration
}

// NewEvaluator creates an evaluator with site policy durations.
// Non-positive durations fall back to the defaults.
func NewEvaluator(table Table, arrivalBuffer, earlyWindow time.Duration) *Evaluator {
	if arrivalBuffer <= 0 {
		arrivalBuffer = DefaultArrivalBuffer
	}
	if earlyWindow <= 0 {
		earlyWindow = DefaultEarlyWindow
	}
	return &Evaluator{
		table:         table,
		arrivalBuffer: arrivalBuffer,
		earlyWindow:   earlyWindow,
	}
}

// Table returns the shift table the evaluator reads from
func (e *Evaluator) Table() Table {
	return e.table
}

// Evaluate judges a clock-in at the given instant for the given role.
// Roles without a configured window carry no timing constraint and are
// always OK. Shifts are assumed to start and be checked into within one
// nominal 24-hour cycle of now, so a deadline that underflows midnight is
// wrapped onto the previous day's clock rather than tracked across dates.
func (e *Evaluator) Evaluate(role string, now time.Time) Verdict {
	window, ok := e.table.Lookup(role)
	if !ok {
		return Verdict{Kind: VerdictOK, Message: "Role umum"}
	}

	nowMinutes := now.Hour()*60 + now.Minute()

	deadline := window.Start.Minutes() - int(e.arrivalBuffer.Minutes())
	if deadline < 0 {
		deadline += minutesPerDay
	}

	diff := nowMinutes - deadline

	if diff < -int(e.earlyWindow.Minutes()) {
		return Verdict{
			Kind:    VerdictTooEarly,
			Message: fmt.Sprintf("Terlalu awal (Max %d jam sebelum shift)", int(e.earlyWindow.Hours())),
		}
	}

	if diff > 0 {
		return Verdict{
			Kind:    VerdictLate,
			Message: fmt.Sprintf("Terlambat! Wajib hadir %d menit sebelum %s", int(e.arrivalBuffer.Minutes()), window.Start),
		}
	}

	return Verdict{Kind: VerdictOK, Message: "Tepat Waktu"}
}
