package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 15, hour, minute, 0, 0, time.Local)
}

func defaultEvaluator() *Evaluator {
	return NewEvaluator(DefaultTable(), DefaultArrivalBuffer, DefaultEarlyWindow)
}

func TestEvaluate_UnknownRoleAlwaysOK(t *testing.T) {
	eval := defaultEvaluator()

	times := []time.Time{at(0, 0), at(3, 33), at(12, 0), at(23, 59)}
	for _, now := range times {
		verdict := eval.Evaluate("Umum", now)
		assert.Equal(t, VerdictOK, verdict.Kind, "at %s", now.Format("15:04"))
	}

	verdict := eval.Evaluate("Nonexistent Role", at(12, 0))
	assert.Equal(t, VerdictOK, verdict.Kind)
}

func TestEvaluate_DriverBoundaries(t *testing.T) {
	// Driver starts 07:00, so the arrival deadline is 06:30
	eval := defaultEvaluator()

	tests := []struct {
		name string
		now  time.Time
		want VerdictKind
	}{
		{"one minute before deadline", at(6, 29), VerdictOK},
		{"exactly on deadline", at(6, 30), VerdictOK},
		{"one minute past deadline", at(6, 31), VerdictLate},
		{"just over two hours early", at(4, 29), VerdictTooEarly},
		{"just under two hours early", at(4, 31), VerdictOK},
		{"exactly two hours early", at(4, 30), VerdictOK},
		{"well into the shift", at(9, 0), VerdictLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := eval.Evaluate("Driver", tt.now)
			assert.Equal(t, tt.want, verdict.Kind)
		})
	}
}

func TestEvaluate_LateMessageIncludesStartTime(t *testing.T) {
	eval := defaultEvaluator()

	verdict := eval.Evaluate("Driver", at(6, 45))
	require.Equal(t, VerdictLate, verdict.Kind)
	assert.Contains(t, verdict.Message, "07:00")
	assert.Contains(t, verdict.Message, "30 menit")
}

func TestEvaluate_MidnightWrap(t *testing.T) {
	table := Table{
		"NoUnderflow": {Start: MustClockTime("00:30")},
		"Underflow":   {Start: MustClockTime("00:10")},
	}
	eval := NewEvaluator(table, DefaultArrivalBuffer, DefaultEarlyWindow)

	// Start 00:30 -> deadline 00:00, no underflow
	assert.Equal(t, VerdictOK, eval.Evaluate("NoUnderflow", at(0, 0)).Kind)
	assert.Equal(t, VerdictLate, eval.Evaluate("NoUnderflow", at(0, 1)).Kind)

	// Start 00:10 -> raw deadline -20 wraps to 23:40 the previous day
	assert.Equal(t, VerdictOK, eval.Evaluate("Underflow", at(23, 40)).Kind)
	assert.Equal(t, VerdictLate, eval.Evaluate("Underflow", at(23, 41)).Kind)
	assert.Equal(t, VerdictOK, eval.Evaluate("Underflow", at(21, 40)).Kind)
	assert.Equal(t, VerdictTooEarly, eval.Evaluate("Underflow", at(21, 39)).Kind)
}

func TestEvaluate_PureFunctionOfRoleAndInstant(t *testing.T) {
	eval := defaultEvaluator()

	now := at(6, 45)
	first := eval.Evaluate("Cook", now)
	second := eval.Evaluate("Cook", now)
	assert.Equal(t, first, second)
}

func TestEvaluate_ConfigurablePolicy(t *testing.T) {
	table := Table{"Driver": {Start: MustClockTime("07:00")}}
	eval := NewEvaluator(table, 60*time.Minute, 60*time.Minute)

	// Deadline moves to 06:00 with a 60-minute buffer
	assert.Equal(t, VerdictOK, eval.Evaluate("Driver", at(6, 0)).Kind)
	assert.Equal(t, VerdictLate, eval.Evaluate("Driver", at(6, 1)).Kind)
	// Early window shrinks to one hour
	assert.Equal(t, VerdictTooEarly, eval.Evaluate("Driver", at(4, 59)).Kind)
	assert.Equal(t, VerdictOK, eval.Evaluate("Driver", at(5, 0)).Kind)
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"07:00", 420, false},
		{"13:30", 810, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"07:60", 0, true},
		{"0700", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		ct, err := ParseClockTime(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, ct.Minutes())
	}
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	require.Len(t, table, 6)
	assert.Equal(t, []string{"Cook", "Cuci Ompreng", "Driver", "Gudang", "Helper", "Pemorsian"}, table.Roles())

	gudang, ok := table.Lookup("Gudang")
	require.True(t, ok)
	// Overnight window: wrap is the evaluator's problem, the table stores it as-is
	assert.Equal(t, "18:00", gudang.Start.String())
	assert.Equal(t, "02:00", gudang.End.String())
	assert.NotEmpty(t, gudang.Tasks)

	assert.True(t, table.HasRole(GeneralRole))
	assert.False(t, table.HasRole("Security"))
}
