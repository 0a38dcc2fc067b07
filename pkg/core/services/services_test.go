package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
	"github.com/dapurmbg/kitchen-attendance/pkg/core/workflow"
)

type memRecordStore struct {
	records []model.AttendanceRecord
}

func (s *memRecordStore) Records() []model.AttendanceRecord { return s.records }

func (s *memRecordStore) AppendRecord(r model.AttendanceRecord) error {
	s.records = append([]model.AttendanceRecord{r}, s.records...)
	return nil
}

func (s *memRecordStore) Today(now time.Time) []model.AttendanceRecord {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	out := make([]model.AttendanceRecord, 0)
	for _, r := range s.records {
		if !r.Timestamp.Before(midnight) && r.Timestamp.Before(midnight.AddDate(0, 0, 1)) {
			out = append(out, r)
		}
	}
	return out
}

func (s *memRecordStore) PresentToday(now time.Time) int {
	seen := map[string]struct{}{}
	for _, r := range s.Today(now) {
		if r.Type == model.ClockIn {
			seen[r.VolunteerID] = struct{}{}
		}
	}
	return len(seen)
}

func (s *memRecordStore) LateToday(now time.Time) int {
	n := 0
	for _, r := range s.Today(now) {
		if r.Status == model.Late {
			n++
		}
	}
	return n
}

type memVolunteerStore struct {
	volunteers []model.Volunteer
}

func (s *memVolunteerStore) Volunteers() []model.Volunteer { return s.volunteers }

func (s *memVolunteerStore) InsertVolunteer(v model.Volunteer) error {
	s.volunteers = append(s.volunteers, v)
	return nil
}

func (s *memVolunteerStore) FilterVolunteers(query string) []model.Volunteer {
	out := make([]model.Volunteer, 0)
	for _, v := range s.volunteers {
		if strings.Contains(strings.ToLower(v.Name), strings.ToLower(query)) {
			out = append(out, v)
		}
	}
	return out
}

type stubAnalyzer struct {
	analysis model.Analysis
	err      error
}

func (a *stubAnalyzer) AnalyzeOperations(ctx context.Context, table schedule.Table, todayClockIns []model.AttendanceRecord, totalVolunteers int) (model.Analysis, error) {
	if a.err != nil {
		return model.Analysis{}, a.err
	}
	return a.analysis, nil
}

type stubReporter struct {
	report string
	err    error
}

func (r *stubReporter) GenerateDailyReport(ctx context.Context, records []model.AttendanceRecord) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.report, nil
}

type stubLocator struct{ fix model.Location }

func (l *stubLocator) Acquire(ctx context.Context) <-chan model.Location {
	ch := make(chan model.Location, 1)
	ch <- l.fix
	return ch
}

type stubVerifier struct{}

func (stubVerifier) VerifyCheckInPhoto(ctx context.Context, jpeg []byte) (model.Verification, error) {
	return model.Verification{IsVerified: true, Note: "Verified"}, nil
}

func testWorkflow(volunteers []model.Volunteer, store *memRecordStore, now time.Time) *workflow.Workflow {
	return workflow.New(workflow.Options{
		Records:    store,
		Volunteers: &memVolunteerStore{volunteers: volunteers},
		Evaluator: schedule.NewEvaluator(schedule.DefaultTable(),
			schedule.DefaultArrivalBuffer, schedule.DefaultEarlyWindow),
		Verifier: stubVerifier{},
		Locator:  &stubLocator{fix: model.Location{Latitude: -6.2, Longitude: 106.8}},
		Now:      func() time.Time { return now },
	})
}

func TestRunAttendance_ClockInByQuery(t *testing.T) {
	store := &memRecordStore{}
	volunteers := []model.Volunteer{
		{ID: "v1", Name: "Budi Santoso", DefaultRole: "Driver"},
		{ID: "v2", Name: "Siti Aminah", DefaultRole: "Pemorsian"},
	}
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.Local)
	wf := testWorkflow(volunteers, store, now)

	result, err := RunAttendance(context.Background(), wf, zap.NewNop(), "budi", model.ClockIn)
	require.NoError(t, err)

	assert.Equal(t, "Budi Santoso", result.Record.VolunteerName)
	assert.Equal(t, model.ClockIn, result.Record.Type)
	assert.Len(t, store.records, 1)
	assert.Equal(t, workflow.StateSelectingVolunteer, wf.State(), "one-shot run resets the workflow")
}

func TestRunAttendance_AmbiguousQuery(t *testing.T) {
	volunteers := []model.Volunteer{
		{ID: "v1", Name: "Budi Santoso", DefaultRole: "Driver"},
		{ID: "v2", Name: "Budi Hartono", DefaultRole: "Cook"},
	}
	wf := testWorkflow(volunteers, &memRecordStore{}, time.Now())

	_, err := RunAttendance(context.Background(), wf, zap.NewNop(), "budi", model.ClockIn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestRunAttendance_ExactMatchBeatsSubstring(t *testing.T) {
	store := &memRecordStore{}
	volunteers := []model.Volunteer{
		{ID: "v1", Name: "Budi", DefaultRole: "Umum"},
		{ID: "v2", Name: "Budi Santoso", DefaultRole: "Umum"},
	}
	wf := testWorkflow(volunteers, store, time.Now())

	result, err := RunAttendance(context.Background(), wf, zap.NewNop(), "Budi", model.ClockOut)
	require.NoError(t, err)
	assert.Equal(t, "v1", result.Record.VolunteerID)
}

func TestRunAttendance_UnknownVolunteer(t *testing.T) {
	wf := testWorkflow(nil, &memRecordStore{}, time.Now())

	_, err := RunAttendance(context.Background(), wf, zap.NewNop(), "nobody", model.ClockIn)
	assert.Error(t, err)
}

func TestRegisterVolunteer_NormalizesUnknownRole(t *testing.T) {
	store := &memVolunteerStore{}

	vol, err := RegisterVolunteer(store, schedule.DefaultTable(), zap.NewNop(),
		"Agus Wijaya", "0812000111", "Security")
	require.NoError(t, err)

	assert.Equal(t, schedule.GeneralRole, vol.DefaultRole)
	require.Len(t, store.volunteers, 1)
}

func TestRegisterVolunteer_KeepsScheduledRole(t *testing.T) {
	store := &memVolunteerStore{}

	vol, err := RegisterVolunteer(store, schedule.DefaultTable(), zap.NewNop(),
		"Agus Wijaya", "0812000111", "Cuci Ompreng")
	require.NoError(t, err)
	assert.Equal(t, "Cuci Ompreng", vol.DefaultRole)
	assert.NotEmpty(t, vol.ID)
}

func TestRegisterVolunteer_RequiresNameAndPhone(t *testing.T) {
	store := &memVolunteerStore{}
	table := schedule.DefaultTable()

	_, err := RegisterVolunteer(store, table, zap.NewNop(), "", "0812", "Cook")
	assert.Error(t, err)

	_, err = RegisterVolunteer(store, table, zap.NewNop(), "Agus", "  ", "Cook")
	assert.Error(t, err)

	assert.Empty(t, store.volunteers)
}

func TestDashboard_AggregatesWithAnalyzer(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	store := &memRecordStore{}
	require.NoError(t, store.AppendRecord(model.AttendanceRecord{
		ID: "a", VolunteerID: "v1", Type: model.ClockIn, Status: model.Late, Timestamp: now,
	}))
	require.NoError(t, store.AppendRecord(model.AttendanceRecord{
		ID: "b", VolunteerID: "v2", Type: model.ClockOut, Status: model.OnTime, Timestamp: now,
	}))

	volunteers := &memVolunteerStore{volunteers: []model.Volunteer{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}}}
	analyzer := &stubAnalyzer{analysis: model.Analysis{
		Summary:           "Operations nominal",
		AttendanceRate:    33.3,
		PredictedPortions: 450,
	}}

	result := Dashboard(context.Background(), store, volunteers, analyzer,
		schedule.DefaultTable(), zap.NewNop(), now)

	assert.Equal(t, 1, result.PresentToday)
	assert.Equal(t, 1, result.LateToday)
	assert.Equal(t, 3, result.TotalVolunteers)
	assert.Equal(t, TargetPortions, result.TargetPortions)
	assert.Equal(t, "Operations nominal", result.Analysis.Summary)
	assert.Equal(t, 450, result.Analysis.PredictedPortions)
}

func TestDashboard_AnalyzerFailureYieldsNeutralAnalysis(t *testing.T) {
	now := time.Now()
	store := &memRecordStore{}
	require.NoError(t, store.AppendRecord(model.AttendanceRecord{
		ID: "a", VolunteerID: "v1", Type: model.ClockIn, Status: model.OnTime, Timestamp: now,
	}))

	result := Dashboard(context.Background(), store, &memVolunteerStore{},
		&stubAnalyzer{err: errors.New("quota exceeded")},
		schedule.DefaultTable(), zap.NewNop(), now)

	// Aggregates survive, analysis falls back
	assert.Equal(t, 1, result.PresentToday)
	assert.Equal(t, "AI Analysis unavailable currently.", result.Analysis.Summary)
	assert.Zero(t, result.Analysis.PredictedPortions)
	assert.Empty(t, result.Analysis.Anomalies)
}

func TestDashboard_NilAnalyzer(t *testing.T) {
	result := Dashboard(context.Background(), &memRecordStore{}, &memVolunteerStore{},
		nil, schedule.DefaultTable(), zap.NewNop(), time.Now())

	assert.Equal(t, "AI Analysis unavailable currently.", result.Analysis.Summary)
}

func TestDailyReport_Fallback(t *testing.T) {
	store := &memRecordStore{}

	report := DailyReport(context.Background(), store, &stubReporter{report: "All good"}, zap.NewNop())
	assert.Equal(t, "All good", report)

	report = DailyReport(context.Background(), store, &stubReporter{err: errors.New("down")}, zap.NewNop())
	assert.Equal(t, "Error generating report.", report)

	report = DailyReport(context.Background(), store, nil, zap.NewNop())
	assert.Equal(t, "Error generating report.", report)
}

func TestExportRecords_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.xlsx")
	records := []model.AttendanceRecord{
		{
			ID:            "r2",
			VolunteerName: "Siti Aminah",
			Type:          model.ClockIn,
			Status:        model.Late,
			Timestamp:     time.Date(2025, 6, 15, 6, 45, 0, 0, time.Local),
			Activity:      "Pemorsian",
			Location:      model.Location{Latitude: -6.2, Longitude: 106.8, Accuracy: 10},
			IsVerified:    true,
		},
		{
			ID:            "r1",
			VolunteerName: "Budi Santoso",
			Type:          model.ClockOut,
			Status:        model.OnTime,
			Timestamp:     time.Date(2025, 6, 15, 15, 0, 0, 0, time.Local),
			Activity:      "Cook",
		},
	}

	require.NoError(t, ExportRecords(records, path, zap.NewNop()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per record")

	assert.Equal(t, "Record ID", rows[0][0])
	assert.Equal(t, "r2", rows[1][0])
	assert.Equal(t, "Siti Aminah", rows[1][1])
	assert.Equal(t, "LATE", rows[1][3])
	assert.Equal(t, "r1", rows[2][0])
}
