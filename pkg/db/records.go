package db

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
)

// Records returns all attendance records, newest first
func (d *DB) Records() []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, len(d.records))
	copy(out, d.records)
	return out
}

// AppendRecord prepends a new record (newest-first invariant) and persists
// the whole collection
func (d *DB) AppendRecord(record model.AttendanceRecord) error {
	updated := make([]model.AttendanceRecord, 0, len(d.records)+1)
	updated = append(updated, record)
	updated = append(updated, d.records...)

	if err := d.state.Set(KeyAttendanceRecords, updated); err != nil {
		return fmt.Errorf("failed to persist attendance records: %w", err)
	}
	d.records = updated

	d.logger.Info("Attendance record saved",
		zap.String("id", record.ID),
		zap.String("volunteer", record.VolunteerName),
		zap.String("type", string(record.Type)),
		zap.String("status", string(record.Status)))

	return nil
}

// Today returns records whose timestamp falls on the same local calendar day as now
func (d *DB) Today(now time.Time) []model.AttendanceRecord {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	next := midnight.AddDate(0, 0, 1)

	out := make([]model.AttendanceRecord, 0)
	for _, r := range d.records {
		ts := r.Timestamp.In(now.Location())
		if !ts.Before(midnight) && ts.Before(next) {
			out = append(out, r)
		}
	}
	return out
}

// OnDate returns records whose timestamp falls on the given local calendar day
func (d *DB) OnDate(day time.Time) []model.AttendanceRecord {
	return d.Today(day)
}

// PresentToday counts distinct volunteers with at least one clock-in today
func (d *DB) PresentToday(now time.Time) int {
	seen := make(map[string]struct{})
	for _, r := range d.Today(now) {
		if r.Type == model.ClockIn {
			seen[r.VolunteerID] = struct{}{}
		}
	}
	return len(seen)
}

// LateToday counts today's records classified as late
func (d *DB) LateToday(now time.Time) int {
	count := 0
	for _, r := range d.Today(now) {
		if r.Status == model.Late {
			count++
		}
	}
	return count
}

// Volunteers returns all registered volunteers in registration order
func (d *DB) Volunteers() []model.Volunteer {
	out := make([]model.Volunteer, len(d.volunteers))
	copy(out, d.volunteers)
	return out
}

// InsertVolunteer appends a volunteer and persists the whole collection
func (d *DB) InsertVolunteer(volunteer model.Volunteer) error {
	updated := append(append([]model.Volunteer{}, d.volunteers...), volunteer)

	if err := d.state.Set(KeyVolunteers, updated); err != nil {
		return fmt.Errorf("failed to persist volunteers: %w", err)
	}
	d.volunteers = updated

	d.logger.Info("Volunteer registered",
		zap.String("id", volunteer.ID),
		zap.String("name", volunteer.Name),
		zap.String("role", volunteer.DefaultRole))

	return nil
}

// FilterVolunteers returns volunteers whose name contains the query,
// case-insensitively. An empty query matches everyone.
func (d *DB) FilterVolunteers(query string) []model.Volunteer {
	query = strings.ToLower(query)
	out := make([]model.Volunteer, 0)
	for _, v := range d.volunteers {
		if strings.Contains(strings.ToLower(v.Name), query) {
			out = append(out, v)
		}
	}
	return out
}
