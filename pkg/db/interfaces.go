package db

import (
	"time"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
)

// RecordStore defines the attendance record operations consumed by the
// workflow and reporting services
type RecordStore interface {
	Records() []model.AttendanceRecord
	AppendRecord(record model.AttendanceRecord) error
	Today(now time.Time) []model.AttendanceRecord
	PresentToday(now time.Time) int
	LateToday(now time.Time) int
}

// VolunteerStore defines the volunteer roster operations
type VolunteerStore interface {
	Volunteers() []model.Volunteer
	InsertVolunteer(volunteer model.Volunteer) error
	FilterVolunteers(query string) []model.Volunteer
}
