package model

import "time"

// EventType distinguishes the two kinds of attendance events
type EventType string

const (
	ClockIn  EventType = "CLOCK_IN"
	ClockOut EventType = "CLOCK_OUT"
)

func (t EventType) IsValid() bool {
	return t == ClockIn || t == ClockOut
}

// Status classifies an attendance event against the volunteer's shift schedule.
// EarlyLeave and Overtime exist in the data model but no code path currently
// produces them: clock-outs are always recorded as OnTime.
type Status string

const (
	OnTime     Status = "ON_TIME"
	Late       Status = "LATE"
	EarlyLeave Status = "EARLY"
	Overtime   Status = "OVERTIME"
)

// Location is a GPS fix captured at attendance time
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Volunteer represents a registered kitchen volunteer
type Volunteer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	DefaultRole string    `json:"defaultRole"` // must match a schedule role or "Umum" (general)
	JoinDate    time.Time `json:"joinDate"`
}

// AttendanceRecord is a single immutable clock-in or clock-out event.
// VolunteerName and Activity are snapshots taken at creation time so the
// record stays meaningful if the volunteer's details change later.
type AttendanceRecord struct {
	ID               string    `json:"id"`
	VolunteerID      string    `json:"volunteerId"`
	VolunteerName    string    `json:"volunteerName"`
	Type             EventType `json:"type"`
	Status           Status    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	PhotoRef         string    `json:"photoRef"`
	Location         Location  `json:"location"`
	VerificationNote string    `json:"verificationNote,omitempty"`
	IsVerified       bool      `json:"isVerified"`
	Activity         string    `json:"activity,omitempty"`
}

// Verification is the photo-verification collaborator's judgement
type Verification struct {
	IsVerified bool
	Note       string
}

// Analysis is the structured operational analysis returned by the AI collaborator
type Analysis struct {
	Summary           string         `json:"summary"`
	AttendanceRate    float64        `json:"attendanceRate"`
	RoleBreakdown     map[string]int `json:"roleBreakdown"`
	PredictedPortions int            `json:"predictedPortions"`
	Anomalies         []string       `json:"anomalies"`
}
