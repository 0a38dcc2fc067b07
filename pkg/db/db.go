package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/model"
	"github.com/dapurmbg/kitchen-attendance/pkg/statefile"
)

// Storage keys in the local state file
const (
	KeyAttendanceRecords = "attendance_records"
	KeyVolunteers        = "volunteers"
	KeyRulesAccepted     = "rules_accepted"
)

// DB provides attendance and volunteer persistence over the local state file.
// Collections are loaded once at construction, held in memory, and written
// back as a whole on every mutation. There is no concurrent writer.
type DB struct {
	state  *statefile.Store
	logger *zap.Logger

	records    []model.AttendanceRecord // newest first
	volunteers []model.Volunteer
}

// NewDB loads collections from the state file. An empty volunteer collection
// is seeded with the site's starter roster so the kiosk is usable on first run.
func NewDB(state *statefile.Store, logger *zap.Logger) (*DB, error) {
	d := &DB{
		state:  state,
		logger: logger,
	}

	if !state.Get(KeyAttendanceRecords, &d.records) {
		d.records = []model.AttendanceRecord{}
	}
	logger.Debug("Loaded attendance records", zap.Int("count", len(d.records)))

	if !state.Get(KeyVolunteers, &d.volunteers) {
		d.volunteers = seedVolunteers()
		if err := state.Set(KeyVolunteers, d.volunteers); err != nil {
			return nil, fmt.Errorf("failed to persist seeded volunteers: %w", err)
		}
		logger.Info("Seeded default volunteers", zap.Int("count", len(d.volunteers)))
	}
	logger.Debug("Loaded volunteers", zap.Int("count", len(d.volunteers)))

	return d, nil
}

// RulesAccepted reports whether the one-time house rules prompt was confirmed
func (d *DB) RulesAccepted() bool {
	var accepted bool
	if !d.state.Get(KeyRulesAccepted, &accepted) {
		return false
	}
	return accepted
}

// AcceptRules persists the house rules acknowledgement flag
func (d *DB) AcceptRules() error {
	if err := d.state.Set(KeyRulesAccepted, true); err != nil {
		return fmt.Errorf("failed to persist rules acceptance: %w", err)
	}
	return nil
}

func seedVolunteers() []model.Volunteer {
	now := time.Now()
	return []model.Volunteer{
		{ID: uuid.New().String(), Name: "Budi Santoso", Phone: "08123456789", DefaultRole: "Cook", JoinDate: now},
		{ID: uuid.New().String(), Name: "Siti Aminah", Phone: "08129876543", DefaultRole: "Pemorsian", JoinDate: now},
	}
}
