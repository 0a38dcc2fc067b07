package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GeneralRole is the fallback role for volunteers without a scheduled shift.
// It never appears as a key in the table, so it carries no timing constraint.
const GeneralRole = "Umum"

// ClockTime is a time of day, stored as minutes since midnight (0-1439)
type ClockTime int

// ParseClockTime parses an "HH:MM" string
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime(h*60 + m), nil
}

// MustClockTime parses an "HH:MM" string and panics on error.
// Intended for the static default table only.
func MustClockTime(s string) ClockTime {
	ct, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return ct
}

func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Window is a role's configured shift window. Start and End may wrap past
// midnight (e.g. Gudang runs 18:00-02:00); the table does not resolve the
// wrap, the evaluator's arithmetic does.
type Window struct {
	Start       ClockTime
	End         ClockTime
	Description string
	Tasks       []string
}

// Table maps role names to their shift windows. Read-only after construction.
type Table map[string]Window

// Lookup returns the shift window for a role, if one is configured
func (t Table) Lookup(role string) (Window, bool) {
	w, ok := t[role]
	return w, ok
}

// Roles returns the configured role names in sorted order
func (t Table) Roles() []string {
	roles := make([]string, 0, len(t))
	for role := range t {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// HasRole reports whether a role is either scheduled or the general role
func (t Table) HasRole(role string) bool {
	if role == GeneralRole {
		return true
	}
	_, ok := t[role]
	return ok
}

// DefaultTable returns the production shift table for the kitchen site
func DefaultTable() Table {
	return Table{
		"Gudang": {
			Start:       MustClockTime("18:00"),
			End:         MustClockTime("02:00"),
			Description: "Persiapan Bahan Baku (Malam)",
			Tasks:       []string{"Bongkar Muat Sayur", "Kupas & Potong", "QC Bahan"},
		},
		"Helper": {
			Start:       MustClockTime("00:00"),
			End:         MustClockTime("08:00"),
			Description: "Helper Masak & Streamer (3 Shift)",
			Tasks:       []string{"Helper Umum (2 org)", "Potong Ayam (1 org)", "Streamer Nasi (1 org)"},
		},
		"Cook": {
			Start:       MustClockTime("01:00"),
			End:         MustClockTime("09:00"),
			Description: "Tim Utama Memasak",
			Tasks:       []string{"Tahap 1 (02:00-05:00)", "Tahap 2 (05:00-08:00)", "Seasoning"},
		},
		"Pemorsian": {
			Start:       MustClockTime("03:00"),
			End:         MustClockTime("11:00"),
			Description: "Packing & Plating",
			Tasks:       []string{"Tahap 1 (03:00-06:00)", "Tahap 2 (06:00-10:00)"},
		},
		"Driver": {
			Start:       MustClockTime("07:00"),
			End:         MustClockTime("15:00"),
			Description: "Distribusi Makanan",
			Tasks:       []string{"Muat Barang", "Jalan Tahap 1 (07:30)", "Jalan Tahap 2 (10:30)"},
		},
		"Cuci Ompreng": {
			Start:       MustClockTime("13:30"),
			End:         MustClockTime("21:30"),
			Description: "Sanitasi & Kebersihan",
			Tasks:       []string{"Cuci Ompreng", "Sterilisasi Alat", "Bersih Area"},
		},
	}
}
