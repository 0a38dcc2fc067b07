package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kitchen_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromPath_MinimalConfig(t *testing.T) {
	path := writeConfig(t, `
siteName: Dapur Kalibata 2
location:
  latitude: -6.255
  longitude: 106.851
  accuracy: 15
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "Dapur Kalibata 2", cfg.SiteName)
	assert.Equal(t, -6.255, cfg.Location.Latitude)

	// Defaults
	assert.Equal(t, "kitchen_state.json", cfg.StatePath)
	assert.Equal(t, 30, cfg.Policy.ArrivalBufferMinutes)
	assert.Equal(t, 120, cfg.Policy.EarlyWindowMinutes)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 30*time.Second, cfg.GeminiTimeout())
}

func TestLoadFromPath_MissingSiteName(t *testing.T) {
	path := writeConfig(t, `
location:
  latitude: 0
  longitude: 0
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidScheduleTime(t *testing.T) {
	path := writeConfig(t, `
siteName: Dapur
location:
  latitude: 0
  longitude: 0
schedules:
  Cook:
    start: "25:00"
    end: "09:00"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestShiftTable_DefaultsWhenUnconfigured(t *testing.T) {
	cfg := &Config{}
	table, err := cfg.ShiftTable()
	require.NoError(t, err)
	assert.Len(t, table, 6)

	driver, ok := table.Lookup("Driver")
	require.True(t, ok)
	assert.Equal(t, "07:00", driver.Start.String())
}

func TestShiftTable_FromConfig(t *testing.T) {
	path := writeConfig(t, `
siteName: Dapur
location:
  latitude: 0
  longitude: 0
schedules:
  Malam:
    start: "22:00"
    end: "06:00"
    description: Shift malam
    tasks: [Persiapan, Bersih]
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	table, err := cfg.ShiftTable()
	require.NoError(t, err)
	require.Len(t, table, 1)

	window, ok := table.Lookup("Malam")
	require.True(t, ok)
	assert.Equal(t, schedule.MustClockTime("22:00"), window.Start)
	assert.Equal(t, []string{"Persiapan", "Bersih"}, window.Tasks)
}

func TestPolicyDurations(t *testing.T) {
	path := writeConfig(t, `
siteName: Dapur
location:
  latitude: 0
  longitude: 0
policy:
  arrivalBufferMinutes: 45
  earlyWindowMinutes: 90
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.ArrivalBuffer())
	assert.Equal(t, 90*time.Minute, cfg.EarlyWindow())
}

func TestLoadFromPath_UnparseableYAML(t *testing.T) {
	path := writeConfig(t, "siteName: [unclosed")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
