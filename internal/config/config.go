package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dapurmbg/kitchen-attendance/pkg/core/schedule"
)

const configFileName = "kitchen_config.yaml"

// ScheduleEntry is a role's shift window as configured in YAML
type ScheduleEntry struct {
	Start       string   `yaml:"start" validate:"required,hhmm"`
	End         string   `yaml:"end" validate:"required,hhmm"`
	Description string   `yaml:"description,omitempty"`
	Tasks       []string `yaml:"tasks,omitempty"`
}

// Policy holds the site's attendance policy constants
type Policy struct {
	ArrivalBufferMinutes int `yaml:"arrivalBufferMinutes,omitempty" validate:"omitempty,min=0,max=720"`
	EarlyWindowMinutes   int `yaml:"earlyWindowMinutes,omitempty" validate:"omitempty,min=0,max=1440"`
}

// SiteLocation is the kitchen's fixed coordinates, used as the location fix
// for attendance records
type SiteLocation struct {
	Latitude  float64 `yaml:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `yaml:"longitude" validate:"min=-180,max=180"`
	Accuracy  float64 `yaml:"accuracy,omitempty" validate:"omitempty,min=0"`
}

// Camera configures how a check-in still is acquired. Exactly one of
// PhotoPath (a pre-captured JPEG) or CaptureCommand (an external capture
// program writing JPEG to stdout) should be set.
type Camera struct {
	PhotoPath      string   `yaml:"photoPath,omitempty"`
	CaptureCommand []string `yaml:"captureCommand,omitempty"`
}

// Gemini configures the AI collaborator calls
type Gemini struct {
	Model          string `yaml:"model,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty" validate:"omitempty,min=1,max=300"`
}

// Config represents the application configuration
type Config struct {
	SiteName  string                   `yaml:"siteName" validate:"required"`
	StatePath string                   `yaml:"statePath,omitempty"`
	Location  SiteLocation             `yaml:"location"`
	Camera    Camera                   `yaml:"camera,omitempty"`
	Gemini    Gemini                   `yaml:"gemini,omitempty"`
	Policy    Policy                   `yaml:"policy,omitempty"`
	Schedules map[string]ScheduleEntry `yaml:"schedules,omitempty" validate:"dive"`

	// GeminiAPIKey comes from the environment, never from YAML
	GeminiAPIKey string `yaml:"-"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseClockTime(fl.Field().String())
		return err == nil
	})
}

// LoadWithEnv loads the configuration for an environment. The environment
// selects kitchen_config.<env>.yaml when it exists, falling back to
// kitchen_config.yaml. Secrets are read from the process environment, with
// an optional .env file loaded first.
func LoadWithEnv(env string) (*Config, error) {
	// Missing .env is fine; the key may already be exported
	_ = godotenv.Load()

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	return cfg, nil
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// ShiftTable builds the schedule table from configuration, falling back to
// the built-in production table when no schedules are configured
func (c *Config) ShiftTable() (schedule.Table, error) {
	if len(c.Schedules) == 0 {
		return schedule.DefaultTable(), nil
	}

	table := make(schedule.Table, len(c.Schedules))
	for role, entry := range c.Schedules {
		start, err := schedule.ParseClockTime(entry.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid start time for role %q: %w", role, err)
		}
		end, err := schedule.ParseClockTime(entry.End)
		if err != nil {
			return nil, fmt.Errorf("invalid end time for role %q: %w", role, err)
		}
		table[role] = schedule.Window{
			Start:       start,
			End:         end,
			Description: entry.Description,
			Tasks:       entry.Tasks,
		}
	}
	return table, nil
}

// ArrivalBuffer returns the mandatory-arrival buffer as a duration
func (c *Config) ArrivalBuffer() time.Duration {
	return time.Duration(c.Policy.ArrivalBufferMinutes) * time.Minute
}

// EarlyWindow returns the early check-in ceiling as a duration
func (c *Config) EarlyWindow() time.Duration {
	return time.Duration(c.Policy.EarlyWindowMinutes) * time.Minute
}

// GeminiTimeout returns the per-call deadline for AI collaborator requests
func (c *Config) GeminiTimeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

func applyDefaults(cfg *Config) {
	if cfg.StatePath == "" {
		cfg.StatePath = "kitchen_state.json"
	}
	if cfg.Policy.ArrivalBufferMinutes == 0 {
		cfg.Policy.ArrivalBufferMinutes = int(schedule.DefaultArrivalBuffer.Minutes())
	}
	if cfg.Policy.EarlyWindowMinutes == 0 {
		cfg.Policy.EarlyWindowMinutes = int(schedule.DefaultEarlyWindow.Minutes())
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.TimeoutSeconds == 0 {
		cfg.Gemini.TimeoutSeconds = 30
	}
}

// findConfigFile searches the current directory and then the home directory,
// preferring an environment-specific file when one exists
func findConfigFile(env string) (string, error) {
	candidates := []string{}
	if env != "" {
		candidates = append(candidates, fmt.Sprintf("kitchen_config.%s.yaml", env))
	}
	candidates = append(candidates, configFileName)

	homeDir, homeErr := os.UserHomeDir()

	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
		if homeErr == nil {
			homePath := filepath.Join(homeDir, name)
			if _, err := os.Stat(homePath); err == nil {
				return homePath, nil
			}
		}
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
