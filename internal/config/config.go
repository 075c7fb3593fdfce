package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // timezone must resolve on hosts without zoneinfo

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/duty-roster/pkg/core/discipline"
	"github.com/jakechorley/duty-roster/pkg/core/eligibility"
	"github.com/jakechorley/duty-roster/pkg/core/idle"
	"github.com/jakechorley/duty-roster/pkg/core/status"
)

// Weights are the discipline sub-score weights in percent
type Weights struct {
	Attendance int `yaml:"attendance" validate:"min=0,max=100"`
	Roster     int `yaml:"roster" validate:"min=0,max=100"`
	DailyLog   int `yaml:"dailyLog" validate:"min=0,max=100"`
	Reporting  int `yaml:"reporting" validate:"min=0,max=100"`
}

// Policy holds the business policy values most likely to change
type Policy struct {
	GatekeeperExcludeCount int     `yaml:"gatekeeperExcludeCount" validate:"min=1"`
	IdleSentinelDays       int     `yaml:"idleSentinelDays" validate:"min=1"`
	LatePenaltyPoints      int     `yaml:"latePenaltyPoints" validate:"min=0,max=100"`
	EndingSoonDays         int     `yaml:"endingSoonDays" validate:"min=0"`
	EnforceGatekeeper      bool    `yaml:"enforceGatekeeper"`
	Weights                Weights `yaml:"weights"`
}

// RecurringDuty is a named recurrence that can be expanded into assignments
type RecurringDuty struct {
	Name         string `yaml:"name" validate:"required"`
	RRule        string `yaml:"rrule" validate:"required"`
	Kind         string `yaml:"kind" validate:"required,oneof=On-site Remote"`
	DurationDays int    `yaml:"durationDays" validate:"min=1"`
}

// Config represents the application configuration
type Config struct {
	Timezone        string          `yaml:"timezone" validate:"required"`
	DatabaseURL     string          `yaml:"databaseURL" validate:"required_without=SnapshotPath"`
	SnapshotPath    string          `yaml:"snapshotPath" validate:"required_without=DatabaseURL"`
	Policy          Policy          `yaml:"policy"`
	RecurringDuties []RecurringDuty `yaml:"recurringDuties,omitempty" validate:"dive"`
}

// EnvOverrides are read from the process environment after the file is parsed.
// Non-empty values replace the file's, so connection strings need not be committed.
type EnvOverrides struct {
	Timezone     string `env:"DUTY_ROSTER_TIMEZONE"`
	DatabaseURL  string `env:"DUTY_ROSTER_DATABASE_URL"`
	SnapshotPath string `env:"DUTY_ROSTER_SNAPSHOT_PATH"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns a configuration carrying the standard policy values.
// Files are unmarshalled on top of it, so omitted keys keep these values.
func Default() Config {
	return Config{
		Timezone: "UTC",
		Policy: Policy{
			GatekeeperExcludeCount: eligibility.DefaultExcludeCount,
			IdleSentinelDays:       idle.DefaultSentinelDays,
			LatePenaltyPoints:      discipline.DefaultLatePenaltyPoints,
			EndingSoonDays:         status.DefaultEndingSoonDays,
			EnforceGatekeeper:      true,
			Weights: Weights{
				Attendance: discipline.DefaultWeights.Attendance,
				Roster:     discipline.DefaultWeights.Roster,
				DailyLog:   discipline.DefaultWeights.DailyLog,
				Reporting:  discipline.DefaultWeights.Reporting,
			},
		},
	}
}

// Load loads and validates the configuration from duty_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads duty_config_<env>.yaml, falling back to duty_config.yaml
func LoadWithEnv(env string) (*Config, error) {
	names := []string{"duty_config.yaml"}
	if env != "" {
		names = append([]string{fmt.Sprintf("duty_config_%s.yaml", env)}, names...)
	}

	configPath, err := findConfigFile(names)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	// godotenv keeps the first value it sees, so the env-specific file goes first
	dotEnv := []string{".env"}
	if env != "" {
		dotEnv = append([]string{fmt.Sprintf(".env.%s", env)}, dotEnv...)
	}
	if err := loadDotEnv(dotEnv); err != nil {
		return nil, err
	}

	return LoadFromPath(configPath)
}

// loadDotEnv loads whichever of the files exist. Variables already set in the
// environment are left alone.
func loadDotEnv(files []string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// applyEnvOverrides replaces file values with any DUTY_ROSTER_* variables that are set
func applyEnvOverrides(cfg *Config) error {
	overrides, err := env.ParseAs[EnvOverrides]()
	if err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if overrides.Timezone != "" {
		cfg.Timezone = overrides.Timezone
	}
	// A store chosen through the environment replaces the file's choice entirely
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
		cfg.SnapshotPath = ""
	}
	if overrides.SnapshotPath != "" && overrides.DatabaseURL == "" {
		cfg.SnapshotPath = overrides.SnapshotPath
		cfg.DatabaseURL = ""
	}
	return nil
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the timezone, the weights and rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	w := cfg.Policy.Weights
	if sum := w.Attendance + w.Roster + w.DailyLog + w.Reporting; sum != 100 {
		return fmt.Errorf("invalid policy weights: must sum to 100, got %d", sum)
	}

	// Validate rrule syntax for each recurring duty
	for i, duty := range cfg.RecurringDuties {
		if _, err := rrule.StrToRRule(duty.RRule); err != nil {
			return fmt.Errorf("invalid rrule in recurringDuties[%d]: %w", i, err)
		}
	}

	return nil
}

// Location returns the configured civil timezone. Validate has already checked it loads.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// RecurringDuty looks up a recurring duty by name
func (c *Config) RecurringDuty(name string) (*RecurringDuty, bool) {
	for i := range c.RecurringDuties {
		if c.RecurringDuties[i].Name == name {
			return &c.RecurringDuties[i], true
		}
	}
	return nil, false
}

// findConfigFile searches for the candidate names in current directory and home directory
func findConfigFile(names []string) (string, error) {
	// Check current directory
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, name := range names {
		homeConfigPath := filepath.Join(homeDir, name)
		if _, err := os.Stat(homeConfigPath); err == nil {
			return homeConfigPath, nil
		}
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
