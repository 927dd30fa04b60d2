// Package config defines mistportal's configuration. It is loaded once per
// invocation and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> --env-file / .env -> <NAME>_FILE secret files -> defaults
//
// Invalid values make the command fail before any request is sent.
package config

import (
	"time"

	"mistportal/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Portal      PortalConfig
	Weather     WeatherConfig
	Schedule    ScheduleConfig
	Preferences PreferencesConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// PortalConfig locates the misting device and carries the session issued by
// its login page.
type PortalConfig struct {
	URL       string        `envconfig:"PORTAL_URL" default:"http://mister.local" validate:"required,http_url"`
	Session   SecretString  `envconfig:"PORTAL_SESSION"`
	UserAgent string        `envconfig:"PORTAL_USER_AGENT" default:"mistportal/1.0"`
	Timeout   time.Duration `envconfig:"PORTAL_TIMEOUT" default:"10s" validate:"gt=0"`
	// MaxRetries stays 0 unless an operator opts in; a failed portal call is
	// reported, not repeated.
	MaxRetries int `envconfig:"PORTAL_MAX_RETRIES" default:"0" validate:"min=0,max=5"`
}

// WeatherConfig holds the weather.gov client settings and the optional
// default forecast coordinate.
type WeatherConfig struct {
	APIURL            string        `envconfig:"WEATHER_API_URL" default:"https://api.weather.gov" validate:"required,http_url"`
	UserAgent         string        `envconfig:"WEATHER_USER_AGENT" default:"mistportal/1.0 (misting portal client)" validate:"required"`
	Timeout           time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s" validate:"gt=0"`
	RequestsPerSecond float64       `envconfig:"WEATHER_RPS" default:"1" validate:"min=0"`
	MaxRedirects      int           `envconfig:"WEATHER_MAX_REDIRECTS" default:"3" validate:"min=0,max=10"`
	MaxRetries        int           `envconfig:"WEATHER_MAX_RETRIES" default:"0" validate:"min=0,max=5"`

	// Default coordinate; both or neither.
	Lat string `envconfig:"WEATHER_LAT" validate:"omitempty,latitude"`
	Lon string `envconfig:"WEATHER_LON" validate:"omitempty,longitude"`
}

// ScheduleConfig shapes the schedule editor.
type ScheduleConfig struct {
	SlotsPerDay int `envconfig:"SCHEDULE_SLOTS_PER_DAY" default:"4" validate:"min=1,max=12"`
}

// PreferencesConfig locates the local preference file. An empty Path is
// replaced with the user config directory during loading.
type PreferencesConfig struct {
	Path string `envconfig:"PREFS_PATH"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrEnvFile indicates an explicitly requested env file could not be read.
	ErrEnvFile ConfigErrorType = "ENV_FILE"
	// ErrSecretResolution indicates a <NAME>_FILE secret could not be read.
	ErrSecretResolution ConfigErrorType = "SECRET_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
