// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load the env file: an explicit --env-file must exist, the implicit
//     .env is optional. Existing environment variables are never overridden.
//  2. Resolve <NAME>_FILE secret references for variables not already set.
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Fill derived defaults (the preference file path).
//  5. Populate BuildInfo from linker-injected variables.
//  6. Validate the struct using go-playground/validator.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is a diagnostic error type returned by LoadConfig to aid debugging.
// It wraps a ConfigErrorType and an underlying error message.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// secretFileSuffix marks a variable whose value is a path to the secret.
// PORTAL_SESSION_FILE=/run/secrets/portal fills PORTAL_SESSION.
const secretFileSuffix = "_FILE"

// secretVars are the variables that may be supplied through a file.
var secretVars = []string{"PORTAL_SESSION"}

// appDirName is the directory created under the user config dir.
const appDirName = "mistportal"

// loaderDeps holds the injectable dependencies for the loader, enabling
// testing without mutating global state.
type loaderDeps struct {
	lookupEnv     func(key string) (string, bool)
	setEnv        func(key, value string) error
	userConfigDir func() (string, error)
	secrets       SecretProvider
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv:     os.LookupEnv,
		setEnv:        os.Setenv,
		userConfigDir: os.UserConfigDir,
		secrets:       NewFileProvider(),
	}
}

// LoadConfig loads and validates the configuration. envFile is the value of
// --env-file; when empty, ./.env is loaded if present.
func LoadConfig(envFile string) (*Config, error) {
	return loadConfigWithDeps(envFile, defaultDeps())
}

func loadConfigWithDeps(envFile string, deps loaderDeps) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, &ConfigError{
				Type:    ErrEnvFile,
				Message: fmt.Sprintf("failed to load env file %s", envFile),
				Err:     err,
			}
		}
	} else {
		// godotenv.Load() silently succeeds if no .env file exists.
		_ = godotenv.Load()
	}

	if err := resolveSecretFiles(deps); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Portal.URL = strings.TrimSuffix(cfg.Portal.URL, "/")
	cfg.Weather.APIURL = strings.TrimSuffix(cfg.Weather.APIURL, "/")
	cfg.Weather.Lat = strings.TrimSpace(cfg.Weather.Lat)
	cfg.Weather.Lon = strings.TrimSpace(cfg.Weather.Lon)

	if cfg.Preferences.Path == "" {
		dir, err := deps.userConfigDir()
		if err != nil {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: "PREFS_PATH is unset and no user config directory is available",
				Err:     err,
			}
		}
		cfg.Preferences.Path = filepath.Join(dir, appDirName, "prefs.json")
	}

	cfg.Build = NewBuildInfo()

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	if (cfg.Weather.Lat == "") != (cfg.Weather.Lon == "") {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "WEATHER_LAT and WEATHER_LON must be set together",
		}
	}

	return &cfg, nil
}

// resolveSecretFiles reads <NAME>_FILE for each secret variable that is not
// already set and injects the file contents as <NAME>. A variable set
// directly always wins over its file.
func resolveSecretFiles(deps loaderDeps) error {
	pathToTarget := make(map[string]string)
	var paths []string

	for _, target := range secretVars {
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		path, ok := deps.lookupEnv(target + secretFileSuffix)
		if !ok || path == "" {
			continue
		}
		pathToTarget[path] = target
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resolved, err := deps.secrets.Resolve(ctx, paths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("failed to read %d secret files", len(paths)),
			Err:     err,
		}
	}

	var missing []string
	for _, path := range paths {
		target := pathToTarget[path]
		value, ok := resolved[path]
		if !ok {
			missing = append(missing, target+secretFileSuffix)
			continue
		}
		if err := deps.setEnv(target, value); err != nil {
			return &ConfigError{
				Type:    ErrSecretResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", target),
				Err:     err,
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("secret files not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}
