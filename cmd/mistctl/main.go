// Package main implements mistctl, a command-line client for the misting
// device's web portal.
//
// Usage:
//
//	mistctl status
//	mistctl schedule show
//	mistctl schedule set --day mon --time "8:00 AM" --time "8:00 PM" --off sun
//	mistctl mist --enabled --active=false
//	mistctl forecast --lat 33.4484 --lon -112.0740
//	mistctl log
//	mistctl clock
//	mistctl theme toggle
//
// Configuration comes from the environment or an env file:
//
//	PORTAL_URL          - portal base URL (default http://mister.local)
//	PORTAL_SESSION      - value of the portal's "session" cookie
//	PORTAL_SESSION_FILE - file holding the session cookie value
//	WEATHER_LAT/LON     - default forecast coordinate
//	PREFS_PATH          - preference file (default in the user config dir)
//
// Exit status is 0 on success, 2 for invalid input, 3 when the portal
// session is missing or expired, 4 when the portal or weather.gov fails, and
// 1 otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mistportal/internal/config"
	"mistportal/internal/external"
	"mistportal/internal/preferences"
	"mistportal/internal/security"
	"mistportal/internal/session"
	"mistportal/internal/types"
	"mistportal/internal/ui"
)

const (
	// annotationNoAuth marks commands that run without a portal session.
	annotationNoAuth = "noauth"
	// annotationNoConfig marks commands that run without loading config.
	annotationNoConfig = "noconfig"
)

// newWeatherHTTPClient builds the client used for weather.gov. It refuses
// private destinations because the forecast URL is provider-supplied.
var newWeatherHTTPClient = func(cfg config.WeatherConfig) (*http.Client, error) {
	return security.NewSafeHTTPClient(cfg.Timeout, cfg.MaxRedirects)
}

// checkForecastURL vets the provider-supplied forecast URL before it is
// followed.
var checkForecastURL = func(ctx context.Context, rawURL string) error {
	return security.ValidateURL(ctx, nil, rawURL)
}

// app is the state shared by every command for one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer

	envFile  string
	logLevel string
	noColor  bool

	cfg     *config.Config
	logger  *slog.Logger
	portal  *external.PortalClient
	weather *external.WeatherGovClient
	prefs   *preferences.Store
	render  *ui.Renderer
	now     func() time.Time
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one mistctl invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{out: stdout, errOut: stderr, now: time.Now}

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	logger := a.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(stderr, nil))
	}
	code := exitCode(err)
	attrs := []any{"error", err, "exit_code", code}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		attrs = append(attrs, "code", string(appErr.Code))
		if redirect, ok := appErr.Details["redirect_to"]; ok {
			attrs = append(attrs, "redirect_to", redirect)
		}
	}
	logger.ErrorContext(ctx, "command failed", attrs...)
	return code
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		return types.ExitValidation
	}
	return types.ExitGeneric
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mistctl",
		Short:         "Manage a misting system through its web portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoConfig] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load configuration from this env file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output (also NO_COLOR)")

	root.AddCommand(
		newClockCmd(a),
		newThemeCmd(a),
		newScheduleCmd(a),
		newMistCmd(a),
		newForecastCmd(a),
		newLogCmd(a),
		newStatusCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration and builds the per-invocation dependencies.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return &config.ConfigError{
			Type:    config.ErrValidation,
			Message: fmt.Sprintf("unknown log level %q", levelName),
			Err:     err,
		}
	}

	requestID := uuid.NewString()
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level})).With(
		"request_id", requestID,
		"command", cmd.CommandPath(),
	)

	ctx := types.WithRequestID(cmd.Context(), requestID)
	ctx = types.WithLogger(ctx, a.logger)
	cmd.SetContext(ctx)

	a.prefs = preferences.NewStore(cfg.Preferences.Path)
	darkMode, err := a.prefs.DarkMode()
	if err != nil {
		a.logger.WarnContext(ctx, "failed to read preferences; using light theme", "error", err)
	}
	theme := preferences.ThemeFor(darkMode)
	if a.noColor || os.Getenv("NO_COLOR") != "" {
		theme = preferences.Plain(darkMode)
	}
	a.render = ui.NewRenderer(a.out, theme, time.Local)

	a.portal, err = external.NewPortalClient(&http.Client{Timeout: cfg.Portal.Timeout}, external.PortalClientConfig{
		BaseURL:   cfg.Portal.URL,
		Session:   cfg.Portal.Session,
		UserAgent: cfg.Portal.UserAgent,
		Retry:     retryPolicy(cfg.Portal.MaxRetries),
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	weatherHTTP, err := newWeatherHTTPClient(cfg.Weather)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build weather client", err)
	}
	a.weather = external.NewWeatherGovClient(weatherHTTP, external.WeatherGovConfig{
		BaseURL:           cfg.Weather.APIURL,
		UserAgent:         cfg.Weather.UserAgent,
		RequestsPerSecond: cfg.Weather.RequestsPerSecond,
		Retry:             retryPolicy(cfg.Weather.MaxRetries),
		Logger:            a.logger,
		CheckURL:          checkForecastURL,
	})

	if cmd.Annotations[annotationNoAuth] == "true" {
		return nil
	}
	decision := session.NewGuard().Check(false, a.portal.SessionCookies())
	if !decision.Allowed {
		a.logger.DebugContext(ctx, "no portal session", "redirect_to", decision.RedirectTo)
	}
	return decision.Err()
}

func retryPolicy(maxRetries int) external.RetryPolicy {
	p := external.DefaultRetryPolicy()
	p.MaxRetries = maxRetries
	return p
}
