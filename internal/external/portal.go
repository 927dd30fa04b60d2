package external

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mistportal/internal/session"
	"mistportal/internal/types"
)

// Portal endpoint paths.
const (
	pathConfig     = "/api/config"
	pathSchedule   = "/api/schedule"
	pathMisting    = "/api/misting"
	pathWeatherLog = "/api/weather_log"
)

// PortalClientConfig holds the configuration for creating a PortalClient.
type PortalClientConfig struct {
	BaseURL   string
	Session   types.SecretString
	UserAgent string
	Retry     RetryPolicy
	Logger    *slog.Logger
}

// PortalClient talks to the misting device's /api endpoints through
// BaseClient. The session cookie rides in a cookie jar, and redirects are not
// followed so a bounce to the login page surfaces as an auth error.
type PortalClient struct {
	base    *BaseClient
	baseURL string
	jar     http.CookieJar
	logger  *slog.Logger
}

// NewPortalClient creates a PortalClient. httpClient is copied, not mutated.
func NewPortalClient(httpClient *http.Client, cfg PortalClientConfig, opts ...BaseClientOption) (*PortalClient, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	jar, err := session.NewJar(baseURL, cfg.Session)
	if err != nil {
		return nil, err
	}

	var hc http.Client
	if httpClient != nil {
		hc = *httpClient
	}
	hc.Jar = jar
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "mistportal/1.0"
	}

	return &PortalClient{
		base:    NewBaseClient(&hc, "portal", cfg.Retry, userAgent, opts...),
		baseURL: baseURL,
		jar:     jar,
		logger:  logger,
	}, nil
}

// SessionCookies returns the cookies sent to the portal, for the session guard.
func (c *PortalClient) SessionCookies() []*http.Cookie {
	return session.Cookies(c.jar, c.baseURL)
}

// GetConfig fetches GET /api/config.
func (c *PortalClient) GetConfig(ctx context.Context) (*types.PortalConfig, error) {
	var cfg types.PortalConfig
	if err := c.call(ctx, "GetConfig", http.MethodGet, pathConfig, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveSchedule posts the schedule. It is validated first so an empty day or an
// out-of-range minute never leaves the process.
func (c *PortalClient) SaveSchedule(ctx context.Context, schedule types.WeeklySchedule) error {
	if schedule == nil {
		schedule = types.WeeklySchedule{}
	}
	if err := schedule.Validate(); err != nil {
		return err
	}
	body := types.ScheduleRequest{Schedule: schedule}
	if err := c.write(ctx, "SaveSchedule", pathSchedule, body); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "schedule saved", "days", len(schedule))
	return nil
}

// SetMisting posts {enabled, active}.
func (c *PortalClient) SetMisting(ctx context.Context, state types.MistingState) error {
	return c.write(ctx, "SetMisting", pathMisting, state)
}

// GetWeatherLog fetches GET /api/weather_log. A missing "log" key is an empty
// log.
func (c *PortalClient) GetWeatherLog(ctx context.Context) ([]types.WeatherLogEntry, error) {
	var out types.WeatherLog
	if err := c.call(ctx, "GetWeatherLog", http.MethodGet, pathWeatherLog, nil, &out); err != nil {
		return nil, err
	}
	if out.Log == nil {
		return []types.WeatherLogEntry{}, nil
	}
	return out.Log, nil
}

// AppendWeatherLog posts one entry to /api/weather_log.
func (c *PortalClient) AppendWeatherLog(ctx context.Context, entry types.WeatherLogEntry) error {
	return c.write(ctx, "AppendWeatherLog", pathWeatherLog, entry)
}

// writeResult is the body the device answers every POST with. It replies 200
// with success=false when it could not apply the change.
type writeResult struct {
	Success *bool `json:"success"`
}

// write posts in and checks the device's success flag. An empty body or one
// without the flag counts as success.
func (c *PortalClient) write(ctx context.Context, operation, path string, in any) error {
	var res writeResult
	err := c.call(ctx, operation, http.MethodPost, path, in, &res)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if res.Success != nil && !*res.Success {
		c.logger.WarnContext(ctx, "portal refused update", "operation", operation)
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamPortal,
			fmt.Sprintf("portal %s was refused by the device", operation),
			nil,
			map[string]any{"operation": operation},
		)
	}
	return nil
}

func (c *PortalClient) call(ctx context.Context, operation, method, path string, in, out any) error {
	start := time.Now()
	err := c.base.DoJSON(ctx, method, c.baseURL+path, in, out, func(resp *http.Response) error {
		return c.handleErrorResponse(resp, operation)
	})
	if err != nil {
		return c.wrapError(operation, err)
	}
	c.logger.DebugContext(ctx, "portal call complete",
		"operation", operation,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// handleErrorResponse maps non-2xx portal responses. 401/403 and redirects to
// the login page mean the session is gone.
func (c *PortalClient) handleErrorResponse(resp *http.Response, operation string) *types.AppError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	bodyStr := string(bodyBytes)

	c.logger.Warn("portal API error",
		"operation", operation,
		"status_code", resp.StatusCode,
		"response_body", bodyStr,
	)

	details := map[string]any{"operation": operation, "status_code": resp.StatusCode}
	if session.IsLoginRedirect(resp) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeAuthSessionExpired,
			"portal session expired; log in again",
			fmt.Errorf("portal %s returned %d", operation, resp.StatusCode),
			details,
		)
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamPortal,
		fmt.Sprintf("portal %s failed (%d)", operation, resp.StatusCode),
		fmt.Errorf("portal %s returned %d: %s", operation, resp.StatusCode, bodyStr),
		details,
	)
}

// wrapError keeps specific codes and folds generic upstream failures into
// the portal code.
func (c *PortalClient) wrapError(operation string, err error) error {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return types.NewAppError(types.ErrCodeUpstreamPortal, fmt.Sprintf("portal %s failed", operation), err)
	}
	code := appErr.Code
	if code == types.ErrCodeUpstreamUnavailable {
		code = types.ErrCodeUpstreamPortal
	}
	if strings.HasPrefix(appErr.Message, "portal ") {
		return &types.AppError{Code: code, Message: appErr.Message, Err: appErr.Err, Details: appErr.Details}
	}
	return &types.AppError{
		Code:    code,
		Message: fmt.Sprintf("portal %s: %s", operation, appErr.Message),
		Err:     appErr.Err,
		Details: appErr.Details,
	}
}

var _ Portal = (*PortalClient)(nil)
