// Package session decides whether a page may render for the current visitor
// and carries the portal session cookie on outbound requests.
package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"mistportal/internal/types"
)

const (
	// CookieName is the cookie the portal issues on login.
	CookieName = "session"
	// LoginPath is where unauthenticated visitors are sent.
	LoginPath = "/"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard checks for the session cookie. Pages that opt out (the portal's
// "noauth" marker) are always allowed.
type Guard struct {
	CookieName string
	RedirectTo string
}

// NewGuard returns a Guard using the portal defaults.
func NewGuard() Guard {
	return Guard{CookieName: CookieName, RedirectTo: LoginPath}
}

// Check allows the page when optOut is set or a non-empty session cookie is
// present; otherwise it asks for a redirect to the login page.
func (g Guard) Check(optOut bool, cookies []*http.Cookie) Decision {
	if optOut {
		return Decision{Allowed: true}
	}
	for _, c := range cookies {
		if c.Name == g.CookieName && c.Value != "" {
			return Decision{Allowed: true}
		}
	}
	return Decision{RedirectTo: g.RedirectTo}
}

// Err converts a redirect decision into an auth error; allowed decisions
// return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return types.NewAppErrorWithDetails(types.ErrCodeAuthSessionMissing,
		"no portal session; log in at the portal first", nil,
		map[string]any{"redirect_to": d.RedirectTo})
}

// NewJar builds a cookie jar holding the session token for the portal host.
// An empty token yields an empty jar.
func NewJar(baseURL string, token types.SecretString) (http.CookieJar, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "portal URL is not absolute", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create cookie jar", err)
	}
	if !token.IsZero() {
		jar.SetCookies(u, []*http.Cookie{{
			Name:  CookieName,
			Value: token.Unmask(),
			Path:  "/",
		}})
	}
	return jar, nil
}

// Cookies returns the cookies the jar would send to the portal root.
func Cookies(jar http.CookieJar, baseURL string) []*http.Cookie {
	u, err := url.Parse(baseURL)
	if err != nil || jar == nil {
		return nil
	}
	return jar.Cookies(u)
}

// IsLoginRedirect reports whether a portal response is bouncing the caller
// back to the login page.
func IsLoginRedirect(resp *http.Response) bool {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return true
	}
	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return false
	}
	loc, err := resp.Location()
	if err != nil {
		return false
	}
	return loc.Path == LoginPath || loc.Path == ""
}
