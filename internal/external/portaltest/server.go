// Package portaltest provides an in-memory stand-in for the misting device's
// portal API. It mirrors what the device firmware does with each request so
// client code can be exercised end to end without hardware.
package portaltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
)

// MaxLogEntries is how many weather log entries the device keeps.
const MaxLogEntries = 21

// Server is a fake portal. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	token      string
	automation bool
	active     bool
	schedule   map[string][]int
	location   map[string]float64
	log        []json.RawMessage
	failures   map[string]int
	refusals   map[string]bool
	requestIDs []string
	calls      map[string]int
	gzip       bool
}

// Option configures a Server.
type Option func(*Server)

// WithSession requires the given session cookie on every /api request.
func WithSession(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithGzip compresses every JSON response.
func WithGzip() Option {
	return func(s *Server) { s.gzip = true }
}

// WithLocation sets the coordinate returned in /api/config.
func WithLocation(lat, lon float64) Option {
	return func(s *Server) { s.location = map[string]float64{"lat": lat, "lon": lon} }
}

// New starts a fake portal. Callers must Close it.
func New(opts ...Option) *Server {
	s := &Server{
		schedule: map[string][]int{},
		failures: map[string]int{},
		refusals: map[string]bool{},
		calls:    map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Use(s.injectFailure)
		r.Get("/config", s.handleGetConfig)
		r.Post("/schedule", s.handleSaveSchedule)
		r.Post("/misting", s.handleMisting)
		r.Get("/weather_log", s.handleGetLog)
		r.Post("/weather_log", s.handleAppendLog)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Fail makes the next request to method+path return status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Refuse makes the next POST to path answer 200 with {"success": false}
// without applying it, as the firmware does when a write fails.
func (s *Server) Refuse(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refusals[path] = true
}

// refused consumes a pending refusal for path and reports whether there was
// one.
func (s *Server) refused(w http.ResponseWriter, path string) bool {
	s.mu.Lock()
	refuse := s.refusals[path]
	delete(s.refusals, path)
	s.mu.Unlock()
	if refuse {
		s.writeJSON(w, map[string]any{"success": false})
	}
	return refuse
}

// SetRawSchedule stores minute values exactly as given, including sentinels.
func (s *Server) SetRawSchedule(schedule map[string][]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = schedule
}

// Schedule returns the stored schedule in minutes.
func (s *Server) Schedule() map[string][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]int, len(s.schedule))
	for k, v := range s.schedule {
		out[k] = append([]int(nil), v...)
	}
	return out
}

// Misting returns the stored toggles.
func (s *Server) Misting() (enabled, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.automation, s.active
}

// LogLen returns the number of stored weather log entries.
func (s *Server) LogLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

// Calls returns how many times method+path was requested.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// RequestIDs returns every X-Request-ID seen, in arrival order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		if id := r.Header.Get("X-Request-ID"); id != "" {
			s.requestIDs = append(s.requestIDs, id)
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			c, err := r.Cookie("session")
			if err != nil || c.Value != s.token {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		status, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if ok {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body := map[string]any{
		"automation_enabled": s.automation,
		"active":             s.active,
		"schedule":           s.schedule,
	}
	if s.location != nil {
		body["location"] = s.location
	}
	s.mu.Unlock()
	s.writeJSON(w, body)
}

// handleSaveSchedule parses "H:MM" strings into minutes and silently drops
// anything else, as the firmware does.
func (s *Server) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schedule map[string][]any `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.refused(w, r.URL.Path) {
		return
	}
	parsed := make(map[string][]int, len(req.Schedule))
	for day, times := range req.Schedule {
		mins := []int{}
		for _, t := range times {
			str, ok := t.(string)
			if !ok {
				continue
			}
			h, m, found := strings.Cut(str, ":")
			if !found {
				continue
			}
			hi, err1 := strconv.Atoi(h)
			mi, err2 := strconv.Atoi(m)
			if err1 != nil || err2 != nil {
				continue
			}
			mins = append(mins, hi*60+mi)
		}
		parsed[day] = mins
	}
	s.mu.Lock()
	s.schedule = parsed
	s.mu.Unlock()
	s.writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleMisting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
		Active  bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.refused(w, r.URL.Path) {
		return
	}
	s.mu.Lock()
	s.automation = req.Enabled
	s.active = req.Active
	s.mu.Unlock()
	s.writeJSON(w, map[string]any{"success": true})
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := append([]json.RawMessage{}, s.log...)
	s.mu.Unlock()
	s.writeJSON(w, map[string]any{"log": entries})
}

func (s *Server) handleAppendLog(w http.ResponseWriter, r *http.Request) {
	var entry json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.refused(w, r.URL.Path) {
		return
	}
	s.mu.Lock()
	s.log = append(s.log, entry)
	if len(s.log) > MaxLogEntries {
		s.log = s.log[len(s.log)-MaxLogEntries:]
	}
	s.mu.Unlock()
	s.writeJSON(w, map[string]any{"success": true})
}

func (s *Server) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if !s.gzip {
		_ = json.NewEncoder(w).Encode(body)
		return
	}
	w.Header().Set("Content-Encoding", "gzip")
	zw := gzip.NewWriter(w)
	_ = json.NewEncoder(zw).Encode(body)
	_ = zw.Close()
}
