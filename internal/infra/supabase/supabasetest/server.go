// Package supabasetest provides an in-memory stand-in for a hosted Supabase
// project, enough to exercise signup, password sign in, OTP and table calls.
package supabasetest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	AnonKey    = "anon-key"
	ServiceKey = "service-role-key"
)

// RecordedRequest is a request seen by the fake.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type user struct {
	id       string
	email    string
	password string
}

// Server is a fake project. Zero-value knobs behave like a permissive project
// with email confirmation disabled.
type Server struct {
	// RequireConfirmation makes password sign in fail with email_not_confirmed.
	RequireConfirmation bool
	// ProfileTrigger inserts {id,email} into "profiles" on signup.
	ProfileTrigger bool
	// RequiredColumns are NOT NULL columns enforced on insert into any table.
	RequiredColumns []string
	// OTPStatus overrides the /otp response status (200 when zero).
	OTPStatus int
	// OTPMessage is returned as {"msg": ...} when OTPStatus is not 200.
	OTPMessage string
	// FailDelete makes DELETE on the named table return 403.
	FailDelete string
	// FailSelect makes GET on the named table return 403.
	FailSelect string
	// DisableSignup and DisableEmail are reported by /settings. DisableSignup
	// also rejects /signup.
	DisableSignup bool
	DisableEmail  bool

	mu       sync.Mutex
	users    map[string]user
	tokens   map[string]string
	tables   map[string][]map[string]any
	requests []RecordedRequest

	srv *httptest.Server
}

// New starts the fake. Call Close when done.
func New(configure ...func(*Server)) *Server {
	s := &Server{
		users:  map[string]user{},
		tokens: map[string]string{},
		tables: map[string][]map[string]any{},
	}
	for _, fn := range configure {
		fn(s)
	}

	r := mux.NewRouter()
	r.Use(s.record, s.requireKey)

	auth := r.PathPrefix("/auth/v1").Subrouter()
	auth.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	auth.HandleFunc("/token", s.token).Methods(http.MethodPost)
	auth.HandleFunc("/otp", s.otp).Methods(http.MethodPost)
	auth.HandleFunc("/settings", s.settings).Methods(http.MethodGet)

	rest := r.PathPrefix("/rest/v1").Subrouter()
	rest.HandleFunc("/{table}", s.selectRows).Methods(http.MethodGet)
	rest.HandleFunc("/{table}", s.countRows).Methods(http.MethodHead)
	rest.HandleFunc("/{table}", s.upsertRow).Methods(http.MethodPost)
	rest.HandleFunc("/{table}", s.deleteRows).Methods(http.MethodDelete)

	s.srv = httptest.NewServer(r)
	return s
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// Requests returns a copy of everything received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Seed replaces the rows of a table.
func (s *Server) Seed(table string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = rows
}

// Rows returns a copy of the rows of a table.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, cloneRow(r))
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k := r.Header.Get("apikey")
		if k != AnonKey && k != ServiceKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Email == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": "validation_failed", "msg": "email and password required"})
		return
	}

	if s.DisableSignup {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error_code": "signup_disabled", "msg": "Signups not allowed for this instance"})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[c.Email]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error_code": "user_already_exists", "msg": "User already registered"})
		return
	}
	u := user{id: uuid.NewString(), email: c.Email, password: c.Password}
	s.users[c.Email] = u
	if s.ProfileTrigger {
		s.tables["profiles"] = append(s.tables["profiles"], map[string]any{"id": u.id, "email": u.email})
	}
	s.mu.Unlock()

	if s.RequireConfirmation {
		writeJSON(w, http.StatusOK, map[string]any{"id": u.id, "email": u.email, "confirmation_sent_at": "2026-01-01T00:00:00Z"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.issueToken(u.id),
		"token_type":   "bearer",
		"user":         map[string]any{"id": u.id, "email": u.email},
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": "unsupported_grant_type"})
		return
	}
	var c credentials
	_ = json.NewDecoder(r.Body).Decode(&c)

	s.mu.Lock()
	u, ok := s.users[c.Email]
	s.mu.Unlock()
	if !ok || u.password != c.Password {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": "invalid_credentials", "msg": "Invalid login credentials"})
		return
	}
	if s.RequireConfirmation {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": "email_not_confirmed", "msg": "Email not confirmed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  s.issueToken(u.id),
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": "refresh-" + u.id,
		"user":          map[string]any{"id": u.id, "email": u.email},
	})
}

func (s *Server) otp(w http.ResponseWriter, r *http.Request) {
	status := s.OTPStatus
	if status == 0 {
		status = http.StatusOK
	}
	if status == http.StatusOK {
		writeJSON(w, status, map[string]any{})
		return
	}
	writeJSON(w, status, map[string]any{"code": status, "msg": s.OTPMessage})
}

func (s *Server) settings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"external": map[string]any{
			"email":  !s.DisableEmail,
			"phone":  false,
			"google": false,
		},
		"disable_signup":     s.DisableSignup,
		"mailer_autoconfirm": !s.RequireConfirmation,
		"phone_autoconfirm":  false,
		"sms_provider":       "",
	})
}

func (s *Server) issueToken(userID string) string {
	tok := "jwt." + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.Repeat("x", 40)
	s.mu.Lock()
	s.tokens[tok] = userID
	s.mu.Unlock()
	return tok
}

func (s *Server) authorized(r *http.Request) bool {
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if bearer == AnonKey || bearer == ServiceKey {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[bearer]
	return ok
}

func (s *Server) selectRows(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "JWT invalid"})
		return
	}
	table := mux.Vars(r)["table"]
	if table == s.FailSelect {
		writeJSON(w, http.StatusForbidden, map[string]any{"code": "42501", "message": "permission denied for table " + table})
		return
	}

	s.mu.Lock()
	rows := filterRows(s.tables[table], r.URL.Query())
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) countRows(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	s.mu.Lock()
	n := len(s.tables[table])
	s.mu.Unlock()

	if n == 0 {
		w.Header().Set("Content-Range", "*/0")
	} else {
		w.Header().Set("Content-Range", fmt.Sprintf("0-%d/%d", n-1, n))
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) upsertRow(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "JWT invalid"})
		return
	}
	table := mux.Vars(r)["table"]

	var row map[string]any
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST102", "message": "Empty or invalid json"})
		return
	}

	for _, col := range s.RequiredColumns {
		if v, ok := row[col]; !ok || v == nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"code":    "23502",
				"message": fmt.Sprintf("null value in column %q of relation %q violates not-null constraint", col, table),
			})
			return
		}
	}

	conflict := r.URL.Query().Get("on_conflict")
	if conflict == "" {
		conflict = "id"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.tables[table] {
		if fmt.Sprint(existing[conflict]) == fmt.Sprint(row[conflict]) {
			for k, v := range row {
				existing[k] = v
			}
			s.tables[table][i] = existing
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	s.tables[table] = append(s.tables[table], row)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) deleteRows(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	if table == s.FailDelete {
		writeJSON(w, http.StatusForbidden, map[string]any{"code": "42501", "message": "permission denied for table " + table})
		return
	}
	if len(r.URL.Query()) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "21000", "message": "DELETE requires a WHERE clause"})
		return
	}

	s.mu.Lock()
	kept := make([]map[string]any, 0)
	for _, row := range s.tables[table] {
		if !matches(row, r.URL.Query()) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// filterRows supports "eq." and "neq." filters, which is all the gateways send.
func filterRows(rows []map[string]any, q url.Values) []map[string]any {
	out := make([]map[string]any, 0)
	for _, row := range rows {
		if matches(row, q) {
			out = append(out, cloneRow(row))
		}
	}
	return out
}

func matches(row map[string]any, q url.Values) bool {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, col := range keys {
		if col == "select" || col == "on_conflict" {
			continue
		}
		cond := q.Get(col)
		got := fmt.Sprint(row[col])
		switch {
		case strings.HasPrefix(cond, "eq."):
			if got != strings.TrimPrefix(cond, "eq.") {
				return false
			}
		case strings.HasPrefix(cond, "neq."):
			if got == strings.TrimPrefix(cond, "neq.") {
				return false
			}
		}
	}
	return true
}

func cloneRow(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
