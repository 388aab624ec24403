package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stillwaterhq/stillwater/internal/session/app"
)

/*
 * Common helpers for session core end-to-end tests: a fake coaching backend
 * with real token issuance/rotation semantics, and an application factory
 * that wires the full stack (vault, sqlite store, gateway, coordinator)
 * against it.
 */

const (
	testEmail    = "jo@example.com"
	testPassword = "Hunter2!"
	vaultSecret  = "e2e-device-secret"
)

// fakeBackend is a minimal coaching API: login issues a token pair, /users/me
// requires the current access token, /auth/refresh rotates the pair. Tokens
// can be invalidated to force the refresh and auth-failure paths.
type fakeBackend struct {
	mu sync.Mutex

	accessToken  string
	refreshToken string
	generation   int

	refreshExchanges int
	reminderCalls    int

	srv *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", b.handleLogin)
	mux.HandleFunc("/auth/refresh", b.handleRefresh)
	mux.HandleFunc("/users/me", b.handleCurrentUser)
	mux.HandleFunc("/notifications/day-one-reminder", b.handleReminder)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) url() string { return b.srv.URL }

// expireAccessToken invalidates the current access token while keeping the
// refresh token valid, forcing a refresh-and-replay on the next request.
func (b *fakeBackend) expireAccessToken() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessToken = ""
}

// revokeSession invalidates both tokens, so refresh also fails.
func (b *fakeBackend) revokeSession() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessToken = ""
	b.refreshToken = ""
}

func (b *fakeBackend) exchangeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshExchanges
}

func (b *fakeBackend) issuePair() (string, string) {
	b.generation++
	b.accessToken = "access-" + strconv.Itoa(b.generation)
	b.refreshToken = "refresh-" + strconv.Itoa(b.generation)
	return b.accessToken, b.refreshToken
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email != testEmail || req.Password != testPassword {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	b.mu.Lock()
	access, refresh := b.issuePair()
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken": access, "refreshToken": refresh,
	})
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshExchanges++
	if b.refreshToken == "" || req.RefreshToken != b.refreshToken {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	access, refresh := b.issuePair()
	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken": access, "refreshToken": refresh,
	})
}

func (b *fakeBackend) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	valid := b.accessToken != "" && r.Header.Get("Authorization") == "Bearer "+b.accessToken
	b.mu.Unlock()

	if !valid {
		writeError(w, http.StatusUnauthorized, "Token expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id": "usr_1", "email": testEmail, "firstName": "Jo",
	})
}

func (b *fakeBackend) handleReminder(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.reminderCalls++
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// newApplication wires a full application against the fake backend. The
// vault and database files live in dir so a second call with the same dir
// simulates an app restart.
func newApplication(t *testing.T, backend *fakeBackend, dir string) *app.Application {
	t.Helper()

	application, err := app.New(app.Config{
		APIBaseURL:   backend.url(),
		VaultSecret:  vaultSecret,
		VaultFile:    filepath.Join(dir, "session.vault"),
		DatabaseFile: filepath.Join(dir, "session.db"),
		Env:          "dev",
		LogLevel:     "error",
		LogFormat:    "text",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })
	return application
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"statusCode": status,
		"message":    message,
	})
}
