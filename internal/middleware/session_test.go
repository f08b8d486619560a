package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSessions() *SessionManager {
	return &SessionManager{Secret: []byte("test-secret"), TTL: time.Hour}
}

func TestRequireAuth_NoCookieRedirects(t *testing.T) {
	m := newTestSessions()

	called := false
	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if called {
		t.Error("protected handler must not run without a session")
	}
	if rr.Code != http.StatusFound {
		t.Errorf("status: got %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location: got %q, want /login", loc)
	}

	// A one-shot notice must be queued for the login page.
	flashSet := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == "encryptoo_flash" && c.Value != "" {
			flashSet = true
		}
	}
	if !flashSet {
		t.Error("expected a flash cookie on redirect")
	}
}

func TestRequireAuth_ValidTokenProceeds(t *testing.T) {
	m := newTestSessions()
	token, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got string
	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Username(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if got != "alice" {
		t.Errorf("context username: got %q, want alice", got)
	}
}

func TestRequireAuth_GarbageTokenRedirects(t *testing.T) {
	m := newTestSessions()

	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("protected handler must not run with a bad token")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-jwt"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Errorf("status: got %d, want 302", rr.Code)
	}
}

func TestRequireAuth_ExpiredTokenRedirects(t *testing.T) {
	m := &SessionManager{Secret: []byte("test-secret"), TTL: -time.Minute}
	token, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("protected handler must not run with an expired token")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Errorf("status: got %d, want 302", rr.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	m := newTestSessions()
	token, err := m.Issue("bob")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got string
	h := m.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Username(r)
	}))

	// Without a session: proceeds, no username.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/save-feedback", nil))
	if rr.Code != http.StatusOK || got != "" {
		t.Errorf("anonymous: status=%d username=%q", rr.Code, got)
	}

	// With a session: proceeds with username.
	req := httptest.NewRequest("POST", "/save-feedback", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got != "bob" {
		t.Errorf("authenticated: username=%q, want bob", got)
	}
}
