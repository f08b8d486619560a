package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/encryptoo/encryptoo/internal/web"
	"github.com/golang-jwt/jwt/v5"
)

type key string

// UsernameKey holds the authenticated username in the request context.
const UsernameKey key = "username"

// SessionCookie is the name of the signed session cookie.
const SessionCookie = "encryptoo_session"

// SessionManager issues and verifies the JWT held in the session cookie.
// It is the Session Guard for every protected route: no valid token means
// a flash notice and a redirect to /login, and the wrapped handler never runs.
type SessionManager struct {
	Secret []byte
	TTL    time.Duration
}

// Issue signs a session token for the given username.
func (m *SessionManager) Issue(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(m.TTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.Secret)
}

// SetCookie attaches the session token to the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie drops the session cookie unconditionally.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
}

// verify returns the username from a valid session cookie, or "".
func (m *SessionManager) verify(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	token, err := jwt.Parse(c.Value, func(t *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	username, _ := claims["username"].(string)
	return username
}

// RequireAuth guards a route. Unauthenticated requests are redirected to
// /login with a one-shot notice; authenticated ones proceed with the
// username in the context.
func (m *SessionManager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := m.verify(r)
		if username == "" {
			web.SetFlash(w, "Please login first")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), UsernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the username when a valid session exists but never
// blocks the request. Used by /save-feedback, which accepts anonymous posts.
func (m *SessionManager) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if username := m.verify(r); username != "" {
			r = r.WithContext(context.WithValue(r.Context(), UsernameKey, username))
		}
		next.ServeHTTP(w, r)
	})
}

// Username returns the authenticated username from the context, or "".
func Username(r *http.Request) string {
	username, _ := r.Context().Value(UsernameKey).(string)
	return username
}
