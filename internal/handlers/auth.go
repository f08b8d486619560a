package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/encryptoo/encryptoo/internal/middleware"
	"github.com/encryptoo/encryptoo/internal/repo"
	"github.com/encryptoo/encryptoo/internal/web"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Sessions *middleware.SessionManager
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, "login.html", "", nil)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, "register.html", "", nil)
}

// Login verifies the credentials and establishes a session. Unknown user and
// wrong password produce the same notice so the response never reveals which
// factor failed.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.SetFlash(w, "Invalid form submission")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	user, err := h.UserRepo.GetByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			slog.Error("login: lookup user", "error", err)
		}
		web.SetFlash(w, "Invalid username or password")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		web.SetFlash(w, "Invalid username or password")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	token, err := h.Sessions.Issue(user.Username)
	if err != nil {
		slog.Error("login: issue session token", "error", err)
		web.RenderError(w, r, http.StatusInternalServerError)
		return
	}
	h.Sessions.SetCookie(w, token)
	web.SetFlash(w, "Login successful!")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Register creates a user with a bcrypt-hashed password. Empty fields and
// username/email conflicts abort with a notice and leave the store unchanged.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		web.SetFlash(w, "Invalid form submission")
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	email := strings.TrimSpace(r.FormValue("email"))

	if username == "" || password == "" || email == "" {
		web.SetFlash(w, "All fields are required")
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("register: hash password", "error", err)
		web.RenderError(w, r, http.StatusInternalServerError)
		return
	}

	if _, err := h.UserRepo.Create(r.Context(), username, string(hash), email); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			web.SetFlash(w, "Username or email already exists")
			http.Redirect(w, r, "/register", http.StatusFound)
			return
		}
		slog.Error("register: create user", "error", err)
		web.RenderError(w, r, http.StatusInternalServerError)
		return
	}

	web.SetFlash(w, "Registration successful! Please login.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Logout clears the session unconditionally.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)
	web.SetFlash(w, "You have been logged out")
	http.Redirect(w, r, "/login", http.StatusFound)
}
