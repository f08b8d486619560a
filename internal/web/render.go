// Package web renders the server-side HTML pages and carries the one-shot
// flash notices between redirects.
package web

import (
	"embed"
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates
var templatesFS embed.FS

var tmpl = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// PageData is the payload every template receives.
type PageData struct {
	Flash    string
	Username string
	Data     map[string]any
}

// Render writes the named template with the pending flash notice and the
// session username filled in. data may be nil.
func Render(w http.ResponseWriter, r *http.Request, name, username string, data map[string]any) {
	pd := PageData{
		Flash:    PopFlash(w, r),
		Username: username,
		Data:     data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, pd); err != nil {
		slog.Error("render template", "template", name, "error", err)
	}
}

// RenderError writes a minimal error page with the given status.
func RenderError(w http.ResponseWriter, r *http.Request, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = tmpl.ExecuteTemplate(w, "error.html", PageData{
		Flash: PopFlash(w, r),
		Data:  map[string]any{"Status": status, "Text": http.StatusText(status)},
	})
}

// Cookie values may contain spaces and punctuation; base64 keeps them legal.

func encodeCookieValue(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func decodeCookieValue(s string) (string, error) {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
