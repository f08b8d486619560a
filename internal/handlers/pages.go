package handlers

import (
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/encryptoo/encryptoo/internal/artifact"
	"github.com/encryptoo/encryptoo/internal/middleware"
	"github.com/encryptoo/encryptoo/internal/web"
	"github.com/nfnt/resize"
)

// ==========================
// Page Handler
// ==========================
type PageHandler struct {
	Artifacts *artifact.Store
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, "index.html", middleware.Username(r), nil)
}

func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, "about.html", middleware.Username(r), nil)
}

// Output shows the user's latest encode artifact and/or decoded message.
func (h *PageHandler) Output(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r)

	_, hasArtifact := h.Artifacts.Get(username, artifact.KindEncodeOutput)

	message := ""
	if a, ok := h.Artifacts.Get(username, artifact.KindDecodeOutput); ok {
		f, err := h.Artifacts.Open(a)
		if err == nil {
			data, readErr := io.ReadAll(f)
			f.Close()
			if readErr == nil {
				message = string(data)
			}
		}
	}

	web.Render(w, r, "output.html", username, map[string]any{
		"HasArtifact": hasArtifact,
		"Message":     message,
	})
}

// Artifact serves the user's encoded artifact for download.
func (h *PageHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r)
	a, ok := h.Artifacts.Get(username, artifact.KindEncodeOutput)
	if !ok {
		web.RenderError(w, r, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="encoded.png"`)
	http.ServeFile(w, r, a.Path)
}

// thumbnailWidth bounds the preview served on the output page.
const thumbnailWidth = 240

// Thumbnail serves a small preview of the encoded artifact. The preview is
// resized, so it no longer carries the message; downloads must use Artifact.
func (h *PageHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r)
	a, ok := h.Artifacts.Get(username, artifact.KindEncodeOutput)
	if !ok {
		web.RenderError(w, r, http.StatusNotFound)
		return
	}

	f, err := os.Open(a.Path)
	if err != nil {
		slog.Error("thumbnail: open artifact", "error", err)
		web.RenderError(w, r, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		slog.Error("thumbnail: decode artifact", "error", err)
		web.RenderError(w, r, http.StatusInternalServerError)
		return
	}

	thumb := resize.Thumbnail(thumbnailWidth, thumbnailWidth, img, resize.Lanczos3)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, thumb); err != nil {
		slog.Error("thumbnail: encode preview", "error", err)
	}
}
