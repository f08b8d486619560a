package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/encryptoo/encryptoo/internal/artifact"
	"github.com/encryptoo/encryptoo/internal/metrics"
	"github.com/encryptoo/encryptoo/internal/middleware"
	"github.com/encryptoo/encryptoo/internal/stego"
	"github.com/encryptoo/encryptoo/internal/web"
)

// allowedExtensions is the fixed upload allow-list, matched case-insensitively.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".txt":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename strips path components and unsafe characters. The result
// is used for logging only; stored files always get server-chosen names.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean(name))
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// ==========================
// Upload Handler
// ==========================
type UploadHandler struct {
	Artifacts *artifact.Store
}

func (h *UploadHandler) EncodeForm(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, "uploadenc.html", middleware.Username(r), nil)
}

func (h *UploadHandler) DecodeForm(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, "uploaddec.html", middleware.Username(r), nil)
}

// receiveFile validates the multipart "file" field against the allow-list.
// On failure it flashes a notice, redirects back to the originating form, and
// returns false; nothing is written in that case.
func (h *UploadHandler) receiveFile(w http.ResponseWriter, r *http.Request, backTo string) (io.ReadCloser, string, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		web.SetFlash(w, "No file part")
		http.Redirect(w, r, backTo, http.StatusFound)
		return nil, "", false
	}
	if header.Filename == "" {
		file.Close()
		web.SetFlash(w, "No file selected for uploading")
		http.Redirect(w, r, backTo, http.StatusFound)
		return nil, "", false
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		file.Close()
		web.SetFlash(w, "Allowed file types are -> png, jpg, jpeg, gif, txt")
		http.Redirect(w, r, backTo, http.StatusFound)
		return nil, "", false
	}
	slog.Info("upload received",
		"user", middleware.Username(r),
		"filename", sanitizeFilename(header.Filename),
		"size", header.Size)
	return file, ext, true
}

// Encode receives a carrier image and a message, stores the carrier in the
// user's encode-input slot, and runs the encode transform synchronously. The
// user's slots are locked for the whole pipeline so a concurrent upload can
// never interleave with the transform's read.
func (h *UploadHandler) Encode(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r)

	file, ext, ok := h.receiveFile(w, r, "/uploadenc/")
	if !ok {
		return
	}
	defer file.Close()

	message := r.FormValue("message")
	if message == "" {
		web.SetFlash(w, "A message to hide is required")
		http.Redirect(w, r, "/uploadenc/", http.StatusFound)
		return
	}

	start := time.Now()
	err := h.Artifacts.WithUserLock(username, func() error {
		in, err := h.Artifacts.Put(username, artifact.KindEncodeInput, ext, file)
		if err != nil {
			return err
		}

		carrier, err := h.Artifacts.Open(in)
		if err != nil {
			return err
		}
		defer carrier.Close()

		var encoded bytes.Buffer
		if err := stego.Encode(r.Context(), carrier, []byte(message), &encoded); err != nil {
			return err
		}

		_, err = h.Artifacts.Put(username, artifact.KindEncodeOutput, ".png", &encoded)
		return err
	})
	metrics.RecordTransform("encode", err, time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, stego.ErrMessageTooLarge):
			web.SetFlash(w, "That message is too large for the chosen image")
			http.Redirect(w, r, "/uploadenc/", http.StatusFound)
		case errors.Is(err, stego.ErrBadImage):
			web.SetFlash(w, "Could not read that file as an image")
			http.Redirect(w, r, "/uploadenc/", http.StatusFound)
		default:
			slog.Error("encode transform", "user", username, "error", err)
			web.RenderError(w, r, http.StatusInternalServerError)
		}
		return
	}

	web.Render(w, r, "index.html", username, nil)
}

// Decode receives an encoded artifact, stores it in the user's decode-input
// slot, and runs the decode transform. The recovered message lands in the
// decode-output slot for the output page.
func (h *UploadHandler) Decode(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r)

	file, ext, ok := h.receiveFile(w, r, "/uploaddec/")
	if !ok {
		return
	}
	defer file.Close()

	start := time.Now()
	err := h.Artifacts.WithUserLock(username, func() error {
		in, err := h.Artifacts.Put(username, artifact.KindDecodeInput, ext, file)
		if err != nil {
			return err
		}

		encoded, err := h.Artifacts.Open(in)
		if err != nil {
			return err
		}
		defer encoded.Close()

		message, err := stego.Decode(r.Context(), encoded)
		if err != nil {
			return err
		}

		_, err = h.Artifacts.Put(username, artifact.KindDecodeOutput, ".txt", bytes.NewReader(message))
		return err
	})
	metrics.RecordTransform("decode", err, time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, stego.ErrNotEncoded), errors.Is(err, stego.ErrCorrupt):
			web.SetFlash(w, "That file does not contain a recoverable message")
			http.Redirect(w, r, "/uploaddec/", http.StatusFound)
		case errors.Is(err, stego.ErrBadImage):
			web.SetFlash(w, "Could not read that file as an image")
			http.Redirect(w, r, "/uploaddec/", http.StatusFound)
		default:
			slog.Error("decode transform", "user", username, "error", err)
			web.RenderError(w, r, http.StatusInternalServerError)
		}
		return
	}

	web.Render(w, r, "index.html", username, nil)
}
