package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/encryptoo/encryptoo/internal/artifact"
	"github.com/encryptoo/encryptoo/internal/middleware"
	"github.com/encryptoo/encryptoo/internal/stego"
)

func newUploadHandler(t *testing.T) *UploadHandler {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("artifact.NewStore: %v", err)
	}
	return &UploadHandler{Artifacts: store}
}

func carrierPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// multipartUpload builds an authenticated multipart POST with a "file" field
// and optional extra form fields.
func multipartUpload(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(content)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(context.WithValue(req.Context(), middleware.UsernameKey, "alice"))
}

func TestUploadHandler_Encode(t *testing.T) {
	h := newUploadHandler(t)

	req := multipartUpload(t, "/uploadenc/", "pic.png", carrierPNG(t), map[string]string{"message": "hidden words"})
	rr := httptest.NewRecorder()
	h.Encode(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (landing page)", rr.Code)
	}

	out, ok := h.Artifacts.Get("alice", artifact.KindEncodeOutput)
	if !ok {
		t.Fatal("expected an encode-output artifact")
	}
	f, err := os.Open(out.Path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()
	message, err := stego.Decode(context.Background(), f)
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if string(message) != "hidden words" {
		t.Errorf("round-trip message: got %q", message)
	}
}

func TestUploadHandler_Encode_BadExtension(t *testing.T) {
	h := newUploadHandler(t)

	req := multipartUpload(t, "/uploadenc/", "evil.exe", []byte("binary"), map[string]string{"message": "m"})
	rr := httptest.NewRecorder()
	h.Encode(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/uploadenc/" {
		t.Errorf("Location: got %q, want /uploadenc/", loc)
	}
	// No file written, no transform invoked.
	if _, ok := h.Artifacts.Get("alice", artifact.KindEncodeInput); ok {
		t.Error("rejected upload must not be stored")
	}
	if _, ok := h.Artifacts.Get("alice", artifact.KindEncodeOutput); ok {
		t.Error("rejected upload must not trigger a transform")
	}
}

func TestUploadHandler_Encode_ExtensionCaseInsensitive(t *testing.T) {
	h := newUploadHandler(t)

	req := multipartUpload(t, "/uploadenc/", "PIC.PNG", carrierPNG(t), map[string]string{"message": "m"})
	rr := httptest.NewRecorder()
	h.Encode(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestUploadHandler_Encode_MissingFilePart(t *testing.T) {
	h := newUploadHandler(t)

	req := multipartUpload(t, "/uploadenc/", "", nil, map[string]string{"message": "m"})
	rr := httptest.NewRecorder()
	h.Encode(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
}

func TestUploadHandler_Encode_MissingMessage(t *testing.T) {
	h := newUploadHandler(t)

	req := multipartUpload(t, "/uploadenc/", "pic.png", carrierPNG(t), nil)
	rr := httptest.NewRecorder()
	h.Encode(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
	if _, ok := h.Artifacts.Get("alice", artifact.KindEncodeOutput); ok {
		t.Error("missing message must not trigger a transform")
	}
}

func TestUploadHandler_Encode_NotAnImage(t *testing.T) {
	h := newUploadHandler(t)

	req := multipartUpload(t, "/uploadenc/", "notes.txt", []byte("just text"), map[string]string{"message": "m"})
	rr := httptest.NewRecorder()
	h.Encode(rr, req)

	// .txt passes the allow-list but cannot be a carrier.
	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
	if _, ok := h.Artifacts.Get("alice", artifact.KindEncodeOutput); ok {
		t.Error("unreadable carrier must not produce an artifact")
	}
}

// Uploading twice leaves exactly the second upload's bytes in the slot.
func TestUploadHandler_Encode_SecondUploadWins(t *testing.T) {
	h := newUploadHandler(t)

	rr := httptest.NewRecorder()
	h.Encode(rr, multipartUpload(t, "/uploadenc/", "pic.png", carrierPNG(t), map[string]string{"message": "first"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("first upload: status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Encode(rr, multipartUpload(t, "/uploadenc/", "pic.png", carrierPNG(t), map[string]string{"message": "second"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("second upload: status %d", rr.Code)
	}

	out, ok := h.Artifacts.Get("alice", artifact.KindEncodeOutput)
	if !ok {
		t.Fatal("expected an encode-output artifact")
	}
	f, err := os.Open(out.Path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()
	message, err := stego.Decode(context.Background(), f)
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if string(message) != "second" {
		t.Errorf("slot should hold the second upload's result, got %q", message)
	}
}

func TestUploadHandler_Decode(t *testing.T) {
	h := newUploadHandler(t)

	var encoded bytes.Buffer
	if err := stego.Encode(context.Background(), bytes.NewReader(carrierPNG(t)), []byte("buried treasure"), &encoded); err != nil {
		t.Fatalf("stego.Encode: %v", err)
	}

	req := multipartUpload(t, "/uploaddec/", "artifact.png", encoded.Bytes(), nil)
	rr := httptest.NewRecorder()
	h.Decode(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	out, ok := h.Artifacts.Get("alice", artifact.KindDecodeOutput)
	if !ok {
		t.Fatal("expected a decode-output artifact")
	}
	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("read decode output: %v", err)
	}
	if string(data) != "buried treasure" {
		t.Errorf("decoded message: got %q", data)
	}
}

func TestUploadHandler_Decode_PlainImage(t *testing.T) {
	h := newUploadHandler(t)

	req := multipartUpload(t, "/uploaddec/", "plain.png", carrierPNG(t), nil)
	rr := httptest.NewRecorder()
	h.Decode(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/uploaddec/" {
		t.Errorf("Location: got %q, want /uploaddec/", loc)
	}
	if _, ok := h.Artifacts.Get("alice", artifact.KindDecodeOutput); ok {
		t.Error("failed decode must not leave a message artifact")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"pic.png":             "pic.png",
		"../../etc/passwd":    "passwd",
		"my photo (1).png":    "my_photo__1_.png",
		`..\windows\evil.png`: ".._windows_evil.png",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): got %q, want %q", in, got, want)
		}
	}
}
