package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{Port: 0, SampleRate: 22050})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "image2sound") {
		t.Error("index page missing title")
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "notes.txt")
	part.Write([]byte("not an image"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for txt upload, got %d", rec.Code)
	}
}

func TestUploadRendersImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping render in short mode")
	}
	s := newTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), 120, uint8(y * 10), 255})
		}
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "test.png")
	part.Write(pngBuf.Bytes())
	mw.WriteField("style", "ambient")
	mw.WriteField("duration", "4")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The processing page embeds the job ID.
	page := rec.Body.String()
	idx := strings.Index(page, "/status/")
	if idx < 0 {
		t.Fatal("processing page has no status URL")
	}
	id := page[idx+len("/status/"):]
	id = id[:strings.IndexAny(id, "\"'")]

	job := s.jobs.Get(id)
	if job == nil {
		t.Fatalf("job %s not found", id)
	}

	// Drain updates until the job finishes.
	deadline := time.After(30 * time.Second)
	for job.Status != StatusComplete && job.Status != StatusFailed {
		select {
		case <-deadline:
			t.Fatalf("job stuck in status %s at stage %q", job.Status, job.Stage)
		case _, ok := <-job.Updates:
			if !ok {
				goto done
			}
		}
	}
done:
	if job.Status != StatusComplete {
		t.Fatalf("job failed: %s", job.Error)
	}
	if job.Result == nil || job.Result.Notes == 0 {
		t.Error("completed job has no notes")
	}

	audioReq := httptest.NewRequest(http.MethodGet, "/audio/"+id, nil)
	audioRec := httptest.NewRecorder()
	s.router.ServeHTTP(audioRec, audioReq)
	if audioRec.Code != http.StatusOK {
		t.Errorf("expected 200 for audio, got %d", audioRec.Code)
	}
	if ct := audioRec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("expected audio/wav, got %s", ct)
	}
}
