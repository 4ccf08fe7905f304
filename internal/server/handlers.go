package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/newrealmco/image2sound/internal/mapping"
)

const maxUploadSize = 20 * 1024 * 1024 // 20MB

// handleIndex serves the main upload page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", map[string]any{
		"Styles": mapping.Styles,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleUpload accepts an image upload and starts a render job
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.renderError(w, "File too large. Maximum size is 20MB.", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.renderError(w, "Please upload an image file.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		s.renderError(w, "Unsupported format. Please upload a PNG, JPEG or GIF image.", http.StatusBadRequest)
		return
	}

	style := r.FormValue("style")
	if style == "" {
		style = string(mapping.StyleNeutral)
	}
	if _, err := mapping.ParseStyle(style); err != nil {
		s.renderError(w, "Unknown style.", http.StatusBadRequest)
		return
	}

	duration := 20.0
	if v := r.FormValue("duration"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 || d > 120 {
			s.renderError(w, "Duration must be between 1 and 120 seconds.", http.StatusBadRequest)
			return
		}
		duration = d
	}

	job, err := s.jobs.Create()
	if err != nil {
		s.renderError(w, "Failed to create job.", http.StatusInternalServerError)
		return
	}

	inputPath := job.Work.InputImage(ext)
	dst, err := os.Create(inputPath)
	if err != nil {
		s.renderError(w, "Failed to save file.", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.renderError(w, "Failed to save file.", http.StatusInternalServerError)
		return
	}

	job.InputPath = inputPath
	job.Filename = header.Filename
	job.Style = style
	job.Duration = duration

	go s.jobs.Process(job)

	s.render(w, "processing.html", map[string]any{
		"JobID":    job.ID,
		"Filename": header.Filename,
	})
}

// handleStatus streams job progress via SSE
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job := s.jobs.Get(jobID)

	if job == nil {
		s.renderError(w, "Job not found.", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update := <-job.Updates:
			fmt.Fprintf(w, "event: progress\n")
			fmt.Fprintf(w, "data: %s\n\n", update)
			flusher.Flush()

			if job.Status == StatusComplete || job.Status == StatusFailed {
				fmt.Fprintf(w, "event: done\n")
				fmt.Fprintf(w, "data: %s\n\n", job.Status)
				flusher.Flush()
				return
			}
		}
	}
}

// handleResult returns the final result page
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job := s.jobs.Get(jobID)

	if job == nil {
		s.renderError(w, "Job not found.", http.StatusNotFound)
		return
	}

	if job.Status == StatusFailed {
		s.render(w, "error.html", map[string]any{
			"Error": job.Error,
		})
		return
	}

	if job.Status != StatusComplete {
		s.render(w, "processing.html", map[string]any{
			"JobID":    job.ID,
			"Filename": job.Filename,
			"Stage":    job.Stage,
		})
		return
	}

	s.render(w, "result.html", map[string]any{
		"JobID":     job.ID,
		"Filename":  job.Filename,
		"Style":     job.Style,
		"Key":       fmt.Sprintf("%s %s", job.Result.Root, job.Result.Mode),
		"Tempo":     fmt.Sprintf("%.0f", job.Result.Tempo),
		"Intensity": fmt.Sprintf("%.2f", job.Result.Intensity),
		"Voices":    job.Result.Voices,
		"Notes":     job.Result.Notes,
		"Sections":  job.Result.Sections,
		"Chords":    strings.Join(job.Result.Chords, " "),
		"Seconds":   fmt.Sprintf("%.1f", job.Result.AudioSecs),
	})
}

// handleAudio serves the rendered WAV for inline playback
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job := s.jobs.Get(jobID)

	if job == nil || job.Status != StatusComplete {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	wavPath := job.Work.OutputWAV()
	if _, err := os.Stat(wavPath); os.IsNotExist(err) {
		http.Error(w, "Audio not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, wavPath)
}

// handleDownload serves the rendered WAV as an attachment
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job := s.jobs.Get(jobID)

	if job == nil || job.Status != StatusComplete {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	wavPath := job.Work.OutputWAV()
	if _, err := os.Stat(wavPath); os.IsNotExist(err) {
		http.Error(w, "Audio not available", http.StatusNotFound)
		return
	}

	base := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.wav\"", base))
	http.ServeFile(w, r, wavPath)
}

// handleMetadata serves the render metadata as JSON
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job := s.jobs.Get(jobID)

	if job == nil || job.Status != StatusComplete {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	metaPath := job.Work.MetadataJSON()
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		http.Error(w, "Metadata not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, metaPath)
}

// render renders a template
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// renderError renders an error message
func (s *Server) renderError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	s.templates.ExecuteTemplate(w, "error.html", map[string]any{
		"Error": message,
	})
}
