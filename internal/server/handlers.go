package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yoswag75/Musicify/internal/audio"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/midi"
	"github.com/yoswag75/Musicify/internal/pipeline"
	"github.com/yoswag75/Musicify/internal/workspace"
)

// handleIndex serves the main upload page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.templates.ExecuteTemplate(w, "index.html", map[string]any{
		"Instruments": midi.Instruments(),
	})
	if err != nil {
		s.logger.Error("template error", zap.String("template", "index.html"), zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInstruments lists the General MIDI catalog
func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, midi.Instruments())
}

// handleCreateJob accepts a multipart upload with "audio" and "instrument" fields
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	tooLarge := fmt.Sprintf("upload too large (maximum size is %s)", formatSize(s.config.MaxUploadSize))
	if r.ContentLength > s.config.MaxUploadSize {
		s.writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}

	instrument := strings.TrimSpace(r.FormValue("instrument"))
	if instrument == "" {
		s.writeError(w, http.StatusBadRequest, "instrument is required")
		return
	}
	if _, err := midi.LookupInstrument(instrument); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "please upload an audio file")
		return
	}
	defer file.Close()

	ws, err := workspace.Create()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	// Keep the client's song name so outputs are named after it.
	name := filepath.Base(header.Filename)
	inputPath := ws.File(audio.SongName(name) + filepath.Ext(name))
	if err := saveUpload(file, inputPath); err != nil {
		ws.Cleanup()
		s.writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	if _, err := audio.ValidateInput(inputPath, s.config.MaxUploadSize); err != nil {
		ws.Cleanup()
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	job := s.jobs.Create(header.Filename, ws, pipeline.Job{
		InputPath:  inputPath,
		Instrument: instrument,
	})
	s.jobs.Start(job)

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     job.ID,
		"status": string(StatusPending),
	})
}

// handleJobStatus reports a job's current state
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// handleDownloadMIDI serves the published MIDI file
func (s *Server) handleDownloadMIDI(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "id"))
	if !ok || job.midiPath == "" {
		http.Error(w, "MIDI file not available", http.StatusNotFound)
		return
	}
	serveAttachment(w, r, job.midiPath, "audio/midi")
}

// handleDownloadScore serves the rendered sheet music, when there is one
func (s *Server) handleDownloadScore(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "id"))
	if !ok || job.scorePath == "" {
		http.Error(w, "Sheet music not available", http.StatusNotFound)
		return
	}
	serveAttachment(w, r, job.scorePath, "application/pdf")
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path, contentType string) {
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "File no longer available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperrors.ErrUnsupportedFormat), errors.Is(err, apperrors.ErrCorruptedFile):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
