package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/challenge"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/go-chi/chi/v5"
)

// handleAnalyze accepts a challenge (form field or file part "challenge")
// and its documents (file parts "files") and queues a ranking job.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := readChallenge(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := in.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := make(map[string][]byte)
	rejected := []map[string]string{}
	for _, fh := range r.MultipartForm.File["files"] {
		filename := pipeline.DocumentKey(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			rejected = append(rejected, map[string]string{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			rejected = append(rejected, map[string]string{"filename": filename, "error": "failed to open file"})
			continue
		}
		data, err := readUpload(f, s.cfg.MaxUploadBytes)
		f.Close()
		if err != nil {
			rejected = append(rejected, map[string]string{"filename": filename, "error": err.Error()})
			continue
		}
		files[filename] = data
		s.log.Debug("document uploaded", "document", filename, "content_hash", pipeline.ContentHashHex(data)[:16])
	}

	// Documents the challenge names but the request did not carry still
	// count as inputs; they contribute no sections.
	missing := []string{}
	for _, name := range in.Filenames() {
		if _, ok := files[pipeline.DocumentKey(name)]; !ok {
			missing = append(missing, name)
		}
	}

	job := pipeline.NewJob(in, files)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if len(missing) > 0 {
		s.log.Warn("challenge documents not uploaded", "job_id", job.ID, "missing", missing)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":     job.ID,
		"status":     pipeline.StatusQueued,
		"missing":    missing,
		"rejected":   rejected,
		"poll_url":   fmt.Sprintf("/api/analyze/%s/status", job.ID),
		"result_url": fmt.Sprintf("/api/analyze/%s/result", job.ID),
	})
}

func readChallenge(r *http.Request) (*challenge.Input, error) {
	if v := r.FormValue("challenge"); strings.TrimSpace(v) != "" {
		return challenge.Decode(strings.NewReader(v))
	}
	f, _, err := r.FormFile("challenge")
	if err != nil {
		return nil, fmt.Errorf("challenge is required")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read challenge: %w", err)
	}
	return challenge.Decode(bytes.NewReader(data))
}

func (s *Server) handleAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleAnalyzeResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	out := job.Result()
	if out == nil {
		snap := job.Snapshot()
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := report.Encode(w, out); err != nil {
		s.log.Warn("write result failed", "job_id", jobID, "error", err)
	}
}
