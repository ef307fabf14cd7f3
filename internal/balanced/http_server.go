package balanced

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/balancelab/balance-core/pkg/config"
	"github.com/balancelab/balance-core/pkg/logger"
)

// HTTPServer is the JSON API the tooling talks to.
type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	Executor *RunExecutor
}

func NewHTTPServer(store *RunStore, executor *RunExecutor) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		Executor: executor,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRuns handles /v1/runs
func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRunByID handles /v1/runs/{id} and its sub-resources
func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	if strings.HasSuffix(path, ":stop") {
		runID := strings.TrimSuffix(path, ":stop")
		if r.Method == http.MethodPost {
			s.handleStopRun(w, r, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/report/export") {
		runID := strings.TrimSuffix(path, "/report/export")
		if r.Method == http.MethodGet {
			s.handleExportReport(w, r, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/report") {
		runID := strings.TrimSuffix(path, "/report")
		if r.Method == http.MethodGet {
			s.handleGetReport(w, r, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/progress/stream") {
		runID := strings.TrimSuffix(path, "/progress/stream")
		if r.Method == http.MethodGet {
			s.handleProgressStream(w, r, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method == http.MethodGet {
		s.handleGetRun(w, r, path)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateRun handles POST /v1/runs: a YAML job document inside a
// JSON envelope. The run starts immediately.
func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID   string `json:"run_id,omitempty"`
		JobYAML string `json:"job_yaml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.JobYAML == "" {
		s.writeError(w, http.StatusBadRequest, "job_yaml is required")
		return
	}

	job, err := config.Parse([]byte(req.JobYAML))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.Create(req.RunID, job)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			s.writeError(w, http.StatusConflict, err.Error())
		} else {
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	started, err := s.Executor.Start(rec.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("run created", "run_id", started.ID, "job", job.Name)
	s.writeJSON(w, http.StatusCreated, map[string]any{"run": started})
}

// handleListRuns handles GET /v1/runs with pagination
func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
			if limit > 1000 {
				limit = 1000
			}
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	runs := s.store.List(limit, offset)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *HTTPServer) handleGetRun(w http.ResponseWriter, r *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": rec})
}

func (s *HTTPServer) handleStopRun(w http.ResponseWriter, r *http.Request, runID string) {
	rec, err := s.Executor.Stop(runID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRunNotFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRunTerminal):
			s.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrRunIDMissing):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": rec})
}

func (s *HTTPServer) handleGetReport(w http.ResponseWriter, r *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if rec.Report == nil {
		s.writeError(w, http.StatusConflict, "report not available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"report": rec.Report})
}

// handleExportReport handles GET /v1/runs/{id}/report/export: the
// report as an XLSX download.
func (s *HTTPServer) handleExportReport(w http.ResponseWriter, r *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if rec.Report == nil {
		s.writeError(w, http.StatusConflict, "report not available yet")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".xlsx"))
	if err := rec.Report.WriteXLSX(w, rec.History); err != nil {
		logger.Error("report export failed", "run_id", runID, "error", err)
	}
}

// handleProgressStream handles GET /v1/runs/{id}/progress/stream (SSE)
func (s *HTTPServer) handleProgressStream(w http.ResponseWriter, r *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	interval := 250 * time.Millisecond
	if v := r.URL.Query().Get("interval_ms"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		}
	}

	previousStatus := rec.Status
	s.sendSSEEvent(w, "status_change", map[string]any{"status": rec.Status})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	if previousStatus.Terminal() {
		s.sendSSEEvent(w, "complete", map[string]any{"status": rec.Status})
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := r.Context()

	var lastProgress Progress
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec, ok := s.store.Get(runID)
			if !ok {
				s.sendSSEEvent(w, "error", map[string]any{"error": "run not found"})
				return
			}

			if rec.Progress != lastProgress {
				lastProgress = rec.Progress
				s.sendSSEEvent(w, "progress", map[string]any{
					"fraction":   rec.Progress.Fraction,
					"best_score": rec.Progress.BestScore,
				})
			}

			if rec.Status != previousStatus {
				previousStatus = rec.Status
				s.sendSSEEvent(w, "status_change", map[string]any{"status": rec.Status})
				if rec.Status.Terminal() {
					s.sendSSEEvent(w, "complete", map[string]any{"status": rec.Status})
					return
				}
			}

			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to marshal SSE payload", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"error": message})
}
