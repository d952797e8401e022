package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"lavra/internal/api"
	"lavra/internal/casestore"
	"lavra/internal/config"
	"lavra/internal/fileutil"
	"lavra/internal/logging"
)

// maxUploadBytes bounds input uploads (hearing recordings can be large, but
// not unbounded).
const maxUploadBytes = 4 << 30

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/cases", srv.handleCases)
	mux.HandleFunc("/api/cases/", srv.handleCaseSubtree)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		StageHealth:  api.FromStageHealth(s.daemon.workflow.Health(r.Context())),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleCases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCases(w, r)
	case http.MethodPost:
		s.createCase(w, r)
	case http.MethodDelete:
		s.clearCases(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// clearCases bulk-removes finished cases. Scope "completed" and "failed"
// clear one terminal state; no scope clears every case not mid-run.
func (s *apiServer) clearCases(w http.ResponseWriter, r *http.Request) {
	scope := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))

	var statuses []casestore.Status
	switch scope {
	case "completed":
		statuses = []casestore.Status{casestore.StatusCompleted}
	case "failed":
		statuses = []casestore.Status{casestore.StatusFailed}
	case "":
		statuses = []casestore.Status{
			casestore.StatusIntake,
			casestore.StatusQueued,
			casestore.StatusCompleted,
			casestore.StatusFailed,
		}
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported clear scope %q", scope), "")
		return
	}

	targets, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	var removed int64
	for _, c := range targets {
		ok, err := s.daemon.store.Remove(r.Context(), c.ID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		if ok {
			s.daemon.workflow.Tracker().Clear(c.ID)
			removed++
		}
	}
	s.log().Info("cases cleared",
		logging.String("scope", scope),
		logging.Int64("removed", removed),
	)
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Removed: removed})
}

func (s *apiServer) listCases(w http.ResponseWriter, r *http.Request) {
	var statuses []casestore.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := casestore.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value), "")
			return
		}
		statuses = append(statuses, status)
	}
	cases, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, api.CaseListResponse{Cases: api.FromCases(cases)})
}

func (s *apiServer) createCase(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCaseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	c, err := s.daemon.store.NewCase(r.Context(), req.Title)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusCreated, api.CaseResponse{Case: api.FromCase(c)})
}

// handleCaseSubtree dispatches /api/cases/{id} and its sub-resources.
func (s *apiServer) handleCaseSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/cases/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.writeError(w, http.StatusNotFound, "case not found", "")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			s.getCase(w, r, id)
		case http.MethodDelete:
			s.removeCase(w, r, id)
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		}
	case len(parts) == 2 && parts[1] == "run" && r.Method == http.MethodPost:
		s.startRun(w, r, id)
	case len(parts) == 2 && parts[1] == "retry" && r.Method == http.MethodPost:
		s.retryCase(w, r, id)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodGet:
		s.caseStatus(w, r, id)
	case len(parts) == 2 && parts[1] == "document" && r.Method == http.MethodGet:
		s.caseDocument(w, r, id)
	case len(parts) == 3 && parts[1] == "inputs" && r.Method == http.MethodPut:
		s.uploadInput(w, r, id, parts[2])
	default:
		s.writeError(w, http.StatusNotFound, "resource not found", "")
	}
}

func (s *apiServer) loadCase(w http.ResponseWriter, r *http.Request, id string) *casestore.Case {
	c, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return nil
	}
	if c == nil {
		s.writeError(w, http.StatusNotFound, "case not found", "")
		return nil
	}
	return c
}

func (s *apiServer) getCase(w http.ResponseWriter, r *http.Request, id string) {
	c := s.loadCase(w, r, id)
	if c == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, api.CaseResponse{Case: api.FromCase(c)})
}

func (s *apiServer) removeCase(w http.ResponseWriter, r *http.Request, id string) {
	c := s.loadCase(w, r, id)
	if c == nil {
		return
	}
	if c.IsProcessing() {
		s.writeError(w, http.StatusConflict, "case is being processed", api.CodeCaseProcessing)
		return
	}
	if _, err := s.daemon.store.Remove(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.daemon.workflow.Tracker().Clear(id)
	s.writeJSON(w, http.StatusOK, nil)
}

// uploadInput stores the request body as the case's document or recording.
// Re-uploading a role replaces the earlier file.
func (s *apiServer) uploadInput(w http.ResponseWriter, r *http.Request, id, roleValue string) {
	role, ok := casestore.ParseInputRole(roleValue)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown input role %q", roleValue), "")
		return
	}
	c := s.loadCase(w, r, id)
	if c == nil {
		return
	}
	if c.IsProcessing() {
		s.writeError(w, http.StatusConflict, "case is being processed", api.CodeCaseProcessing)
		return
	}

	filename := fileutil.SanitizeBaseName(r.URL.Query().Get("filename"))
	dest := filepath.Join(s.daemon.cfg.CaseWorkspace(id), "inputs", string(role)+"-"+filename)
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	written, err := fileutil.CopyStream(dest, body, 0o644)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if written == 0 {
		s.writeError(w, http.StatusBadRequest, "upload body is empty", "")
		return
	}

	updated, err := s.daemon.store.SetInput(r.Context(), id, role, dest)
	if err != nil {
		if errors.Is(err, casestore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "case not found", "")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.log().Info("case input stored",
		logging.String(logging.FieldCaseID, id),
		logging.String("role", string(role)),
		logging.Int64("bytes", written),
	)
	s.writeJSON(w, http.StatusOK, api.CaseResponse{Case: api.FromCase(updated)})
}

// startRun queues the case for processing. Both inputs must be present
// before any pipeline task is created.
func (s *apiServer) startRun(w http.ResponseWriter, r *http.Request, id string) {
	c := s.loadCase(w, r, id)
	if c == nil {
		return
	}
	if c.IsProcessing() || c.Status == casestore.StatusQueued {
		s.writeError(w, http.StatusConflict, "case is already queued or being processed", api.CodeCaseProcessing)
		return
	}
	if !c.HasInputs() {
		s.writeError(w, http.StatusConflict,
			"ingestão incompleta: envie a petição inicial e a gravação da audiência antes de iniciar o processamento",
			api.CodeIngestionIncomplete)
		return
	}

	c.Status = casestore.StatusQueued
	c.CurrentStep = "Aguardando processamento"
	c.ErrorMessage = ""
	if err := s.daemon.store.Update(r.Context(), c); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	s.log().Info("case queued for processing", logging.String(logging.FieldCaseID, id))
	s.writeJSON(w, http.StatusAccepted, api.CaseResponse{Case: api.FromCase(c)})
}

func (s *apiServer) retryCase(w http.ResponseWriter, r *http.Request, id string) {
	c := s.loadCase(w, r, id)
	if c == nil {
		return
	}
	if c.Status != casestore.StatusFailed {
		s.writeError(w, http.StatusConflict, "only failed cases can be retried", "")
		return
	}
	if _, err := s.daemon.store.RetryFailed(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	updated := s.loadCase(w, r, id)
	if updated == nil {
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.CaseResponse{Case: api.FromCase(updated)})
}

// caseStatus reports the persisted case plus the live run snapshot when the
// tracker has one.
func (s *apiServer) caseStatus(w http.ResponseWriter, r *http.Request, id string) {
	c := s.loadCase(w, r, id)
	if c == nil {
		return
	}
	payload := api.CaseStatusResponse{Case: api.FromCase(c)}
	if snap, ok := s.daemon.workflow.Tracker().Snapshot(id); ok {
		run := api.FromSnapshot(snap)
		payload.Run = &run
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// caseDocument serves the generated sentence; available only after the run
// completed.
func (s *apiServer) caseDocument(w http.ResponseWriter, r *http.Request, id string) {
	c := s.loadCase(w, r, id)
	if c == nil {
		return
	}
	if c.Status != casestore.StatusCompleted || strings.TrimSpace(c.ArtifactPath) == "" {
		s.writeError(w, http.StatusConflict,
			"documento indisponível: o processamento do caso ainda não foi concluído",
			api.CodeArtifactUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(c.ArtifactPath)))
	http.ServeFile(w, r, c.ArtifactPath)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message, code string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Code: code})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
