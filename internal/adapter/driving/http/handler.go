package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/p4panel/internal/application"
	"github.com/ericfisherdev/p4panel/internal/domain/port/driven"
)

// maxBodyBytes bounds request bodies; every endpoint takes a handful of
// short string fields.
const maxBodyBytes = 64 << 10

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	p4Svc   *application.PerforceService
	credSvc *application.CredentialService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	p4Svc *application.PerforceService,
	credSvc *application.CredentialService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		p4Svc:   p4Svc,
		credSvc: credSvc,
		logger:  logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/p4/creds", h.GetCreds)
	mux.HandleFunc("POST /api/p4/saveCreds", h.SaveCreds)
	mux.HandleFunc("POST /api/p4/clearCreds", h.ClearCreds)
	mux.HandleFunc("POST /api/p4/workspaces", h.ListWorkspaces)
	mux.HandleFunc("POST /api/p4/changes", h.ListChanges)
	mux.HandleFunc("POST /api/p4/pending", h.ListPending)
	mux.HandleFunc("POST /api/p4/users", h.ListUsers)
	mux.HandleFunc("GET /api/health", h.Health)
}

// NewServeMux creates an http.Handler with all API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// GetCreds reports whether a default credential is saved. The ticket itself
// is never returned.
func (h *Handler) GetCreds(w http.ResponseWriter, r *http.Request) {
	status, err := h.credSvc.Status(r.Context())
	if err != nil {
		h.writeServiceError(w, "failed to read saved credential", err)
		return
	}
	writeJSON(w, http.StatusOK, toCredsResponse(status))
}

// SaveCreds logs in if needed and saves the resulting ticket as the default
// credential.
func (h *Handler) SaveCreds(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	if _, err := h.credSvc.Save(r.Context(), req.toModel()); err != nil {
		h.writeServiceError(w, "failed to save credential", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ClearCreds deletes the saved default credential.
func (h *Handler) ClearCreds(w http.ResponseWriter, r *http.Request) {
	if err := h.credSvc.Clear(r.Context()); err != nil {
		h.writeServiceError(w, "failed to clear credential", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ListWorkspaces returns the workspaces owned by the requesting user.
func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	workspaces, err := h.p4Svc.Workspaces(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, "failed to list workspaces", err)
		return
	}

	resp := WorkspacesResponse{Workspaces: make([]WorkspaceResponse, 0, len(workspaces))}
	for _, ws := range workspaces {
		resp.Workspaces = append(resp.Workspaces, WorkspaceResponse{Name: ws.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListChanges returns recent submitted changes for a workspace with their
// full descriptions.
func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.Limit != nil && *req.Limit < 1 {
		writeError(w, http.StatusBadRequest, application.ErrInvalidLimit.Error())
		return
	}

	changes, err := h.p4Svc.Changes(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, "failed to list changes", err)
		return
	}

	resp := ChangesResponse{Changes: make([]ChangeResponse, 0, len(changes))}
	for _, c := range changes {
		resp.Changes = append(resp.Changes, toChangeResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPending returns opened files for a workspace, a user, or a user
// within a workspace's view.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	files, err := h.p4Svc.Pending(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, "failed to list pending files", err)
		return
	}

	resp := FilesResponse{Files: make([]map[string]string, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListUsers returns every user on the server.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	users, err := h.p4Svc.Users(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, "failed to list users", err)
		return
	}

	resp := UsersResponse{Users: make([]UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, UserResponse{User: u.User, FullName: u.FullName, Email: u.Email})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple liveness response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeRequest reads the JSON body. An empty body is an empty request so
// the saved credential can supply everything.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (P4Request, bool) {
	var req P4Request
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return P4Request{}, false
	}
	return req, true
}

// writeServiceError maps application errors to status codes. Input problems
// are 400; p4 and storage failures are 500 and carry their own message.
func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	var (
		missingField *application.MissingFieldError
		protocolErr  *driven.ProtocolError
	)

	switch {
	case errors.Is(err, application.ErrMissingAuth),
		errors.Is(err, application.ErrInvalidLimit),
		errors.As(err, &missingField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &protocolErr):
		h.logger.Warn(msg, "error", protocolErr.Message, "exit_code", protocolErr.ExitCode)
		writeError(w, http.StatusInternalServerError, protocolErr.Message)
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
