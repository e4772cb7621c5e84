package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/p4panel/internal/adapter/driving/web"
	"github.com/ericfisherdev/p4panel/internal/application"
	"github.com/ericfisherdev/p4panel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// P4Request is the JSON body shared by every POST endpoint. Fields an
// endpoint does not use are ignored.
type P4Request struct {
	Server     string `json:"server"`
	User       string `json:"user"`
	Password   string `json:"password"`
	Ticket     string `json:"ticket"`
	Client     string `json:"client"`
	TargetUser string `json:"targetUser"`
	Limit      *int   `json:"limit"`
}

func (r P4Request) toModel() model.ConnectionRequest {
	req := model.ConnectionRequest{
		Server:     r.Server,
		User:       r.User,
		Password:   r.Password,
		Ticket:     r.Ticket,
		Client:     r.Client,
		TargetUser: r.TargetUser,
	}
	if r.Limit != nil {
		req.Limit = *r.Limit
	}
	return req
}

// CredsResponse describes the saved default credential without its ticket.
type CredsResponse struct {
	Saved     bool   `json:"saved"`
	Server    string `json:"server,omitempty"`
	User      string `json:"user,omitempty"`
	HasTicket bool   `json:"hasTicket,omitempty"`
	SavedAt   string `json:"savedAt,omitempty"`
}

func toCredsResponse(s application.CredentialStatus) CredsResponse {
	if !s.Saved {
		return CredsResponse{Saved: false}
	}
	resp := CredsResponse{
		Saved:     true,
		Server:    s.Server,
		User:      s.User,
		HasTicket: s.HasTicket,
	}
	if !s.SavedAt.IsZero() {
		resp.SavedAt = s.SavedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

type WorkspacesResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
}

type WorkspaceResponse struct {
	Name string `json:"name"`
}

type ChangesResponse struct {
	Changes []ChangeResponse `json:"changes"`
}

// ChangeResponse is one submitted change. Desc and DescHTML are omitted when
// the description query failed or did not cover the change.
type ChangeResponse struct {
	Change   int     `json:"change"`
	Date     string  `json:"date"`
	User     string  `json:"user"`
	Client   string  `json:"client"`
	Status   string  `json:"status"`
	Desc     *string `json:"desc,omitempty"`
	DescHTML string  `json:"descHtml,omitempty"`
}

func toChangeResponse(c model.Change) ChangeResponse {
	resp := ChangeResponse{
		Change: c.Number,
		Date:   c.Date,
		User:   c.User,
		Client: c.Client,
		Status: c.Status,
		Desc:   c.Desc,
	}
	if c.Desc != nil {
		resp.DescHTML = web.RenderMarkdown(*c.Desc)
	}
	return resp
}

type FilesResponse struct {
	Files []map[string]string `json:"files"`
}

// toFileResponse returns every field the server reported for the file, with
// the promoted fields filled in when the map lacks them.
func toFileResponse(f model.OpenedFile) map[string]string {
	out := make(map[string]string, len(f.Fields)+4)
	for k, v := range f.Fields {
		out[k] = v
	}
	setIfMissing(out, "depotFile", f.DepotFile)
	setIfMissing(out, "user", f.User)
	setIfMissing(out, "client", f.Client)
	setIfMissing(out, "action", f.Action)
	return out
}

func setIfMissing(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok && value != "" {
		m[key] = value
	}
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

// UserResponse keeps the server's own field names.
type UserResponse struct {
	User     string `json:"User"`
	FullName string `json:"FullName,omitempty"`
	Email    string `json:"Email,omitempty"`
}

// HealthResponse is the JSON body for GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
