package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SaveChatbotRequest is the JSON body of a create or update.
type SaveChatbotRequest struct {
	TenantID    string               `json:"tenant_id"`
	Name        string               `json:"name"`
	CompanyName string               `json:"company_name"`
	Mode        domain.EditMode      `json:"mode"`
	Form        domain.AuthoringForm `json:"form"`
	RawFlow     string               `json:"raw_flow"`
	Format      string               `json:"format"`
}

// ChatbotList wraps a list response.
type ChatbotList struct {
	Chatbots []*domain.Chatbot `json:"chatbots"`
}

// ListChatbots handles GET /chatbots.
func (s *Server) ListChatbots(w http.ResponseWriter, r *http.Request) {
	var tenantID string
	if err := runtime.BindQueryParameter("form", true, false, "tenant_id", r.URL.Query(), &tenantID); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"})
		return
	}

	bots, err := s.Editor.Store().List(r.Context(), tenantID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if bots == nil {
		bots = []*domain.Chatbot{}
	}
	s.writeJSON(w, http.StatusOK, ChatbotList{Chatbots: bots})
}

// CreateChatbot handles POST /chatbots.
func (s *Server) CreateChatbot(w http.ResponseWriter, r *http.Request) {
	s.save(w, r, "", http.StatusCreated)
}

// SaveChatbot handles PUT /chatbots/{chatbotId}.
func (s *Server) SaveChatbot(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "chatbotId")
	if !ok {
		return
	}
	s.save(w, r, id, http.StatusOK)
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	if s.saves != nil && !s.saves.Allow() {
		w.Header().Set("Retry-After", "1")
		s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many saves, retry later", Kind: "rate_limited"})
		return
	}

	var body SaveChatbotRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	format, err := compiler.ParseFormat(body.Format)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"})
		return
	}

	bot, err := s.Editor.Save(r.Context(), editor.SaveRequest{
		ChatbotID:   id,
		TenantID:    body.TenantID,
		Name:        body.Name,
		CompanyName: body.CompanyName,
		Mode:        body.Mode,
		Form:        body.Form,
		RawFlow:     body.RawFlow,
		Format:      format,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, status, bot)
}

// GetChatbot handles GET /chatbots/{chatbotId}.
func (s *Server) GetChatbot(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "chatbotId")
	if !ok {
		return
	}
	bot, err := s.Editor.Store().Load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bot)
}

// DeleteChatbot handles DELETE /chatbots/{chatbotId}.
func (s *Server) DeleteChatbot(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "chatbotId")
	if !ok {
		return
	}
	if err := s.Editor.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenChatbot handles GET /chatbots/{chatbotId}/form.
func (s *Server) OpenChatbot(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "chatbotId")
	if !ok {
		return
	}
	session, err := s.Editor.Open(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

// ListSessions handles GET /chatbots/{chatbotId}/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireSessions(w) {
		return
	}
	id, ok := s.pathParam(w, r, "chatbotId")
	if !ok {
		return
	}
	sessions, err := s.Sessions.ListSessions(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// ListSessionLogs handles GET /sessions/{sessionId}/logs.
func (s *Server) ListSessionLogs(w http.ResponseWriter, r *http.Request) {
	if !s.requireSessions(w) {
		return
	}
	id, ok := s.pathParam(w, r, "sessionId")
	if !ok {
		return
	}
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"})
		return
	}

	logs, err := s.Sessions.ListSessionLogs(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.SessionLog{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) requireSessions(w http.ResponseWriter) bool {
	if s.Sessions == nil {
		s.writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "no session store configured", Kind: "unavailable"})
		return false
	}
	return true
}

// pathParam binds a simple-style path parameter.
func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath, chi.URLParam(r, name), &value)
	if err == nil && value == "" {
		err = errors.New("must not be empty")
	}
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name + ": " + err.Error(), Kind: "request"})
		return "", false
	}
	return value, true
}
