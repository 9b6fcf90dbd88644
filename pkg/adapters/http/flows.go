package http

import (
	"net/http"

	"github.com/aretw0/chatflow/internal/presentation/graph"
	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
)

// RawDocumentRequest carries document text and its encoding.
type RawDocumentRequest struct {
	Document string `json:"document"`
	Format   string `json:"format,omitempty"`
}

// ValidateResponse is returned for a document that passed validation.
type ValidateResponse struct {
	Valid    bool                 `json:"valid"`
	Document *domain.FlowDocument `json:"document"`
	Warnings []string             `json:"warnings"`
}

// DeriveResponse lists the options recovered from a document.
type DeriveResponse struct {
	Options []domain.MenuOption `json:"options"`
}

// BuildFlow handles POST /flows/build. The builder never fails, so an empty
// option list still yields a document.
func (s *Server) BuildFlow(w http.ResponseWriter, r *http.Request) {
	var form domain.AuthoringForm
	if !s.decodeBody(w, r, &form) {
		return
	}
	s.writeJSON(w, http.StatusOK, compiler.BuildFlowFromMenu(form))
}

// ValidateFlow handles POST /flows/validate.
func (s *Server) ValidateFlow(w http.ResponseWriter, r *http.Request) {
	var body RawDocumentRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	format, err := compiler.ParseFormat(body.Format)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"})
		return
	}

	doc, warnings, err := s.Editor.Check(body.Document, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: true, Document: doc, Warnings: warnings})
}

// DeriveMenu handles POST /flows/derive. Unreadable documents yield no options.
func (s *Server) DeriveMenu(w http.ResponseWriter, r *http.Request) {
	var body RawDocumentRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	format, err := compiler.ParseFormat(body.Format)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"})
		return
	}
	s.writeJSON(w, http.StatusOK, DeriveResponse{Options: compiler.DeriveMenuOptionsFromText([]byte(body.Document), format)})
}

// RenderGraph handles POST /flows/graph and answers with Mermaid source.
func (s *Server) RenderGraph(w http.ResponseWriter, r *http.Request) {
	var body RawDocumentRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	format, err := compiler.ParseFormat(body.Format)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request"})
		return
	}

	doc, _, err := s.Editor.Check(body.Document, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(doc, nil)))
}
