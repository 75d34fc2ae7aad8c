package server

import (
	"net/http"
	"strings"

	"careerai/internal/errors"
	"careerai/internal/store"
)

// saveResumeRequest is the body of POST /resumes
type saveResumeRequest struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

type listResumesResponse struct {
	Resumes []store.Resume `json:"resumes"`
	Count   int            `json:"count"`
}

// saveResumeHandler stores a resume and returns it with its id
func (s *Server) saveResumeHandler(w http.ResponseWriter, r *http.Request) {
	if s.resumes == nil {
		s.writeError(w, r, errors.NewConfigError(errors.ErrCodeInvalidConfig, "resume storage is not configured", nil))
		return
	}

	var req saveResumeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidInput, "resume text is required", nil))
		return
	}

	resume := &store.Resume{Name: req.Name, Source: req.Source, Text: req.Text}
	if err := s.resumes.SaveResume(r.Context(), resume); err != nil {
		s.writeError(w, r, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to save resume", err))
		return
	}
	s.Logger.Info("Resume stored", "id", resume.ID, "name", resume.Name)
	s.writeJSON(w, http.StatusCreated, resume)
}

// listResumesHandler returns every stored resume in insertion order
func (s *Server) listResumesHandler(w http.ResponseWriter, r *http.Request) {
	if s.resumes == nil {
		s.writeError(w, r, errors.NewConfigError(errors.ErrCodeInvalidConfig, "resume storage is not configured", nil))
		return
	}

	resumes, err := s.resumes.ListResumes(r.Context())
	if err != nil {
		s.writeError(w, r, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to list resumes", err))
		return
	}
	if resumes == nil {
		resumes = []store.Resume{}
	}
	s.writeJSON(w, http.StatusOK, listResumesResponse{Resumes: resumes, Count: len(resumes)})
}
