package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/session"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

const multipartMemory = 32 << 20

type sessionHandler func(w http.ResponseWriter, r *http.Request, st *session.AppState)

// withSession resolves {id}, locks the session for the duration of the
// request and passes it to next.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.Sessions.Get(r.PathValue("id"))
		if err != nil {
			writeAppError(w, err)
			return
		}

		st.Lock()
		defer st.Unlock()
		next(w, r, st)
	}
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	st := s.Sessions.Create()
	s.Logger.Debug("Session created", "session_id", st.ID)

	st.Lock()
	defer st.Unlock()
	writeJSON(w, http.StatusCreated, SessionResponse{Session: st.Snapshot()})
}

func (s *Server) getSessionHandler(w http.ResponseWriter, _ *http.Request, st *session.AppState) {
	writeJSON(w, http.StatusOK, SessionResponse{Session: st.Snapshot()})
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.Sessions.Delete(id) {
		writeAppError(w, errors.NewValidationError(errors.ErrCodeSessionNotFound,
			"Session not found or expired", nil))
		return
	}
	s.Logger.Debug("Session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// respond writes the result of a session operation. Failures are already
// recorded as notices by the pipeline.
func (s *Server) respond(w http.ResponseWriter, st *session.AppState, result any, err error) {
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Session: st.Snapshot(), Result: result})
}

// readUpload returns the multipart file in field, if one was sent.
func readUpload(r *http.Request, field string) (filename string, data []byte, err error) {
	file, header, err := r.FormFile(field)
	if stderrors.Is(err, http.ErrMissingFile) || stderrors.Is(err, http.ErrNotMultipart) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

// parseMultipart parses the request body, translating body limit errors.
func parseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || stderrors.Is(err, http.ErrNotMultipart) {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return errors.NewExtractionError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("Upload exceeds the %d byte limit", maxBytesErr.Limit), err)
	}
	return errors.NewValidationError(errors.ErrCodeInvalidInput, "Malformed upload", err)
}

func (s *Server) uploadResumeHandler(w http.ResponseWriter, r *http.Request, st *session.AppState) {
	if err := parseMultipart(r); err != nil {
		st.AddNotice(err)
		writeAppError(w, err)
		return
	}

	filename, data, err := readUpload(r, "file")
	if err == nil && filename == "" {
		err = errors.NewValidationError(errors.ErrCodeMissingInput, "Please upload your resume", nil)
	}
	if err != nil {
		if _, ok := errors.AsAppError(err); !ok {
			err = errors.NewValidationError(errors.ErrCodeInvalidInput, "Could not read the uploaded file", err)
		}
		st.AddNotice(err)
		writeAppError(w, err)
		return
	}

	text, err := s.Pipeline.LoadResume(r.Context(), st, filename, data)
	s.respond(w, st, map[string]any{"text": text}, err)
}

func (s *Server) jobDescriptionHandler(w http.ResponseWriter, r *http.Request, st *session.AppState) {
	if err := parseMultipart(r); err != nil {
		st.AddNotice(err)
		writeAppError(w, err)
		return
	}

	filename, data, err := readUpload(r, "file")
	if err != nil {
		err = errors.NewValidationError(errors.ErrCodeInvalidInput, "Could not read the uploaded file", err)
		st.AddNotice(err)
		writeAppError(w, err)
		return
	}

	text, err := s.Pipeline.LoadJobDescription(r.Context(), st, filename, data, r.FormValue("text"))
	s.respond(w, st, map[string]any{"text": text}, err)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request, st *session.AppState) {
	result, err := s.Pipeline.Analyze(r.Context(), st)
	s.respond(w, st, result, err)
}

func (s *Server) boostHandler(w http.ResponseWriter, r *http.Request, st *session.AppState) {
	result, err := s.Pipeline.Boost(r.Context(), st)
	s.respond(w, st, result, err)
}

// customHandler accepts an optional resume file that replaces the loaded
// resume for this edit only.
func (s *Server) customHandler(w http.ResponseWriter, r *http.Request, st *session.AppState) {
	if err := parseMultipart(r); err != nil {
		st.AddNotice(err)
		writeAppError(w, err)
		return
	}

	filename, data, err := readUpload(r, "file")
	if err != nil {
		err = errors.NewValidationError(errors.ErrCodeInvalidInput, "Could not read the uploaded file", err)
		st.AddNotice(err)
		writeAppError(w, err)
		return
	}

	result, err := s.Pipeline.CustomUpdateFromUpload(r.Context(), st, filename, data, r.FormValue("instructions"))
	s.respond(w, st, result, err)
}

func (s *Server) createResumeHandler(w http.ResponseWriter, r *http.Request, st *session.AppState) {
	var form CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		appErr := errors.NewValidationError(errors.ErrCodeInvalidInput, "Request body must be a JSON form", err)
		st.AddNotice(appErr)
		writeAppError(w, appErr)
		return
	}

	result, err := s.Pipeline.CreateFromForm(r.Context(), st, form)
	s.respond(w, st, result, err)
}

// exportHandler streams the requested document as an attachment.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request, st *session.AppState) {
	query := r.URL.Query()
	doc := types.ResumeKind(query.Get("doc"))
	format := query.Get("format")
	if format == "" {
		format = "md"
	}

	art, err := s.Pipeline.Export(r.Context(), st, doc, format)
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", art.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		s.Logger.LogError(err, "Failed to write export", "session_id", st.ID)
	}
}
