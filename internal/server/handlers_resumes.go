package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jonathan/izzy/internal/agents"
	"github.com/jonathan/izzy/internal/ingestion"
	"github.com/jonathan/izzy/internal/types"
)

// UploadedResume is the text extracted from an uploaded file and its parse.
type UploadedResume struct {
	RawText    string                 `json:"raw_text"`
	Structured types.StructuredResume `json:"structured"`
}

func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}
	var req types.ParseResumeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Parser.Parse(r.Context(), req.ResumeText))
}

// handleUploadResume extracts text from a multipart "file" field and parses it.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	text, err := ingestion.ExtractDocumentText(header.Filename, data)
	switch {
	case errors.Is(err, ingestion.ErrUnsupportedFormat):
		s.errorResponse(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case errors.Is(err, ingestion.ErrEmptyDocument):
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.Warn("resume extraction failed", slog.String("filename", header.Filename), slog.Any("error", err))
		s.errorResponse(w, http.StatusUnprocessableEntity, "Could not read text from the uploaded file")
		return
	}

	res := s.agents.Parser.Parse(r.Context(), text)
	if !res.Success {
		writeResult(s, w, http.StatusOK, res)
		return
	}
	s.jsonResponse(w, http.StatusOK, agents.Result[UploadedResume]{
		Success: true,
		Data:    UploadedResume{RawText: text, Structured: res.Data},
	})
}

func (s *Server) handleSaveResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req types.SaveResumeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	writeResult(s, w, http.StatusCreated, s.agents.Parser.SaveResume(r.Context(), userID, req.RawText, req.Structured))
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Records.ListResumes(r.Context(), userID))
}

func (s *Server) handleActiveResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Records.ActiveResume(r.Context(), userID))
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	resumeID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	writeResult(s, w, http.StatusOK, s.agents.Records.DeleteResume(r.Context(), userID, resumeID))
}
