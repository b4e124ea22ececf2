package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/izzy/internal/server/middleware"
)

// maxJSONBody bounds request bodies outside of file uploads.
const maxJSONBody = 1 << 20

// caller returns the authenticated user, writing a 401 when there is none.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return id.UserID, true
}

// pathID parses a UUID path parameter. Malformed ids are reported as not found.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "Not found")
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON reads and validates a request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

// optionalID parses an optional UUID from a validated request field.
func optionalID(v string) *uuid.UUID {
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}
