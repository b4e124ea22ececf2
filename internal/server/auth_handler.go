package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/izzy/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	validator   *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		validator:   validator.New(),
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, HTTPStatus(err), publicMessage(err))
		return
	}

	h.respondWithToken(w, http.StatusCreated, user, h.jwtService.GenerateToken)
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, HTTPStatus(err), publicMessage(err))
		return
	}

	h.respondWithToken(w, http.StatusOK, user, h.jwtService.GenerateToken)
}

// Anonymous creates a guest account and returns its token.
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.CreateAnonymous(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create guest account")
		return
	}

	h.respondWithToken(w, http.StatusCreated, user, h.jwtService.GenerateAnonymousToken)
}

// UpdatePassword changes the password of the given account.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req types.UpdatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, HTTPStatus(err), publicMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

// decode reads a bounded JSON body into dst, normalizes it when it knows how
// and validates it. It writes the 400 response itself.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if n, ok := dst.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if err := h.validator.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *types.User, sign func(uuid.UUID) (string, error)) {
	token, err := sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, status, types.LoginResponse{
		User:  user,
		Token: token,
	})
}

// publicMessage hides internal failure details from clients.
func publicMessage(err error) string {
	if HTTPStatus(err) >= http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

// extractValidationErrors reports the first failed field and rule.
func extractValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("validation error: %s - %s", verrs[0].Field(), verrs[0].Tag())
	}
	return "validation error: invalid request"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
