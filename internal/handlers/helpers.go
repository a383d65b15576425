package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/quire/internal/interfaces"
)

var validate = validator.New()

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// DecodeAndValidate decodes the request body into dst and runs struct
// validation. Returns false after writing a 400 response on failure.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return false
	}
	return true
}

// WriteServiceError maps domain error types onto HTTP status codes.
func WriteServiceError(w http.ResponseWriter, err error) error {
	var passwordErr *interfaces.PasswordProtectedError
	var parseErr *interfaces.DocumentParseError
	var sourceErr *interfaces.SourceNotFoundError

	switch {
	case errors.As(err, &passwordErr):
		return WriteJSON(w, http.StatusLocked, map[string]interface{}{
			"status":      "error",
			"error":       passwordErr.Error(),
			"document_id": passwordErr.DocumentID,
			"retryable":   true,
		})
	case errors.As(err, &parseErr):
		return WriteError(w, http.StatusUnprocessableEntity, parseErr.Error())
	case errors.As(err, &sourceErr):
		return WriteError(w, http.StatusNotFound, sourceErr.Error())
	case errors.Is(err, interfaces.ErrPageNotFound):
		return WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interfaces.ErrEmptySelection),
		errors.Is(err, interfaces.ErrInvalidRange):
		return WriteError(w, http.StatusBadRequest, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
