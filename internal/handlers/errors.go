package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"courseforge/internal/service"
	"courseforge/internal/validation"
)

// apiResponse is the uniform JSON envelope for every endpoint
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondOK writes a success envelope
func respondOK(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, apiResponse{Success: true, Data: data, Message: message})
}

// respondWithError writes a failure envelope. userMsg goes to the client;
// logMsg and err stay in the server log.
func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}
	writeJSON(w, status, apiResponse{Success: false, Message: userMsg})
}

// respondServiceError maps a service error to its HTTP status. Unknown errors
// become an opaque 500; the detail only reaches the log.
func respondServiceError(w http.ResponseWriter, err error, logMsg string) {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		respondWithError(w, http.StatusUnprocessableEntity, verr.Message, "", nil)
		return
	}

	switch {
	case errors.Is(err, service.ErrIdentityTaken),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrProviderMismatch),
		errors.Is(err, service.ErrDuplicateCourseTitle):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrUnknownAccount),
		errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrModuleNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrWrongLoginType),
		errors.Is(err, service.ErrTokenInvalidOrExpired):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, err.Error(), "", nil)
	case errors.Is(err, service.ErrNotCourseOwner),
		errors.Is(err, service.ErrNotInstructor):
		respondWithError(w, http.StatusForbidden, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", logMsg, err)
	}
}

// decodeJSON parses a request body into dst, rejecting unknown garbage sizes
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return validation.ValidationError{Field: "body", Message: "invalid request body"}
	}
	return nil
}
