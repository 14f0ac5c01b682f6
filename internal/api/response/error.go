package response

import (
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/officehub/backend/internal/domain/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success          bool             `json:"success"`
	Error            string           `json:"error"`
	ErrorDescription ErrorDescription `json:"error_description"`
	Metadata         ResponseMetadata `json:"metadata"`
}

// ErrorDescription represents the error details
type ErrorDescription struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteError writes an error envelope. Unrecognized errors are reported
// as a generic internal error so internals never leak to the dashboard.
func WriteError(w http.ResponseWriter, err error, requestID string) {
	appErr := errors.NewInternalError("an unexpected error occurred", err)
	var known errors.AppError
	if goerrors.As(err, &known) {
		appErr = known
	}

	body := ErrorResponse{
		Success: false,
		Error:   appErr.Code,
		ErrorDescription: ErrorDescription{
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Metadata: metadata(requestID),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		http.Error(w, appErr.Message, appErr.StatusCode)
	}
}

// ValidationError writes a validation error response
func ValidationError(w http.ResponseWriter, message, requestID string) {
	WriteError(w, errors.NewValidationError(message), requestID)
}

// NotFound writes a not found error response
func NotFound(w http.ResponseWriter, message, requestID string) {
	WriteError(w, errors.NewNotFoundError(message), requestID)
}

// AuthenticationError writes an authentication error response
func AuthenticationError(w http.ResponseWriter, message, requestID string) {
	WriteError(w, errors.NewAuthenticationError(message), requestID)
}

// AuthorizationError writes an authorization error response
func AuthorizationError(w http.ResponseWriter, message, requestID string) {
	WriteError(w, errors.NewAuthorizationError(message), requestID)
}
