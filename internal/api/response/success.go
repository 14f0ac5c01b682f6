package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success    bool             `json:"success"`
	Data       interface{}      `json:"data"`
	Message    string           `json:"message,omitempty"`
	Metadata   ResponseMetadata `json:"metadata"`
	Pagination *Pagination      `json:"pagination,omitempty"`
}

// ResponseMetadata represents the metadata for responses
type ResponseMetadata struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
}

// Pagination represents pagination information
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"perPage,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`
}

func metadata(requestID string) ResponseMetadata {
	return ResponseMetadata{
		Version:   "1.0",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

func write(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// headers are already on the wire, an encode failure has nowhere to go
	_ = json.NewEncoder(w).Encode(body)
}

// Success writes a success envelope with the given status code.
func Success(w http.ResponseWriter, statusCode int, data interface{}, requestID string) {
	write(w, statusCode, SuccessResponse{
		Success:  true,
		Data:     data,
		Metadata: metadata(requestID),
	})
}

// SuccessWithMessage writes a success envelope carrying the upstream's
// confirmation message alongside the data.
func SuccessWithMessage(w http.ResponseWriter, statusCode int, data interface{}, message, requestID string) {
	write(w, statusCode, SuccessResponse{
		Success:  true,
		Data:     data,
		Message:  message,
		Metadata: metadata(requestID),
	})
}

// SuccessWithPagination writes a success envelope with pagination information.
func SuccessWithPagination(w http.ResponseWriter, statusCode int, data interface{}, pagination *Pagination, requestID string) {
	write(w, statusCode, SuccessResponse{
		Success:    true,
		Data:       data,
		Metadata:   metadata(requestID),
		Pagination: pagination,
	})
}

// OK writes a standard OK (200) response
func OK(w http.ResponseWriter, data interface{}, requestID string) {
	Success(w, http.StatusOK, data, requestID)
}

// Created writes a standard Created (201) response
func Created(w http.ResponseWriter, data interface{}, requestID string) {
	Success(w, http.StatusCreated, data, requestID)
}

// NoContent writes a standard No Content (204) response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
