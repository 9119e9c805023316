package response

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"drivevault/internal/middleware"
	"drivevault/internal/services"
)

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse represents a standardized API response
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Message   string       `json:"message,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp int64        `json:"timestamp,omitempty"`
}

// ErrorDetail represents error information in API responses
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Fields  []FieldError           `json:"fields,omitempty"`
}

// FieldError represents field-specific validation errors
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder helps construct standardized responses
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a new response builder
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// WriteJSON serializes response with the given status.
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, resp *APIResponse, statusCode int) {
	resp.RequestID = middleware.GetRequestID(r.Context())
	resp.Timestamp = time.Now().Unix()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		b.logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteSuccess writes a 200 with data.
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, &APIResponse{Success: true, Data: data}, http.StatusOK)
}

// WriteCreated writes a 201 with data.
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, &APIResponse{Success: true, Data: data}, http.StatusCreated)
}

// WriteResult writes an OperationResult, carrying its message through to the
// client with a 200 for success and err's mapped status otherwise.
func (b *Builder) WriteResult(w http.ResponseWriter, r *http.Request, result *services.OperationResult, data interface{}, err error) {
	if err != nil {
		svcErr := services.GetServiceError(err)
		detail := &ErrorDetail{
			Type:    svcErr.Type,
			Message: svcErr.Message,
			Details: svcErr.Details,
		}
		if result != nil && result.Message != "" {
			detail.Message = result.Message
		}
		b.WriteJSON(w, r, &APIResponse{Success: false, Error: detail}, svcErr.GetStatusCode())
		return
	}

	resp := &APIResponse{Success: true, Data: data}
	if result != nil {
		resp.Success = result.Success
		resp.Message = result.Message
	}
	b.WriteJSON(w, r, resp, http.StatusOK)
}

// WriteError maps err's ServiceError type onto an HTTP status and writes the
// error envelope.
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := services.GetServiceError(err)
	if svcErr.GetStatusCode() >= http.StatusInternalServerError {
		middleware.GetLogger(r.Context(), b.logger).Error("request error", zap.Error(err))
	}
	b.WriteJSON(w, r, &APIResponse{
		Success: false,
		Error: &ErrorDetail{
			Type:    svcErr.Type,
			Message: svcErr.Message,
			Details: svcErr.Details,
		},
	}, svcErr.GetStatusCode())
}

// WriteValidationError writes a 400 with per-field messages.
func (b *Builder) WriteValidationError(w http.ResponseWriter, r *http.Request, message string, fields []FieldError) {
	b.WriteJSON(w, r, &APIResponse{
		Success: false,
		Error: &ErrorDetail{
			Type:    services.TypeValidation,
			Message: message,
			Fields:  fields,
		},
	}, http.StatusBadRequest)
}
