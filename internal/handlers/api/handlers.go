// ===============================
// FILE: internal/handlers/api/handlers.go
// ===============================

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"drivevault/internal/middleware"
	"drivevault/internal/response"
	"drivevault/internal/services"
)

// validate is shared by all handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New()

// decodeJSON parses and validates a JSON request body into dest. On failure
// it writes the error response and reports false.
func decodeJSON(b *response.Builder, w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		b.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return false
	}
	if err := validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]response.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, response.FieldError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %q validation", fe.Tag()),
				})
			}
			b.WriteValidationError(w, r, "invalid request", fields)
			return false
		}
		b.WriteError(w, r, services.NewValidationError("invalid request", err))
		return false
	}
	return true
}

// requireUser extracts the acting user from the request context, refusing
// the request when identity is missing. Write operations on comments need a
// known author for the server-side ownership checks.
func requireUser(b *response.Builder, w http.ResponseWriter, r *http.Request) (string, bool) {
	user := middleware.GetUser(r.Context())
	if user == "" {
		b.WriteError(w, r, services.NewValidationError("missing X-User header", nil))
		return "", false
	}
	return user, true
}

func logHandler(r *http.Request, logger *zap.Logger) *zap.Logger {
	return middleware.GetLogger(r.Context(), logger)
}
