package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every single-message failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists every failing input rule
type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

// MessageResponse is the body of a successful command without a payload
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondWithError sends a {"error": message} response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithValidationErrors sends a 400 {"errors": [...]} response
func RespondWithValidationErrors(w http.ResponseWriter, errors []string) {
	if errors == nil {
		errors = []string{}
	}
	RespondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: errors})
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Stack("stack"),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
