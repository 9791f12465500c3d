package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"challenge-server/internal/apperr"
	"challenge-server/internal/models"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFieldError(w http.ResponseWriter, status int, field, message string) {
	writeJSON(w, status, models.ErrorResponse{Errors: []models.FieldError{{Field: field, Message: message}}})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalid:
		return http.StatusBadRequest
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"errors":[{field, message}]}. Anything that is
// not an AppError, or is an internal one, is logged and reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperr.As(err)
	if !ok || ae.Code == apperr.CodeInternal {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeFieldError(w, http.StatusInternalServerError, "server", "Internal server error")
		return
	}

	status := statusFor(ae.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("dependency unavailable", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeFieldError(w, status, ae.Field, ae.Message)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return apperr.Wrap(err, apperr.CodeInvalid, "body", "Malformed JSON")
		}
		return apperr.Wrap(err, apperr.CodeInvalid, "body", "Invalid request body")
	}
	return nil
}
