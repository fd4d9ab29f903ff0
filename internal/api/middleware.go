package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/workbets/workbets-server/internal/http/response"
	"github.com/workbets/workbets-server/internal/logger"
)

// EnvelopeVersion is bumped whenever the envelope shape changes.
const EnvelopeVersion = response.Version

// APIEnvelope wraps every JSON response body.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// ErrorBody is the error half of the envelope.
type ErrorBody = response.ErrorBody

// EnvelopeTransformer is a huma transformer producing
// {success, data} for 2xx responses and {success:false, error} otherwise.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if strings.HasPrefix(status, "2") {
		return response.OK(v), nil
	}

	code, _ := strconv.Atoi(status)
	body := &ErrorBody{Code: response.CodeForStatus(code), Message: http.StatusText(code)}
	switch e := v.(type) {
	case *APIError:
		body.Code = e.Code
		body.Message = e.Message
		body.Details = e.Details
	case error:
		body.Message = e.Error()
	}
	return response.Failed(body), nil
}

// requestLogger stores base, tagged with the chi request id, in the request
// context. Must run after middleware.RequestID.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if base == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(slog.String("request_id", middleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l)))
		})
	}
}
