package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/screepskit/screepskit/internal/metrics"
	"github.com/screepskit/screepskit/internal/observability"
)

// Recovery turns a handler panic into a 500 error envelope and counts it.
func Recovery(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					panicErr := errors.NewErrorEnvelope("INTERNAL_ERROR", fmt.Sprintf("panic: %v", err)).
						WithCorrelationID(GetRequestID(r.Context()))
					panicErr, _ = panicErr.WithContext(map[string]interface{}{
						"stack_trace": string(debug.Stack()),
					})
					panicErr, _ = panicErr.WithSeverity(errors.SeverityCritical)

					if collector != nil {
						collector.RecordPanic()
					}
					if observability.ServerLogger != nil {
						observability.ServerLogger.Error("Recovered from handler panic",
							zap.String("path", r.URL.Path),
							zap.String("request_id", panicErr.CorrelationID),
							zap.Any("panic", err))
					}

					writeErrorResponse(w, panicErr, http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ErrorResponse mirrors the server's error body; it lives here to avoid an
// import cycle with internal/errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeErrorResponse(w http.ResponseWriter, envelope *errors.ErrorEnvelope, statusCode int) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			RequestID: envelope.CorrelationID,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
