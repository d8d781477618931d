package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/core/model"
	"github.com/screepskit/screepskit/internal/server/middleware"
)

func TestWrapClientError(t *testing.T) {
	ctx := middleware.WithRequestID(context.Background(), "req-1")

	cases := map[string]struct {
		err    error
		code   string
		status int
	}{
		"api":       {err: fmt.Errorf("find user ghost: %w", &model.APIError{Message: "user not found"}), code: CodeUpstreamRejected, status: http.StatusBadGateway},
		"transport": {err: &client.Error{Kind: client.KindTransport, Err: stderrors.New("refused")}, code: CodeExternalService, status: http.StatusBadGateway},
		"deadline":  {err: &client.Error{Kind: client.KindTransport, Err: context.DeadlineExceeded}, code: CodeTimeout, status: http.StatusGatewayTimeout},
		"decode":    {err: &client.Error{Kind: client.KindDecode, Path: "/game/time", StatusCode: 502}, code: CodeExternalService, status: http.StatusBadGateway},
		"config":    {err: &client.Error{Kind: client.KindConfig, Err: client.ErrMissingCredentials}, code: CodeConfigInvalid, status: http.StatusServiceUnavailable},
		"other":     {err: stderrors.New("boom"), code: CodeInternal, status: http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			envelope := WrapClientError(ctx, tc.err)
			assert.Equal(t, tc.code, envelope.Code)
			assert.Equal(t, tc.status, HTTPStatusFromCode(envelope.Code))
			assert.Equal(t, "req-1", envelope.CorrelationID)
		})
	}
}

func TestWrapClientErrorKeepsUpstreamMessage(t *testing.T) {
	envelope := WrapClientError(context.Background(), &model.APIError{Message: "invalid room"})
	assert.Equal(t, "api error: invalid room", envelope.Message)
	assert.NotEmpty(t, envelope.CorrelationID)
}

func TestRespondWithErrorNormalizesPlainErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(middleware.WithRequestID(req.Context(), "req-9"))

	RespondWithError(rec, req, stderrors.New("disk full"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeInternal, body.Error.Code)
	assert.Equal(t, "req-9", body.Error.RequestID)
}
