package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/screepskit/screepskit/internal/core/model"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
	apperrors "github.com/screepskit/screepskit/internal/errors"
)

// GameAPI is the subset of the client the status server proxies.
type GameAPI interface {
	ShardsInfo(ctx context.Context) (*model.ShardsInfoResponse, error)
	GameTime(ctx context.Context, shard string) (*model.GameTimeResponse, error)
}

// RateLimitSource exposes the live rate-limit table.
type RateLimitSource interface {
	Snapshot() []ratelimit.Entry
}

// RateLimitsResponse is the body of GET /rate-limits.
type RateLimitsResponse struct {
	Entries []ratelimit.Entry `json:"entries"`
}

// RateLimitsHandler serves the current registry snapshot.
func RateLimitsHandler(source RateLimitSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, RateLimitsResponse{Entries: source.Snapshot()})
	}
}

// ShardsHandler proxies GET /game/shards/info.
func ShardsHandler(api GameAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := api.ShardsInfo(r.Context())
		if err == nil {
			err = resp.Err()
		}
		if err != nil {
			respondWithError(w, r, apperrors.WrapClientError(r.Context(), err))
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// TimeHandler proxies GET /game/time for the {shard} URL parameter.
func TimeHandler(api GameAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shard := chi.URLParam(r, "shard")
		if shard == "" {
			respondWithError(w, r, apperrors.NewInvalidInputError("shard is required"))
			return
		}

		resp, err := api.GameTime(r.Context(), shard)
		if err == nil {
			err = resp.Err()
		}
		if err != nil {
			respondWithError(w, r, apperrors.WrapClientError(r.Context(), err))
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
