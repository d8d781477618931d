package client

import (
	"context"

	"github.com/screepskit/screepskit/internal/core/model"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

// PathSignin is the credential exchange endpoint.
const PathSignin = "/auth/signin"

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Auth exchanges the configured email and password for a session token.
//
// The token in the returned body is not stored. The session token is taken
// from the X-Token response header, which the executor applies to every
// response, so the header value is authoritative when both are present.
func (c *Client) Auth(ctx context.Context) (*model.TokenResponse, error) {
	if !c.cfg.HasCredentials() {
		return nil, &Error{
			Kind:   KindConfig,
			Method: string(ratelimit.MethodPost),
			Path:   PathSignin,
			Err:    ErrMissingCredentials,
		}
	}

	var resp model.TokenResponse
	body := signinRequest{Email: c.cfg.Email, Password: c.cfg.Password}
	if err := c.Post(ctx, PathSignin, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
