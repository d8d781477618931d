// Package model holds the response shapes returned by the game server API.
//
// Every response embeds Envelope. Decoding a response never fails because of
// its ok flag; callers check Envelope.Err explicitly.
package model

import "fmt"

// Envelope is the {ok, error} wrapper common to every response body.
type Envelope struct {
	OK    int    `json:"ok" yaml:"ok"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Success reports whether the server flagged the call as successful.
func (e Envelope) Success() bool {
	return e.OK == 1
}

// Err returns an *APIError when ok != 1, nil otherwise.
func (e Envelope) Err() error {
	if e.Success() {
		return nil
	}
	return &APIError{OK: e.OK, Message: e.Error}
}

// APIError is an application-level failure reported inside a decoded body.
type APIError struct {
	OK      int
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	if e.Message == "" {
		return fmt.Sprintf("api error: ok=%d", e.OK)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// TokenResponse is returned by POST /auth/signin.
type TokenResponse struct {
	Envelope `yaml:",inline"`
	Token    string `json:"token" yaml:"token"`
}
