package client

import "sync"

// TokenHolder is the session token slot shared by every request of a client.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewTokenHolder returns a holder, pre-filled when initial is non-empty.
func NewTokenHolder(initial string) *TokenHolder {
	h := &TokenHolder{}
	if initial != "" {
		h.Set(initial)
	}
	return h
}

// Get returns the current token and whether one is present.
func (h *TokenHolder) Get() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token, h.set
}

// Set overwrites the token. The last writer wins.
func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
	h.set = true
}
