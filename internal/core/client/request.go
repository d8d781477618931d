package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

// Request sends one call and decodes the JSON body into out.
//
// GET params must be url.Values or map[string]string and are sent as the
// query string; POST params are marshalled as the JSON body. The encoding is
// chosen by method alone. When the endpoint's quota is exhausted the call
// blocks until the advertised reset before sending; that wait is not bounded
// by ctx or by the client timeout. The decoded envelope's ok flag is not
// inspected.
func (c *Client) Request(ctx context.Context, method ratelimit.Method, path string, params any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := c.newRequest(ctx, method, path, params)
	if err != nil {
		return &Error{Kind: KindRequest, Method: string(method), Path: path, Err: err}
	}

	requestID := uuid.New().String()

	if wait := c.limits.WaitIfNeeded(method, path); wait > 0 {
		c.logger.Warn("Rate limit exhausted, waited for reset",
			zap.String("request_id", requestID),
			zap.String("method", string(method)),
			zap.String("path", path),
			zap.Duration("wait", wait))
		if c.observer != nil {
			c.observer.ObserveWait(method, path, wait)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.finish(requestID, method, path, 0, start, err)
		return &Error{Kind: KindTransport, Method: string(method), Path: path, Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if token := resp.Header.Get(HeaderToken); token != "" {
		c.token.Set(token)
	}
	if c.limits.UpdateFromHeaders(method, path, resp.Header) && c.observer != nil {
		c.observer.ObserveRateLimit(method, path, c.limits.Lookup(method, path))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.finish(requestID, method, path, resp.StatusCode, start, err)
		return &Error{Kind: KindTransport, Method: string(method), Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			c.finish(requestID, method, path, resp.StatusCode, start, err)
			return &Error{Kind: KindDecode, Method: string(method), Path: path, StatusCode: resp.StatusCode, Err: err}
		}
	}

	c.finish(requestID, method, path, resp.StatusCode, start, nil)
	return nil
}

// Get is Request with MethodGet.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, out any) error {
	return c.Request(ctx, ratelimit.MethodGet, path, query, out)
}

// Post is Request with MethodPost.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Request(ctx, ratelimit.MethodPost, path, body, out)
}

func (c *Client) newRequest(ctx context.Context, method ratelimit.Method, path string, params any) (*http.Request, error) {
	target := c.BuildURL(path)

	var body io.Reader
	switch method {
	case ratelimit.MethodGet:
		query, err := encodeQuery(params)
		if err != nil {
			return nil, err
		}
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
	case ratelimit.MethodPost:
		if params != nil {
			data, err := json.Marshal(params)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			body = bytes.NewReader(data)
		}
	default:
		return nil, fmt.Errorf("unsupported method: %s", method)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), target, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyAuth(req.Header)
	return req, nil
}

// applyAuth sets the token on both auth headers the server accepts.
func (c *Client) applyAuth(h http.Header) {
	token, ok := c.token.Get()
	if !ok || token == "" {
		return
	}
	h.Set(HeaderToken, token)
	h.Set(HeaderUsername, token)
}

func (c *Client) finish(requestID string, method ratelimit.Method, path string, statusCode int, start time.Time, err error) {
	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveRequest(method, path, statusCode, elapsed, err)
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", string(method)),
		zap.String("path", path),
		zap.Int("status", statusCode),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		c.logger.Warn("Request failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("Request completed", fields...)
}

func encodeQuery(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return p, nil
	case map[string]string:
		if p == nil {
			return nil, nil
		}
		values := make(url.Values, len(p))
		for key, value := range p {
			values.Set(key, value)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unsupported query params type %T", params)
	}
}
