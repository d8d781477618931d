// Package ratelimit tracks the per-endpoint quotas the game server publishes
// through x-ratelimit-* response headers and computes how long a caller must
// wait before an endpoint may be called again.
package ratelimit

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Response headers carrying quota state.
const (
	HeaderLimit     = "X-Ratelimit-Limit"
	HeaderRemaining = "X-Ratelimit-Remaining"
	HeaderReset     = "X-Ratelimit-Reset"
)

// Method is the HTTP method half of an endpoint key.
type Method string

const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

// ParseMethod normalizes an HTTP method name.
func ParseMethod(value string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case http.MethodGet:
		return MethodGet, nil
	case http.MethodPost:
		return MethodPost, nil
	default:
		return "", fmt.Errorf("unsupported method: %s", value)
	}
}

// Period is the window over which a quota resets.
type Period string

const (
	PeriodMinute Period = "minute"
	PeriodHour   Period = "hour"
	PeriodDay    Period = "day"
)

// Duration returns the length of the period.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodMinute:
		return time.Minute
	case PeriodHour:
		return time.Hour
	case PeriodDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ParsePeriod validates a stored period string.
func ParsePeriod(value string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(value))) {
	case PeriodMinute:
		return PeriodMinute, nil
	case PeriodHour:
		return PeriodHour, nil
	case PeriodDay:
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("unknown rate limit period: %s", value)
	}
}

// RateLimit is the quota state of one endpoint.
//
// Remaining is only ever replaced by a server update, never decremented
// locally. Reset is expressed in epoch seconds.
type RateLimit struct {
	Limit     int    `json:"limit" yaml:"limit"`
	Period    Period `json:"period" yaml:"period"`
	Remaining int    `json:"remaining" yaml:"remaining"`
	Reset     int64  `json:"reset" yaml:"reset"`
}

// NewRateLimit returns a fresh quota with the full allowance remaining.
func NewRateLimit(limit int, period Period) RateLimit {
	return RateLimit{Limit: limit, Period: period, Remaining: limit}
}

// Exhausted reports whether no requests remain in the current window.
func (r RateLimit) Exhausted() bool {
	return r.Remaining <= 0
}

// ResetAt returns the reset instant, or the zero time when unknown.
func (r RateLimit) ResetAt() time.Time {
	if r.Reset <= 0 {
		return time.Time{}
	}
	return time.Unix(r.Reset, 0).UTC()
}

// Entry is a registry row used for snapshots. An empty Path with an empty
// Method denotes the global fallback.
type Entry struct {
	Method    Method    `json:"method,omitempty" yaml:"method,omitempty"`
	Path      string    `json:"path,omitempty" yaml:"path,omitempty"`
	RateLimit RateLimit `json:"rate_limit" yaml:"rate_limit"`
}

// Global reports whether the entry is the global fallback.
func (e Entry) Global() bool {
	return e.Method == "" && e.Path == ""
}

// Registry holds the quota table shared by every request issued through one
// client.
type Registry struct {
	mu     sync.Mutex
	global RateLimit
	get    map[string]RateLimit
	post   map[string]RateLimit

	// Clock and Sleep are swapped out in tests.
	Clock func() time.Time
	Sleep func(time.Duration)
}

// NewRegistry returns a registry seeded with the published defaults.
func NewRegistry() *Registry {
	r := &Registry{
		global: DefaultGlobal,
		get:    make(map[string]RateLimit, len(DefaultGetLimits)),
		post:   make(map[string]RateLimit, len(DefaultPostLimits)),
	}
	for path, limit := range DefaultGetLimits {
		r.get[path] = limit
	}
	for path, limit := range DefaultPostLimits {
		r.post[path] = limit
	}
	return r
}

// Lookup returns the entry for method and path, falling back to the global
// quota when no specific entry exists.
func (r *Registry) Lookup(method Method, path string) RateLimit {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit, ok := r.table(method)[path]; ok {
		return limit
	}
	return r.global
}

// Global returns the current global fallback quota.
func (r *Registry) Global() RateLimit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.global
}

// WaitDuration returns how long a request to method and path has to be held
// back at now. It is zero unless the quota is exhausted and its reset lies in
// the future.
func (r *Registry) WaitDuration(method Method, path string, now time.Time) time.Duration {
	limit := r.Lookup(method, path)
	if !limit.Exhausted() {
		return 0
	}
	waitMs := limit.Reset*1000 - now.UnixMilli()
	if waitMs <= 0 {
		return 0
	}
	return time.Duration(waitMs) * time.Millisecond
}

// WaitIfNeeded blocks the caller for the computed wait, if any, and returns
// the duration it slept. The sleep happens outside the registry lock and is
// not cancellable.
func (r *Registry) WaitIfNeeded(method Method, path string) time.Duration {
	wait := r.WaitDuration(method, path, r.now())
	if wait > 0 {
		r.sleep(wait)
	}
	return wait
}

// UpdateFromHeaders replaces the limit, remaining and reset fields of the
// matching entry from the response headers. A missing, malformed or
// non-positive limit header leaves the registry untouched. It reports whether
// an update was applied.
func (r *Registry) UpdateFromHeaders(method Method, path string, header http.Header) bool {
	limit := int(headerInt(header, HeaderLimit))
	if limit <= 0 {
		return false
	}
	remaining := int(headerInt(header, HeaderRemaining))
	reset := headerInt(header, HeaderReset)

	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.table(method)
	if current, ok := table[path]; ok {
		current.Limit = limit
		current.Remaining = remaining
		current.Reset = reset
		table[path] = current
		return true
	}

	r.global.Limit = limit
	r.global.Remaining = remaining
	r.global.Reset = reset
	return true
}

// Snapshot returns a copy of every entry, global fallback first, then GET and
// POST entries sorted by path.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, 1+len(r.get)+len(r.post))
	entries = append(entries, Entry{RateLimit: r.global})
	entries = append(entries, sortedEntries(MethodGet, r.get)...)
	entries = append(entries, sortedEntries(MethodPost, r.post)...)
	return entries
}

// Restore overwrites registry entries wholesale from a snapshot. Entries for
// paths the registry does not know yet are created.
func (r *Registry) Restore(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if entry.Global() {
			r.global = entry.RateLimit
			continue
		}
		table := r.table(entry.Method)
		if table == nil {
			continue
		}
		table[entry.Path] = entry.RateLimit
	}
}

// table must be called with mu held.
func (r *Registry) table(method Method) map[string]RateLimit {
	switch method {
	case MethodGet:
		return r.get
	case MethodPost:
		return r.post
	default:
		return nil
	}
}

func (r *Registry) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func (r *Registry) sleep(d time.Duration) {
	if r != nil && r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func sortedEntries(method Method, table map[string]RateLimit) []Entry {
	paths := make([]string, 0, len(table))
	for path := range table {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, Entry{Method: method, Path: path, RateLimit: table[path]})
	}
	return entries
}

func headerInt(header http.Header, key string) int64 {
	if header == nil {
		return 0
	}
	value := strings.TrimSpace(header.Get(key))
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
