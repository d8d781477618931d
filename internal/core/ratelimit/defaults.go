package ratelimit

// DefaultGlobal applies to every endpoint without a dedicated entry.
var DefaultGlobal = NewRateLimit(120, PeriodMinute)

// DefaultGetLimits lists the published per-path quotas for GET endpoints.
var DefaultGetLimits = map[string]RateLimit{
	"/game/room-terrain":        NewRateLimit(360, PeriodHour),
	"/user/code":                NewRateLimit(60, PeriodHour),
	"/user/memory":              NewRateLimit(1440, PeriodDay),
	"/user/memory-segment":      NewRateLimit(360, PeriodHour),
	"/game/market/orders-index": NewRateLimit(60, PeriodHour),
	"/game/market/orders":       NewRateLimit(60, PeriodHour),
	"/game/market/my-orders":    NewRateLimit(60, PeriodHour),
	"/game/market/stats":        NewRateLimit(60, PeriodHour),
	"/game/user/money-history":  NewRateLimit(60, PeriodHour),
}

// DefaultPostLimits lists the published per-path quotas for POST endpoints.
var DefaultPostLimits = map[string]RateLimit{
	"/user/console":           NewRateLimit(360, PeriodHour),
	"/game/map-stats":         NewRateLimit(60, PeriodHour),
	"/user/code":              NewRateLimit(240, PeriodDay),
	"/user/set-active-branch": NewRateLimit(240, PeriodDay),
	"/user/memory":            NewRateLimit(240, PeriodDay),
	"/user/memory-segment":    NewRateLimit(60, PeriodHour),
}
