// Package ratelimit gates mutating entry points with per-caller sliding
// windows. Callers are identified by API key when present, client address
// otherwise.
package ratelimit

import (
	"sync"
	"time"
)

const (
	MinuteWindow = "minute"
	HourWindow   = "hour"

	minuteSpan = time.Minute
	hourSpan   = time.Hour
)

type sample struct {
	ts     time.Time
	weight int
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool

	// set when rejected
	Window     string
	Limit      int
	RetryAfter int
	Current    int

	// counters after recording, for response headers
	MinuteCount int
	HourCount   int
}

type Limiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int
	history   map[string][]sample

	now func() time.Time
}

func New(perMinute int, perHour int) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		perHour:   perHour,
		history:   make(map[string][]sample),
		now:       time.Now,
	}
}

// Check prunes samples outside the hour window, evaluates both windows, and
// records the request (weight 1) when allowed.
func (l *Limiter) Check(identifier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.history[identifier][:0]
	for _, s := range l.history[identifier] {
		if now.Sub(s.ts) < hourSpan {
			kept = append(kept, s)
		}
	}
	l.history[identifier] = kept

	minuteCount, hourCount := 0, 0
	for _, s := range kept {
		hourCount += s.weight
		if now.Sub(s.ts) < minuteSpan {
			minuteCount += s.weight
		}
	}

	if minuteCount >= l.perMinute {
		return Decision{
			Window:     MinuteWindow,
			Limit:      l.perMinute,
			RetryAfter: int(minuteSpan.Seconds()),
			Current:    minuteCount,
		}
	}
	if hourCount >= l.perHour {
		return Decision{
			Window:     HourWindow,
			Limit:      l.perHour,
			RetryAfter: int(hourSpan.Seconds()),
			Current:    hourCount,
		}
	}

	l.history[identifier] = append(kept, sample{ts: now, weight: 1})

	return Decision{
		Allowed:     true,
		MinuteCount: minuteCount + 1,
		HourCount:   hourCount + 1,
	}
}

func (l *Limiter) LimitPerMinute() int { return l.perMinute }
func (l *Limiter) LimitPerHour() int   { return l.perHour }
