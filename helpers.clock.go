package main

import (
	"time"
)

// ISO8601Layout formats timestamps like 2023-07-01T20:19:10.760Z.
const ISO8601Layout = "2006-01-02T15:04:05.000Z07:00"

var (
	_ Clocker       = (*Clock)(nil)
	_ TickerClocker = (*TickClock)(nil)
)

// Clocker tells the current time.
type Clocker interface {
	Now() time.Time
}

// TickerClocker is a Clocker able to build tickers, as zapcore.Clock requires.
type TickerClocker interface {
	Clocker
	NewTicker(time.Duration) *time.Ticker
}

// Clock reads the system time in a fixed location.
type Clock struct {
	tz *time.Location
}

// NewClock uses UTC in production and the local zone otherwise.
func NewClock(isProd bool) *Clock {
	if isProd {
		return &Clock{time.UTC}
	}
	return &Clock{time.Local}
}

func (ck *Clock) Now() time.Time {
	return time.Now().In(ck.tz)
}

// TickClock feeds zap with the application clock.
type TickClock struct {
	clock Clocker
}

func NewTickClock(ck Clocker) *TickClock {
	return &TickClock{ck}
}

func (tc *TickClock) Now() time.Time {
	return tc.clock.Now()
}

func (tc *TickClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// FormatTimestamp renders t in UTC with milliseconds precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISO8601Layout)
}
