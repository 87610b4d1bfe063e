package model

import (
	"log/slog"
	"time"
)

// Window bounds an export in time. Both ends are inclusive Unix milliseconds;
// a nil end is unbounded.
type Window struct {
	Start *int64
	End   *int64
}

// Millis returns a pointer to ms, for building windows.
func Millis(ms int64) *int64 {
	return &ms
}

// Contains reports whether ts lies inside the window.
func (w Window) Contains(ts int64) bool {
	if w.Start != nil && ts < *w.Start {
		return false
	}
	if w.End != nil && ts > *w.End {
		return false
	}
	return true
}

// IsZero reports whether neither bound is set.
func (w Window) IsZero() bool {
	return w.Start == nil && w.End == nil
}

// TimeFromMillis converts Unix milliseconds to a UTC time.
func TimeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// LogValue renders the bounds as RFC 3339 times; unset bounds are omitted.
func (w Window) LogValue() slog.Value {
	var attrs []slog.Attr
	if w.Start != nil {
		attrs = append(attrs, slog.String("start", TimeFromMillis(*w.Start).Format(time.RFC3339)))
	}
	if w.End != nil {
		attrs = append(attrs, slog.String("end", TimeFromMillis(*w.End).Format(time.RFC3339)))
	}
	return slog.GroupValue(attrs...)
}
