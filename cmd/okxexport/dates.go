package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickgao/okx-withdrawals/internal/config"
)

// dateLayouts are tried in order; all are read as UTC.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// DateParseError reports a --start or --end value in none of the accepted
// layouts.
type DateParseError struct {
	Flag  string
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse date %q (supported: YYYY-MM-DD[ HH:MM[:SS]])", e.Flag, e.Value)
}

// Is makes errors.Is(err, config.ErrInvalidConfig) true.
func (e *DateParseError) Is(target error) bool {
	return target == config.ErrInvalidConfig
}

// parseDateMillis converts a UTC date to Unix milliseconds.
func parseDateMillis(flag, value string) (int64, error) {
	s := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, &DateParseError{Flag: flag, Value: value}
}

// parseOptionalDate returns nil for an empty value.
func parseOptionalDate(flag, value string) (*int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	ms, err := parseDateMillis(flag, value)
	if err != nil {
		return nil, err
	}
	return &ms, nil
}
