package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindow_Contains(t *testing.T) {
	tests := []struct {
		name   string
		window Window
		ts     int64
		want   bool
	}{
		{name: "unbounded", window: Window{}, ts: 0, want: true},
		{name: "at start", window: Window{Start: Millis(100)}, ts: 100, want: true},
		{name: "before start", window: Window{Start: Millis(100)}, ts: 99, want: false},
		{name: "at end", window: Window{End: Millis(200)}, ts: 200, want: true},
		{name: "after end", window: Window{End: Millis(200)}, ts: 201, want: false},
		{name: "inside both", window: Window{Start: Millis(100), End: Millis(200)}, ts: 150, want: true},
		{name: "inverted window", window: Window{Start: Millis(200), End: Millis(100)}, ts: 150, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Contains(tt.ts))
		})
	}
}

func TestWindow_IsZero(t *testing.T) {
	assert.True(t, Window{}.IsZero())
	assert.False(t, Window{End: Millis(1)}.IsZero())
}

func TestTimeFromMillis(t *testing.T) {
	got := TimeFromMillis(1705320000000)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), got)
}

func TestWindow_LogValue(t *testing.T) {
	v := Window{Start: Millis(1704067200000)}.LogValue()
	attrs := v.Group()
	if assert.Len(t, attrs, 1) {
		assert.Equal(t, "start", attrs[0].Key)
		assert.Equal(t, "2024-01-01T00:00:00Z", attrs[0].Value.String())
	}

	assert.Empty(t, Window{}.LogValue().Group())
}
