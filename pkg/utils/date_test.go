package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTradingSession(t *testing.T) {
	// 2026-10-14 is a Wednesday.
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{name: "weekday mid morning", t: at(14, 10, 15), want: true},
		{name: "morning open", t: at(14, 9, 30), want: true},
		{name: "before open", t: at(14, 9, 29), want: false},
		{name: "morning close", t: at(14, 11, 30), want: true},
		{name: "lunch break", t: at(14, 12, 0), want: false},
		{name: "afternoon open", t: at(14, 13, 0), want: true},
		{name: "afternoon close", t: at(14, 15, 0), want: true},
		{name: "after close", t: at(14, 15, 1), want: false},
		{name: "saturday", t: at(17, 10, 0), want: false},
		{name: "sunday", t: at(18, 14, 0), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTradingSession(tt.t))
		})
	}
}

func TestLoadLocation_Fallback(t *testing.T) {
	assert.Equal(t, time.Local, LoadLocation(""))
	assert.Equal(t, time.Local, LoadLocation("Not/AZone"))
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		size  int
		want  [][]string
	}{
		{name: "exact", items: []string{"a", "b", "c", "d"}, size: 2, want: [][]string{{"a", "b"}, {"c", "d"}}},
		{name: "remainder", items: []string{"a", "b", "c"}, size: 2, want: [][]string{{"a", "b"}, {"c"}}},
		{name: "empty", items: nil, size: 3, want: nil},
		{name: "non positive size", items: []string{"a", "b"}, size: 0, want: [][]string{{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.items, tt.size))
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "0700.HK", NormalizeSymbol("  0700.hk "))
	assert.Equal(t, "", NormalizeSymbol("   "))
}
