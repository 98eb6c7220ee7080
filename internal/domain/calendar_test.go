package domain

import (
	"testing"
	"time"
)

func TestParseMinuteOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    MinuteOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 9*60 + 30, false},
		{"23:59", 23*60 + 59, false},
		{"9:30", 9*60 + 30, false},
		{"24:00", 24 * 60, false},
		{"24:01", 0, true},
		{"0930", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseMinuteOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseMinuteOfDay(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMinuteOfDay(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMinuteOfDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMinuteOfDay_StringRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "09:05", "13:30", "23:59", "24:00"} {
		m, err := ParseMinuteOfDay(s)
		if err != nil {
			t.Fatalf("ParseMinuteOfDay(%q) error: %v", s, err)
		}
		if m.String() != s {
			t.Fatalf("String() = %q, want %q", m.String(), s)
		}
	}
}

func TestMinuteOfDay_At(t *testing.T) {
	day := time.Date(2026, 9, 7, 22, 45, 11, 0, time.UTC)
	got := MinuteOfDay(9*60 + 30).At(day)
	want := time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At() = %v, want %v", got, want)
	}
}

func TestBlock_Covers(t *testing.T) {
	block := Block{
		DateStart: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
	}
	tests := []struct {
		date time.Time
		want bool
	}{
		{time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 9, 8, 15, 30, 0, 0, time.UTC), true},
		{time.Date(2026, 9, 9, 23, 59, 0, 0, time.UTC), true},
		{time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range tests {
		if got := block.Covers(tc.date); got != tc.want {
			t.Fatalf("Covers(%v) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestDateOf(t *testing.T) {
	in := time.Date(2026, 9, 7, 18, 42, 3, 500, time.FixedZone("X", -3*3600))
	got := DateOf(in)
	want := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOf() = %v, want %v", got, want)
	}
}
