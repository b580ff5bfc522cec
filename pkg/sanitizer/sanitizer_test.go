package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"leading and trailing", "  Seaside Cottage  ", "Seaside Cottage"},
		{"interior runs", "12  Harbour \t Road", "12 Harbour Road"},
		{"already clean", "Loft 3B", "Loft 3B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrimAndNormalizeIdempotent(t *testing.T) {
	input := "  Villa   del  Mar "
	once := TrimAndNormalize(input)
	twice := TrimAndNormalize(once)
	if once != twice {
		t.Errorf("expected idempotence, got %q then %q", once, twice)
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  Maria.Host  "); got != "maria.host" {
		t.Errorf("expected lowercase trimmed username, got %q", got)
	}
}

func TestNormalizeCalendarURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain https", "https://airbnb.com/calendar/ical/123.ics?s=abc", "https://airbnb.com/calendar/ical/123.ics?s=abc"},
		{"webcal scheme", "webcal://calendar.example.com/feed.ics", "https://calendar.example.com/feed.ics"},
		{"missing scheme", "Example.com/cal.ics", "https://example.com/cal.ics"},
		{"uppercase host", "https://Booking.COM/feed.ics", "https://booking.com/feed.ics"},
		{"garbage", "://", ""},
		{"port without host", ":8080/feed.ics", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCalendarURL(tt.input); got != tt.want {
				t.Errorf("NormalizeCalendarURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
