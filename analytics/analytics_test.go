package analytics

import (
	"testing"
	"time"
)

func TestCleanReferrer(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "Direct"},
		{"https://www.google.com/search?q=go", "google.com"},
		{"https://news.ycombinator.com/item?id=1", "ycombinator.com"},
		{"https://blog.example.co.uk/post", "example.co.uk"},
		{"http://localhost:3000/", "localhost"},
		{"not a url", "Other"},
	}
	for _, tt := range tests {
		if got := CleanReferrer(tt.input); got != tt.expected {
			t.Errorf("CleanReferrer(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsBot(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (compatible; Googlebot/2.1)", true},
		{"Mozilla/5.0 HeadlessChrome/120.0", true},
		{"Mozilla/5.0 (Macintosh) Safari/605.1.15", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsBot(tt.ua); got != tt.want {
			t.Errorf("IsBot(%q) = %v, want %v", tt.ua, got, tt.want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input string
		name  string
		d     time.Duration
	}{
		{"24h", "24h", 24 * time.Hour},
		{"7d", "7d", 7 * 24 * time.Hour},
		{"30d", "30d", 30 * 24 * time.Hour},
		{"year", "7d", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		name, d := ParsePeriod(tt.input)
		if name != tt.name || d != tt.d {
			t.Errorf("ParsePeriod(%q) = %q, %v, want %q, %v", tt.input, name, d, tt.name, tt.d)
		}
	}
}

func TestVisitorID(t *testing.T) {
	a := VisitorID("203.0.113.1", "ua")
	if len(a) != 16 {
		t.Errorf("VisitorID length = %d, want 16", len(a))
	}
	if a != VisitorID("203.0.113.1", "ua") {
		t.Error("VisitorID must be stable")
	}
	if a == VisitorID("203.0.113.2", "ua") {
		t.Error("different IPs should hash differently")
	}
}

func TestKeyedLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newKeyedLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.allow("a") || !l.allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if l.allow("a") {
		t.Fatal("third request should be blocked")
	}
	if !l.allow("b") {
		t.Fatal("limits are per key")
	}

	now = now.Add(30 * time.Second)
	if !l.allow("a") {
		t.Fatal("a token should refill after window/max")
	}

	now = now.Add(2 * time.Minute)
	l.sweep()
	if n := len(l.buckets); n != 0 {
		t.Errorf("sweep left %d idle buckets", n)
	}
}
