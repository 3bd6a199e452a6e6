// Package analytics records which links and headings readers follow.
//
// Events are sent by the tracking script for elements carrying a data-track
// attribute. Visitor identity is a salted hash of IP and User-Agent; raw
// addresses are never stored.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// salt holds the per-installation random salt for visitor hashing.
var salt struct {
	once  sync.Once
	value string
}

// InitSalt loads or generates a persistent salt for visitor hashing.
// Must be called once at startup before any requests are served.
func InitSalt(store *Store) error {
	var initErr error
	salt.once.Do(func() {
		s, err := store.GetSetting("hash_salt")
		if err != nil {
			initErr = fmt.Errorf("read hash salt: %w", err)
			return
		}
		if s == "" {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				initErr = fmt.Errorf("generate salt: %w", err)
				return
			}
			s = hex.EncodeToString(b)
			if err := store.SetSetting("hash_salt", s); err != nil {
				initErr = fmt.Errorf("store hash salt: %w", err)
				return
			}
		}
		salt.value = s
	})
	return initErr
}

// Kind is the element type an event was recorded for.
type Kind string

const (
	KindLink    Kind = "link"
	KindHeading Kind = "heading"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindLink || k == KindHeading
}

// Event is one followed link or heading anchor.
type Event struct {
	ID        int64     `json:"-"`
	Kind      Kind      `json:"kind"`
	Target    string    `json:"target"`
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer"`
	Visitor   string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Count is one row of an aggregated breakdown.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats is the attribution summary for a time range.
type Stats struct {
	Period         string  `json:"period"`
	TotalEvents    int     `json:"total_events"`
	UniqueVisitors int     `json:"unique_visitors"`
	TopTargets     []Count `json:"top_targets"`
	TopPages       []Count `json:"top_pages"`
	Referrers      []Count `json:"referrers"`
}

// VisitorID creates a salted, truncated hash from IP and User-Agent.
func VisitorID(ip, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(salt.value + ip + "|" + userAgent))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

var botMarkers = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"headless", "facebookexternalhit", "yandex", "baidu",
}

// IsBot checks if the User-Agent is likely a bot or crawler.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// CleanReferrer reduces a referrer URL to its registrable domain,
// e.g. "https://news.ycombinator.com/item?id=1" becomes "ycombinator.com".
func CleanReferrer(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "Direct"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Hostname() == "" {
		return "Other"
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return strings.TrimPrefix(host, "www.")
	}
	return domain
}

// Periods are the selectable dashboard ranges, shortest first.
var Periods = []string{"24h", "7d", "30d"}

// ParsePeriod maps a period name to its duration. Unknown names fall back to 7d.
func ParsePeriod(p string) (string, time.Duration) {
	switch p {
	case "24h":
		return p, 24 * time.Hour
	case "30d":
		return p, 30 * 24 * time.Hour
	default:
		return "7d", 7 * 24 * time.Hour
	}
}
