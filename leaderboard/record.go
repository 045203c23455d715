package leaderboard

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TopLimit is the number of records on the leaderboard.
	TopLimit = 5
	// MaxNameLength is the longest name, in runes, a record keeps.
	MaxNameLength = 32
	// AnonymousName replaces empty names.
	AnonymousName = "anonymous"
)

// Record is a completed game on the leaderboard. ID and CreatedAt are
// assigned by the store when the record is written.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeName trims the name, truncates it to MaxNameLength runes and
// substitutes AnonymousName when nothing is left.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
		name = strings.TrimSpace(name)
	}
	if name == "" {
		return AnonymousName
	}
	return name
}

// Rank sorts records by score descending. Equal scores keep the earlier
// record first.
func Rank(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
