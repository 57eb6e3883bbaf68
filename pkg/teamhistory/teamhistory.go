// Package teamhistory loads per-team match history files and derives the
// form features strategies feed on: form score, momentum and streaks.
// The engine itself never touches this package; histories only bias
// probability triples before bet generation.
package teamhistory

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchRecord is one historical match of a team, as stored in the
// history files.
type MatchRecord struct {
	Date         string `json:"date"`
	Opponent     string `json:"opponent"`
	IsHome       bool   `json:"isHome"`
	GoalsFor     int    `json:"goalsFor"`
	GoalsAgainst int    `json:"goalsAgainst"`
	Result       string `json:"result"` // "W", "D" or "L"
}

// Points returns the league points of the record: 3 for a win, 1 for a
// draw, 0 otherwise.
func (m MatchRecord) Points() float64 {
	switch m.Result {
	case "W":
		return 3
	case "D":
		return 1
	default:
		return 0
	}
}

// History is one team's match record, most recent first.
type History struct {
	TeamName string        `json:"teamName"`
	Matches  []MatchRecord `json:"matches"`
}

// FormScore is a recency-weighted result score over the last k matches,
// in [0,1]. The most recent match carries weight k, the oldest weight 1;
// a win scores 1, a draw 0.5, a loss 0. Returns 0.5 (neutral) when the
// team has no history.
func (h *History) FormScore(k int) float64 {
	if k > len(h.Matches) {
		k = len(h.Matches)
	}
	if k == 0 {
		return 0.5
	}
	var score, weightSum float64
	for i := 0; i < k; i++ {
		w := float64(k - i)
		weightSum += w
		switch h.Matches[i].Result {
		case "W":
			score += w
		case "D":
			score += w / 2
		}
	}
	return score / weightSum
}

// Momentum is the difference between the average points of the last k
// matches and the k before them, in [-3,3]. Positive means the team is
// trending up. Returns 0 when there is not enough history for both
// windows.
func (h *History) Momentum(k int) float64 {
	if k <= 0 || len(h.Matches) < 2*k {
		return 0
	}
	var recent, previous float64
	for i := 0; i < k; i++ {
		recent += h.Matches[i].Points()
		previous += h.Matches[k+i].Points()
	}
	return (recent - previous) / float64(k)
}

// Streak returns the team's current run: the result of the most recent
// match and how many consecutive matches share it. A team with no
// history has an empty streak.
func (h *History) Streak() (result string, length int) {
	if len(h.Matches) == 0 {
		return "", 0
	}
	result = h.Matches[0].Result
	for _, m := range h.Matches {
		if m.Result != result {
			break
		}
		length++
	}
	return result, length
}

// Store is an immutable in-memory set of team histories, keyed by
// normalized team name. Loaded once and passed by argument; there is no
// module-level cache.
type Store struct {
	byName map[string]*History
}

// LoadDir loads every *.json history file under dir. Files that fail to
// decode are logged and skipped.
func LoadDir(dir string) (*Store, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing history files: %w", err)
	}

	s := &Store{byName: make(map[string]*History)}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading history file: %w", err)
		}
		var h History
		if err := json.Unmarshal(data, &h); err != nil {
			log.Printf("TeamHistory: skipping %s: %v", filepath.Base(path), err)
			continue
		}
		s.Add(&h)
	}
	return s, nil
}

// NewStore creates an empty store. Mostly for tests and synthetic data.
func NewStore() *Store {
	return &Store{byName: make(map[string]*History)}
}

// Add indexes a history by its normalized team name.
func (s *Store) Add(h *History) {
	s.byName[NormalizeName(h.TeamName)] = h
}

// Lookup finds the history of a team by any spelling of its name.
func (s *Store) Lookup(name string) (*History, bool) {
	h, ok := s.byName[NormalizeName(name)]
	return h, ok
}

// Len returns the number of teams in the store.
func (s *Store) Len() int {
	return len(s.byName)
}

// NormalizeName normalizes a team name for matching: lowercase, accents
// stripped, common club suffixes removed, whitespace collapsed. The join
// against history files depends on both sides agreeing on this.
func NormalizeName(name string) string {
	// Lowercase
	name = strings.ToLower(name)

	// Remove accents
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, _ = transform.String(t, name)

	// Remove common suffixes
	name = strings.ReplaceAll(name, " fc", "")
	name = strings.ReplaceAll(name, " afc", "")
	name = strings.ReplaceAll(name, " cf", "")

	// Strip punctuation
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return -1
	}, name)

	// Normalize spaces
	name = strings.Join(strings.Fields(name), " ")

	return strings.TrimSpace(name)
}
