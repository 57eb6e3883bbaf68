package round

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jkoskela4/gridbet/pkg/grid"
)

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// DateFromFilename extracts the YYYY-MM-DD round identifier from a data
// file name.
func DateFromFilename(path string) (string, error) {
	date := dateRe.FindString(filepath.Base(path))
	if date == "" {
		return "", fmt.Errorf("no date in file name %q", filepath.Base(path))
	}
	return date, nil
}

// teamEntry is the wire shape of one fixture: keys "1" and "2" hold the
// home and away team labels.
type teamEntry struct {
	Home string `json:"1"`
	Away string `json:"2"`
}

// roundFile is the JSON contract produced by the external scraper. The
// grid/lines/bets fields are appended later by the annotate step and are
// ignored when scoring.
type roundFile struct {
	Teams  []teamEntry       `json:"teams"`
	Odds   []decimal.Decimal `json:"odds"`
	Result string            `json:"result,omitempty"`
	Grid   []int             `json:"grid,omitempty"`
	Lines  []grid.Line       `json:"lines,omitempty"`
	Bets   []grid.Bet        `json:"bets,omitempty"`
}

// Annotations is the grid/lines/bets block the annotate tool appends to a
// round file.
type Annotations struct {
	Grid  []int       `json:"grid"`
	Lines []grid.Line `json:"lines"`
	Bets  []grid.Bet  `json:"bets"`
}

// LoadFile reads one round data file. The file name must carry the
// round's date.
func LoadFile(path string) (*Round, error) {
	date, err := DateFromFilename(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading round file: %w", err)
	}

	var rf roundFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decoding round %s: %w", date, err)
	}

	r := &Round{
		Date:    date,
		Matches: make([]Match, len(rf.Teams)),
		Odds:    rf.Odds,
		Result:  rf.Result,
	}
	for i, t := range rf.Teams {
		r.Matches[i] = Match{Home: t.Home, Away: t.Away}
	}
	if len(rf.Grid) > 0 || len(rf.Bets) > 0 {
		r.Annotations = &Annotations{Grid: rf.Grid, Lines: rf.Lines, Bets: rf.Bets}
	}
	return r, nil
}

// Save writes the round back to path in the wire format, including any
// annotations. Used by the annotate step; the scoring path never writes.
func (r *Round) Save(path string) error {
	rf := roundFile{
		Teams:  make([]teamEntry, len(r.Matches)),
		Odds:   r.Odds,
		Result: r.Result,
	}
	for i, m := range r.Matches {
		rf.Teams[i] = teamEntry{Home: m.Home, Away: m.Away}
	}
	if r.Annotations != nil {
		rf.Grid = r.Annotations.Grid
		rf.Lines = r.Annotations.Lines
		rf.Bets = r.Annotations.Bets
	}

	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding round %s: %w", r.Date, err)
	}
	return os.WriteFile(path, data, 0644)
}

// Collection is an immutable in-memory set of rounds, loaded once and
// passed by argument into the engine. There is no module-level cache.
type Collection struct {
	// Rounds in date order, all structurally valid.
	Rounds []*Round
	// Malformed is how many files were skipped at load time for failing
	// validation. Surfaced so a backtest can caveat its numbers.
	Malformed int
}

// LoadDir loads every *.json round file under dir. Malformed rounds are
// logged, counted and skipped; they never partially score.
func LoadDir(dir string) (*Collection, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing round files: %w", err)
	}
	sort.Strings(paths)

	c := &Collection{}
	for _, path := range paths {
		r, err := LoadFile(path)
		if err != nil {
			log.Printf("Rounds: skipping %s: %v", filepath.Base(path), err)
			c.Malformed++
			continue
		}
		if err := r.Validate(); err != nil {
			log.Printf("Rounds: excluding %s: %v", r.Date, err)
			c.Malformed++
			continue
		}
		c.Rounds = append(c.Rounds, r)
	}
	if len(c.Rounds) == 0 && c.Malformed == 0 {
		return nil, fmt.Errorf("no round files in %s", dir)
	}
	return c, nil
}

// Finalized returns the rounds that have been played, in date order.
// Only these participate in backtests.
func (c *Collection) Finalized() []*Round {
	out := make([]*Round, 0, len(c.Rounds))
	for _, r := range c.Rounds {
		if r.Finalized() {
			out = append(out, r)
		}
	}
	return out
}
