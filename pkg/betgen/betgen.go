// Package betgen turns a round's selected probability triples into a
// deduplicated set of grid bets: one deterministic favorite bet plus
// probability-sampled variants drawn from a shared seeded source.
package betgen

import (
	"fmt"

	"github.com/jkoskela4/gridbet/core"
	"github.com/jkoskela4/gridbet/pkg/grid"
	"github.com/jkoskela4/gridbet/pkg/rng"
)

// Bet source labels.
const (
	SourceFavorite = "favorite"
	SourceSampled  = "sampled"
)

// Config holds bet generator configuration.
type Config struct {
	// Count is the number of bets to aim for per round, the favorite
	// included.
	Count int
	// RetryFactor bounds deduplication retries: at most Count*RetryFactor
	// samples are drawn before the generator pads with the favorite
	// instead of looping forever. Sensible values are 20 to 50.
	RetryFactor int
}

// DefaultConfig returns default generator configuration.
func DefaultConfig() *Config {
	return &Config{
		Count:       50,
		RetryFactor: 30,
	}
}

// Stats reports how one round's generation went.
type Stats struct {
	// Attempts is the number of sampling draws performed.
	Attempts int
	// Padded is the bet weight added to the favorite because unique
	// sampled bets ran out within the retry budget. Recovered, not fatal.
	Padded int
}

// Generator produces bets for one round at a time. It holds no per-round
// state; reproducibility comes entirely from the caller's seeded source.
type Generator struct {
	config *Config
}

// New creates a generator. A nil config means defaults.
func New(config *Config) *Generator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Generator{config: config}
}

// Favorite builds the deterministic bet: per grid position the most
// probable outcome, exact ties resolved home over draw over away.
// Positions beyond a short grid stay free.
func Favorite(triples []core.ProbTriple) grid.Bet {
	bet := grid.Bet{Source: SourceFavorite}
	for pos := 0; pos < grid.TotalCells && pos < len(triples); pos++ {
		bet.Predictions[pos] = triples[pos].Best()
	}
	return bet
}

// FavoriteRepeated models a high-conviction play: the favorite staked
// repeat times as a single weighted bet rather than repeat duplicate
// objects.
func FavoriteRepeated(triples []core.ProbTriple, repeat int) grid.Bet {
	bet := Favorite(triples)
	bet.RepeatCount = repeat
	return bet
}

// Generate produces up to Count unique bets from the grid-ordered,
// strategy-adjusted probability triples. triples must already be filtered
// to the selected grid (at most nine entries); each triple is normalized
// before sampling so biased strategies still present valid mass.
//
// The first bet is always the deterministic favorite. The rest are drawn
// per position by inverse CDF from the shared source; duplicates are
// discarded and retried within the budget, then the favorite's weight is
// raised to cover the shortfall.
func (g *Generator) Generate(triples []core.ProbTriple, src *rng.Source) ([]grid.Bet, Stats, error) {
	if len(triples) > grid.TotalCells {
		return nil, Stats{}, fmt.Errorf("betgen: %d triples for %d grid cells", len(triples), grid.TotalCells)
	}

	normalized := make([]core.ProbTriple, len(triples))
	for i, p := range triples {
		n, err := p.Normalize()
		if err != nil {
			return nil, Stats{}, fmt.Errorf("betgen: position %d: %w", i, err)
		}
		normalized[i] = n
	}

	favorite := Favorite(normalized)
	bets := []grid.Bet{favorite}
	seen := map[[grid.TotalCells]core.Outcome]bool{favorite.Key(): true}

	var stats Stats
	budget := g.config.Count * g.config.RetryFactor
	for len(bets) < g.config.Count && stats.Attempts < budget {
		stats.Attempts++
		bet := grid.Bet{Source: SourceSampled}
		for pos, p := range normalized {
			bet.Predictions[pos] = p.Sample(src.Float64())
		}
		if seen[bet.Key()] {
			continue
		}
		seen[bet.Key()] = true
		bets = append(bets, bet)
	}

	// Retry budget exhausted: under-filling is not allowed to starve the
	// round, so the favorite absorbs the remaining weight.
	if shortfall := g.config.Count - len(bets); shortfall > 0 {
		stats.Padded = shortfall
		bets[0].RepeatCount = bets[0].Weight() + shortfall
	}

	return bets, stats, nil
}
