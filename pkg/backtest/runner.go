package backtest

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jkoskela4/gridbet/core"
	"github.com/jkoskela4/gridbet/pkg/betgen"
	"github.com/jkoskela4/gridbet/pkg/grid"
	"github.com/jkoskela4/gridbet/pkg/metrics"
	"github.com/jkoskela4/gridbet/pkg/rng"
	"github.com/jkoskela4/gridbet/pkg/round"
	"github.com/jkoskela4/gridbet/pkg/strategy"
	"github.com/jkoskela4/gridbet/pkg/teamhistory"
)

// Config holds backtest configuration.
type Config struct {
	// Bets configures the generator. Nil means betgen defaults.
	Bets *betgen.Config
	// BaseSeed anchors every round's random sequence; the per-round seed
	// adds the byte sum of the round's date.
	BaseSeed int64
	// Workers bounds the round-evaluation pool. Zero or negative means
	// one worker per CPU.
	Workers int
	// Histories is the optional team-history store handed to strategies.
	Histories *teamhistory.Store
	// KeepBets retains per-bet accuracy in each round result. Turn off
	// for large sweeps.
	KeepBets bool
}

// DefaultConfig returns default backtest configuration.
func DefaultConfig() *Config {
	return &Config{
		Bets:     betgen.DefaultConfig(),
		BaseSeed: 42,
		KeepBets: true,
	}
}

// Result holds one backtest run: the summary plus per-round results and
// the bookkeeping needed to caveat the numbers.
type Result struct {
	RunID    string        `json:"run_id"`
	Strategy string        `json:"strategy"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`

	Summary Summary          `json:"summary"`
	Rounds  []*RoundAccuracy `json:"rounds,omitempty"`

	// SkippedUnplayed counts rounds without a result; they contribute
	// nothing and are not an error.
	SkippedUnplayed int `json:"skipped_unplayed,omitempty"`
	// ExcludedRounds counts rounds dropped for malformed data or a
	// scoring failure.
	ExcludedRounds int `json:"excluded_rounds,omitempty"`
	// PaddedBets counts bet weight added when unique sampling ran out.
	PaddedBets int `json:"padded_bets,omitempty"`
}

// Runner evaluates rounds against a strategy. Rounds are independent, so
// the runner fans them out to a bounded worker pool and folds the
// results; the outcome does not depend on execution order.
type Runner struct {
	config  *Config
	gen     *betgen.Generator
	metrics *metrics.EngineMetrics
}

// New creates a new runner. A nil config means defaults.
func New(config *Config) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{
		config:  config,
		gen:     betgen.New(config.Bets),
		metrics: metrics.Default(),
	}
}

// GenerateBets builds one round's bets for a strategy: the grid mapping
// is recomputed from the round's implied probabilities, the mapped
// triples are adjusted and handed to the generator with the round's
// canonical seed. Both the backtest and the annotate step go through
// here so generation and evaluation can never disagree on the mapping.
func (rn *Runner) GenerateBets(r *round.Round, adj strategy.ProbabilityAdjuster) (grid.Mapping, []grid.Bet, betgen.Stats, error) {
	triples, err := r.ImpliedProbabilities()
	if err != nil {
		return nil, nil, betgen.Stats{}, err
	}
	mapping := grid.Mapping(grid.SelectBestMatches(triples, grid.TotalCells))

	selected := make([]core.ProbTriple, len(mapping))
	for pos, matchIdx := range mapping {
		mctx := strategy.MatchContext{
			Date:       r.Date,
			Home:       r.Matches[matchIdx].Home,
			Away:       r.Matches[matchIdx].Away,
			MatchIndex: matchIdx,
			Histories:  rn.config.Histories,
		}
		selected[pos] = adj.Adjust(mctx, triples[matchIdx])
	}

	src := rng.New(rng.RoundSeed(rn.config.BaseSeed, r.Date))
	bets, stats, err := rn.gen.Generate(selected, src)
	if err != nil {
		return nil, nil, betgen.Stats{}, err
	}
	return mapping, bets, stats, nil
}

// evaluateRound generates and scores one round.
func (rn *Runner) evaluateRound(r *round.Round, adj strategy.ProbabilityAdjuster) (*RoundAccuracy, betgen.Stats, error) {
	_, bets, stats, err := rn.GenerateBets(r, adj)
	if err != nil {
		return nil, stats, err
	}
	acc, err := CalculateAccuracy(r, bets)
	if err != nil {
		return nil, stats, err
	}

	rn.metrics.RecordGeneration(betgen.SourceSampled, len(bets), stats.Padded, stats.Attempts)
	for _, b := range acc.Bets {
		rn.metrics.RecordBetLines(b.CorrectLines)
	}
	rn.metrics.RecordEvaluation(acc.Recoveries, acc.Profit.InexactFloat64())

	if !rn.config.KeepBets {
		acc.Bets = nil
	}
	return acc, stats, nil
}

// Run backtests the strategy over the given rounds. Unplayed rounds are
// skipped, malformed ones excluded; neither fails the run. The only
// errors out of Run are context cancellation and an empty playable set.
func (rn *Runner) Run(ctx context.Context, rounds []*round.Round, adj strategy.ProbabilityAdjuster) (*Result, error) {
	result := &Result{
		RunID:    uuid.New().String(),
		Strategy: adj.Name(),
		Started:  time.Now(),
	}

	playable := make([]*round.Round, 0, len(rounds))
	for _, r := range rounds {
		rn.metrics.RecordRoundLoaded(r.Finalized())
		if !r.Finalized() {
			result.SkippedUnplayed++
			continue
		}
		if err := r.Validate(); err != nil {
			log.Printf("Backtest: excluding round %s: %v", r.Date, err)
			rn.metrics.RecordRoundExcluded("malformed")
			result.ExcludedRounds++
			continue
		}
		playable = append(playable, r)
	}
	if len(playable) == 0 {
		return nil, fmt.Errorf("no finalized rounds to backtest")
	}

	workers := rn.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(playable) {
		workers = len(playable)
	}

	type roundOutcome struct {
		acc    *RoundAccuracy
		stats  betgen.Stats
		failed string
	}

	jobs := make(chan *round.Round)
	out := make(chan roundOutcome, len(playable))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				acc, stats, err := rn.evaluateRound(r, adj)
				if err != nil {
					log.Printf("Backtest: round %s failed to score: %v", r.Date, err)
					out <- roundOutcome{failed: r.Date, stats: stats}
					continue
				}
				out <- roundOutcome{acc: acc, stats: stats}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, r := range playable {
			select {
			case jobs <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(out)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for o := range out {
		result.PaddedBets += o.stats.Padded
		if o.acc == nil {
			rn.metrics.RecordRoundExcluded("scoring_error")
			result.ExcludedRounds++
			continue
		}
		result.Rounds = append(result.Rounds, o.acc)
	}
	sort.Slice(result.Rounds, func(i, j int) bool {
		return result.Rounds[i].Date < result.Rounds[j].Date
	})

	result.Summary = Summarize(result.Rounds)
	result.Duration = time.Since(result.Started)
	return result, nil
}
