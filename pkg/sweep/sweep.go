// Package sweep brute-forces strategy parameter grids: every parameter
// combination times every seed is backtested over the same rounds and
// the results are ranked by ROI. Combinations are independent, so the
// sweep runs them on a bounded worker pool.
package sweep

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/jkoskela4/gridbet/pkg/backtest"
	"github.com/jkoskela4/gridbet/pkg/betgen"
	"github.com/jkoskela4/gridbet/pkg/round"
	"github.com/jkoskela4/gridbet/pkg/strategy"
	"github.com/jkoskela4/gridbet/pkg/teamhistory"
)

// StrategyGrid is one strategy's parameter grid: every combination of
// the listed values is tried.
type StrategyGrid struct {
	Name   string               `yaml:"name"`
	Params map[string][]float64 `yaml:"params"`
}

// Config is the YAML sweep definition.
type Config struct {
	BetsPerRound int            `yaml:"bets_per_round"`
	RetryFactor  int            `yaml:"retry_factor"`
	Workers      int            `yaml:"workers"`
	Seeds        []int64        `yaml:"seeds"`
	Strategies   []StrategyGrid `yaml:"strategies"`
}

// LoadConfig reads a sweep definition file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing sweep config: %w", err)
	}
	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("sweep config has no strategies")
	}
	if len(cfg.Seeds) == 0 {
		cfg.Seeds = []int64{42}
	}
	return &cfg, nil
}

// Combo is one point of the sweep: a strategy, a concrete parameter
// assignment and a seed.
type Combo struct {
	Strategy string
	Params   map[string]float64
	Seed     int64
}

// RunResult is one combo's backtest summary.
type RunResult struct {
	Combo
	Summary backtest.Summary
}

// Combos expands the configured grids into concrete combinations, every
// parameter assignment crossed with every seed.
func (c *Config) Combos() []Combo {
	var combos []Combo
	for _, sg := range c.Strategies {
		for _, params := range expandGrid(sg.Params) {
			for _, seed := range c.Seeds {
				combos = append(combos, Combo{Strategy: sg.Name, Params: params, Seed: seed})
			}
		}
	}
	return combos
}

// expandGrid walks the Cartesian product of the parameter value lists.
// Keys are visited in sorted order so the expansion is deterministic.
func expandGrid(grid map[string][]float64) []map[string]float64 {
	if len(grid) == 0 {
		return []map[string]float64{nil}
	}
	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []map[string]float64{{}}
	for _, key := range keys {
		next := make([]map[string]float64, 0, len(out)*len(grid[key]))
		for _, base := range out {
			for _, v := range grid[key] {
				params := make(map[string]float64, len(base)+1)
				for bk, bv := range base {
					params[bk] = bv
				}
				params[key] = v
				next = append(next, params)
			}
		}
		out = next
	}
	return out
}

// Run backtests every combination over the rounds and returns the
// results ranked by ROI, best first. Progress is logged at most once
// per couple of seconds regardless of sweep size.
func Run(ctx context.Context, rounds []*round.Round, cfg *Config, histories *teamhistory.Store) ([]RunResult, error) {
	combos := cfg.Combos()
	if len(combos) == 0 {
		return nil, fmt.Errorf("sweep expands to zero combinations")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	betsConfig := betgen.DefaultConfig()
	if cfg.BetsPerRound > 0 {
		betsConfig.Count = cfg.BetsPerRound
	}
	if cfg.RetryFactor > 0 {
		betsConfig.RetryFactor = cfg.RetryFactor
	}

	jobs := make(chan Combo)
	out := make(chan RunResult, len(combos))
	progress := rate.Sometimes{Interval: 2 * time.Second}

	var wg sync.WaitGroup
	var done int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for combo := range jobs {
				adj, err := strategy.New(combo.Strategy, combo.Params)
				if err != nil {
					log.Printf("Sweep: skipping combo: %v", err)
					continue
				}
				runner := backtest.New(&backtest.Config{
					Bets:      betsConfig,
					BaseSeed:  combo.Seed,
					Workers:   1, // parallelism lives at the combo level here
					Histories: histories,
					KeepBets:  false,
				})
				result, err := runner.Run(ctx, rounds, adj)
				if err != nil {
					log.Printf("Sweep: combo %s seed %d failed: %v", combo.Strategy, combo.Seed, err)
					continue
				}
				out <- RunResult{Combo: combo, Summary: result.Summary}

				mu.Lock()
				done++
				n := done
				mu.Unlock()
				progress.Do(func() {
					log.Printf("Sweep: %d/%d combinations done", n, len(combos))
				})
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, combo := range combos {
			select {
			case jobs <- combo:
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

	results := make([]RunResult, 0, len(combos))
	for r := range out {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Summary.ROI.GreaterThan(results[j].Summary.ROI)
	})
	return results, nil
}
