// gridbet-annotate is a one-shot tool that writes the grid mapping, the
// 27 lines and a strategy's generated bets into each round data file.
// The scoring path ignores these annotations; they feed the dashboard.
package main

import (
	"flag"
	"log"
	"path/filepath"

	"github.com/jkoskela4/gridbet/pkg/backtest"
	"github.com/jkoskela4/gridbet/pkg/betgen"
	"github.com/jkoskela4/gridbet/pkg/grid"
	"github.com/jkoskela4/gridbet/pkg/round"
	"github.com/jkoskela4/gridbet/pkg/strategy"
	"github.com/jkoskela4/gridbet/pkg/teamhistory"
)

var (
	dataDir    = flag.String("data", "", "Directory of round JSON files (rewritten in place)")
	historyDir = flag.String("history", "", "Directory of team history JSON files (optional)")
	stratName  = flag.String("strategy", "baseline", "Strategy whose bets to annotate")
	betsCount  = flag.Int("bets", 50, "Bets per round")
	baseSeed   = flag.Int64("seed", 42, "Base seed for bet generation")
	dryRun     = flag.Bool("dry-run", false, "Compute annotations without writing files")
)

func main() {
	flag.Parse()

	if *dataDir == "" {
		log.Fatal("annotate: -data directory is required")
	}

	rounds, err := round.LoadDir(*dataDir)
	if err != nil {
		log.Fatalf("Failed to load rounds: %v", err)
	}

	var histories *teamhistory.Store
	if *historyDir != "" {
		histories, err = teamhistory.LoadDir(*historyDir)
		if err != nil {
			log.Fatalf("Failed to load team histories: %v", err)
		}
	}

	adj, err := strategy.New(*stratName, nil)
	if err != nil {
		log.Fatalf("Failed to create strategy: %v", err)
	}

	runner := backtest.New(&backtest.Config{
		Bets:      &betgen.Config{Count: *betsCount, RetryFactor: 30},
		BaseSeed:  *baseSeed,
		Histories: histories,
	})

	annotated := 0
	for _, r := range rounds.Rounds {
		mapping, bets, stats, err := runner.GenerateBets(r, adj)
		if err != nil {
			log.Printf("Annotate: skipping %s: %v", r.Date, err)
			continue
		}
		if stats.Padded > 0 {
			log.Printf("Annotate: %s padded %d bets after %d attempts", r.Date, stats.Padded, stats.Attempts)
		}

		r.Annotations = &round.Annotations{
			Grid:  mapping,
			Lines: grid.Lines(),
			Bets:  bets,
		}

		if *dryRun {
			annotated++
			continue
		}
		path := filepath.Join(*dataDir, r.Date+".json")
		if err := r.Save(path); err != nil {
			log.Printf("Annotate: writing %s: %v", r.Date, err)
			continue
		}
		annotated++
	}

	log.Printf("Annotated %d of %d rounds with %s bets (dry-run: %v)",
		annotated, len(rounds.Rounds), adj.Name(), *dryRun)
}
