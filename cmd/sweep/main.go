// gridbet-sweep brute-forces strategy parameter grids from a YAML
// definition and ranks every combination by backtested ROI.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/jkoskela4/gridbet/pkg/round"
	"github.com/jkoskela4/gridbet/pkg/sweep"
	"github.com/jkoskela4/gridbet/pkg/teamhistory"
)

var (
	configFile = flag.String("config", "sweep.yaml", "Sweep definition file")
	dataDir    = flag.String("data", "", "Directory of round JSON files")
	historyDir = flag.String("history", "", "Directory of team history JSON files (optional)")
	topN       = flag.Int("top", 20, "How many ranked combinations to print")
	outputFile = flag.String("output", "", "Output file for full ranked results (JSON)")
)

func main() {
	flag.Parse()

	if *dataDir == "" {
		log.Fatal("sweep: -data directory is required")
	}

	cfg, err := sweep.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load sweep config: %v", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	combos := cfg.Combos()
	log.Printf("Sweeping %d combinations over %d rounds", len(combos), len(rounds.Rounds))

	results, err := sweep.Run(ctx, rounds.Rounds, cfg, histories)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	printRanking(results)

	if *outputFile != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal results: %v", err)
		}
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			log.Fatalf("Failed to write results: %v", err)
		}
		log.Printf("Full results exported to: %s", *outputFile)
	}
}

func printRanking(results []sweep.RunResult) {
	fmt.Println()
	fmt.Println("===================== SWEEP RANKING =====================")
	fmt.Println()

	n := *topN
	if n > len(results) {
		n = len(results)
	}
	for i := 0; i < n; i++ {
		r := results[i]
		fmt.Printf("%3d. %-12s seed %-6d %-32s ROI: %8s%%  profit: %s\n",
			i+1, r.Strategy, r.Seed, formatParams(r.Params),
			r.Summary.ROI.StringFixed(2), r.Summary.Profit.StringFixed(2))
	}

	fmt.Println()
	fmt.Println("=========================================================")
}

func formatParams(params map[string]float64) string {
	if len(params) == 0 {
		return "(defaults)"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, params[k]))
	}
	return strings.Join(parts, " ")
}
