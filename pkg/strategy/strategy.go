// Package strategy defines the probability adjuster contract and the
// named heuristic variants that bias bookmaker-implied triples before bet
// generation. The engine treats adjusters as opaque: whatever they
// return is renormalized and sampled like any other triple.
package strategy

import (
	"fmt"
	"math"
	"sort"

	"github.com/jkoskela4/gridbet/core"
	"github.com/jkoskela4/gridbet/pkg/teamhistory"
)

// MatchContext carries everything an adjuster may look at for one match.
type MatchContext struct {
	// Date of the round, YYYY-MM-DD.
	Date string
	// Home and Away team labels as they appear in the round file.
	Home string
	Away string
	// MatchIndex is the match's original index in the round.
	MatchIndex int
	// Histories is the team-history store, nil when none was loaded.
	// Strategies that need it degrade to the unadjusted triple.
	Histories *teamhistory.Store
}

// ProbabilityAdjuster biases a match's probability triple toward a
// strategy's perceived value. Implementations must be side-effect-free
// and return a triple with non-negative mass; the generator renormalizes
// before sampling.
type ProbabilityAdjuster interface {
	// Name identifies the strategy for registries and result tables.
	Name() string
	// Adjust returns the biased triple for one match.
	Adjust(ctx MatchContext, p core.ProbTriple) core.ProbTriple
}

// Factory builds an adjuster from a flat parameter map, falling back to
// the variant's defaults for missing keys. Parameter sweeps drive this.
type Factory func(params map[string]float64) ProbabilityAdjuster

var registry = map[string]Factory{
	"baseline":   func(map[string]float64) ProbabilityAdjuster { return Baseline{} },
	"uniform":    func(map[string]float64) ProbabilityAdjuster { return Uniform{} },
	"homebias":   func(p map[string]float64) ProbabilityAdjuster { return NewHomeBias(p) },
	"drawchaos":  func(p map[string]float64) ProbabilityAdjuster { return NewDrawChaos(p) },
	"contrarian": func(p map[string]float64) ProbabilityAdjuster { return NewContrarian(p) },
	"valueedge":  func(p map[string]float64) ProbabilityAdjuster { return NewValueEdge(p) },
	"teamintel":  func(p map[string]float64) ProbabilityAdjuster { return NewTeamIntelligence(p) },
}

// New builds the named strategy with the given parameters. Unknown names
// are an error; nil params mean defaults.
func New(name string, params map[string]float64) (ProbabilityAdjuster, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", name, Names())
	}
	return factory(params), nil
}

// Names lists the registered strategies, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All builds every registered strategy with default parameters, in name
// order. Used by the demo ranking table.
func All() []ProbabilityAdjuster {
	all := make([]ProbabilityAdjuster, 0, len(registry))
	for _, name := range Names() {
		all = append(all, registry[name](nil))
	}
	return all
}

// paramOr reads a parameter with a default.
func paramOr(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// entropy returns the normalized Shannon entropy of a triple, in [0,1].
// 1 means a perfect three-way coin flip; low values mean a clear
// favorite.
func entropy(p core.ProbTriple) float64 {
	var h float64
	for _, v := range p {
		if v > 0 {
			h -= v * math.Log(v)
		}
	}
	return h / math.Log(3)
}
