package strategy

import (
	"github.com/jkoskela4/gridbet/core"
	"github.com/jkoskela4/gridbet/pkg/teamhistory"
)

// Baseline passes the bookmaker-implied triple through untouched. The
// reference every other strategy is ranked against.
type Baseline struct{}

func (Baseline) Name() string { return "baseline" }

func (Baseline) Adjust(_ MatchContext, p core.ProbTriple) core.ProbTriple {
	return p
}

// Uniform discards the bookmaker's opinion and samples every outcome
// with equal probability. A pure-chance floor for the ranking table.
type Uniform struct{}

func (Uniform) Name() string { return "uniform" }

func (Uniform) Adjust(_ MatchContext, _ core.ProbTriple) core.ProbTriple {
	third := 1.0 / 3.0
	return core.ProbTriple{third, third, third}
}

// HomeBias boosts the home-win probability by a fixed factor. Built on
// the observation that casual markets underprice home advantage in lower
// leagues.
type HomeBias struct {
	// Boost is the fractional lift on the home probability, e.g. 0.15
	// turns 0.40 into 0.46.
	Boost float64
}

// NewHomeBias creates a home-bias strategy from a parameter map.
// Parameters: boost (default 0.15).
func NewHomeBias(params map[string]float64) HomeBias {
	return HomeBias{Boost: paramOr(params, "boost", 0.15)}
}

func (s HomeBias) Name() string { return "homebias" }

func (s HomeBias) Adjust(_ MatchContext, p core.ProbTriple) core.ProbTriple {
	p[0] *= 1 + s.Boost
	return p
}

// DrawChaos pushes mass onto the draw in high-entropy matches, where
// three near-equal probabilities mean the market has no opinion and
// draws pay out of proportion. Clear-favorite matches get the draw
// penalized instead.
type DrawChaos struct {
	// EntropyTrigger is the normalized entropy above which a match
	// counts as chaotic.
	EntropyTrigger float64
	// Boost is the fractional draw lift in chaotic matches.
	Boost float64
	// Penalty is the fractional draw cut in clear matches.
	Penalty float64
}

// NewDrawChaos creates a draw-chaos strategy from a parameter map.
// Parameters: trigger (default 0.95), boost (default 0.30),
// penalty (default 0.20).
func NewDrawChaos(params map[string]float64) DrawChaos {
	return DrawChaos{
		EntropyTrigger: paramOr(params, "trigger", 0.95),
		Boost:          paramOr(params, "boost", 0.30),
		Penalty:        paramOr(params, "penalty", 0.20),
	}
}

func (s DrawChaos) Name() string { return "drawchaos" }

func (s DrawChaos) Adjust(_ MatchContext, p core.ProbTriple) core.ProbTriple {
	if entropy(p) >= s.EntropyTrigger {
		p[1] *= 1 + s.Boost
	} else {
		p[1] *= 1 - s.Penalty
	}
	return p
}

// Contrarian fades the favorite: the most probable outcome loses mass to
// the other two, betting that short-priced favorites are systematically
// overbacked.
type Contrarian struct {
	// Fade is the fraction of the favorite's probability redistributed
	// evenly to the other outcomes.
	Fade float64
	// MinConfidence gates the fade: triples without a clear favorite are
	// left alone.
	MinConfidence float64
}

// NewContrarian creates a contrarian strategy from a parameter map.
// Parameters: fade (default 0.25), min_confidence (default 0.5).
func NewContrarian(params map[string]float64) Contrarian {
	return Contrarian{
		Fade:          paramOr(params, "fade", 0.25),
		MinConfidence: paramOr(params, "min_confidence", 0.5),
	}
}

func (s Contrarian) Name() string { return "contrarian" }

func (s Contrarian) Adjust(_ MatchContext, p core.ProbTriple) core.ProbTriple {
	if p.Confidence() < s.MinConfidence {
		return p
	}
	best := p.Best().Index()
	moved := p[best] * s.Fade
	p[best] -= moved
	for i := range p {
		if i != best {
			p[i] += moved / 2
		}
	}
	return p
}

// ValueEdge compares each side's recent form against the market price
// and boosts the side whose form the odds appear to undervalue. Without
// history data it leaves the triple untouched.
type ValueEdge struct {
	// EdgeThreshold is the minimum form gap (home minus away, in [-1,1])
	// before the strategy acts.
	EdgeThreshold float64
	// Boost is the fractional lift on the undervalued side.
	Boost float64
	// FormWindow is how many recent matches feed the form score.
	FormWindow int
}

// NewValueEdge creates a value-edge strategy from a parameter map.
// Parameters: threshold (default 0.2), boost (default 0.2),
// window (default 5).
func NewValueEdge(params map[string]float64) ValueEdge {
	return ValueEdge{
		EdgeThreshold: paramOr(params, "threshold", 0.2),
		Boost:         paramOr(params, "boost", 0.2),
		FormWindow:    int(paramOr(params, "window", 5)),
	}
}

func (s ValueEdge) Name() string { return "valueedge" }

func (s ValueEdge) Adjust(ctx MatchContext, p core.ProbTriple) core.ProbTriple {
	homeForm, awayForm, ok := lookupForms(ctx, s.FormWindow)
	if !ok {
		return p
	}
	gap := homeForm - awayForm
	switch {
	case gap >= s.EdgeThreshold && p[0] <= p[2]:
		// Home side in better form but not priced as the favorite.
		p[0] *= 1 + s.Boost
	case -gap >= s.EdgeThreshold && p[2] <= p[0]:
		p[2] *= 1 + s.Boost
	}
	return p
}

// TeamIntelligence blends form and momentum into a continuous tilt
// between the home and away probabilities. The draw is left alone.
type TeamIntelligence struct {
	// FormWeight scales the form-gap contribution.
	FormWeight float64
	// MomentumWeight scales the momentum-gap contribution. Momentum is
	// in points per match, [-3,3].
	MomentumWeight float64
	// FormWindow is the form/momentum window size.
	FormWindow int
}

// NewTeamIntelligence creates a team-intelligence strategy from a
// parameter map. Parameters: form_weight (default 0.3), momentum_weight
// (default 0.1), window (default 5).
func NewTeamIntelligence(params map[string]float64) TeamIntelligence {
	return TeamIntelligence{
		FormWeight:     paramOr(params, "form_weight", 0.3),
		MomentumWeight: paramOr(params, "momentum_weight", 0.1),
		FormWindow:     int(paramOr(params, "window", 5)),
	}
}

func (s TeamIntelligence) Name() string { return "teamintel" }

func (s TeamIntelligence) Adjust(ctx MatchContext, p core.ProbTriple) core.ProbTriple {
	if ctx.Histories == nil {
		return p
	}
	home, okH := ctx.Histories.Lookup(ctx.Home)
	away, okA := ctx.Histories.Lookup(ctx.Away)
	if !okH || !okA {
		return p
	}

	tilt := s.FormWeight*(home.FormScore(s.FormWindow)-away.FormScore(s.FormWindow)) +
		s.MomentumWeight*(home.Momentum(s.FormWindow)-away.Momentum(s.FormWindow))/3

	if tilt > 0 {
		p[0] *= 1 + tilt
	} else {
		p[2] *= 1 - tilt
	}
	return p
}

// lookupForms resolves both sides' form scores, reporting ok=false when
// either team has no history on file.
func lookupForms(ctx MatchContext, window int) (home, away float64, ok bool) {
	if ctx.Histories == nil {
		return 0, 0, false
	}
	var h, a *teamhistory.History
	h, ok = ctx.Histories.Lookup(ctx.Home)
	if !ok {
		return 0, 0, false
	}
	a, ok = ctx.Histories.Lookup(ctx.Away)
	if !ok {
		return 0, 0, false
	}
	return h.FormScore(window), a.FormScore(window), true
}
