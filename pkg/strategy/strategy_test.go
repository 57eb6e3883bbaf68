package strategy

import (
	"math"
	"testing"

	"github.com/jkoskela4/gridbet/core"
	"github.com/jkoskela4/gridbet/pkg/teamhistory"
)

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		adj, err := New(name, nil)
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if adj.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, adj.Name())
		}
	}

	if _, err := New("martingale", nil); err == nil {
		t.Error("New() accepted an unknown strategy")
	}

	if len(All()) != len(Names()) {
		t.Errorf("All() returned %d strategies, Names() %d", len(All()), len(Names()))
	}
}

func TestBaselineIdentity(t *testing.T) {
	p := core.ProbTriple{0.5, 0.3, 0.2}
	if got := (Baseline{}).Adjust(MatchContext{}, p); got != p {
		t.Errorf("Baseline changed the triple: %v", got)
	}
}

func TestUniform(t *testing.T) {
	got := (Uniform{}).Adjust(MatchContext{}, core.ProbTriple{0.9, 0.05, 0.05})
	for i, v := range got {
		if math.Abs(v-1./3) > 1e-12 {
			t.Errorf("uniform[%d] = %f", i, v)
		}
	}
}

func TestHomeBias(t *testing.T) {
	s := NewHomeBias(map[string]float64{"boost": 0.2})
	got := s.Adjust(MatchContext{}, core.ProbTriple{0.4, 0.3, 0.3})

	if math.Abs(got[0]-0.48) > 1e-12 {
		t.Errorf("home = %f, want 0.48", got[0])
	}
	if got[1] != 0.3 || got[2] != 0.3 {
		t.Errorf("draw/away changed: %v", got)
	}
}

func TestDrawChaos(t *testing.T) {
	s := NewDrawChaos(map[string]float64{"trigger": 0.95, "boost": 0.3, "penalty": 0.2})

	// Near-uniform triple has entropy ~1: the draw gets boosted.
	chaotic := s.Adjust(MatchContext{}, core.ProbTriple{0.34, 0.33, 0.33})
	if math.Abs(chaotic[1]-0.33*1.3) > 1e-12 {
		t.Errorf("chaotic draw = %f, want %f", chaotic[1], 0.33*1.3)
	}

	// A clear favorite has low entropy: the draw gets penalized.
	clear := s.Adjust(MatchContext{}, core.ProbTriple{0.8, 0.12, 0.08})
	if math.Abs(clear[1]-0.12*0.8) > 1e-12 {
		t.Errorf("clear draw = %f, want %f", clear[1], 0.12*0.8)
	}
}

func TestContrarian(t *testing.T) {
	s := NewContrarian(map[string]float64{"fade": 0.2, "min_confidence": 0.5})

	got := s.Adjust(MatchContext{}, core.ProbTriple{0.6, 0.25, 0.15})
	if math.Abs(got[0]-0.48) > 1e-12 {
		t.Errorf("favorite = %f, want 0.48", got[0])
	}
	if math.Abs(got[1]-0.31) > 1e-12 || math.Abs(got[2]-0.21) > 1e-12 {
		t.Errorf("redistribution = %v", got)
	}
	// Mass is only moved, never created.
	if math.Abs(got.Sum()-1) > 1e-12 {
		t.Errorf("mass changed: %f", got.Sum())
	}

	// No clear favorite, no fade.
	even := core.ProbTriple{0.4, 0.35, 0.25}
	if got := s.Adjust(MatchContext{}, even); got != even {
		t.Errorf("faded a low-confidence triple: %v", got)
	}
}

func testHistories(t *testing.T) *teamhistory.Store {
	t.Helper()
	s := teamhistory.NewStore()
	hot := &teamhistory.History{TeamName: "Hot United"}
	cold := &teamhistory.History{TeamName: "Cold City"}
	for i := 0; i < 6; i++ {
		hot.Matches = append(hot.Matches, teamhistory.MatchRecord{Result: "W"})
		cold.Matches = append(cold.Matches, teamhistory.MatchRecord{Result: "L"})
	}
	s.Add(hot)
	s.Add(cold)
	return s
}

func TestValueEdge(t *testing.T) {
	s := NewValueEdge(map[string]float64{"threshold": 0.2, "boost": 0.5, "window": 5})
	histories := testHistories(t)

	// Home side in much better form but priced as the underdog.
	ctx := MatchContext{Home: "Hot United", Away: "Cold City", Histories: histories}
	undervalued := core.ProbTriple{0.25, 0.3, 0.45}
	got := s.Adjust(ctx, undervalued)
	if math.Abs(got[0]-0.375) > 1e-12 {
		t.Errorf("home = %f, want 0.375", got[0])
	}

	// Form already reflected in the price: no edge to act on.
	priced := core.ProbTriple{0.6, 0.25, 0.15}
	if got := s.Adjust(ctx, priced); got != priced {
		t.Errorf("boosted an already-priced favorite: %v", got)
	}

	// Without history the triple passes through.
	noData := MatchContext{Home: "Unknown A", Away: "Unknown B", Histories: histories}
	if got := s.Adjust(noData, undervalued); got != undervalued {
		t.Errorf("adjusted without history: %v", got)
	}
}

func TestTeamIntelligence(t *testing.T) {
	s := NewTeamIntelligence(map[string]float64{"form_weight": 0.3, "momentum_weight": 0, "window": 5})
	histories := testHistories(t)

	ctx := MatchContext{Home: "Hot United", Away: "Cold City", Histories: histories}
	p := core.ProbTriple{0.4, 0.3, 0.3}
	got := s.Adjust(ctx, p)
	// Form gap is 1 - 0 = 1, tilt 0.3: home lifted by 30%.
	if math.Abs(got[0]-0.52) > 1e-12 {
		t.Errorf("home = %f, want 0.52", got[0])
	}

	// Swapped sides tilt the other way.
	swapped := MatchContext{Home: "Cold City", Away: "Hot United", Histories: histories}
	got = s.Adjust(swapped, p)
	if math.Abs(got[2]-0.39) > 1e-12 {
		t.Errorf("away = %f, want 0.39", got[2])
	}

	// Nil store degrades to identity.
	if got := s.Adjust(MatchContext{}, p); got != p {
		t.Errorf("adjusted without a store: %v", got)
	}
}

func TestEntropy(t *testing.T) {
	if got := entropy(core.ProbTriple{1. / 3, 1. / 3, 1. / 3}); math.Abs(got-1) > 1e-12 {
		t.Errorf("uniform entropy = %f, want 1", got)
	}
	if got := entropy(core.ProbTriple{1, 0, 0}); got != 0 {
		t.Errorf("certain entropy = %f, want 0", got)
	}
	if e := entropy(core.ProbTriple{0.8, 0.1, 0.1}); e <= 0 || e >= 1 {
		t.Errorf("skewed entropy = %f, want in (0,1)", e)
	}
}
