package grid

import (
	"reflect"
	"testing"

	"github.com/jkoskela4/gridbet/core"
)

func TestLinesCompleteness(t *testing.T) {
	lines := Lines()

	if len(lines) != LineCount {
		t.Fatalf("Lines() returned %d lines, want %d", len(lines), LineCount)
	}

	seen := make(map[Line]bool, LineCount)
	cellUse := make(map[int]int)
	for _, line := range lines {
		if seen[line] {
			t.Errorf("duplicate line %v", line)
		}
		seen[line] = true
		for _, cell := range line {
			cellUse[cell]++
		}
	}

	// Every cell 0..8 appears, and each appears in exactly 9 lines.
	if len(cellUse) != TotalCells {
		t.Fatalf("lines reference %d distinct cells, want %d", len(cellUse), TotalCells)
	}
	for cell := 0; cell < TotalCells; cell++ {
		if cellUse[cell] != 9 {
			t.Errorf("cell %d appears in %d lines, want 9", cell, cellUse[cell])
		}
	}
}

func TestLinesOnePerColumn(t *testing.T) {
	// Column membership in row-major numbering: column k holds cells with
	// cell%3 == k.
	for i, line := range Lines() {
		for col, cell := range line {
			if cell%Size != col {
				t.Errorf("line %d = %v: cell %d is not in column %d", i, line, cell, col)
			}
		}
	}
}

func TestLinesStableOrder(t *testing.T) {
	first := Lines()
	second := Lines()
	if !reflect.DeepEqual(first, second) {
		t.Error("line order changed between calls")
	}

	// Nested iteration order fixes the first and last lines.
	if first[0] != (Line{0, 1, 2}) {
		t.Errorf("first line = %v, want {0 1 2}", first[0])
	}
	if first[LineCount-1] != (Line{6, 7, 8}) {
		t.Errorf("last line = %v, want {6 7 8}", first[LineCount-1])
	}
}

func triple(home, draw, away float64) core.ProbTriple {
	return core.ProbTriple{home, draw, away}
}

func TestSelectBestMatches(t *testing.T) {
	tests := []struct {
		name    string
		triples []core.ProbTriple
		count   int
		want    []int
	}{
		{
			name: "already sorted returns identity prefix",
			triples: []core.ProbTriple{
				triple(0.9, 0.05, 0.05),
				triple(0.8, 0.1, 0.1),
				triple(0.7, 0.2, 0.1),
				triple(0.6, 0.2, 0.2),
			},
			count: 3,
			want:  []int{0, 1, 2},
		},
		{
			name: "ranks by confidence descending",
			triples: []core.ProbTriple{
				triple(0.4, 0.3, 0.3),
				triple(0.1, 0.1, 0.8),
				triple(0.5, 0.3, 0.2),
			},
			count: 3,
			want:  []int{1, 2, 0},
		},
		{
			name: "confidence uses the max regardless of outcome",
			triples: []core.ProbTriple{
				triple(0.6, 0.2, 0.2),
				triple(0.1, 0.7, 0.2),
			},
			count: 2,
			want:  []int{1, 0},
		},
		{
			name: "ties keep original order",
			triples: []core.ProbTriple{
				triple(0.5, 0.25, 0.25),
				triple(0.25, 0.5, 0.25),
				triple(0.25, 0.25, 0.5),
			},
			count: 3,
			want:  []int{0, 1, 2},
		},
		{
			name: "short input returns all available",
			triples: []core.ProbTriple{
				triple(0.3, 0.3, 0.4),
				triple(0.8, 0.1, 0.1),
			},
			count: 9,
			want:  []int{1, 0},
		},
		{
			name:    "empty input",
			triples: nil,
			count:   9,
			want:    []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBestMatches(tt.triples, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("SelectBestMatches = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("SelectBestMatches = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSelectBestMatchesDeterministic(t *testing.T) {
	triples := []core.ProbTriple{
		triple(0.4, 0.3, 0.3),
		triple(0.45, 0.45, 0.1),
		triple(0.2, 0.35, 0.45),
		triple(0.45, 0.3, 0.25),
		triple(0.33, 0.33, 0.34),
	}

	first := SelectBestMatches(triples, 4)
	second := SelectBestMatches(triples, 4)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("selection not deterministic: %v then %v", first, second)
	}
}

func TestMappingMatchFor(t *testing.T) {
	m := Mapping{4, 0, 2}

	if idx, ok := m.MatchFor(0); !ok || idx != 4 {
		t.Errorf("MatchFor(0) = %d, %v; want 4, true", idx, ok)
	}
	if idx, ok := m.MatchFor(2); !ok || idx != 2 {
		t.Errorf("MatchFor(2) = %d, %v; want 2, true", idx, ok)
	}
	if _, ok := m.MatchFor(3); ok {
		t.Error("MatchFor(3) on short grid should report false")
	}
	if _, ok := m.MatchFor(-1); ok {
		t.Error("MatchFor(-1) should report false")
	}
}

func TestBetWeight(t *testing.T) {
	tests := []struct {
		repeat int
		want   int
	}{
		{0, 1},
		{1, 1},
		{27, 27},
		{-3, 1},
	}
	for _, tt := range tests {
		b := Bet{RepeatCount: tt.repeat}
		if got := b.Weight(); got != tt.want {
			t.Errorf("Weight with RepeatCount=%d = %d, want %d", tt.repeat, got, tt.want)
		}
	}
}

func TestBetKeyIgnoresWeightAndSource(t *testing.T) {
	var preds [TotalCells]core.Outcome
	for i := range preds {
		preds[i] = core.OutcomeHome
	}

	a := Bet{Predictions: preds, RepeatCount: 1, Source: "favorite"}
	b := Bet{Predictions: preds, RepeatCount: 27, Source: "sampled"}
	if a.Key() != b.Key() {
		t.Error("bets with identical predictions should share a key")
	}

	preds[8] = core.OutcomeDraw
	c := Bet{Predictions: preds}
	if a.Key() == c.Key() {
		t.Error("bets with different predictions should not share a key")
	}
}
