// Package grid models the 3x3 betting grid: the fixed line topology, the
// confidence-ranked selection of matches into grid positions, and the
// bets placed on those positions.
package grid

import (
	"sort"

	"github.com/jkoskela4/gridbet/core"
)

const (
	// Size is the width and height of the grid.
	Size = 3
	// TotalCells is the number of grid positions, 0..8 in row-major order.
	TotalCells = Size * Size
	// LineCount is the number of one-cell-per-column paths through the grid.
	LineCount = Size * Size * Size
	// BetCost is the stake of one bet in units: one unit per line.
	BetCost = LineCount
)

// columns holds the grid's three columns in row-major cell numbering.
var columns = [Size][Size]int{
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
}

// Line is one path through the grid, one cell per column.
type Line [Size]int

var allLines = enumerateLines()

func enumerateLines() []Line {
	lines := make([]Line, 0, LineCount)
	for _, a := range columns[0] {
		for _, b := range columns[1] {
			for _, c := range columns[2] {
				lines = append(lines, Line{a, b, c})
			}
		}
	}
	return lines
}

// Lines returns the 27 lines in fixed nested-iteration order, so line
// indices are stable across runs and display tables. The slice is shared;
// callers must not modify it.
func Lines() []Line {
	return allLines
}

// SelectBestMatches ranks matches by confidence (the largest value of the
// probability triple) and returns the original indices of the top count
// matches, highest confidence first. The returned order is the grid order:
// position 0 holds the most confident match. The sort is stable, so exact
// ties keep their original match order.
//
// When fewer than count matches are available all of them are returned, in
// confidence order; callers treat the unfilled grid positions as free cells.
func SelectBestMatches(triples []core.ProbTriple, count int) []int {
	idx := make([]int, len(triples))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return triples[idx[a]].Confidence() > triples[idx[b]].Confidence()
	})

	if count < 0 {
		count = 0
	}
	if count > len(idx) {
		count = len(idx)
	}
	return idx[:count]
}

// Mapping is the per-round map from grid position to original match index,
// as returned by SelectBestMatches. It must always be recomputed from the
// round's implied probabilities; a mapping carried across the generation/
// evaluation boundary can silently desynchronize bets from their scores.
type Mapping []int

// MatchFor returns the original match index mapped to the grid position,
// or false when the position is beyond a short grid.
func (m Mapping) MatchFor(pos int) (int, bool) {
	if pos < 0 || pos >= len(m) {
		return 0, false
	}
	return m[pos], true
}

// Bet assigns a predicted outcome to each of the nine grid positions.
// A free prediction (core.OutcomeFree) always counts as correct. Placing a
// bet implicitly wagers one unit on each of the 27 lines.
type Bet struct {
	// Predictions are indexed by grid position, not by match index.
	Predictions [TotalCells]core.Outcome `json:"predictions"`
	// RepeatCount is how many times this identical bet is wagered. High
	// conviction plays stake the same prediction many times over; they are
	// modeled as one bet with a weight instead of structural duplicates.
	RepeatCount int `json:"repeat_count,omitempty"`
	// Source labels where the bet came from ("favorite", "sampled", ...).
	Source string `json:"source,omitempty"`
}

// Weight returns the number of times the bet is wagered, at least 1.
func (b Bet) Weight() int {
	if b.RepeatCount < 1 {
		return 1
	}
	return b.RepeatCount
}

// Key identifies a bet by its ordered prediction tuple. Two bets with the
// same predictions are the same wager regardless of weight or source.
func (b Bet) Key() [TotalCells]core.Outcome {
	return b.Predictions
}
