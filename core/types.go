// Package core provides the shared domain primitives for grid betting:
// match outcomes, result codes and bookmaker probability triples.
package core

import (
	"errors"
	"fmt"
)

// Outcome is a predicted or actual match outcome symbol.
type Outcome string

const (
	// OutcomeHome means the home team wins.
	OutcomeHome Outcome = "1"
	// OutcomeDraw means the match is drawn.
	OutcomeDraw Outcome = "X"
	// OutcomeAway means the away team wins.
	OutcomeAway Outcome = "2"
	// OutcomeFree is an unset prediction; a free cell always counts as correct.
	OutcomeFree Outcome = ""
)

// Sentinel errors for the result/outcome mapping.
var (
	ErrInvalidResultCode = errors.New("invalid result code")
	ErrInvalidOutcome    = errors.New("invalid outcome")
)

// Outcomes returns the three playable outcomes in canonical order.
// This order is also the tie-break order for equal probabilities:
// home beats draw beats away.
func Outcomes() [3]Outcome {
	return [3]Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}
}

// Valid reports whether o is one of the three playable outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeHome || o == OutcomeDraw || o == OutcomeAway
}

// Index returns the outcome's index in canonical order (home 0, draw 1,
// away 2), which is also its offset into a match's odds group. Returns -1
// for anything else, including a free cell.
func (o Outcome) Index() int {
	switch o {
	case OutcomeHome:
		return 0
	case OutcomeDraw:
		return 1
	case OutcomeAway:
		return 2
	default:
		return -1
	}
}

// ResultCode returns the result-string character for the outcome:
// "1"->'0', "X"->'1', "2"->'2'.
func (o Outcome) ResultCode() (byte, error) {
	switch o {
	case OutcomeHome:
		return '0', nil
	case OutcomeDraw:
		return '1', nil
	case OutcomeAway:
		return '2', nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, string(o))
	}
}

// OutcomeFromResultCode maps a result-string character to its outcome:
// '0'->"1", '1'->"X", '2'->"2". Any other character is an error and must
// not be defaulted silently.
func OutcomeFromResultCode(code byte) (Outcome, error) {
	switch code {
	case '0':
		return OutcomeHome, nil
	case '1':
		return OutcomeDraw, nil
	case '2':
		return OutcomeAway, nil
	default:
		return OutcomeFree, fmt.Errorf("%w: %q", ErrInvalidResultCode, string(code))
	}
}

// ProbTriple holds the probabilities of home win, draw and away win for
// one match, in canonical outcome order.
type ProbTriple [3]float64

// Sum returns the total mass of the triple.
func (p ProbTriple) Sum() float64 {
	return p[0] + p[1] + p[2]
}

// Confidence returns the largest probability in the triple. Matches are
// ranked by confidence when the grid is selected.
func (p ProbTriple) Confidence() float64 {
	max := p[0]
	if p[1] > max {
		max = p[1]
	}
	if p[2] > max {
		max = p[2]
	}
	return max
}

// Best returns the most probable outcome. Exact ties resolve in canonical
// order: home beats draw beats away.
func (p ProbTriple) Best() Outcome {
	best := 0
	for i := 1; i < 3; i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return Outcomes()[best]
}

// Sample maps a uniform draw r in [0,1) onto an outcome by inverse CDF:
// "1" if r < p0, "X" if r < p0+p1, otherwise "2". The triple should be
// normalized first.
func (p ProbTriple) Sample(r float64) Outcome {
	if r < p[0] {
		return OutcomeHome
	}
	if r < p[0]+p[1] {
		return OutcomeDraw
	}
	return OutcomeAway
}

// Normalize scales the triple to sum to 1. A triple with negative mass or
// zero total is an invariant violation (bookmaker odds are all above 1),
// reported as an error rather than propagated as NaN.
func (p ProbTriple) Normalize() (ProbTriple, error) {
	for i, v := range p {
		if v < 0 {
			return ProbTriple{}, fmt.Errorf("negative probability %f at index %d", v, i)
		}
	}
	sum := p.Sum()
	if sum <= 0 {
		return ProbTriple{}, fmt.Errorf("probability triple has no mass: %v", p)
	}
	return ProbTriple{p[0] / sum, p[1] / sum, p[2] / sum}, nil
}
