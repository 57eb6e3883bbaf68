// Package round models one calendar date's betting opportunity: the
// fixtures, the bookmaker odds (three per match, home/draw/away), and the
// result string once the round has been played. Implied probabilities are
// always derived from the odds on demand; they are never persisted as
// ground truth.
package round

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jkoskela4/gridbet/core"
)

// OddsPerMatch is the number of odds entries per fixture, one per outcome
// in canonical order (home, draw, away).
const OddsPerMatch = 3

// ErrMalformedRound marks a round whose odds or result do not line up with
// its fixtures. Malformed rounds are excluded from backtesting, never
// scored partially.
var ErrMalformedRound = errors.New("malformed round")

// Match is one fixture of a round.
type Match struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Round is a single date's fixtures with odds and, once played, results.
// The core treats a Round as read-only input; nothing mutates it during
// evaluation.
type Round struct {
	// Date is the round identifier in YYYY-MM-DD form, taken from the
	// data file name. It also seeds the round's random sequence.
	Date string

	// Matches in file order. The match index is the join key into Odds
	// and Result, so order matters.
	Matches []Match

	// Odds is the flat odds sequence, OddsPerMatch entries per fixture.
	Odds []decimal.Decimal

	// Result has one character per match, '0' home win, '1' draw,
	// '2' away win. Empty until the round has been played.
	Result string

	// Annotations carries the optional grid/lines/bets block written by
	// the one-shot annotate step. Ignored for scoring.
	Annotations *Annotations
}

// Finalized reports whether the round has been played. Rounds without a
// result are excluded from backtests; that is not an error.
func (r *Round) Finalized() bool {
	return r.Result != ""
}

// Validate checks the round's structural invariants. A failing round is
// malformed and must be filtered out before aggregation.
func (r *Round) Validate() error {
	if len(r.Matches) == 0 {
		return fmt.Errorf("%w: %s has no matches", ErrMalformedRound, r.Date)
	}
	if len(r.Odds) != OddsPerMatch*len(r.Matches) {
		return fmt.Errorf("%w: %s has %d odds for %d matches, want %d",
			ErrMalformedRound, r.Date, len(r.Odds), len(r.Matches), OddsPerMatch*len(r.Matches))
	}
	one := decimal.NewFromInt(1)
	for i, o := range r.Odds {
		if !o.GreaterThan(one) {
			return fmt.Errorf("%w: %s odds[%d] = %s, bookmaker odds must exceed 1",
				ErrMalformedRound, r.Date, i, o)
		}
	}
	if r.Finalized() {
		if len(r.Result) != len(r.Matches) {
			return fmt.Errorf("%w: %s result has %d characters for %d matches",
				ErrMalformedRound, r.Date, len(r.Result), len(r.Matches))
		}
		for i := 0; i < len(r.Result); i++ {
			if _, err := core.OutcomeFromResultCode(r.Result[i]); err != nil {
				return fmt.Errorf("%w: %s match %d: %v", ErrMalformedRound, r.Date, i, err)
			}
		}
	}
	return nil
}

// ImpliedProbabilities derives the bookmaker-implied probability triple of
// every match: 1/odds per outcome, normalized to sum to 1. Recomputed on
// every call; the result is a pure function of the odds.
func (r *Round) ImpliedProbabilities() ([]core.ProbTriple, error) {
	triples := make([]core.ProbTriple, len(r.Matches))
	for i := range r.Matches {
		var raw core.ProbTriple
		for j := 0; j < OddsPerMatch; j++ {
			odds := r.Odds[i*OddsPerMatch+j].InexactFloat64()
			if odds <= 0 {
				return nil, fmt.Errorf("%w: %s match %d has non-positive odds", ErrMalformedRound, r.Date, i)
			}
			raw[j] = 1 / odds
		}
		norm, err := raw.Normalize()
		if err != nil {
			return nil, fmt.Errorf("round %s match %d: %w", r.Date, i, err)
		}
		triples[i] = norm
	}
	return triples, nil
}

// OddsFor returns the decimal odds for predicting outcome on the match at
// matchIndex. ok is false when there is no market for the cell: the index
// runs past the odds array (a short grid or a stale mapping) or the
// outcome is free. Callers treat a missing market as a neutral multiplier
// of 1, never as an error.
func (r *Round) OddsFor(matchIndex int, outcome core.Outcome) (decimal.Decimal, bool) {
	off := outcome.Index()
	if off < 0 {
		return decimal.Decimal{}, false
	}
	idx := matchIndex*OddsPerMatch + off
	if matchIndex < 0 || idx >= len(r.Odds) {
		return decimal.Decimal{}, false
	}
	return r.Odds[idx], true
}

// ActualOutcome resolves the played outcome of the match at matchIndex.
// ok is false when the index runs past the result string; an invalid
// result character is an error and is never defaulted.
func (r *Round) ActualOutcome(matchIndex int) (core.Outcome, bool, error) {
	if matchIndex < 0 || matchIndex >= len(r.Result) {
		return core.OutcomeFree, false, nil
	}
	out, err := core.OutcomeFromResultCode(r.Result[matchIndex])
	if err != nil {
		return core.OutcomeFree, false, fmt.Errorf("round %s match %d: %w", r.Date, matchIndex, err)
	}
	return out, true, nil
}
