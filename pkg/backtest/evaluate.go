// Package backtest scores grid bets against played rounds and rolls the
// results into ROI summaries for ranking strategies.
package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jkoskela4/gridbet/core"
	"github.com/jkoskela4/gridbet/pkg/grid"
	"github.com/jkoskela4/gridbet/pkg/round"
)

// betCost is the stake of a single bet placement: one unit per line.
var betCost = decimal.NewFromInt(grid.BetCost)

// BetAccuracy is the score of one bet against one round, per single
// placement. Weighted bets scale these numbers by their RepeatCount in
// the round aggregates.
type BetAccuracy struct {
	Bet          grid.Bet        `json:"bet"`
	CorrectCells int             `json:"correct_cells"`
	CorrectLines int             `json:"correct_lines"`
	Winnings     decimal.Decimal `json:"winnings"`
	Cost         decimal.Decimal `json:"cost"`
	Profit       decimal.Decimal `json:"profit"`
	// Recoveries counts cells scored with a neutral multiplier because
	// their mapped match index had no odds or result entry. Always a
	// data or mapping inconsistency upstream, never fatal here.
	Recoveries int `json:"recoveries,omitempty"`
}

// RoundAccuracy aggregates one round's bets.
type RoundAccuracy struct {
	Date string `json:"date"`

	Bets []BetAccuracy `json:"bets,omitempty"`

	// TotalBets is the weighted placement count.
	TotalBets int `json:"total_bets"`
	// LineHits[k] is the weighted number of bets that hit exactly k
	// lines.
	LineHits [grid.LineCount + 1]int `json:"line_hits"`

	TotalWinnings decimal.Decimal `json:"total_winnings"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Profit        decimal.Decimal `json:"profit"`

	// BestBet is the bet with the highest single-placement profit.
	BestBet *BetAccuracy `json:"best_bet,omitempty"`

	// MaxPossibleWinnings is what the synthetic perfect bet, predicting
	// the actual outcome at every cell, would have won. A normalization
	// reference; it is not subtracted from anything.
	MaxPossibleWinnings decimal.Decimal `json:"max_possible_winnings"`

	Recoveries int `json:"recoveries,omitempty"`
}

// EvaluateBet scores a single bet against a finalized round. mapping
// must come from grid.SelectBestMatches over the round's implied
// probabilities, recomputed rather than carried over from generation.
//
// Cell rules: a position beyond a short grid, a free prediction, or a
// mapped index with no market/result entry counts as correct with a
// neutral payout multiplier of 1 (the last case is counted as a
// recovery). A line pays the product of its three cells' predicted odds
// and only when all three cells are correct.
func EvaluateBet(r *round.Round, mapping grid.Mapping, bet grid.Bet) (BetAccuracy, error) {
	acc := BetAccuracy{Bet: bet, Cost: betCost}

	var correct [grid.TotalCells]bool
	var mult [grid.TotalCells]decimal.Decimal
	one := decimal.NewFromInt(1)

	for pos := 0; pos < grid.TotalCells; pos++ {
		correct[pos] = true
		mult[pos] = one

		matchIdx, mapped := mapping.MatchFor(pos)
		if !mapped {
			continue // short grid, free cell
		}
		pred := bet.Predictions[pos]
		if pred == core.OutcomeFree {
			continue
		}

		actual, haveResult, err := r.ActualOutcome(matchIdx)
		if err != nil {
			return BetAccuracy{}, fmt.Errorf("evaluating bet: %w", err)
		}
		odds, haveMarket := r.OddsFor(matchIdx, pred)
		if !haveResult || !haveMarket {
			acc.Recoveries++
			continue
		}

		correct[pos] = pred == actual
		mult[pos] = odds
	}

	for pos := range correct {
		if correct[pos] {
			acc.CorrectCells++
		}
	}

	winnings := decimal.Zero
	for _, line := range grid.Lines() {
		hit := true
		payout := one
		for _, cell := range line {
			if !correct[cell] {
				hit = false
				break
			}
			payout = payout.Mul(mult[cell])
		}
		if hit {
			acc.CorrectLines++
			winnings = winnings.Add(payout)
		}
	}

	acc.Winnings = winnings
	acc.Profit = winnings.Sub(acc.Cost)
	return acc, nil
}

// perfectBet predicts the actual outcome at every mapped cell. Its
// winnings are the round's theoretical maximum.
func perfectBet(r *round.Round, mapping grid.Mapping) (grid.Bet, error) {
	bet := grid.Bet{Source: "perfect"}
	for pos := 0; pos < grid.TotalCells; pos++ {
		matchIdx, mapped := mapping.MatchFor(pos)
		if !mapped {
			continue
		}
		actual, ok, err := r.ActualOutcome(matchIdx)
		if err != nil {
			return grid.Bet{}, err
		}
		if ok {
			bet.Predictions[pos] = actual
		}
	}
	return bet, nil
}

// CalculateAccuracy scores a round's bets. The grid selection mapping is
// recomputed here from the round's implied probabilities, with the same
// pure function bet generation uses; a cached mapping crossing this
// boundary is how bets silently desynchronize from their scores.
func CalculateAccuracy(r *round.Round, bets []grid.Bet) (*RoundAccuracy, error) {
	triples, err := r.ImpliedProbabilities()
	if err != nil {
		return nil, err
	}
	mapping := grid.Mapping(grid.SelectBestMatches(triples, grid.TotalCells))

	out := &RoundAccuracy{
		Date:          r.Date,
		Bets:          make([]BetAccuracy, 0, len(bets)),
		TotalWinnings: decimal.Zero,
		TotalCost:     decimal.Zero,
	}

	for _, bet := range bets {
		acc, err := EvaluateBet(r, mapping, bet)
		if err != nil {
			return nil, err
		}

		w := bet.Weight()
		weight := decimal.NewFromInt(int64(w))
		out.TotalBets += w
		out.LineHits[acc.CorrectLines] += w
		out.TotalWinnings = out.TotalWinnings.Add(acc.Winnings.Mul(weight))
		out.TotalCost = out.TotalCost.Add(acc.Cost.Mul(weight))
		out.Recoveries += acc.Recoveries * w

		out.Bets = append(out.Bets, acc)
		if out.BestBet == nil || acc.Profit.GreaterThan(out.BestBet.Profit) {
			last := out.Bets[len(out.Bets)-1]
			out.BestBet = &last
		}
	}
	out.Profit = out.TotalWinnings.Sub(out.TotalCost)

	perfect, err := perfectBet(r, mapping)
	if err != nil {
		return nil, err
	}
	perfectAcc, err := EvaluateBet(r, mapping, perfect)
	if err != nil {
		return nil, err
	}
	out.MaxPossibleWinnings = perfectAcc.Winnings

	return out, nil
}
