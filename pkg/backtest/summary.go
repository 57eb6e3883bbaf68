package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/jkoskela4/gridbet/pkg/grid"
)

// Summary is the pure fold over per-round accuracy results that ranks a
// strategy: total stake, total winnings, ROI and the hit distribution.
// It is independent of the order the rounds were evaluated in.
type Summary struct {
	Rounds    int `json:"rounds"`
	TotalBets int `json:"total_bets"`

	TotalWinnings decimal.Decimal `json:"total_winnings"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Profit        decimal.Decimal `json:"profit"`
	// ROI is profit over cost as a percentage; zero when nothing was
	// staked.
	ROI decimal.Decimal `json:"roi"`

	// ProfitableDates counts rounds that ended with profit > 0.
	ProfitableDates int `json:"profitable_dates"`

	// LineHits is the element-wise sum of every round's hit
	// distribution.
	LineHits [grid.LineCount + 1]int `json:"line_hits"`

	// BestBet is the single most profitable bet across all rounds.
	BestBet     *BetAccuracy `json:"best_bet,omitempty"`
	BestBetDate string       `json:"best_bet_date,omitempty"`

	Recoveries int `json:"recoveries,omitempty"`
}

// Summarize folds round results into a Summary.
func Summarize(results []*RoundAccuracy) Summary {
	s := Summary{
		Rounds:        len(results),
		TotalWinnings: decimal.Zero,
		TotalCost:     decimal.Zero,
		Profit:        decimal.Zero,
		ROI:           decimal.Zero,
	}

	for _, r := range results {
		s.TotalBets += r.TotalBets
		s.TotalWinnings = s.TotalWinnings.Add(r.TotalWinnings)
		s.TotalCost = s.TotalCost.Add(r.TotalCost)
		if r.Profit.IsPositive() {
			s.ProfitableDates++
		}
		for k, n := range r.LineHits {
			s.LineHits[k] += n
		}
		s.Recoveries += r.Recoveries
		if r.BestBet != nil && (s.BestBet == nil || r.BestBet.Profit.GreaterThan(s.BestBet.Profit)) {
			s.BestBet = r.BestBet
			s.BestBetDate = r.Date
		}
	}

	s.Profit = s.TotalWinnings.Sub(s.TotalCost)
	if !s.TotalCost.IsZero() {
		s.ROI = s.Profit.Div(s.TotalCost).Mul(decimal.NewFromInt(100))
	}
	return s
}
