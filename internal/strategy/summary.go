package strategy

import (
	"gonum.org/v1/gonum/floats"

	"optstrat/internal/models"
)

// Summary describes a payoff curve.
type Summary struct {
	MaxProfit  float64   `json:"max_profit"`
	MaxLoss    float64   `json:"max_loss"`
	Breakevens []float64 `json:"breakevens"`
	// NetPremium is positive for a net debit and negative for a net credit.
	NetPremium float64 `json:"net_premium"`
	// UpsideSlope is the payoff change per unit of price above every strike.
	// Positive means unlimited profit, negative unlimited loss.
	UpsideSlope float64 `json:"upside_slope"`
}

// UnlimitedProfit reports whether profit grows without bound as price rises.
func (s Summary) UnlimitedProfit() bool { return s.UpsideSlope > 0 }

// UnlimitedLoss reports whether loss grows without bound as price rises.
func (s Summary) UnlimitedLoss() bool { return s.UpsideSlope < 0 }

// Summarize computes max profit/loss over points, breakevens between them and the
// portfolio's net premium and upside slope.
func (s *Portfolio) Summarize(points []models.PayoffPoint) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary Summary
	for _, p := range s.positions {
		summary.NetPremium += p.Direction().Sign() * p.Premium()
		if p.Kind() == models.Call {
			summary.UpsideSlope += p.Direction().Sign() * float64(p.Quantity()) * p.Multiplier()
		}
	}

	if len(points) == 0 {
		return summary
	}
	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = pt.Payoff
	}
	summary.MaxProfit = floats.Max(values)
	summary.MaxLoss = floats.Min(values)
	summary.Breakevens = breakevens(points)
	return summary
}

// breakevens returns the prices where the curve crosses zero, interpolating
// linearly between neighboring points.
func breakevens(points []models.PayoffPoint) []float64 {
	var out []float64
	for i := 0; i < len(points); i++ {
		cur := points[i]
		if cur.Payoff == 0 {
			if i == 0 || points[i-1].Payoff != 0 {
				out = append(out, cur.Price)
			}
			continue
		}
		if i == 0 {
			continue
		}
		prev := points[i-1]
		if prev.Payoff != 0 && (prev.Payoff < 0) != (cur.Payoff < 0) {
			t := prev.Payoff / (prev.Payoff - cur.Payoff)
			out = append(out, prev.Price+t*(cur.Price-prev.Price))
		}
	}
	return out
}
