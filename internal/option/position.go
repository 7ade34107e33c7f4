// Package option values single option positions at hypothetical underlying prices.
package option

import (
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
)

// Position is one option contract held in a direction and quantity.
//
// premium is the total premium of the position, already scaled by quantity
// and multiplier, so payoff never multiplies it by quantity again:
//
//	payoff(p) = sign * (quantity * exercise(p) * multiplier - premium)
type Position struct {
	kind       models.OptionKind
	model      payoffModel
	strike     float64
	premium    float64
	direction  models.Direction
	quantity   int
	multiplier float64
	contractID int64
	symbol     string
	expiry     time.Time
}

// New creates a position from explicit parameters.
// A zero quantity or multiplier defaults to 1.
func New(leg models.Leg) (*Position, error) {
	model, ok := payoffModels[leg.Kind]
	if !ok {
		return nil, apperrors.NewValidationError("kind", leg.Kind, "must be CALL or PUT")
	}
	if !leg.Direction.Valid() {
		return nil, apperrors.NewValidationError("direction", int(leg.Direction), "must be Long (+1) or Short (-1)")
	}
	if !(leg.Strike > 0) || math.IsInf(leg.Strike, 0) {
		return nil, apperrors.NewValidationError("strike", leg.Strike, "must be a positive number")
	}
	if math.IsNaN(leg.Premium) || math.IsInf(leg.Premium, 0) {
		return nil, apperrors.NewValidationError("premium", leg.Premium, "must be finite")
	}
	if leg.Quantity < 0 {
		return nil, apperrors.NewValidationError("quantity", leg.Quantity, "must not be negative")
	}
	if leg.Multiplier < 0 || math.IsNaN(leg.Multiplier) || math.IsInf(leg.Multiplier, 0) {
		return nil, apperrors.NewValidationError("multiplier", leg.Multiplier, "must be a positive number")
	}

	quantity := leg.Quantity
	if quantity == 0 {
		quantity = 1
	}
	multiplier := leg.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}

	return &Position{
		kind:       leg.Kind,
		model:      model,
		strike:     leg.Strike,
		premium:    leg.Premium,
		direction:  leg.Direction,
		quantity:   quantity,
		multiplier: multiplier,
		contractID: leg.ContractID,
		symbol:     leg.Symbol,
		expiry:     leg.Expiry,
	}, nil
}

// Kind returns Call or Put.
func (p *Position) Kind() models.OptionKind { return p.kind }

// Strike returns the strike price.
func (p *Position) Strike() float64 { return p.strike }

// Premium returns the total premium of the position. It is normally
// non-negative, but a position merged from opposite trades carries the net
// cash of both and may be negative so that its payoff is unchanged.
func (p *Position) Premium() float64 { return p.premium }

// Direction returns Long or Short.
func (p *Position) Direction() models.Direction { return p.direction }

// Quantity returns the number of contracts.
func (p *Position) Quantity() int { return p.quantity }

// Multiplier returns the contract size.
func (p *Position) Multiplier() float64 { return p.multiplier }

// ContractID returns the reference-data id, 0 when the position is untracked.
func (p *Position) ContractID() int64 { return p.contractID }

// HasContractID reports whether the position can be merged by identity.
func (p *Position) HasContractID() bool { return p.contractID != 0 }

// Symbol returns the underlying symbol, if known.
func (p *Position) Symbol() string { return p.symbol }

// Expiry returns the expiry date, zero if unknown.
func (p *Position) Expiry() time.Time { return p.expiry }

// PayoffAt returns the profit or loss of the position if the underlying settles at price.
func (p *Position) PayoffAt(price float64) float64 {
	gross := float64(p.quantity) * p.model.exercise(p.strike, price) * p.multiplier
	return p.direction.Sign() * (gross - p.premium)
}

// MoneynessAt reports whether the option is in the money at price.
// The strike itself counts as in the money for both calls and puts.
func (p *Position) MoneynessAt(price float64) models.Moneyness {
	if p.model.inTheMoney(p.strike, price) {
		return models.InTheMoney
	}
	return models.OutOfTheMoney
}

// IntrinsicValueAt returns how far in the money the option is at price, or 0 when out of it.
// It ignores premium, direction, quantity and multiplier.
func (p *Position) IntrinsicValueAt(price float64) float64 {
	if p.MoneynessAt(price) == models.OutOfTheMoney {
		return 0
	}
	return math.Abs(p.strike - price)
}

// Leg returns the parameters that rebuild this position with New.
func (p *Position) Leg() models.Leg {
	return models.Leg{
		Kind:       p.kind,
		Direction:  p.direction,
		Strike:     p.strike,
		Premium:    p.premium,
		Quantity:   p.quantity,
		Multiplier: p.multiplier,
		ContractID: p.contractID,
		Symbol:     p.symbol,
		Expiry:     p.expiry,
	}
}

// Clone returns an independent copy.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}

// String renders e.g. "2 Long ES June-16 Call 2070 at 100".
func (p *Position) String() string {
	parts := []string{strconv.Itoa(p.quantity), p.direction.String()}
	if p.symbol != "" {
		parts = append(parts, p.symbol)
	}
	if !p.expiry.IsZero() {
		parts = append(parts, p.expiry.Format("January-06"))
	}
	parts = append(parts, p.kind.String(), formatNumber(p.strike), "at", formatNumber(p.premium))
	return strings.Join(parts, " ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
