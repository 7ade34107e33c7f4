package models

import "time"

// Leg holds the explicit parameters of one option position.
// Premium is the total premium of the whole leg, already scaled by
// quantity and multiplier.
type Leg struct {
	Kind       OptionKind `json:"kind"`
	Direction  Direction  `json:"direction"`
	Strike     float64    `json:"strike"`
	Premium    float64    `json:"premium"`
	Quantity   int        `json:"quantity"`
	Multiplier float64    `json:"multiplier"`
	ContractID int64      `json:"contract_id,omitempty"`
	Symbol     string     `json:"symbol,omitempty"`
	Expiry     time.Time  `json:"expiry,omitempty"`
}

// StrategyRecord is a saved strategy.
type StrategyRecord struct {
	ID        string
	Name      string
	Legs      []Leg
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PayoffPoint is a single point on a payoff diagram.
type PayoffPoint struct {
	Price  float64 `json:"price"`
	Payoff float64 `json:"payoff"`
}
