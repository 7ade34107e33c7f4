// Package models provides domain models for option strategy valuation.
package models

import (
	"fmt"
	"strings"
)

// OptionKind represents the right an option grants.
type OptionKind string

const (
	Call OptionKind = "CALL"
	Put  OptionKind = "PUT"
)

// String returns the display name of the kind.
func (k OptionKind) String() string {
	switch k {
	case Call:
		return "Call"
	case Put:
		return "Put"
	default:
		return string(k)
	}
}

// Valid reports whether k is Call or Put.
func (k OptionKind) Valid() bool {
	return k == Call || k == Put
}

// ParseOptionKind parses a reference-data right marker ("C", "P", "CALL", "PUT", "CE", "PE").
// ok is false for anything that is not an option marker, e.g. the empty right of a future.
func ParseOptionKind(right string) (OptionKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(right)) {
	case "C", "CALL", "CE":
		return Call, true
	case "P", "PUT", "PE":
		return Put, true
	default:
		return "", false
	}
}

// Direction is the signed side of a position.
type Direction int

const (
	Short Direction = -1
	Long  Direction = 1
)

// Sign returns +1 for Long and -1 for Short.
func (d Direction) Sign() float64 {
	return float64(d)
}

// Valid reports whether d is Long or Short.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

func (d Direction) String() string {
	switch d {
	case Long:
		return "Long"
	case Short:
		return "Short"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalText encodes the direction as "LONG" or "SHORT".
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(strings.ToUpper(d.String())), nil
}

// UnmarshalText decodes a direction written by MarshalText or ParseDirection.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses long/buy or short/sell (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy", "b", "+1", "1":
		return Long, nil
	case "short", "sell", "s", "-1":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Moneyness is whether exercising at a price would be favorable.
type Moneyness string

const (
	InTheMoney    Moneyness = "ITM"
	OutOfTheMoney Moneyness = "OTM"
)
