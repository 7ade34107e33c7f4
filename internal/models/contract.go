package models

import (
	"fmt"
	"strings"
	"time"
)

// Contract is one row of contract reference data.
type Contract struct {
	ID         int64   `csv:"ConId" json:"ConId"`
	Right      string  `csv:"Right" json:"Right"`
	Strike     float64 `csv:"Strike" json:"Strike"`
	Symbol     string  `csv:"Symbol" json:"Symbol"`
	Expiry     string  `csv:"Expiry" json:"Expiry"`
	Multiplier float64 `csv:"Multiplier" json:"Multiplier"`
}

// Kind returns the option kind of the contract; ok is false for non-options.
func (c Contract) Kind() (OptionKind, bool) {
	return ParseOptionKind(c.Right)
}

// ExpiryDate parses the expiry, accepting YYYYMMDD and YYYY-MM-DD.
// An empty expiry yields the zero time.
func (c Contract) ExpiryDate() (time.Time, error) {
	return ParseExpiry(c.Expiry)
}

var expiryLayouts = []string{"20060102", "2006-01-02"}

// ParseExpiry parses a date-like expiry string.
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized expiry %q", s)
}
