// Package contracts provides access to contract reference data.
package contracts

import (
	"context"
	"math"
	"strings"

	"optstrat/internal/models"
)

// Source defines the interface for contract reference data lookups.
type Source interface {
	// GetContract returns the contract with the given id or ErrContractNotFound.
	GetContract(ctx context.Context, id int64) (models.Contract, error)
	// FindContracts returns every contract matching the filter.
	FindContracts(ctx context.Context, filter Filter) ([]models.Contract, error)
}

// Filter is an AND-combination of optional predicates over the reference table.
// Zero-valued fields do not constrain the match.
type Filter struct {
	Kind   models.OptionKind
	Strike float64
	Symbol string
	Expiry string
}

// strikeTolerance absorbs float noise from CSV/JSON strike columns.
const strikeTolerance = 1e-9

// Matches reports whether c satisfies every set predicate.
func (f Filter) Matches(c models.Contract) bool {
	if f.Kind != "" {
		kind, ok := c.Kind()
		if !ok || kind != f.Kind {
			return false
		}
	}
	if f.Strike != 0 && math.Abs(c.Strike-f.Strike) > strikeTolerance {
		return false
	}
	if f.Symbol != "" && !strings.EqualFold(c.Symbol, f.Symbol) {
		return false
	}
	if f.Expiry != "" && NormalizeExpiry(c.Expiry) != NormalizeExpiry(f.Expiry) {
		return false
	}
	return true
}

// IsEmpty reports whether no predicate is set.
func (f Filter) IsEmpty() bool {
	return f.Kind == "" && f.Strike == 0 && f.Symbol == "" && f.Expiry == ""
}

// NormalizeExpiry rewrites a parseable expiry as YYYYMMDD and returns anything else trimmed.
func NormalizeExpiry(s string) string {
	t, err := models.ParseExpiry(s)
	if err != nil || t.IsZero() {
		return strings.TrimSpace(s)
	}
	return t.Format("20060102")
}
