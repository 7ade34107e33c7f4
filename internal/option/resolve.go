package option

import (
	"context"
	"fmt"

	"optstrat/internal/contracts"
	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
)

// ResolveOption overrides values otherwise taken from the reference record.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	quantity   int
	multiplier float64
}

// WithQuantity sets the number of contracts (default 1).
func WithQuantity(n int) ResolveOption {
	return func(c *resolveConfig) { c.quantity = n }
}

// WithMultiplier overrides the contract multiplier from the reference record.
func WithMultiplier(m float64) ResolveOption {
	return func(c *resolveConfig) { c.multiplier = m }
}

// FromContractID builds a position for the contract with the given id.
// premium is per unit; the stored premium is premium * quantity * multiplier.
func FromContractID(ctx context.Context, src contracts.Source, id int64, dir models.Direction, premium float64, opts ...ResolveOption) (*Position, error) {
	c, err := src.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromContract(c, dir, premium, opts)
}

// FromDescription builds a position for the single contract matching filter.
func FromDescription(ctx context.Context, src contracts.Source, filter contracts.Filter, dir models.Direction, premium float64, opts ...ResolveOption) (*Position, error) {
	matches, err := src.FindContracts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("finding contracts: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, apperrors.NewContractError(0, fmt.Sprintf("no contract matches %+v", filter), apperrors.ErrContractNotFound)
	case 1:
		return fromContract(matches[0], dir, premium, opts)
	default:
		return nil, apperrors.NewContractError(0, fmt.Sprintf("%d contracts match %+v", len(matches), filter), apperrors.ErrSelectionAmbiguous)
	}
}

func fromContract(c models.Contract, dir models.Direction, premium float64, opts []ResolveOption) (*Position, error) {
	kind, ok := c.Kind()
	if !ok {
		return nil, apperrors.NewContractError(c.ID, fmt.Sprintf("right %q", c.Right), apperrors.ErrInvalidContractKind)
	}

	cfg := resolveConfig{quantity: 1, multiplier: c.Multiplier}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", cfg.quantity, "must be positive")
	}
	if cfg.multiplier <= 0 {
		cfg.multiplier = 1
	}

	expiry, err := c.ExpiryDate()
	if err != nil {
		return nil, apperrors.NewContractError(c.ID, "parsing expiry", err)
	}

	return New(models.Leg{
		Kind:       kind,
		Direction:  dir,
		Strike:     c.Strike,
		Premium:    premium * float64(cfg.quantity) * cfg.multiplier,
		Quantity:   cfg.quantity,
		Multiplier: cfg.multiplier,
		ContractID: c.ID,
		Symbol:     c.Symbol,
		Expiry:     expiry,
	})
}
