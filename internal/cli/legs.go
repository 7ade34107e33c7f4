package cli

import (
	"context"
	"math"
	"strconv"
	"strings"

	"optstrat/internal/contracts"
	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
	"optstrat/internal/option"
)

// parseLeg parses "direction:kind:strike:premium[:qty[:multiplier]]".
// premium is per unit and is scaled by quantity and multiplier.
func parseLeg(raw string, defaultMultiplier float64) (models.Leg, error) {
	fields := strings.Split(raw, ":")
	if len(fields) < 4 || len(fields) > 6 {
		return models.Leg{}, apperrors.NewValidationError("leg", raw, "want direction:kind:strike:premium[:qty[:multiplier]]")
	}

	dir, err := models.ParseDirection(fields[0])
	if err != nil {
		return models.Leg{}, apperrors.NewValidationError("leg", raw, err.Error())
	}
	kind, ok := models.ParseOptionKind(fields[1])
	if !ok {
		return models.Leg{}, apperrors.NewValidationError("leg", raw, "kind must be call or put")
	}
	strike, err := parseNumber(fields[2])
	if err != nil {
		return models.Leg{}, apperrors.NewValidationError("leg", raw, "bad strike")
	}
	premium, err := parseNumber(fields[3])
	if err != nil {
		return models.Leg{}, apperrors.NewValidationError("leg", raw, "bad premium")
	}

	qty := 1
	if len(fields) > 4 && fields[4] != "" {
		if qty, err = parseQuantity(fields[4]); err != nil {
			return models.Leg{}, apperrors.NewValidationError("leg", raw, err.Error())
		}
	}
	multiplier := defaultMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	if len(fields) > 5 && fields[5] != "" {
		if multiplier, err = parseNumber(fields[5]); err != nil || multiplier <= 0 {
			return models.Leg{}, apperrors.NewValidationError("leg", raw, "bad multiplier")
		}
	}

	return models.Leg{
		Kind:       kind,
		Direction:  dir,
		Strike:     strike,
		Premium:    premium * float64(qty) * multiplier,
		Quantity:   qty,
		Multiplier: multiplier,
	}, nil
}

// contractRef is a leg selected by reference-data id.
type contractRef struct {
	ID        int64
	Direction models.Direction
	Premium   float64
	Quantity  int
}

// parseContractRef parses "id:direction:premium[:qty]".
func parseContractRef(raw string) (contractRef, error) {
	fields := strings.Split(raw, ":")
	if len(fields) < 3 || len(fields) > 4 {
		return contractRef{}, apperrors.NewValidationError("contract", raw, "want id:direction:premium[:qty]")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil || id <= 0 {
		return contractRef{}, apperrors.NewValidationError("contract", raw, "bad contract id")
	}
	dir, err := models.ParseDirection(fields[1])
	if err != nil {
		return contractRef{}, apperrors.NewValidationError("contract", raw, err.Error())
	}
	premium, err := parseNumber(fields[2])
	if err != nil {
		return contractRef{}, apperrors.NewValidationError("contract", raw, "bad premium")
	}
	ref := contractRef{ID: id, Direction: dir, Premium: premium, Quantity: 1}
	if len(fields) == 4 && fields[3] != "" {
		if ref.Quantity, err = parseQuantity(fields[3]); err != nil {
			return contractRef{}, apperrors.NewValidationError("contract", raw, err.Error())
		}
	}
	return ref, nil
}

// resolve looks the contract up in src.
func (r contractRef) resolve(ctx context.Context, src contracts.Source) (*option.Position, error) {
	return option.FromContractID(ctx, src, r.ID, r.Direction, r.Premium, option.WithQuantity(r.Quantity))
}

// pickRef is a leg selected by describing the contract.
type pickRef struct {
	Filter    contracts.Filter
	Direction models.Direction
	Premium   float64
	Quantity  int
}

// parsePickRef parses "direction:kind:strike:symbol:expiry:premium[:qty]".
// Empty strike, symbol or expiry fields match any contract.
func parsePickRef(raw string) (pickRef, error) {
	fields := strings.Split(raw, ":")
	if len(fields) < 6 || len(fields) > 7 {
		return pickRef{}, apperrors.NewValidationError("pick", raw, "want direction:kind:strike:symbol:expiry:premium[:qty]")
	}

	dir, err := models.ParseDirection(fields[0])
	if err != nil {
		return pickRef{}, apperrors.NewValidationError("pick", raw, err.Error())
	}
	kind, ok := models.ParseOptionKind(fields[1])
	if !ok {
		return pickRef{}, apperrors.NewValidationError("pick", raw, "kind must be call or put")
	}
	filter := contracts.Filter{
		Kind:   kind,
		Symbol: strings.TrimSpace(fields[3]),
		Expiry: strings.TrimSpace(fields[4]),
	}
	if fields[2] != "" {
		if filter.Strike, err = parseNumber(fields[2]); err != nil {
			return pickRef{}, apperrors.NewValidationError("pick", raw, "bad strike")
		}
	}
	premium, err := parseNumber(fields[5])
	if err != nil {
		return pickRef{}, apperrors.NewValidationError("pick", raw, "bad premium")
	}
	ref := pickRef{Filter: filter, Direction: dir, Premium: premium, Quantity: 1}
	if len(fields) == 7 && fields[6] != "" {
		if ref.Quantity, err = parseQuantity(fields[6]); err != nil {
			return pickRef{}, apperrors.NewValidationError("pick", raw, err.Error())
		}
	}
	return ref, nil
}

func (r pickRef) resolve(ctx context.Context, src contracts.Source) (*option.Position, error) {
	return option.FromDescription(ctx, src, r.Filter, r.Direction, r.Premium, option.WithQuantity(r.Quantity))
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, apperrors.ErrInvalidLeg
	}
	return n, nil
}
