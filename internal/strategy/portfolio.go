// Package strategy aggregates option positions into a single payoff curve.
package strategy

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	apperrors "optstrat/internal/errors"
	"optstrat/internal/logging"
	"optstrat/internal/models"
	"optstrat/internal/option"
)

// Portfolio is an ordered collection of option positions evaluated jointly.
// Positions sharing a contract id are merged into one net position.
type Portfolio struct {
	name   string
	logger zerolog.Logger

	mu        sync.RWMutex
	positions []*option.Position
	warnings  []*apperrors.Warning
}

// New creates an empty portfolio.
func New(name string, logger zerolog.Logger) *Portfolio {
	return &Portfolio{
		name:   name,
		logger: logging.WithStrategy(logger, name),
	}
}

// Name returns the strategy name.
func (s *Portfolio) Name() string {
	return s.name
}

// Add inserts pos, merging it into an existing position with the same contract id.
// A position without a contract id is appended and a warning is recorded.
// On error the portfolio is left unchanged.
func (s *Portfolio) Add(pos *option.Position) error {
	if pos == nil {
		return apperrors.NewValidationError("position", nil, "must not be nil")
	}
	incoming := pos.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !incoming.HasContractID() {
		s.positions = append(s.positions, incoming)
		w := apperrors.NewWarning(incoming.String(), apperrors.ErrUntrackedPosition)
		s.warnings = append(s.warnings, w)
		s.logger.Warn().Str("position", incoming.String()).Msg("Untracked position added, it cannot be merged on future trades")
		return nil
	}

	idx, err := s.indexOf(incoming.ContractID())
	if apperrors.Is(err, apperrors.ErrPositionNotFound) {
		s.positions = append(s.positions, incoming)
		s.logger.Debug().Int64("contract_id", incoming.ContractID()).Str("position", incoming.String()).Msg("Position added")
		return nil
	}
	if err != nil {
		return err
	}

	merged, closed, err := merge(s.positions[idx], incoming)
	if err != nil {
		return apperrors.Wrapf(err, "merging contract %d", incoming.ContractID())
	}
	if closed {
		s.positions = append(s.positions[:idx], s.positions[idx+1:]...)
		s.logger.Debug().Int64("contract_id", incoming.ContractID()).Msg("Position closed")
		return nil
	}
	s.positions[idx] = merged
	s.logger.Debug().
		Int64("contract_id", merged.ContractID()).
		Str("direction", merged.Direction().String()).
		Int("quantity", merged.Quantity()).
		Float64("premium", merged.Premium()).
		Msg("Position merged")
	return nil
}

// merge combines two trades of the same contract. closed is true when the
// net quantity is zero. The merged premium keeps the combined payoff unchanged:
// the signed cash flows of both legs are netted and re-signed for the new direction.
// Trades whose kind, strike or multiplier differ are not the same contract.
func merge(existing, incoming *option.Position) (*option.Position, bool, error) {
	if existing.Kind() != incoming.Kind() || existing.Strike() != incoming.Strike() || existing.Multiplier() != incoming.Multiplier() {
		return nil, false, apperrors.NewContractError(incoming.ContractID(),
			fmt.Sprintf("held as %s, traded as %s", terms(existing), terms(incoming)), apperrors.ErrInvalidLeg)
	}

	net := existing.Quantity()*int(existing.Direction()) + incoming.Quantity()*int(incoming.Direction())
	if net == 0 {
		return nil, true, nil
	}

	direction := models.Long
	if net < 0 {
		direction = models.Short
	}
	cash := existing.Direction().Sign()*existing.Premium() + incoming.Direction().Sign()*incoming.Premium()

	leg := existing.Leg()
	leg.Direction = direction
	leg.Quantity = absInt(net)
	leg.Premium = cash * direction.Sign()

	merged, err := option.New(leg)
	if err != nil {
		return nil, false, err
	}
	return merged, false, nil
}

// indexOf must be called with s.mu held.
func (s *Portfolio) indexOf(contractID int64) (int, error) {
	found := -1
	for i, p := range s.positions {
		if p.ContractID() != contractID {
			continue
		}
		if found >= 0 {
			return -1, apperrors.NewContractError(contractID, "portfolio lookup", apperrors.ErrDuplicateContract)
		}
		found = i
	}
	if found < 0 {
		return -1, apperrors.NewContractError(contractID, "portfolio lookup", apperrors.ErrPositionNotFound)
	}
	return found, nil
}

// GetByContractID returns a copy of the position holding contractID.
func (s *Portfolio) GetByContractID(contractID int64) (*option.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.indexOf(contractID)
	if err != nil {
		return nil, err
	}
	return s.positions[idx].Clone(), nil
}

// Positions returns copies of the positions in insertion order.
func (s *Portfolio) Positions() []*option.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*option.Position, len(s.positions))
	for i, p := range s.positions {
		out[i] = p.Clone()
	}
	return out
}

// Legs returns the construction parameters of every position, for persistence.
func (s *Portfolio) Legs() []models.Leg {
	s.mu.RLock()
	defer s.mu.RUnlock()

	legs := make([]models.Leg, len(s.positions))
	for i, p := range s.positions {
		legs[i] = p.Leg()
	}
	return legs
}

// Len returns the number of positions.
func (s *Portfolio) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

// Warnings returns the non-fatal warnings raised by Add.
func (s *Portfolio) Warnings() []*apperrors.Warning {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*apperrors.Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// PayoffAt returns the summed payoff of every position at price.
func (s *Portfolio) PayoffAt(price float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payoffAt(price)
}

func (s *Portfolio) payoffAt(price float64) float64 {
	var total float64
	for _, p := range s.positions {
		total += p.PayoffAt(price)
	}
	return total
}

// rangeTolerance lets an end price reached through float steps count as on the grid.
const rangeTolerance = 1e-9

// MaxPricePoints caps the number of prices a single range may produce.
const MaxPricePoints = 1_000_000

// Prices returns start, start+step, ... up to and including end when it lies on a step.
func Prices(start, end, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRange, "step %v must be positive", step)
	}
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRange, "bounds [%v, %v] must be finite", start, end)
	}
	if end < start {
		return []float64{}, nil
	}
	count := math.Floor((end-start)/step + rangeTolerance)
	if math.IsInf(count, 0) || math.IsNaN(count) || count >= MaxPricePoints {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRange, "[%v, %v] step %v yields more than %d prices", start, end, step, MaxPricePoints)
	}
	prices := make([]float64, int(count)+1)
	for i := range prices {
		prices[i] = start + float64(i)*step
	}
	return prices, nil
}

// EvaluateRange returns the portfolio payoff at every price of Prices(start, end, step).
func (s *Portfolio) EvaluateRange(start, end, step float64) ([]float64, error) {
	prices, err := Prices(start, end, step)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]float64, len(prices))
	for i, price := range prices {
		values[i] = s.payoffAt(price)
	}
	return values, nil
}

// Curve returns price/payoff pairs for a payoff diagram.
func (s *Portfolio) Curve(start, end, step float64) ([]models.PayoffPoint, error) {
	prices, err := Prices(start, end, step)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	points := make([]models.PayoffPoint, len(prices))
	for i, price := range prices {
		points[i] = models.PayoffPoint{Price: price, Payoff: s.payoffAt(price)}
	}
	return points, nil
}

// StrikeRange returns the lowest and highest strike held.
func (s *Portfolio) StrikeRange() (float64, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.positions) == 0 {
		return 0, 0, apperrors.ErrEmptyPortfolio
	}
	lo, hi := s.positions[0].Strike(), s.positions[0].Strike()
	for _, p := range s.positions[1:] {
		lo = math.Min(lo, p.Strike())
		hi = math.Max(hi, p.Strike())
	}
	return lo, hi, nil
}

// DefaultRange widens the strike range by padding (a fraction of the mid strike
// on each side) and snaps both ends outward onto multiples of step.
func (s *Portfolio) DefaultRange(padding, step float64) (float64, float64, error) {
	if !(step > 0) {
		return 0, 0, apperrors.Wrapf(apperrors.ErrInvalidRange, "step %v must be positive", step)
	}
	lo, hi, err := s.StrikeRange()
	if err != nil {
		return 0, 0, err
	}
	pad := padding * (lo + hi) / 2
	start := math.Floor((lo-pad)/step) * step
	end := math.Ceil((hi+pad)/step) * step
	if start < 0 {
		start = 0
	}
	return start, end, nil
}

// String renders one position per line.
func (s *Portfolio) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, len(s.positions))
	for i, p := range s.positions {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}

func terms(p *option.Position) string {
	return fmt.Sprintf("%s %g x%g", p.Kind(), p.Strike(), p.Multiplier())
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
