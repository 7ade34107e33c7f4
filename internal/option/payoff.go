package option

import "optstrat/internal/models"

// payoffModel holds the closed-form formulas for one option kind.
// Both models treat the strike itself as in the money.
type payoffModel interface {
	// exercise returns the per-unit exercise value at price, never negative.
	exercise(strike, price float64) float64
	inTheMoney(strike, price float64) bool
}

type callModel struct{}

func (callModel) exercise(strike, price float64) float64 {
	if price <= strike {
		return 0
	}
	return price - strike
}

func (callModel) inTheMoney(strike, price float64) bool {
	return price >= strike
}

type putModel struct{}

func (putModel) exercise(strike, price float64) float64 {
	if price >= strike {
		return 0
	}
	return strike - price
}

func (putModel) inTheMoney(strike, price float64) bool {
	return price <= strike
}

var payoffModels = map[models.OptionKind]payoffModel{
	models.Call: callModel{},
	models.Put:  putModel{},
}
