package binance

import (
	"strings"

	"github.com/shopspring/decimal"
)

type symbolFilters struct {
	tickSize decimal.Decimal
	stepSize decimal.Decimal
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// roundToTick rounds price to the nearest multiple of tick.
func roundToTick(price float64, tick decimal.Decimal) float64 {
	if !tick.IsPositive() {
		return price
	}
	v, _ := decimal.NewFromFloat(price).Div(tick).Round(0).Mul(tick).Float64()
	return v
}

// truncateToStep rounds amount down to a multiple of step so the order never
// exceeds the sized position.
func truncateToStep(amount float64, step decimal.Decimal) float64 {
	if !step.IsPositive() {
		return amount
	}
	v, _ := decimal.NewFromFloat(amount).Div(step).Floor().Mul(step).Float64()
	return v
}

// formatStep renders v with as many decimals as step carries.
func formatStep(v float64, step decimal.Decimal) string {
	d := decimal.NewFromFloat(v)
	if !step.IsPositive() {
		return d.String()
	}
	return d.StringFixed(stepPlaces(step))
}

// stepPlaces counts the significant decimals of step ("0.00100000" has 3).
func stepPlaces(step decimal.Decimal) int32 {
	s := step.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return int32(len(s) - i - 1)
	}
	return 0
}
