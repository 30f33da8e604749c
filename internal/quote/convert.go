package quote

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// Quote units accepted by NewConverter
const (
	UnitTola      = "tola"
	UnitTroyOunce = "troy_ounce"
)

var (
	gramsPerTola      = decimal.RequireFromString("11.6638038")
	gramsPerTroyOunce = decimal.RequireFromString("31.1034768")
)

// Converter rescales a quote into the stored currency per tola:
// price * rate * unit factor
type Converter struct {
	factor decimal.Decimal
}

// NewConverter builds a Converter for quotes in unit, multiplied by rate
func NewConverter(unit string, rate float64) (Converter, error) {
	if rate <= 0 {
		return Converter{}, fmt.Errorf("fx rate must be positive, got %v", rate)
	}

	factor := decimal.NewFromFloat(rate)
	switch unit {
	case "", UnitTola:
	case UnitTroyOunce:
		factor = factor.Mul(gramsPerTola).Div(gramsPerTroyOunce)
	default:
		return Converter{}, fmt.Errorf("unknown quote unit %q", unit)
	}

	return Converter{factor: factor}, nil
}

// Identity reports whether Apply leaves quotes unchanged
func (c Converter) Identity() bool {
	return c.factor.IsZero() || c.factor.Equal(decimal.NewFromInt(1))
}

// Apply converts q. The zero Converter is the identity.
func (c Converter) Apply(q models.Quote) models.Quote {
	if c.Identity() {
		return q
	}
	return models.Quote{
		Gold:   q.Gold.Mul(c.factor),
		Silver: q.Silver.Mul(c.factor),
	}
}
