/**
 * @description
 * Monetary value handling. Amounts arrive either as integer cents (boleto
 * nominal values) or as decimal reais (billing plan values); Money keeps the
 * two constructors separate so a value is never converted twice.
 */
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

// Money is a BRL amount stored in currency units.
type Money struct {
	value decimal.Decimal
}

// MoneyFromCents builds a Money from integer minor units.
func MoneyFromCents(cents int64) Money {
	return Money{value: decimal.NewFromInt(cents).Div(centsFactor)}
}

// MoneyFromDecimal builds a Money from a major-unit decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d}
}

// Cents returns the amount in integer minor units.
func (m Money) Cents() int64 {
	return m.value.Mul(centsFactor).Round(0).IntPart()
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// FormatBRL renders the amount as "R$ 1.234,56" (Brazilian grouping and
// decimal separators, always two decimal places).
func (m Money) FormatBRL() string {
	fixed := m.value.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	out := "R$ " + grouped.String() + "," + fracPart
	if neg {
		out = "R$ -" + grouped.String() + "," + fracPart
	}
	return out
}
