// pkg/valueobjects/money.go
package valueobjects

import (
	"fmt"
	"strings"

	"github.com/logiflow/dispatch-backend/errors"
	"github.com/shopspring/decimal"
)

// Currency represents a valid ISO 4217 currency code
type Currency string

// Settlements are paid in won only.
const KRW Currency = "KRW"

const ErrInvalidCurrency = "INVALID_CURRENCY"

// ParseCurrency validates a configured currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if c != KRW {
		return "", errors.ValidationFailed(
			ErrInvalidCurrency,
			fmt.Sprintf("currency %s is not supported", code),
		)
	}
	return c, nil
}

// Money is an exact won amount. Amounts are signed: settlement deductions
// are carried as negative values. The zero value is zero won.
type Money struct {
	amount decimal.Decimal
}

// Won is shorthand for a KRW amount.
func Won(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub subtracts other from m. The result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

// Abs returns the magnitude.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs()}
}

// MulRate multiplies by rate without rounding.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{amount: Percentage(m.amount, rate)}
}

// Percentage returns amount * rate exactly. No rounding is applied, so
// 333333 * 0.1 is 33333.3.
func Percentage(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// FormatKRW rounds half away from zero to whole won and groups thousands,
// e.g. 299999.7 -> "₩300,000". Only use at display boundaries.
func FormatKRW(amount decimal.Decimal) string {
	return "₩" + groupThousands(amount.Round(0).String())
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
