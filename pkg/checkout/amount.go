package checkout

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

const maxReferenceNumber = 1_000_000_000

var hundred = decimal.NewFromInt(100)

// MinorUnits scales a converted total to the integer amount the widget takes.
// It always multiplies by 100 and ignores how many minor units the currency
// itself defines. That matches what the payment provider expects for every
// supported currency; one with zero or three decimals would be mis-charged.
func MinorUnits(converted decimal.Decimal) int64 {
	return converted.Mul(hundred).Round(0).IntPart()
}

// ReferenceGenerator yields payment references.
type ReferenceGenerator func() string

// RandomReference returns ref_<n> with n uniform in [1, 1e9].
func RandomReference() string {
	return FormatReference(rand.Int64N(maxReferenceNumber) + 1)
}

func FormatReference(n int64) string {
	return fmt.Sprintf("ref_%d", n)
}
