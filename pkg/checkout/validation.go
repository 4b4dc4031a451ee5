package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
)

// AttemptInput is what must hold before a payment widget may be opened.
type AttemptInput struct {
	Email     string
	PublicKey string
	Total     decimal.Decimal
	Lines     int
}

// ValidateAttempt checks the preconditions of a checkout submit. A missing
// public key is a configuration problem, everything else is the buyer's input.
func ValidateAttempt(input AttemptInput) error {
	if strings.TrimSpace(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required").WithDetails(map[string]any{
			"field": "email",
		})
	}
	if strings.TrimSpace(input.PublicKey) == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "payment is not configured")
	}
	if input.Lines == 0 || !input.Total.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").WithDetails(map[string]any{
			"lines": input.Lines,
			"total": input.Total.String(),
		})
	}
	return nil
}
