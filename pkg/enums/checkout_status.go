package enums

import "fmt"

// CheckoutStatus is the state of a browsing session's checkout attempt.
type CheckoutStatus string

const (
	CheckoutStatusIdle       CheckoutStatus = "idle"
	CheckoutStatusProcessing CheckoutStatus = "processing"
	CheckoutStatusSuccess    CheckoutStatus = "success"
	CheckoutStatusFailed     CheckoutStatus = "failed"
	// CheckoutStatusCancelled marks an attempt the buyer closed before paying.
	CheckoutStatusCancelled CheckoutStatus = "cancelled"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusIdle,
	CheckoutStatusProcessing,
	CheckoutStatusSuccess,
	CheckoutStatusFailed,
	CheckoutStatusCancelled,
}

func (s CheckoutStatus) String() string {
	return string(s)
}

func (s CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt has settled.
func (s CheckoutStatus) IsTerminal() bool {
	switch s {
	case CheckoutStatusSuccess, CheckoutStatusFailed, CheckoutStatusCancelled:
		return true
	}
	return false
}

func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}
