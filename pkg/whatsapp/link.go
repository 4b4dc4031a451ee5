package whatsapp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const baseURL = "https://wa.me/"

var ErrPhoneRequired = errors.New("whatsapp phone number is not configured")

// Line is one purchased item as shown in the prefilled message.
type Line struct {
	Name     string
	Quantity int
}

// Order is what the buyer tells the seller after paying.
type Order struct {
	Reference string
	Email     string
	Total     string
	Lines     []Line
}

// Linker builds prefilled chat links to one seller number.
type Linker struct {
	phone    string
	greeting string
}

// NewLinker keeps only the digits of phone, as wa.me expects.
func NewLinker(phone, greeting string) *Linker {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	return &Linker{phone: digits, greeting: strings.TrimSpace(greeting)}
}

// Link returns https://wa.me/<phone>?text=<message>.
func (l *Linker) Link(order Order) (string, error) {
	if l == nil || l.phone == "" {
		return "", ErrPhoneRequired
	}
	return baseURL + l.phone + "?text=" + url.QueryEscape(l.message(order)), nil
}

func (l *Linker) message(order Order) string {
	var b strings.Builder
	if l.greeting != "" {
		b.WriteString(l.greeting)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Reference: %s\n", order.Reference)
	if order.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", order.Email)
	}
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "- %s x%d\n", line.Name, line.Quantity)
	}
	if order.Total != "" {
		fmt.Fprintf(&b, "Total: %s", order.Total)
	}
	return strings.TrimRight(b.String(), "\n")
}
