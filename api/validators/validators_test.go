package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Currency string `json:"currency" validate:"required,currency_code"`
	Quantity int    `json:"quantity" validate:"min=1,max=99"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"","currency":"EUR","quantity":0}`))

	var payload submitPayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["email"])
	assert.Contains(t, details["currency"], "NGN")
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyAcceptsLowercaseCurrency(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"buyer@example.com","currency":"usd","quantity":2}`))

	var payload submitPayload
	require.NoError(t, DecodeJSONBody(req, &payload))
	assert.Equal(t, 2, payload.Quantity)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","currency":"NGN","quantity":1,"extra":true}`))

	var payload submitPayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)
	assert.Equal(t, "invalid request body", pkgerrors.As(err).Message())
}

func TestParseQueryDecimal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?amount=5000.50", nil)
	value, err := ParseQueryDecimal(req, "amount")
	require.NoError(t, err)
	assert.Equal(t, "5000.5", value.String())

	req = httptest.NewRequest(http.MethodGet, "/?amount=-1", nil)
	_, err = ParseQueryDecimal(req, "amount")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = ParseQueryDecimal(req, "amount")
	assert.Error(t, err)
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	assert.Error(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	value, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, value)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeString("  <b>hello</b> world<script>alert(1)</script> ", 0))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
	assert.Equal(t, "Tom & Jerry", SanitizeString("Tom &amp; Jerry", 0))
}

func TestSanitizeHTMLKeepsFormatting(t *testing.T) {
	out := SanitizeHTML(`<p>Built with <strong>Go</strong><script>x()</script></p>`)
	assert.Equal(t, "<p>Built with <strong>Go</strong></p>", out)
}
