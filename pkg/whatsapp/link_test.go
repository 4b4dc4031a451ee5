package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkEncodesMessage(t *testing.T) {
	linker := NewLinker("+234 (801) 234-5678", "Hi!")
	link, err := linker.Link(Order{
		Reference: "ref_42",
		Email:     "a@b.co",
		Total:     "$2.00",
		Lines:     []Line{{Name: "Go & You", Quantity: 2}},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://wa.me/2348012345678?text="))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hi!\nReference: ref_42\nEmail: a@b.co\n- Go & You x2\nTotal: $2.00", parsed.Query().Get("text"))
}

func TestLinkRequiresPhone(t *testing.T) {
	_, err := NewLinker("  ", "").Link(Order{Reference: "ref_1"})
	assert.ErrorIs(t, err, ErrPhoneRequired)

	var nilLinker *Linker
	_, err = nilLinker.Link(Order{})
	assert.ErrorIs(t, err, ErrPhoneRequired)
}
