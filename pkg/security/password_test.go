package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = config.PasswordConfig{
	ArgonMemoryKB:    32768,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$"))

	ok, err := security.VerifyPassword("very-secure-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("bogus-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", testParams)
	assert.Error(t, err)
}

func TestVerifyPasswordBadHash(t *testing.T) {
	_, err := security.VerifyPassword("irrelevant", "not-a-hash")
	assert.ErrorIs(t, err, security.ErrInvalidHash)

	_, err = security.VerifyPassword("irrelevant", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, security.ErrInvalidHash)
}

func TestNeedsRehash(t *testing.T) {
	hash, err := security.HashPassword("pw", testParams)
	require.NoError(t, err)
	assert.False(t, security.NeedsRehash(hash, testParams))

	stronger := testParams
	stronger.ArgonTime = 3
	assert.True(t, security.NeedsRehash(hash, stronger))
	assert.True(t, security.NeedsRehash("garbage", testParams))
}
