package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/activault/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifySecret(t *testing.T) {
	t.Parallel()

	secret := cryptox.MustGenerateToken(cryptox.TokenSize256)

	hash, err := cryptox.HashSecret(secret)
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$")

	require.NoError(t, cryptox.VerifySecret(secret, hash))
	require.Error(t, cryptox.VerifySecret("wrong-secret", hash))
}

func TestVerifySecretRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	require.Error(t, cryptox.VerifySecret("secret", "not-a-hash"))
	require.Error(t, cryptox.VerifySecret("secret", "$argon2i$v=19$m=1,t=1,p=1$abc$def"))
}

func TestGenerateTokenRejectsNonPositiveSize(t *testing.T) {
	t.Parallel()

	_, err := cryptox.GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintIsDeterministic(t *testing.T) {
	t.Parallel()

	a := cryptox.FingerprintToken("token")
	b := cryptox.FingerprintToken("token")
	c := cryptox.FingerprintToken("other")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
