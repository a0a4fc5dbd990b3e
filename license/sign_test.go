package license

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenixstudio.dev/licensing/canonical"
)

func mustKeypair(t *testing.T, seedByte byte) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seedByte}, ed25519.SeedSize))
	return priv.Public().(ed25519.PublicKey), priv
}

func TestClaimsDocument(t *testing.T) {
	exp := time.Date(2026, 6, 1, 12, 0, 0, 999_999_999, time.UTC)
	doc := Claims{
		Subject:   "Acme",
		Features:  []string{"b", "a"},
		IssuedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt: &exp,
	}.Document()

	b, err := canonical.Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"expires_at":"2026-06-01T12:00:00.999Z","features":["b","a"],"issued_at":"2025-06-01T12:00:00.000Z","subject":"Acme"}`, string(b))
}

func TestSignProducesVerifiableFile(t *testing.T) {
	pub, priv := mustKeypair(t, 7)
	data, err := Sign(Claims{Subject: "Acme", Features: []string{"x"}, IssuedAt: time.Unix(0, 0)}, priv)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"expires_at":null,"features":["x"],"issued_at":"1970-01-01T00:00:00.000Z","signature":"`))

	lic, err := NewVerifier(pub).Verify(data)
	require.NoError(t, err)
	assert.Equal(t, "Acme", lic.Subject())
}

func TestSignRejectsBadInput(t *testing.T) {
	_, priv := mustKeypair(t, 7)
	_, err := Sign(Claims{}, priv)
	assert.Error(t, err)

	_, err = SignDocument(canonical.Object{"subject": canonical.String("a")}, priv[:10])
	assert.Error(t, err)

	_, err = SignDocument(canonical.Object{"signature": canonical.String("x")}, priv)
	assert.Error(t, err)
}

func TestSignIsDeterministic(t *testing.T) {
	_, priv := mustKeypair(t, 8)
	claims := Claims{Subject: "Acme", Features: []string{"x"}, IssuedAt: time.Unix(1700000000, 0)}
	a, err := Sign(claims, priv)
	require.NoError(t, err)
	b, err := Sign(claims, priv)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
