package keys

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/ed25519"
	"golang.org/x/crypto/sha3"
)

// PrivateKeyFromSeed expands a 32-byte seed into an Ed25519 private key.
func PrivateKeyFromSeed(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// PublicKeyFromSeed returns the Ed25519 public key for seed.
func PublicKeyFromSeed(seed []byte) (ed25519.PublicKey, error) {
	priv, err := PrivateKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	return priv.Public().(ed25519.PublicKey), nil
}

// PublicKeyBase64 encodes pub in the form PHOENIX_LICENSE_PUBLIC_KEY expects.
func PublicKeyBase64(pub ed25519.PublicKey) (string, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	return base64.StdEncoding.EncodeToString(pub), nil
}

// Fingerprint is a short, stable identifier for a public key: the first 8
// bytes of its SHA3-256 digest, hex encoded.
func Fingerprint(pub ed25519.PublicKey) string {
	sum := sha3.Sum256(pub)
	return hex.EncodeToString(sum[:8])
}

// GenerateSeed reads a fresh seed from rand.
func GenerateSeed(rand io.Reader) ([]byte, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rand, seed); err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}
