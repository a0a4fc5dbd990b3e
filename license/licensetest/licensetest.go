// Package licensetest provides deterministic keys and signed license fixtures
// for tests.
package licensetest

import (
	"bytes"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/spf13/afero"

	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/license"
)

// Keypair returns an Ed25519 key pair derived from a seed filled with
// seedByte, so fixtures are reproducible.
func Keypair(t testing.TB, seedByte byte) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	seed := bytes.Repeat([]byte{seedByte}, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		t.Fatalf("unexpected public key type %T", priv.Public())
	}
	return pub, priv
}

// PublicKeyBase64 encodes pub the way PHOENIX_LICENSE_PUBLIC_KEY expects.
func PublicKeyBase64(pub ed25519.PublicKey) string {
	return base64.StdEncoding.EncodeToString(pub)
}

// Signed returns the bytes of a license file for claims signed by priv.
func Signed(t testing.TB, priv ed25519.PrivateKey, claims license.Claims) []byte {
	t.Helper()
	data, err := license.Sign(claims, priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return data
}

// SignedObject signs an arbitrary payload object, for documents the Claims
// type cannot express.
func SignedObject(t testing.TB, priv ed25519.PrivateKey, doc canonical.Object) []byte {
	t.Helper()
	signed, err := license.SignDocument(doc, priv)
	if err != nil {
		t.Fatalf("SignDocument: %v", err)
	}
	data, err := canonical.Serialize(signed)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return data
}

// WriteFile stores data at path on fs, creating parent directories.
func WriteFile(t testing.TB, fs afero.Fs, path string, data []byte) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
