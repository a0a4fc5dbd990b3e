package license

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"

	"phoenixstudio.dev/licensing/canonical"
)

// Claims is the unsigned content of a license document, used by issuers.
type Claims struct {
	Subject   string
	Features  []string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// Document renders the claims as a license payload with canonical
// timestamps. expires_at is null for a perpetual license.
func (c Claims) Document() canonical.Object {
	features := make(canonical.Array, len(c.Features))
	for i, f := range c.Features {
		features[i] = canonical.String(f)
	}
	doc := canonical.Object{
		FieldSubject:   canonical.String(c.Subject),
		FieldIssuedAt:  canonical.String(canonical.FormatTimestamp(c.IssuedAt)),
		FieldExpiresAt: canonical.Null{},
		FieldFeatures:  features,
	}
	if c.ExpiresAt != nil {
		doc[FieldExpiresAt] = canonical.String(canonical.FormatTimestamp(*c.ExpiresAt))
	}
	return doc
}

// SignDocument returns a copy of doc with a signature member over its
// canonical form.
func SignDocument(doc canonical.Object, priv ed25519.PrivateKey) (canonical.Object, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	if _, ok := doc[FieldSignature]; ok {
		return nil, fmt.Errorf("document already contains a %q field", FieldSignature)
	}
	msg, err := canonical.Serialize(doc)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	sig := ed25519.Sign(priv, msg)
	out := doc.Clone()
	out[FieldSignature] = canonical.String(base64.StdEncoding.EncodeToString(sig))
	return out, nil
}

// Sign produces the bytes of a signed license file for c.
func Sign(c Claims, priv ed25519.PrivateKey) ([]byte, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	signed, err := SignDocument(c.Document(), priv)
	if err != nil {
		return nil, err
	}
	return canonical.Serialize(signed)
}
