package license

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"

	"phoenixstudio.dev/licensing/canonical"
)

// decodeBase64 accepts standard base64 with or without padding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// DecodePublicKey decodes a base64 Ed25519 public key and checks its size.
func DecodePublicKey(s string) ([]byte, error) {
	key, err := decodeBase64(s)
	if err != nil {
		return nil, wrapError(KindConfig, RulePublicKeySize, "invalid public key base64", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, newError(KindConfig, RulePublicKeySize,
			fmt.Sprintf("invalid public key size %d, expected %d", len(key), ed25519.PublicKeySize))
	}
	return key, nil
}

// splitSignature returns a copy of doc without the signature member and the
// decoded signature bytes.
func splitSignature(doc canonical.Object) (canonical.Object, []byte, error) {
	raw, ok := doc[FieldSignature]
	if !ok {
		return nil, nil, newError(KindCrypto, RuleSignatureMissing, "missing signature field")
	}
	s, ok := raw.(canonical.String)
	if !ok {
		return nil, nil, newError(KindCrypto, RuleSignatureType, "signature field must be a string")
	}
	sig, err := decodeBase64(string(s))
	if err != nil {
		return nil, nil, wrapError(KindCrypto, RuleSignatureBase64, "invalid signature base64", err)
	}
	if len(sig) == 0 {
		return nil, nil, newError(KindCrypto, RuleSignatureMissing, "empty signature field")
	}
	rest := doc.Clone()
	delete(rest, FieldSignature)
	return rest, sig, nil
}

func checkPublicKey(key []byte) error {
	if len(key) != ed25519.PublicKeySize {
		return newError(KindConfig, RulePublicKeySize,
			fmt.Sprintf("invalid public key size %d, expected %d", len(key), ed25519.PublicKeySize))
	}
	return nil
}

func verifySignature(publicKey, message, sig []byte) error {
	if err := checkPublicKey(publicKey); err != nil {
		return err
	}
	if len(sig) != ed25519.SignatureSize {
		return newError(KindCrypto, RuleSignatureSize,
			fmt.Sprintf("invalid signature size %d, expected %d", len(sig), ed25519.SignatureSize))
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), message, sig) {
		return newError(KindCrypto, RuleSignatureInvalid, "signature verification failed")
	}
	return nil
}
