package license

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/cidutil"
	"phoenixstudio.dev/licensing/compliance"
)

// Verifier checks signed license documents against one Ed25519 public key.
// It fails closed: any error yields no License.
type Verifier struct {
	publicKey []byte
	fs        afero.Fs
	log       logrus.FieldLogger
	mode      compliance.Mode
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithFs sets the filesystem LoadAndVerify reads from.
func WithFs(fs afero.Fs) Option {
	return func(v *Verifier) { v.fs = fs }
}

// WithLogger sets the logger used for verification diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(v *Verifier) { v.log = l }
}

// WithMode sets the compliance mode. The default is compliance.Permissive.
func WithMode(m compliance.Mode) Option {
	return func(v *Verifier) { v.mode = m }
}

func newVerifier(publicKey []byte, opts ...Option) *Verifier {
	v := &Verifier{
		publicKey: append([]byte(nil), publicKey...),
		fs:        afero.NewOsFs(),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.WithField("component", "license-verifier")
	return v
}

// NewVerifier returns a verifier for publicKey. A key of the wrong size is
// logged and every later verification fails.
func NewVerifier(publicKey []byte, opts ...Option) *Verifier {
	v := newVerifier(publicKey, opts...)
	if err := checkPublicKey(v.publicKey); err != nil {
		v.log.WithField("size", len(v.publicKey)).Warn("Invalid public key size")
	}
	return v
}

// PublicKey returns a copy of the verification key.
func (v *Verifier) PublicKey() []byte {
	if v == nil {
		return nil
	}
	return append([]byte(nil), v.publicKey...)
}

// Mode returns the compliance mode in effect.
func (v *Verifier) Mode() compliance.Mode {
	if v == nil {
		return compliance.Permissive
	}
	return v.mode
}

// LoadAndVerify reads the license file at path and verifies it.
func (v *Verifier) LoadAndVerify(path string) (*License, error) {
	if v == nil {
		return nil, newError(KindConfig, RuleVerifierUnset, "license verifier not configured")
	}
	data, err := afero.ReadFile(v.fs, path)
	if err != nil {
		err = wrapError(KindIO, RuleRead, "failed to open license file", err)
		v.warn(path, err)
		return nil, err
	}
	lic, err := v.verifyBytes(data)
	if err != nil {
		v.warn(path, err)
		return nil, err
	}
	return lic, nil
}

// Verify parses data as a signed license document and verifies it.
func (v *Verifier) Verify(data []byte) (*License, error) {
	if v == nil {
		return nil, newError(KindConfig, RuleVerifierUnset, "license verifier not configured")
	}
	lic, err := v.verifyBytes(data)
	if err != nil {
		v.warn("", err)
		return nil, err
	}
	return lic, nil
}

// VerifyDocument verifies signature over the canonical form of doc, which
// must not contain the signature member.
func (v *Verifier) VerifyDocument(doc canonical.Object, signature []byte) (*License, error) {
	if v == nil {
		return nil, newError(KindConfig, RuleVerifierUnset, "license verifier not configured")
	}
	lic, err := v.verifyDocument(doc, signature)
	if err != nil {
		v.warn("", err)
		return nil, err
	}
	return lic, nil
}

func (v *Verifier) verifyBytes(data []byte) (*License, error) {
	val, err := canonical.Decode(data)
	if err != nil {
		return nil, wrapError(KindFormat, RuleParse, "failed to parse license JSON", err)
	}
	doc, ok := val.(canonical.Object)
	if !ok {
		return nil, newError(KindFormat, RuleNotObject, "license JSON document is not an object")
	}
	rest, sig, err := splitSignature(doc)
	if err != nil {
		return nil, err
	}
	return v.verifyDocument(rest, sig)
}

func (v *Verifier) verifyDocument(doc canonical.Object, sig []byte) (*License, error) {
	if err := checkPublicKey(v.publicKey); err != nil {
		return nil, err
	}
	p := &payload{doc: doc, mode: v.mode}
	if err := applyRules(p, payloadRules); err != nil {
		return nil, err
	}
	msg, err := canonical.Serialize(doc)
	if err != nil {
		return nil, wrapError(KindFormat, RuleCanonicalize, "failed to canonicalize license", err)
	}
	if err := verifySignature(v.publicKey, msg, sig); err != nil {
		return nil, err
	}
	lic := New(p.subject, p.features, p.issuedAt, p.expiresAt)
	if id, err := cidutil.ContentID(msg); err == nil {
		lic.id = id
	}
	return lic, nil
}

func (v *Verifier) warn(path string, err error) {
	entry := v.log.WithError(err).WithFields(logrus.Fields{
		"kind": KindOf(err),
		"rule": RuleID(err),
	})
	if path != "" {
		entry = entry.WithField("path", path)
	}
	entry.Warn("License verification failed")
}
