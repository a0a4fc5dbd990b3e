package license

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/compliance"
)

// Field names of the license payload.
const (
	FieldSubject   = "subject"
	FieldIssuedAt  = "issued_at"
	FieldExpiresAt = "expires_at"
	FieldFeatures  = "features"
	FieldSignature = "signature"
)

const schemaURL = "https://phoenixstudio.dev/schemas/license.schema.json"

//go:embed schema/license.schema.json
var schemaText string

var payloadSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaText)); err != nil {
		panic(fmt.Sprintf("license schema load failed: %v", err))
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("license schema compile failed: %v", err))
	}
	return compiled
}

var knownFields = map[string]bool{
	FieldSubject:   true,
	FieldIssuedAt:  true,
	FieldExpiresAt: true,
	FieldFeatures:  true,
}

// payload collects the typed fields of a document as rules accept them.
type payload struct {
	doc  canonical.Object
	mode compliance.Mode

	subject   string
	issuedAt  time.Time
	expiresAt *time.Time
	features  []string
}

// rule is an explicit, named check. Rules run in order and the first failure
// wins.
type rule struct {
	ID    string
	Apply func(*payload) error
}

func applyRules(p *payload, rules []rule) error {
	for _, r := range rules {
		if r.Apply == nil {
			return newError(KindInternal, RuleNilRule, "nil rule Apply")
		}
		if err := r.Apply(p); err != nil {
			return err
		}
	}
	return nil
}

// payloadRules check field presence, JSON types and values. They all run
// before the payload is canonicalized and the signature checked.
var payloadRules = []rule{
	{ID: RuleUnknownField, Apply: checkUnknownFields},
	{ID: RuleSchema, Apply: checkSchema},
	{ID: RuleSubjectEmpty, Apply: readSubject},
	{ID: RuleIssuedAt, Apply: readIssuedAt},
	{ID: RuleExpiresAt, Apply: readExpiresAt},
	{ID: RuleSchema, Apply: readFeatures},
}

func checkUnknownFields(p *payload) error {
	if p.mode != compliance.Strict {
		return nil
	}
	for _, k := range p.doc.Keys() {
		if !knownFields[k] {
			return newError(KindFormat, RuleUnknownField, fmt.Sprintf("unknown field %q", k))
		}
	}
	return nil
}

func checkSchema(p *payload) error {
	if err := payloadSchema.Validate(canonical.ToAny(p.doc)); err != nil {
		return wrapError(KindFormat, RuleSchema, "license schema validation failed", err)
	}
	return nil
}

func readSubject(p *payload) error {
	s, _ := p.doc[FieldSubject].(canonical.String)
	if s == "" {
		return newError(KindFormat, RuleSubjectEmpty, "empty subject field")
	}
	p.subject = string(s)
	return nil
}

func readIssuedAt(p *payload) error {
	s, _ := p.doc[FieldIssuedAt].(canonical.String)
	t, err := parseTimestampField(string(s), p.mode)
	if err != nil {
		return wrapError(KindFormat, ruleForTimestamp(err, RuleIssuedAt), "invalid issued_at field", err)
	}
	p.issuedAt = t
	return nil
}

func readExpiresAt(p *payload) error {
	v, ok := p.doc[FieldExpiresAt]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case canonical.Null:
		return nil
	case canonical.String:
		exp, err := parseTimestampField(string(t), p.mode)
		if err != nil {
			return wrapError(KindFormat, ruleForTimestamp(err, RuleExpiresAt), "invalid expires_at field", err)
		}
		p.expiresAt = &exp
		return nil
	default:
		return newError(KindFormat, RuleExpiresAt, "expires_at must be string or null")
	}
}

func readFeatures(p *payload) error {
	v, ok := p.doc[FieldFeatures]
	if !ok {
		return nil
	}
	arr, ok := v.(canonical.Array)
	if !ok {
		return newError(KindFormat, RuleSchema, "features must be an array")
	}
	features := make([]string, 0, len(arr))
	for i, e := range arr {
		s, ok := e.(canonical.String)
		if !ok {
			return newError(KindFormat, RuleSchema, fmt.Sprintf("features[%d] is not a string", i))
		}
		features = append(features, string(s))
	}
	p.features = features
	return nil
}

// errNonCanonicalTimestamp marks a parseable timestamp rejected by Strict mode.
type errNonCanonicalTimestamp struct{ value string }

func (e errNonCanonicalTimestamp) Error() string {
	return fmt.Sprintf("timestamp %q is not in %s form", e.value, canonical.TimestampLayout)
}

func parseTimestampField(s string, mode compliance.Mode) (time.Time, error) {
	if mode == compliance.Strict && !canonical.IsCanonicalTimestamp(s) {
		return time.Time{}, errNonCanonicalTimestamp{value: s}
	}
	return canonical.ParseTimestamp(s)
}

func ruleForTimestamp(err error, fallback string) string {
	if _, ok := err.(errNonCanonicalTimestamp); ok {
		return RuleTimestampForm
	}
	return fallback
}
