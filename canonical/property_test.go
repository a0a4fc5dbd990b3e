package canonical

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gowebpki/jcs"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// objectText writes a JSON object with members in the given key order.
func objectText(keys []string, values map[string]string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(values[k])
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Property: member order in the source text never changes the canonical bytes.
func TestCanonicalFormIgnoresMemberOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("reordered members canonicalize identically", prop.ForAll(
		func(keys []string, value string) bool {
			keys = uniqueKeys(keys)
			values := make(map[string]string, len(keys))
			for i, k := range keys {
				values[k] = value + strings.Repeat("x", i)
			}
			reversed := make([]string, len(keys))
			for i, k := range keys {
				reversed[len(keys)-1-i] = k
			}

			a, errA := Decode([]byte(objectText(keys, values)))
			b, errB := Decode([]byte(objectText(reversed, values)))
			if errA != nil || errB != nil {
				return false
			}
			sa, errA := Serialize(a)
			sb, errB := Serialize(b)
			return errA == nil && errB == nil && string(sa) == string(sb)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: the canonical form agrees with an independent RFC 8785 encoder.
func TestCanonicalFormMatchesJCS(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Serialize equals jcs.Transform", prop.ForAll(
		func(m map[string]string, n int64) bool {
			raw := make(map[string]any, len(m)+1)
			for k, v := range m {
				raw[k] = v
			}
			raw["_n"] = n
			text, err := json.Marshal(raw)
			if err != nil {
				return false
			}
			want, err := jcs.Transform(text)
			if err != nil {
				return false
			}
			v, err := Decode(text)
			if err != nil {
				return false
			}
			got, err := Serialize(v)
			return err == nil && string(got) == string(want)
		},
		gen.MapOf(gen.AlphaString(), gen.AlphaString()),
		gen.Int64Range(-1<<52, 1<<52),
	))

	properties.TestingRun(t)
}

// Property: canonical bytes are a fixed point of Decode followed by Serialize.
func TestCanonicalFormIsFixedPoint(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("Serialize(Decode(Serialize(v))) == Serialize(v)", prop.ForAll(
		func(tags []string, version int64) bool {
			arr := make(Array, len(tags))
			for i, s := range tags {
				arr[i] = String(s)
			}
			first, err := Serialize(Object{"tags": arr, "version": Int(version)})
			if err != nil {
				return false
			}
			v, err := Decode(first)
			if err != nil {
				return false
			}
			second, err := Serialize(v)
			return err == nil && string(first) == string(second)
		},
		gen.SliceOf(gen.AnyString()),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
