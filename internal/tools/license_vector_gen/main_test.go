package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"phoenixstudio.dev/licensing/license"
)

func TestCheckedInVectorsAreCurrent(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewOsFs())
	stale, err := regenerate(fs, filepath.Join("..", "..", "..", "canonical", "testdata", "vectors"), false)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("stale vectors: %v", stale)
	}
}

func TestRegenerateRewritesStaleOutputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/v/a.json", []byte(`{"z": 1, "a": [1.5, "x"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/v/a.canonical", []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/v/b.json", []byte(`null`), 0o644); err != nil {
		t.Fatal(err)
	}

	stale, err := regenerate(fs, "/v", true)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if strings.Join(stale, ",") != "a.canonical,b.canonical" {
		t.Fatalf("unexpected stale list %v", stale)
	}
	got, _ := afero.ReadFile(fs, "/v/a.canonical")
	if string(got) != `{"a":[1.5,"x"],"z":1}` {
		t.Fatalf("unexpected canonical output %s", got)
	}

	stale, err = regenerate(fs, "/v", false)
	if err != nil || len(stale) != 0 {
		t.Fatalf("second pass = %v, %v", stale, err)
	}
}

func TestRegenerateEmptyDir(t *testing.T) {
	if _, err := regenerate(afero.NewMemMapFs(), "/none", false); err == nil {
		t.Fatal("expected error for a directory without vectors")
	}
}

func TestConformanceLicenseVerifies(t *testing.T) {
	var buf bytes.Buffer
	if err := writeConformanceLicense(&buf); err != nil {
		t.Fatalf("writeConformanceLicense: %v", err)
	}
	out := buf.String()

	var pub, id string
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "PUBLIC_KEY="); ok {
			pub = v
		}
		if v, ok := strings.CutPrefix(line, "ID="); ok {
			id = v
		}
	}
	begin := strings.Index(out, "---BEGIN---\n")
	end := strings.Index(out, "\n---END---")
	if pub == "" || id == "" || begin < 0 || end < begin {
		t.Fatalf("malformed output:\n%s", out)
	}
	doc := out[begin+len("---BEGIN---\n") : end]

	key, err := license.DecodePublicKey(pub)
	if err != nil {
		t.Fatalf("DecodePublicKey: %v", err)
	}
	lic, err := license.NewVerifier(key).Verify([]byte(doc))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if lic.ID() != id {
		t.Fatalf("id = %s, want %s", lic.ID(), id)
	}
	if !lic.IsValid(time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("conformance license should be valid before 2030")
	}

	var again bytes.Buffer
	if err := writeConformanceLicense(&again); err != nil {
		t.Fatal(err)
	}
	if again.String() != out {
		t.Fatal("conformance license is not deterministic")
	}
}
