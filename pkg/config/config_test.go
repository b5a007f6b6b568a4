package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must be non-negative")
	}
	return nil
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeYAML(t, "name: ${SAMPLE_NAME}\n")
	s := sample{Count: 7}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" {
		t.Errorf("name = %q", s.Name)
	}
	if s.Count != 7 {
		t.Errorf("count = %d, default should survive", s.Count)
	}
}

func TestLoad_Validates(t *testing.T) {
	p := writeYAML(t, "count: -1\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	p := writeYAML(t, "name: [unclosed\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadIfExists(t *testing.T) {
	s := sample{Name: "default"}
	ok, err := LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	if err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}
	if s.Name != "default" {
		t.Errorf("target modified: %+v", s)
	}

	ok, err = LoadIfExists(writeYAML(t, "name: loaded\n"), &s)
	if err != nil || !ok {
		t.Fatalf("existing file: ok=%v err=%v", ok, err)
	}
	if s.Name != "loaded" {
		t.Errorf("name = %q", s.Name)
	}
}
