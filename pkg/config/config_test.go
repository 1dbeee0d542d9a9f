package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOptionalMissingKeepsDefaults(t *testing.T) {
	s := &sample{Name: "default", Limit: 3}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), s)
	if err != nil || loaded {
		t.Fatalf("LoadOptional = %v, %v", loaded, err)
	}
	if s.Name != "default" || s.Limit != 3 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestLoadOptionalValidatesDefaults(t *testing.T) {
	s := &sample{Limit: -1}
	if _, err := LoadOptional("", s); err == nil {
		t.Fatal("invalid defaults should fail validation")
	}
}

func TestLoadOverridesAndValidates(t *testing.T) {
	path := writeFile(t, "name: custom\n")
	s := &sample{Name: "default", Limit: 3}
	loaded, err := LoadOptional(path, s)
	if err != nil || !loaded {
		t.Fatalf("LoadOptional = %v, %v", loaded, err)
	}
	if s.Name != "custom" || s.Limit != 3 {
		t.Errorf("got %+v", s)
	}

	bad := writeFile(t, "limit: -5\n")
	err = Load(bad, &sample{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Load(bad) = %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "name: [unclosed\n")
	if err := Load(path, &sample{}); err == nil {
		t.Fatal("expected parse error")
	}
}
