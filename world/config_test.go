package world

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typeset.yaml")
	yamlText := "document:\n  page_width_pt: 300\n  page_height_pt: 400\n  margin_pt: 10\n"
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Document.PageWidth != 300 || cfg.Document.PageHeight != 400 {
		t.Fatalf("unexpected document config: %+v", cfg.Document)
	}
}

func TestLoadConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Document.PageWidth == 0 {
		t.Fatal("expected non-zero default page width")
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typeset.yaml")
	if err := os.WriteFile(path, []byte("not_a_real_field: true\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected decoding an unknown field to fail (KnownFields(true))")
	}
}
