package world

import (
	"bytes"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// Config is the compile-time bootstrap configuration: paths the reference
// World needs to stand itself up, plus document defaults a compile can
// superimpose onto a document's own `set` rules. Tagged-struct/KnownFields
// decoding style adapted from the teacher's config.LoadConfiguration
// (config/cfg.go), minus the gencfg templating/sanitize/validate layer
// (that library is teacher-specific tooling, not part of the retrieval
// pack's general third-party surface).
type Config struct {
	PackageBundleDir string       `yaml:"package_bundle_dir"`
	PackageCacheDir  string       `yaml:"package_cache_dir"`
	FontDirs         []string     `yaml:"font_dirs"`
	Document         DocumentConfig `yaml:"document"`
}

type DocumentConfig struct {
	PageWidth  float64 `yaml:"page_width_pt"`
	PageHeight float64 `yaml:"page_height_pt"`
	Margin     float64 `yaml:"margin_pt"`
}

// DefaultConfig mirrors sane defaults a compile can run with when no
// config file is supplied — A4-ish page geometry in points.
func DefaultConfig() *Config {
	return &Config{
		PackageCacheDir: os.TempDir(),
		Document: DocumentConfig{
			PageWidth:  595.0,
			PageHeight: 842.0,
			Margin:     56.0,
		},
	}
}

// LoadConfig reads path (if non-empty) and overlays it onto DefaultConfig,
// the same "template, then overwrite with the file" shape as
// config.LoadConfiguration, collapsed to two steps since this spec has no
// templating layer.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}
