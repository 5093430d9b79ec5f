package strategyfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"prop-strategy-builder/internal/presets"
	"prop-strategy-builder/internal/types"
)

const Version = "1.0.0"

// Configuration is a saved strategy together with the firm it was built for.
type Configuration struct {
	Strategy             types.Strategy        `json:"strategy" yaml:"strategy"`
	PropFirmPreset       *types.PropFirmPreset `json:"prop_firm_preset,omitempty" yaml:"prop_firm_preset,omitempty"`
	SelectedPropFirmName string                `json:"selected_prop_firm_name,omitempty" yaml:"selected_prop_firm_name,omitempty"`
	SavedAt              time.Time             `json:"saved_at" yaml:"saved_at"`
	Version              string                `json:"version" yaml:"version"`
}

// Preset returns the stored preset, or the named firm's preset when only a
// name was saved, or fallback when neither is present.
func (c Configuration) Preset(fallback string) types.PropFirmPreset {
	if c.PropFirmPreset != nil {
		return *c.PropFirmPreset
	}
	name := c.SelectedPropFirmName
	if name == "" {
		name = fallback
	}
	p, _ := presets.Get(name)
	return p
}

type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatFor(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return 0, fmt.Errorf("unsupported strategy file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
}

// Load reads a configuration. A file holding only a bare strategy is accepted
// too; its firm is left for the caller to choose.
func Load(path string) (*Configuration, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy file: %w", err)
	}

	var cfg Configuration
	if err := decode(f, data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if isBare(cfg) {
		var s types.Strategy
		if err := decode(f, data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg = Configuration{Strategy: s}
	}
	if cfg.Strategy.Name == "" {
		return nil, fmt.Errorf("%s: strategy has no name", path)
	}
	if cfg.Version == "" {
		cfg.Version = Version
	}
	return &cfg, nil
}

func isBare(cfg Configuration) bool {
	return cfg.Strategy.Name == "" && cfg.PropFirmPreset == nil && cfg.SelectedPropFirmName == ""
}

func decode(f format, data []byte, v any) error {
	if f == formatYAML {
		return yaml.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}

// Save writes cfg, stamping SavedAt and Version. Missing parent directories are created.
func Save(path string, cfg Configuration, now time.Time) error {
	f, err := formatFor(path)
	if err != nil {
		return err
	}
	cfg.SavedAt = now
	cfg.Version = Version

	var data []byte
	if f == formatYAML {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write strategy file: %w", err)
	}
	return nil
}

// DefaultFileName mirrors the save dialog's suggestion, e.g. "RSI_Oversold_Config.json".
func DefaultFileName(strategyName, ext string) string {
	return strings.ReplaceAll(strategyName, " ", "_") + "_Config" + ext
}

// Discover expands a doublestar pattern such as "strategies/**/*.yaml"
// relative to root and returns the strategy files it matches in sorted order.
func Discover(root, pattern string) ([]string, error) {
	full := pattern
	if root != "" && !filepath.IsAbs(pattern) {
		full = filepath.Join(root, pattern)
	}
	matches, err := doublestar.FilepathGlob(full)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	out := matches[:0]
	for _, m := range matches {
		if _, err := formatFor(m); err != nil {
			continue
		}
		if info, err := os.Stat(m); err != nil || info.IsDir() {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}
