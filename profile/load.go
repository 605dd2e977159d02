package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// DefaultBase is the preset a profile file extends when it does not
// name one.
const DefaultBase = "ender"

// file is the on-disk form of a profile: a base preset plus the
// fields that differ from it.
type file struct {
	Base    string `yaml:"base" toml:"base"`
	Profile `yaml:",inline"`
}

// Load reads a printer profile from a YAML (.yaml, .yml) or TOML
// (.toml) file. Fields the file does not set are taken from the
// preset named by its "base" key.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("cannot read profile: %w", err)
	}
	p, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Profile{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	log.Infof("loaded printer profile %q from %s", p.Name, path)
	return p, nil
}

// Parse decodes a profile. ext selects the format and must be one of
// ".yaml", ".yml" or ".toml".
func Parse(data []byte, ext string) (Profile, error) {
	var decode func(v interface{}) error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		decode = func(v interface{}) error {
			return yaml.UnmarshalStrict(data, v)
		}
	case ".toml":
		decode = func(v interface{}) error {
			md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(v)
			if err != nil {
				return err
			}
			if und := md.Undecoded(); len(und) > 0 {
				return fmt.Errorf("unknown keys %v", und)
			}
			return nil
		}
	default:
		return Profile{}, fmt.Errorf("unsupported profile format %q", ext)
	}

	// The first pass only finds the base preset.
	var head file
	if err := decode(&head); err != nil {
		return Profile{}, err
	}
	base := head.Base
	if base == "" {
		base = DefaultBase
	}
	bp, err := Lookup(base)
	if err != nil {
		return Profile{}, err
	}
	f := file{Profile: bp}
	if err := decode(&f); err != nil {
		return Profile{}, err
	}
	p := f.Profile
	if p.Name == "" {
		p.Name = bp.Name
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks that the profile can drive a printer.
func (p *Profile) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"extrude_width", p.ExtrudeWidth},
		{"layer_height", p.LayerHeight},
		{"speed", p.Speed},
		{"resolution", p.Resolution},
	} {
		if !(f.v > 0) {
			return fmt.Errorf("profile %q: %s must be positive, got %g", p.Name, f.name, f.v)
		}
	}
	if p.ExtrudeRate < 0 {
		return fmt.Errorf("profile %q: extrude_rate must not be negative, got %g", p.Name, p.ExtrudeRate)
	}
	return nil
}
