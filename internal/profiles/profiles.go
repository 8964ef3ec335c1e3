package profiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/session"
)

// Supported file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

var ErrNotFound = errors.New("profile not found")

// Profile is a saved bridge address.
type Profile struct {
	Name    string `yaml:"name" toml:"name"`
	URL     string `yaml:"url" toml:"url"`
	Token   string `yaml:"token,omitempty" toml:"token,omitempty"`
	Default bool   `yaml:"default,omitempty" toml:"default,omitempty"`
}

// Set is the content of a profiles file.
type Set struct {
	Profiles []Profile `yaml:"profiles" toml:"profiles"`
}

// Load reads a profiles file. The format follows the extension: .yaml, .yml
// or .toml.
func Load(path string) (*Set, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	set, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes and validates profiles. Tokens may reference environment
// variables as $NAME or ${NAME}.
func Parse(data []byte, format string) (*Set, error) {
	var set Set
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profiles format %q", format)
	}

	for i := range set.Profiles {
		set.Profiles[i].Token = os.ExpandEnv(set.Profiles[i].Token)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate requires unique, non-empty names, valid ws/wss URLs and at most
// one default.
func (s *Set) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(s.Profiles))
	defaults := 0

	for i, p := range s.Profiles {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("profile %d: name is required", i+1))
		} else if seen[p.Name] {
			errs = append(errs, fmt.Errorf("profile %q: duplicate name", p.Name))
		}
		seen[p.Name] = true

		if _, err := session.ParseURL(p.URL); err != nil {
			errs = append(errs, fmt.Errorf("profile %q: %w", p.Name, err))
		}
		if p.Default {
			defaults++
		}
	}
	if defaults > 1 {
		errs = append(errs, fmt.Errorf("%d profiles marked default, expected at most one", defaults))
	}
	return errors.Join(errs...)
}

// Find returns the profile called name.
func (s *Set) Find(name string) (Profile, error) {
	for _, p := range s.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrNotFound, name, strings.Join(s.Names(), ", "))
}

// Default returns the profile marked default, else the first one.
func (s *Set) Default() (Profile, bool) {
	for _, p := range s.Profiles {
		if p.Default {
			return p, true
		}
	}
	if len(s.Profiles) > 0 {
		return s.Profiles[0], true
	}
	return Profile{}, false
}

// Names lists profile names in file order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Profiles))
	for i, p := range s.Profiles {
		names[i] = p.Name
	}
	return names
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported profiles file %q: use .yaml, .yml or .toml", path)
}
