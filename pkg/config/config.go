package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/tierpack/pkg/errors"
)

// Config file base names. Each is looked up as .json, then .toml, then .yaml.
const (
	ProjectFile = "tierpack.config"
	ModuleFile  = "module.config"
)

// Platform is a target mobile platform.
type Platform string

// Supported platforms.
const (
	Android Platform = "android"
	IOS     Platform = "ios"
)

// ParsePlatform validates a --platform value.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case Android, IOS:
		return Platform(s), nil
	case "":
		return "", errors.New(errors.ErrCodeInvalidPlatform, "--platform is required (android or ios)")
	default:
		return "", errors.New(errors.ErrCodeInvalidPlatform, "invalid platform: %q (must be android or ios)", s)
	}
}

// Depend holds the native runtime version each platform's bundles target.
type Depend struct {
	Android string `json:"android" toml:"android" yaml:"android"`
	IOS     string `json:"ios" toml:"ios" yaml:"ios"`
}

// For returns the dependency version for p.
func (d Depend) For(p Platform) string {
	if p == IOS {
		return d.IOS
	}
	return d.Android
}

// Project is the root tierpack.config file.
type Project struct {
	Version string   `json:"version" toml:"version" yaml:"version"`
	Depend  Depend   `json:"depend" toml:"depend" yaml:"depend"`
	Entry   string   `json:"entry" toml:"entry" yaml:"entry"`
	Output  string   `json:"output" toml:"output" yaml:"output"`
	Modules []string `json:"modules" toml:"modules" yaml:"modules"`
}

// Validate checks required fields and path safety.
func (p *Project) Validate() error {
	if p.Version == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "project version is required")
	}
	if err := errors.ValidatePath(p.Entry); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "project entry")
	}
	if err := errors.ValidatePath(p.Output); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "project output")
	}
	for _, dir := range p.Modules {
		if err := errors.ValidatePath(dir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "module dir")
		}
	}
	return nil
}

// Screen is one screen declared by a module.
type Screen struct {
	Prefix   string `json:"prefix" toml:"prefix" yaml:"prefix"`
	Path     string `json:"path" toml:"path" yaml:"path"`
	Preload  bool   `json:"preload,omitempty" toml:"preload" yaml:"preload,omitempty"`
	Deeplink string `json:"deeplink,omitempty" toml:"deeplink" yaml:"deeplink,omitempty"`
}

// Module is a feature module's module.config file.
type Module struct {
	Name    string   `json:"name,omitempty" toml:"name" yaml:"name,omitempty"`
	Prefix  string   `json:"prefix" toml:"prefix" yaml:"prefix"`
	Version string   `json:"version" toml:"version" yaml:"version"`
	Entry   string   `json:"entry,omitempty" toml:"entry" yaml:"entry,omitempty"`
	Screens []Screen `json:"screens,omitempty" toml:"screens" yaml:"screens,omitempty"`
}

// Validate checks prefixes, paths and screen uniqueness.
func (m *Module) Validate() error {
	if err := errors.ValidatePrefix(m.Prefix); err != nil {
		return err
	}
	if m.Version == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "module %s: version is required", m.Prefix)
	}
	if m.Entry != "" {
		if err := errors.ValidatePath(m.Entry); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "module %s: entry", m.Prefix)
		}
	}
	seen := make(map[string]bool, len(m.Screens))
	for _, s := range m.Screens {
		if err := errors.ValidatePrefix(s.Prefix); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "module %s: screen", m.Prefix)
		}
		if seen[s.Prefix] {
			return errors.New(errors.ErrCodeInvalidConfig, "module %s: duplicate screen prefix %q", m.Prefix, s.Prefix)
		}
		seen[s.Prefix] = true
		if err := errors.ValidatePath(s.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "module %s: screen %s path", m.Prefix, s.Prefix)
		}
		if err := errors.ValidateDeeplink(s.Deeplink); err != nil {
			return err
		}
	}
	return nil
}

// LoadProject reads and validates the project config in root.
func LoadProject(root string) (*Project, error) {
	var p Project
	if err := load(root, ProjectFile, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadModule reads and validates the module config in dir.
func LoadModule(dir string) (*Module, error) {
	var m Module
	if err := load(dir, ModuleFile, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// load decodes dir/base.json, falling back to dir/base.toml and then
// dir/base.yaml.
func load(dir, base string, v any) error {
	jsonPath := filepath.Join(dir, base+".json")
	data, err := os.ReadFile(jsonPath)
	if err == nil {
		if err := json.Unmarshal(data, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", jsonPath)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", jsonPath)
	}

	tomlPath := filepath.Join(dir, base+".toml")
	if _, err := os.Stat(tomlPath); err == nil {
		if _, err := toml.DecodeFile(tomlPath, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", tomlPath)
		}
		return nil
	}

	yamlPath := filepath.Join(dir, base+".yaml")
	data, err = os.ReadFile(yamlPath)
	if os.IsNotExist(err) {
		return errors.New(errors.ErrCodeConfigNotFound, "no %s.json, %s.toml or %s.yaml in %s", base, base, base, dir)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", yamlPath)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", yamlPath)
	}
	return nil
}
