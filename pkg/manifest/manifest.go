// Package manifest builds version.json, the per-platform description of a
// tiered build that the host app reads to locate and preload bundles.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/errors"
)

// FileName is the manifest name inside <output>/<platform>/.
const FileName = "version.json"

// Manifest is the root of version.json. Pack and MD5 fields are reserved
// for packaging and always empty.
type Manifest struct {
	Engine   string            `json:"engine"`
	Depend   string            `json:"depend"`
	Pack     string            `json:"pack"`
	MD5      string            `json:"md5"`
	Modules  map[string]Module `json:"modules"`
	Deeplink map[string]string `json:"deeplink"`
}

// Module describes one module's bundles.
type Module struct {
	Version   string            `json:"version"`
	Pack      string            `json:"pack"`
	MD5       string            `json:"md5"`
	UseCommon bool              `json:"useCommon"`
	Screens   map[string]Screen `json:"screens"`
}

// Screen describes one screen bundle.
type Screen struct {
	Preload bool `json:"preload"`
}

// Build assembles the manifest for the in-scope modules. Deeplink routes map
// to the screen's app key; screens without a route are left out of the
// deeplink table.
func Build(p *config.Project, platform config.Platform, modules []config.ModuleBuild) *Manifest {
	m := &Manifest{
		Engine:   p.Version,
		Depend:   p.Depend.For(platform),
		Modules:  make(map[string]Module, len(modules)),
		Deeplink: make(map[string]string),
	}
	for _, mb := range modules {
		mod := Module{
			Version:   mb.Version,
			UseCommon: mb.HasCommon(),
			Screens:   make(map[string]Screen, len(mb.Screens)),
		}
		for _, s := range mb.Screens {
			mod.Screens[s.Prefix] = Screen{Preload: s.Preload}
			if s.Deeplink != "" {
				m.Deeplink[s.Deeplink] = config.AppKey(mb.Prefix, s.Prefix)
			}
		}
		m.Modules[mb.Prefix] = mod
	}
	return m
}

// Marshal encodes the manifest with two-space indentation.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	return data, nil
}

// Write stores the manifest as dir/version.json and returns its path.
func (m *Manifest) Write(dir string) (string, error) {
	data, err := m.Marshal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return path, nil
}

// Read loads a manifest written by Write.
func Read(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	return &m, nil
}
