package config

import (
	"path/filepath"
	"slices"

	"github.com/matzehuels/tierpack/pkg/errors"
)

// ScreenBuild is a screen resolved for a build: its config plus where its
// module lives and where its generated registration source is written.
type ScreenBuild struct {
	Screen
	ModuleDir string `json:"moduleDir"`
	EntryFile string `json:"entryFile"`
}

// ModuleBuild is an in-scope module resolved for a build.
type ModuleBuild struct {
	Name    string        `json:"name,omitempty"`
	Prefix  string        `json:"prefix"`
	Version string        `json:"version"`
	Entry   string        `json:"entry,omitempty"`
	Dir     string        `json:"dir"`
	Screens []ScreenBuild `json:"screens"`

	// EntryFile is the generated registration source wrapping Entry. Empty
	// when the module has no shared code.
	EntryFile string `json:"entryFile,omitempty"`
}

// HasCommon reports whether the module carries shared code and therefore
// gets its own module-tier bundle.
func (m ModuleBuild) HasCommon() bool {
	return m.Entry != ""
}

// SourceEntry returns the absolute path of the module's shared entry.
func (m ModuleBuild) SourceEntry() string {
	if m.Entry == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Entry)
}

// SourcePath returns the absolute path of the screen component.
func (s ScreenBuild) SourcePath() string {
	return filepath.Join(s.ModuleDir, s.Path)
}

// AppKey is the registration key of a screen: "<module>_<screen>".
func AppKey(module, screen string) string {
	return module + "_" + screen
}

// Resolve loads every module config listed by p and keeps those selected by
// only (all of them when only is empty), in config order. Generated entry
// paths are placed in scratchDir; nothing is written.
func Resolve(root string, p *Project, scratchDir string, only []string) ([]ModuleBuild, error) {
	var builds []ModuleBuild
	seen := make(map[string]string)

	for _, rel := range p.Modules {
		dir := filepath.Join(root, rel)
		m, err := LoadModule(dir)
		if err != nil {
			return nil, err
		}
		if len(only) > 0 && !slices.Contains(only, m.Prefix) {
			continue
		}
		if prev, ok := seen[m.Prefix]; ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "duplicate module prefix %q in %s and %s", m.Prefix, prev, rel)
		}
		seen[m.Prefix] = rel

		b := ModuleBuild{
			Name:    m.Name,
			Prefix:  m.Prefix,
			Version: m.Version,
			Entry:   m.Entry,
			Dir:     dir,
		}
		if m.Entry != "" {
			b.EntryFile = filepath.Join(scratchDir, m.Prefix+".js")
		}
		for _, s := range m.Screens {
			b.Screens = append(b.Screens, ScreenBuild{
				Screen:    s,
				ModuleDir: dir,
				EntryFile: filepath.Join(scratchDir, AppKey(m.Prefix, s.Prefix)+".js"),
			})
		}
		builds = append(builds, b)
	}
	return builds, nil
}

// Missing returns the prefixes in only that matched no resolved module.
func Missing(only []string, builds []ModuleBuild) []string {
	var missing []string
	for _, prefix := range only {
		found := slices.ContainsFunc(builds, func(b ModuleBuild) bool { return b.Prefix == prefix })
		if !found {
			missing = append(missing, prefix)
		}
	}
	return missing
}
