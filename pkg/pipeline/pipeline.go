// Package pipeline sequences a tiered build.
//
// A build runs up to four stages, each entered only after the previous one
// has settled:
//
//  1. Basics: one bundle with the runtime and third-party code
//  2. Modules: one bundle per module with shared code, concurrently
//  3. Screens: one bundle per screen, concurrently
//  4. Manifest: version.json describing the modules and deeplinks
//
// A failing stage is logged and reported in its [StageResult]; the next stage
// still runs.
//
// # Usage
//
//	project, err := pipeline.Prepare(pipeline.Options{
//	    RootDir:      ".",
//	    Platform:     config.Android,
//	    Basics:       true,
//	    BuildModules: true,
//	})
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(bundler, logger)
//	results := runner.Build(ctx, project)
package pipeline

import (
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/ledger"
	"github.com/matzehuels/tierpack/pkg/template"
	"github.com/matzehuels/tierpack/pkg/tier"
)

// DefaultPort is the development server port used by Debug.
const DefaultPort = 8081

// assetsDir is the asset directory created next to each bundle.
const assetsDir = "res"

// =============================================================================
// Options
// =============================================================================

// Options selects what a build produces.
type Options struct {
	RootDir  string
	Platform config.Platform

	// Basics builds the basics bundle.
	Basics bool

	// BuildModules builds module and screen bundles and writes the manifest.
	BuildModules bool

	// Only restricts the build to these module prefixes. Empty selects all.
	Only []string

	// Hermes compiles every bundle to Hermes bytecode.
	Hermes bool

	// Jobs caps concurrent bundler processes per stage. Zero means one
	// process per instance.
	Jobs int
}

// Validate checks options before any file is touched.
func (o *Options) Validate() error {
	p, err := config.ParsePlatform(string(o.Platform))
	if err != nil {
		return err
	}
	o.Platform = p
	if o.Jobs < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "jobs must be >= 0, got %d", o.Jobs)
	}
	for _, prefix := range o.Only {
		if err := errors.ValidatePrefix(prefix); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Project
// =============================================================================

// Project is a loaded project ready to build.
type Project struct {
	Options

	Config  *config.Project
	Scratch string
	Modules []config.ModuleBuild

	// Missing lists requested prefixes that matched no module.
	Missing []string
}

// Prepare loads the project configuration, resolves the in-scope modules and
// writes their generated entry sources into the scratch directory. No ledger
// is touched and no output is written.
func Prepare(opts Options) (*Project, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", opts.RootDir)
	}
	opts.RootDir = root

	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, err
	}
	scratch := ledger.Dir(root)
	modules, err := config.Resolve(root, cfg, scratch, opts.Only)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Options: opts,
		Config:  cfg,
		Scratch: scratch,
		Modules: modules,
		Missing: config.Missing(opts.Only, modules),
	}
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", scratch)
	}
	if err := p.writeEntries(); err != nil {
		return nil, err
	}
	return p, nil
}

// writeEntries generates the shared-code wrapper of every module that has
// one and the registration entry of every screen.
func (p *Project) writeEntries() error {
	for _, m := range p.Modules {
		if m.HasCommon() {
			imp, err := template.Import(p.Scratch, m.SourceEntry())
			if err != nil {
				return err
			}
			err = template.WriteFile(m.EntryFile, func(w io.Writer) error {
				return template.Common(w, m.Prefix, imp)
			})
			if err != nil {
				return err
			}
		}
		for _, s := range m.Screens {
			imp, err := template.Import(p.Scratch, s.SourcePath())
			if err != nil {
				return err
			}
			key := config.AppKey(m.Prefix, s.Prefix)
			err = template.WriteFile(s.EntryFile, func(w io.Writer) error {
				return template.Register(w, key, imp)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// OutputDir is <root>/<output>/<platform>.
func (p *Project) OutputDir() string {
	return filepath.Join(p.RootDir, p.Config.Output, string(p.Platform))
}

// ModuleOutputDir is the directory holding a module's bundles.
func (p *Project) ModuleOutputDir(prefix string) string {
	return filepath.Join(p.OutputDir(), prefix)
}

// EntryFile is the project's basics entry.
func (p *Project) EntryFile() string {
	return filepath.Join(p.RootDir, p.Config.Entry)
}

// PluginConfig returns the plugin configuration for tier t.
func (p *Project) PluginConfig(t tier.Tier) tier.PluginConfig {
	return tier.PluginConfig{
		Tier:       t,
		Platform:   p.Platform,
		RootDir:    p.RootDir,
		ScratchDir: p.Scratch,
		Modules:    p.Modules,
	}
}

// BasicsLedger opens the basics ledger.
func (p *Project) BasicsLedger() *ledger.Ledger {
	return ledger.Open(ledger.BasicsFile(p.Scratch, string(p.Platform)))
}

// ModuleLedger opens a module's ledger.
func (p *Project) ModuleLedger(module string) *ledger.Ledger {
	return ledger.Open(ledger.ModuleFile(p.Scratch, module, string(p.Platform)))
}

// ScreenLedger opens a screen's ledger.
func (p *Project) ScreenLedger(module, screen string) *ledger.Ledger {
	return ledger.Open(ledger.ScreenFile(p.Scratch, module, screen, string(p.Platform)))
}

func assetsDest(dir string) string {
	return filepath.Join(dir, assetsDir) + string(filepath.Separator)
}
