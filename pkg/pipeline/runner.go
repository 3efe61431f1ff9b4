package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierpack/pkg/bundler"
	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/manifest"
	"github.com/matzehuels/tierpack/pkg/observability"
	"github.com/matzehuels/tierpack/pkg/template"
	"github.com/matzehuels/tierpack/pkg/tier"
)

// Runner drives the bundler through the build stages.
//
// A Runner tracks the state of one build at a time. Run separate builds on
// separate Runners.
type Runner struct {
	Bundler bundler.Bundler
	Logger  *log.Logger

	// OnStage, when set, is called as each stage starts and settles.
	OnStage func(stage string, done bool, err error)

	mu    sync.Mutex
	state State
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(b bundler.Bundler, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Bundler: b, Logger: logger}
}

// State returns the current build state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.Logger.Debug("state", "to", s)
}

// StageResult reports how one stage went.
type StageResult struct {
	Stage    string
	Bundles  int
	Duration time.Duration
	Err      error
}

// OK reports whether the stage succeeded.
func (s StageResult) OK() bool { return s.Err == nil }

// =============================================================================
// Build
// =============================================================================

// Build runs the stages selected by the project options and returns one
// result per stage run. Stage failures are reported in the results, never
// returned: every selected stage runs regardless of earlier failures.
func (r *Runner) Build(ctx context.Context, p *Project) []StageResult {
	var results []StageResult
	defer r.setState(Idle)

	if p.Basics {
		results = append(results, r.stage(ctx, StageBasics, BasicsRunning, BasicsDone, func() (int, error) {
			return 1, r.BuildBasics(ctx, p)
		}))
	}
	if !p.BuildModules {
		return results
	}

	results = append(results, r.stage(ctx, StageModules, ModulesRunning, ModulesDone, func() (int, error) {
		return countCommon(p.Modules), r.BuildModules(ctx, p)
	}))
	results = append(results, r.stage(ctx, StageScreens, ScreensRunning, ScreensDone, func() (int, error) {
		return countScreens(p.Modules), r.BuildScreens(ctx, p)
	}))
	results = append(results, r.stage(ctx, StageManifest, ManifestWritten, ManifestWritten, func() (int, error) {
		return 0, r.Pack(p)
	}))
	return results
}

// stage runs fn between two state transitions, catching its error.
func (r *Runner) stage(ctx context.Context, name string, running, done State, fn func() (int, error)) StageResult {
	r.setState(running)
	observability.Build().OnStageStart(ctx, name)
	if r.OnStage != nil {
		r.OnStage(name, false, nil)
	}

	start := time.Now()
	n, err := fn()
	res := StageResult{Stage: name, Bundles: n, Duration: time.Since(start), Err: err}

	observability.Build().OnStageComplete(ctx, name, res.Duration, err)
	if r.OnStage != nil {
		r.OnStage(name, true, err)
	}
	if err != nil {
		r.Logger.Error("stage failed", "stage", name, "err", err)
	} else {
		r.Logger.Info("stage complete", "stage", name, "bundles", n, "duration", res.Duration.Round(time.Millisecond))
	}
	r.setState(done)
	return res
}

// =============================================================================
// Stages
// =============================================================================

// BuildBasics clears the basics ledger and bundles the project entry.
func (r *Runner) BuildBasics(ctx context.Context, p *Project) error {
	out := p.OutputDir()
	if err := os.MkdirAll(out, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", out)
	}
	if err := p.BasicsLedger().Clear(); err != nil {
		return err
	}
	req := bundler.Request{
		Platform:     p.Platform,
		EntryFile:    p.EntryFile(),
		BundleOutput: filepath.Join(out, "basics."+string(p.Platform)+".bundle"),
		AssetsDest:   assetsDest(out),
		Hermes:       p.Hermes,
	}
	return r.bundle(ctx, tier.Basics, StageBasics, req, p.PluginConfig(tier.Basics))
}

// BuildModules bundles every module with shared code concurrently. Each such
// module's output directory is recreated first. The ledgers of all in-scope
// modules are cleared so screens never read ids from an earlier build.
func (r *Runner) BuildModules(ctx context.Context, p *Project) error {
	plugin := p.PluginConfig(tier.Module)
	var tasks []Task
	for _, m := range p.Modules {
		if err := p.ModuleLedger(m.Prefix).Clear(); err != nil {
			return err
		}
		if !m.HasCommon() {
			continue
		}
		dir := p.ModuleOutputDir(m.Prefix)
		if err := ResetDir(dir); err != nil {
			return err
		}
		req := bundler.Request{
			Platform:     p.Platform,
			EntryFile:    m.EntryFile,
			BundleOutput: filepath.Join(dir, "modules."+m.Prefix+"."+string(p.Platform)+".bundle"),
			AssetsDest:   assetsDest(dir),
			Hermes:       p.Hermes,
		}
		tasks = append(tasks, func(ctx context.Context) error {
			return r.bundle(ctx, tier.Module, m.Prefix, req, plugin)
		})
	}
	return RunChunked(ctx, tasks, p.Jobs)
}

// BuildScreens bundles every screen of every in-scope module concurrently.
func (r *Runner) BuildScreens(ctx context.Context, p *Project) error {
	plugin := p.PluginConfig(tier.Screen)
	var tasks []Task
	for _, m := range p.Modules {
		dir := p.ModuleOutputDir(m.Prefix)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
		}
		for _, s := range m.Screens {
			if err := p.ScreenLedger(m.Prefix, s.Prefix).Clear(); err != nil {
				return err
			}
			key := config.AppKey(m.Prefix, s.Prefix)
			req := bundler.Request{
				Platform:     p.Platform,
				EntryFile:    s.EntryFile,
				BundleOutput: filepath.Join(dir, "screens."+key+"."+string(p.Platform)+".bundle"),
				AssetsDest:   assetsDest(dir),
				Hermes:       p.Hermes,
			}
			tasks = append(tasks, func(ctx context.Context) error {
				return r.bundle(ctx, tier.Screen, key, req, plugin)
			})
		}
	}
	return RunChunked(ctx, tasks, p.Jobs)
}

// Pack writes the manifest into the platform output directory.
func (r *Runner) Pack(p *Project) error {
	path, err := manifest.Build(p.Config, p.Platform, p.Modules).Write(p.OutputDir())
	if err != nil {
		return err
	}
	r.Logger.Debug("wrote manifest", "path", path)
	return nil
}

func (r *Runner) bundle(ctx context.Context, t tier.Tier, key string, req bundler.Request, plugin tier.PluginConfig) error {
	observability.Build().OnBundleStart(ctx, string(t), key)
	start := time.Now()
	err := r.Bundler.Bundle(ctx, req, plugin)
	observability.Build().OnBundleComplete(ctx, string(t), key, time.Since(start), err)
	if err != nil {
		r.Logger.Error("bundle failed", "tier", t, "key", key, "err", err)
		return err
	}
	r.Logger.Debug("bundled", "tier", t, "key", key, "output", req.BundleOutput)
	return nil
}

// =============================================================================
// Debug
// =============================================================================

// Debug writes the debug menu and an aggregate entry importing every module
// and screen, then serves the project until ctx is cancelled. The device
// loads .tierpack/index.bundle from the server.
func (r *Runner) Debug(ctx context.Context, p *Project, port int) error {
	if port <= 0 {
		port = DefaultPort
	}

	menu := make([]template.DebugModule, 0, len(p.Modules))
	for _, m := range p.Modules {
		dm := template.DebugModule{Prefix: m.Prefix, Name: m.Name}
		for _, s := range m.Screens {
			dm.Screens = append(dm.Screens, s.Prefix)
		}
		menu = append(menu, dm)
	}
	debugger := filepath.Join(p.Scratch, DebuggerFile)
	if err := template.WriteFile(debugger, func(w io.Writer) error {
		return template.Debugger(w, menu)
	}); err != nil {
		return err
	}

	imports, err := debugImports(p, debugger)
	if err != nil {
		return err
	}
	index := filepath.Join(p.Scratch, DebugEntryFile)
	if err := template.WriteFile(index, func(w io.Writer) error {
		return template.DebugIndex(w, imports)
	}); err != nil {
		return err
	}
	r.Logger.Info("debug entry written", "path", index, "modules", len(p.Modules))

	return r.Bundler.Serve(ctx, bundler.ServeRequest{RootDir: p.RootDir, Port: port})
}

// Generated debug sources in the scratch directory.
const (
	DebuggerFile   = "Debugger.tsx"
	DebugEntryFile = "index.js"
)

func debugImports(p *Project, debugger string) ([]string, error) {
	files := []string{debugger, p.EntryFile()}
	for _, m := range p.Modules {
		if m.HasCommon() {
			files = append(files, m.EntryFile)
		}
		for _, s := range m.Screens {
			files = append(files, s.EntryFile)
		}
	}
	imports := make([]string, 0, len(files))
	for _, f := range files {
		imp, err := template.Import(p.Scratch, f)
		if err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	return imports, nil
}

// =============================================================================
// Helpers
// =============================================================================

// ResetDir removes dir if it exists and creates it empty.
func ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove %s", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	return nil
}

func countCommon(modules []config.ModuleBuild) int {
	n := 0
	for _, m := range modules {
		if m.HasCommon() {
			n++
		}
	}
	return n
}

func countScreens(modules []config.ModuleBuild) int {
	n := 0
	for _, m := range modules {
		n += len(m.Screens)
	}
	return n
}
