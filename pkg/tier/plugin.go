package tier

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/ledger"
)

// IDFactory maps the absolute path of a module to its numeric id.
type IDFactory func(path string) (int, error)

// Plugin is the set of hooks a bundler calls while producing one bundle.
//
// BeforeMain runs once, before any module is processed, with the entry file
// of the bundle. NewIDFactory is called once per bundling process and the
// returned factory for every module. Filter is called for every module when
// the bundle is serialized.
type Plugin interface {
	BeforeMain(entryFile string) error
	NewIDFactory() (IDFactory, error)
	Filter(m BundleModule) (bool, error)
}

// PluginConfig is everything a tier plugin needs. It is passed explicitly to
// the bundler and serialized for bundlers running in another process.
type PluginConfig struct {
	Tier       Tier                 `json:"tier"`
	Platform   config.Platform      `json:"platform"`
	RootDir    string               `json:"rootDir"`
	ScratchDir string               `json:"scratchDir"`
	Modules    []config.ModuleBuild `json:"modules,omitempty"`
}

// Validate checks the fields every tier depends on.
func (c PluginConfig) Validate() error {
	if _, err := ParseTier(string(c.Tier)); err != nil {
		return err
	}
	if _, err := config.ParsePlatform(string(c.Platform)); err != nil {
		return err
	}
	if c.RootDir == "" || c.ScratchDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "plugin config needs rootDir and scratchDir")
	}
	return nil
}

// Encode returns the JSON form of the config.
func (c PluginConfig) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode plugin config")
	}
	return data, nil
}

// DecodePluginConfig parses and validates a config produced by Encode.
func DecodePluginConfig(data []byte) (PluginConfig, error) {
	var c PluginConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse plugin config")
	}
	return c, c.Validate()
}

// TierPlugin implements Plugin for one tier.
type TierPlugin struct {
	cfg PluginConfig

	mu       sync.Mutex
	inst     Instance
	resolved bool
	own      *ledger.Ledger
	lower    []*ledger.Ledger
}

// NewPlugin creates the plugin for cfg.Tier.
func NewPlugin(cfg PluginConfig) *TierPlugin {
	return &TierPlugin{cfg: cfg, inst: NoInstance}
}

// Config returns the plugin's configuration.
func (p *TierPlugin) Config() PluginConfig {
	return p.cfg
}

// Instance returns the resolved instance, or NoInstance before resolution
// and for the basics tier.
func (p *TierPlugin) Instance() Instance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inst
}

// BeforeMain resolves the instance from the entry file and, for the module
// and screen tiers, clears that instance's ledger. The basics ledger is
// cleared by the build before the basics bundle starts.
func (p *TierPlugin) BeforeMain(entryFile string) error {
	if err := p.Resolve(entryFile); err != nil {
		return err
	}
	if p.cfg.Tier == Basics {
		return nil
	}
	p.mu.Lock()
	own := p.own
	p.mu.Unlock()
	return own.Clear()
}

// Resolve binds the plugin to the instance whose generated entry file ends
// with entryFile, without touching any ledger. Plugins recreated by a
// bundler in a fresh process call this instead of BeforeMain.
func (p *TierPlugin) Resolve(entryFile string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	inst, err := Locate(p.cfg.Tier, p.cfg.Modules, entryFile)
	if err != nil {
		return err
	}
	p.inst = inst
	p.own, p.lower = p.ledgers(inst)
	p.resolved = true
	return nil
}

// NewIDFactory returns a factory backed by a fresh allocator. The module
// and screen tiers must be resolved first.
func (p *TierPlugin) NewIDFactory() (IDFactory, error) {
	own, lower, inst, err := p.state()
	if err != nil {
		return nil, err
	}
	a, err := NewAllocator(p.cfg.Tier, inst, own, lower...)
	if err != nil {
		return nil, err
	}
	root := p.cfg.RootDir
	return func(path string) (int, error) {
		return a.ID(NormalizePath(path, root))
	}, nil
}

// Filter reports whether m goes into the bundle.
func (p *TierPlugin) Filter(m BundleModule) (bool, error) {
	_, lower, _, err := p.state()
	if err != nil {
		return false, err
	}
	return NewFilter(p.cfg.Tier, p.cfg.RootDir, lower...).Include(m)
}

func (p *TierPlugin) state() (*ledger.Ledger, []*ledger.Ledger, Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.resolved {
		if p.cfg.Tier != Basics {
			return nil, nil, NoInstance, errors.New(errors.ErrCodeInternal, "%s plugin used before its entry file was resolved", p.cfg.Tier)
		}
		p.own, p.lower = p.ledgers(NoInstance)
		p.resolved = true
	}
	return p.own, p.lower, p.inst, nil
}

// ledgers opens the instance's own ledger and the lower-tier ledgers it
// consults, basics first.
func (p *TierPlugin) ledgers(inst Instance) (*ledger.Ledger, []*ledger.Ledger) {
	dir := p.cfg.ScratchDir
	platform := string(p.cfg.Platform)
	basics := ledger.Open(ledger.BasicsFile(dir, platform))

	switch p.cfg.Tier {
	case Module:
		m := p.cfg.Modules[inst.Module]
		return ledger.Open(ledger.ModuleFile(dir, m.Prefix, platform)), []*ledger.Ledger{basics}
	case Screen:
		m := p.cfg.Modules[inst.Module]
		s := m.Screens[inst.Screen]
		own := ledger.Open(ledger.ScreenFile(dir, m.Prefix, s.Prefix, platform))
		return own, []*ledger.Ledger{basics, ledger.Open(ledger.ModuleFile(dir, m.Prefix, platform))}
	default:
		return basics, nil
	}
}

// Locate finds the instance whose generated entry file ends with entryFile.
// When several entries match, the last one in module and screen order wins.
// The basics tier has no instance.
func Locate(t Tier, modules []config.ModuleBuild, entryFile string) (Instance, error) {
	if t == Basics {
		return NoInstance, nil
	}
	entry := filepath.ToSlash(entryFile)
	if entry == "" {
		return NoInstance, errors.New(errors.ErrCodeInstanceNotFound, "no entry file given for %s tier", t)
	}

	found := NoInstance
	for i, m := range modules {
		if t == Module {
			if m.EntryFile != "" && strings.HasSuffix(filepath.ToSlash(m.EntryFile), entry) {
				found = Instance{Module: i, Screen: -1}
			}
			continue
		}
		for j, s := range m.Screens {
			if strings.HasSuffix(filepath.ToSlash(s.EntryFile), entry) {
				found = Instance{Module: i, Screen: j}
			}
		}
	}
	if found.Module < 0 {
		return NoInstance, errors.New(errors.ErrCodeInstanceNotFound, "no %s matches entry file %s", t, entryFile)
	}
	return found, nil
}
