package tier

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/tierpack/pkg/ledger"
)

// VirtualScript is the output type of core initialization units such as
// InitializeCore. Every bundle needs them at load time.
const VirtualScript = "js/script/virtual"

// Path fragments matched against a module's slash-separated absolute path.
const (
	preludeMarker   = "__prelude__"
	rnPolyfills     = "/node_modules/react-native/Libraries/polyfills"
	sourceMapMarker = "source-map"
	metroPolyfills  = "/node_modules/metro/src/lib/polyfills/"
	nodeModules     = "/node_modules/"
	babelHelpers    = "/node_modules/@babel/runtime/helpers"
)

// BundleModule is a module as reported by the bundler to the output filter.
type BundleModule struct {
	// Path is the absolute source path.
	Path string `json:"path"`
	// OutputType is the type of the module's first output, e.g. "js/module".
	OutputType string `json:"outputType"`
}

// Filter decides whether a module goes into the current tier's bundle.
type Filter struct {
	tier  Tier
	root  string
	lower []*ledger.Ledger
}

// NewFilter creates a filter for tier t. Modules found in any of the lower
// ledgers are excluded.
func NewFilter(t Tier, root string, lower ...*ledger.Ledger) *Filter {
	return &Filter{tier: t, root: root, lower: lower}
}

// Include reports whether m belongs in the bundle.
//
// The basics bundle drops only the bundler prelude. Module and screen
// bundles also drop polyfills and source-map support (basics ships them) and
// every third-party module except virtual scripts and Babel runtime helpers,
// then drop anything a lower tier already recorded.
func (f *Filter) Include(m BundleModule) (bool, error) {
	p := filepath.ToSlash(m.Path)

	if strings.Contains(p, preludeMarker) {
		return false, nil
	}
	if f.tier == Basics {
		return true, nil
	}

	if strings.Contains(p, rnPolyfills) ||
		strings.Contains(p, sourceMapMarker) ||
		strings.Contains(p, metroPolyfills) {
		return false, nil
	}

	if strings.Index(p, nodeModules) > 0 {
		if m.OutputType == VirtualScript {
			return true, nil
		}
		if strings.Index(p, babelHelpers) > 0 {
			return true, nil
		}
		return false, nil
	}

	key := NormalizePath(m.Path, f.root)
	for _, l := range f.lower {
		if ok, err := l.Contains(key); err != nil {
			return false, err
		} else if ok {
			return false, nil
		}
	}
	return true, nil
}
