package tier

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/tierpack/pkg/errors"
)

// Tier is one of the three build strata.
type Tier string

// Build tiers, lowest first.
const (
	Basics Tier = "basics"
	Module Tier = "module"
	Screen Tier = "screen"
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case Basics, Module, Screen:
		return Tier(s), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid tier: %q (must be basics, module or screen)", s)
	}
}

// String returns the tier name.
func (t Tier) String() string { return string(t) }

// Stride is the size of the id range reserved per instance index. An
// instance that mints more than Stride ids runs into its neighbour's range.
const Stride = 100000

// Instance identifies the module or screen being built within a tier.
// Indexes are 0-based positions in the resolved module list and in the
// module's screen list. Unused indexes are -1.
type Instance struct {
	Module int `json:"module"`
	Screen int `json:"screen"`
}

// NoInstance is the instance of the basics tier.
var NoInstance = Instance{Module: -1, Screen: -1}

// String formats the instance for logs.
func (i Instance) String() string {
	switch {
	case i.Module < 0:
		return "basics"
	case i.Screen < 0:
		return fmt.Sprintf("module[%d]", i.Module)
	default:
		return fmt.Sprintf("screen[%d,%d]", i.Module, i.Screen)
	}
}

// Base returns the first id minted by the instance in tier t.
//
// The screen base adds the module and screen offsets instead of nesting one
// range in the other, so (0,1) and (1,0) share a base, and a screen base can
// equal a module base. Ledgers from earlier builds depend on these numbers,
// so the scheme is kept as is.
func Base(t Tier, i Instance) int {
	switch t {
	case Module:
		return (i.Module + 1) * Stride
	case Screen:
		return (i.Module+1)*Stride + (i.Screen+1)*Stride
	default:
		return 0
	}
}

// NormalizePath turns the absolute path a bundler reports for a module into
// the ledger key: the path from the project directory's own name onward,
// with forward slashes. For root /work/shop, /work/shop/src/A.js becomes
// shop/src/A.js. Paths that do not contain the project name are kept whole.
func NormalizePath(full, root string) string {
	full = filepath.ToSlash(full)
	base := filepath.Base(root)
	if i := strings.Index(full, base); i >= 0 {
		return full[i:]
	}
	return full
}
