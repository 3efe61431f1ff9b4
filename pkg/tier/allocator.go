package tier

import (
	"sync"

	"github.com/matzehuels/tierpack/pkg/ledger"
)

// Allocator hands out module ids for one tier instance.
//
// Lookup order for a path: ids minted by this allocator, then the lower-tier
// ledgers in order, then a new id of Base(tier, instance) plus the number of
// ids minted so far. New ids are recorded on the instance's own ledger; ids
// reused from a lower tier are not.
type Allocator struct {
	tier  Tier
	inst  Instance
	own   *ledger.Ledger
	lower []*ledger.Ledger

	mu  sync.Mutex
	ids map[string]int
}

// NewAllocator creates an allocator writing to own and consulting lower
// (basics first, then the owning module for screens).
//
// The allocator starts from whatever own already holds. After the usual
// Clear at the start of a build that is nothing; when own was left intact,
// paths recorded there keep their ids and numbering continues after them.
func NewAllocator(t Tier, inst Instance, own *ledger.Ledger, lower ...*ledger.Ledger) (*Allocator, error) {
	a := &Allocator{
		tier:  t,
		inst:  inst,
		own:   own,
		lower: lower,
		ids:   make(map[string]int),
	}
	entries, err := own.Entries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		a.ids[e.Path] = e.ID
	}
	return a, nil
}

// ID returns the id for a normalized module path.
func (a *Allocator) ID(path string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.ids[path]; ok {
		return id, nil
	}

	for _, l := range a.lower {
		if id, ok, err := l.Lookup(path); err != nil {
			return 0, err
		} else if ok {
			return id, nil
		}
	}

	id := Base(a.tier, a.inst) + len(a.ids)
	if err := a.own.Record(path, id); err != nil {
		return 0, err
	}
	a.ids[path] = id
	return id, nil
}

// minted returns how many ids this allocator holds in its own range.
func (a *Allocator) minted() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids)
}
