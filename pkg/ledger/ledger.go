package ledger

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/observability"
)

// InvalidID is the id cached for a ledger line whose id field does not parse
// as an integer. It is propagated as-is; ledgers are never validated.
const InvalidID = -1

// separator splits the module path from its id on each ledger line.
const separator = "|"

// Entry is one path|id record.
type Entry struct {
	Path string
	ID   int
}

// Ledger is the persisted path → id mapping of one tier instance on one
// platform. The backing file is append-only; the in-memory cache is filled
// from the file on first query and then never refreshed until Clear.
//
// A Ledger is safe for concurrent use by multiple goroutines of one process.
// Nothing coordinates two processes writing the same file: tier instances
// are given distinct files instead.
type Ledger struct {
	path string

	mu      sync.Mutex
	entries map[string]int
	order   []string
}

// Open returns a ledger backed by the file at path. No I/O happens until the
// first query or record.
func Open(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

// Clear truncates the backing file if it exists and invalidates the cache.
// The containing directory is left in place.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.order = nil

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "stat %s", l.path)
	}
	if err := os.Truncate(l.path, 0); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "truncate %s", l.path)
	}
	observability.Ledger().OnLedgerClear(l.path)
	return nil
}

// Record appends a path|id line, creating the directory and file on first
// use. Existing lines are never rewritten: callers must check Contains first.
func (l *Ledger) Record(path string, id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.loadLocked(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "create ledger dir")
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "open %s", l.path)
	}
	if _, err := fmt.Fprintf(f, "%s%s%d\n", path, separator, id); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "append %s", l.path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "close %s", l.path)
	}

	l.setLocked(path, id)
	observability.Ledger().OnLedgerRecord(l.path, id)
	return nil
}

// Contains reports whether path has a record.
func (l *Ledger) Contains(path string) (bool, error) {
	_, ok, err := l.Lookup(path)
	return ok, err
}

// Lookup returns the id recorded for path.
func (l *Ledger) Lookup(path string) (int, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.loadLocked(); err != nil {
		return 0, false, err
	}
	id, ok := l.entries[path]
	return id, ok, nil
}

// Entries returns all records in file order.
func (l *Ledger) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(l.order))
	for _, p := range l.order {
		out = append(out, Entry{Path: p, ID: l.entries[p]})
	}
	return out, nil
}

// Len returns the number of distinct paths recorded.
func (l *Ledger) Len() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.loadLocked(); err != nil {
		return 0, err
	}
	return len(l.order), nil
}

// loadLocked fills the cache from the backing file while the cache is empty.
// A missing file leaves the cache empty, so a later call retries.
func (l *Ledger) loadLocked() error {
	if len(l.entries) > 0 {
		return nil
	}

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "read %s", l.path)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		path, id := parseLine(line)
		l.setLocked(path, id)
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerIO, err, "parse %s", l.path)
	}

	if len(l.order) > 0 {
		observability.Ledger().OnLedgerLoad(l.path, len(l.order))
	}
	return nil
}

func (l *Ledger) setLocked(path string, id int) {
	if l.entries == nil {
		l.entries = make(map[string]int)
	}
	if _, ok := l.entries[path]; !ok {
		l.order = append(l.order, path)
	}
	l.entries[path] = id
}

// parseLine splits "path|id". Anything after a second separator is ignored.
func parseLine(line string) (string, int) {
	parts := strings.Split(line, separator)
	if len(parts) < 2 {
		return parts[0], InvalidID
	}
	id, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return parts[0], InvalidID
	}
	return parts[0], id
}
