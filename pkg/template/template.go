// Package template renders the JavaScript sources tierpack generates: screen
// registration entries, shared-code wrappers, the debug menu and aggregate
// entry, and the Metro configs that forward serializer hooks to tierpack.
//
// Every rendered file starts with [buildinfo.Banner].
package template

import (
	"bytes"
	"embed"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	tmpl "text/template"

	"github.com/matzehuels/tierpack/pkg/buildinfo"
	"github.com/matzehuels/tierpack/pkg/errors"
)

//go:embed templates/*.tmpl
var files embed.FS

// Environment variables read by the generated Metro config.
const (
	PluginEnv = "TIERPACK_PLUGIN"
	EntryEnv  = "TIERPACK_ENTRY"
)

// DebuggerKey is the registration key of the debug menu.
const DebuggerKey = "TierpackDebugger"

var (
	parsed    *tmpl.Template
	parseErr  error
	parseOnce sync.Once
)

func templates() (*tmpl.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = tmpl.New("").Funcs(tmpl.FuncMap{
			"banner": buildinfo.Banner,
			"quote":  quote,
			"json":   toJSON,
		}).ParseFS(files, "templates/*.tmpl")
	})
	return parsed, parseErr
}

func render(w io.Writer, name string, data any) error {
	t, err := templates()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "parse templates")
	}
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render %s", name)
	}
	return nil
}

// quote renders s as a double-quoted JavaScript string literal.
func quote(s string) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// =============================================================================
// Sources
// =============================================================================

// Register renders the entry that registers the component at importPath
// under appKey.
func Register(w io.Writer, appKey, importPath string) error {
	return render(w, "register.js.tmpl", struct{ AppKey, Import string }{appKey, importPath})
}

// Common renders the entry that wraps a module's shared code and registers
// its default export under the module prefix.
func Common(w io.Writer, prefix, importPath string) error {
	return render(w, "common.js.tmpl", struct{ AppKey, Import string }{prefix, importPath})
}

// DebugModule is one module listed in the debug menu.
type DebugModule struct {
	Prefix  string   `json:"prefix"`
	Name    string   `json:"name"`
	Screens []string `json:"screens"`
}

// Debugger renders the debug menu listing every module's screens.
func Debugger(w io.Writer, modules []DebugModule) error {
	list := make([]DebugModule, len(modules))
	for i, m := range modules {
		if m.Screens == nil {
			m.Screens = []string{}
		}
		list[i] = m
	}
	return render(w, "debugger.tsx.tmpl", struct {
		AppKey  string
		Modules []DebugModule
	}{DebuggerKey, list})
}

// DebugIndex renders an entry that imports each path for its side effects.
func DebugIndex(w io.Writer, imports []string) error {
	return render(w, "index.js.tmpl", struct{ Imports []string }{imports})
}

// MetroData parameterizes a generated Metro config.
type MetroData struct {
	Tier       string
	Executable string
	RootDir    string
	PluginEnv  string
	EntryEnv   string
}

// MetroConfig renders the Metro config for one tier. The serializer hooks
// call `<Executable> hook` with the plugin config named by PluginEnv.
func MetroConfig(w io.Writer, d MetroData) error {
	if d.PluginEnv == "" {
		d.PluginEnv = PluginEnv
	}
	if d.EntryEnv == "" {
		d.EntryEnv = EntryEnv
	}
	return render(w, "metro.config.js.tmpl", d)
}

// =============================================================================
// Helpers
// =============================================================================

// Import returns the module specifier for target as seen from a source file
// in fromDir: relative, with forward slashes, starting with ./ or ../.
func Import(fromDir, target string) (string, error) {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "relative import of %s", target)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}

// WriteFile renders into path, creating parent directories. The file is
// only replaced once rendering has succeeded.
func WriteFile(path string, fn func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
