package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/ledger"
	"github.com/matzehuels/tierpack/pkg/template"
	"github.com/matzehuels/tierpack/pkg/tier"
)

type hookFixture struct {
	root    string
	scratch string
	modules []config.ModuleBuild
}

func newHookFixture(t *testing.T) hookFixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "shop")
	scratch := ledger.Dir(root)
	cartDir := filepath.Join(root, "modules", "cart")
	return hookFixture{
		root:    root,
		scratch: scratch,
		modules: []config.ModuleBuild{{
			Prefix:    "cart",
			Version:   "v1",
			Entry:     "src/common.ts",
			Dir:       cartDir,
			EntryFile: filepath.Join(scratch, "cart.js"),
			Screens: []config.ScreenBuild{
				{Screen: config.Screen{Prefix: "list", Path: "src/List.tsx"}, ModuleDir: cartDir, EntryFile: filepath.Join(scratch, "cart_list.js")},
			},
		}},
	}
}

// pluginFile writes the encoded plugin config of tier tt and returns its path.
func (f hookFixture) pluginFile(t *testing.T, tt tier.Tier) string {
	t.Helper()
	data, err := tier.PluginConfig{
		Tier:       tt,
		Platform:   config.Android,
		RootDir:    f.root,
		ScratchDir: f.scratch,
		Modules:    f.modules,
	}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "plugin-"+string(tt)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (f hookFixture) src(name string) string {
	return filepath.Join(f.root, "src", name)
}

// hook runs one hook invocation the way the generated Metro config does.
func hook(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, New(io.Discard, LogInfo), append([]string{"hook"}, args...)...)
	if err != nil {
		t.Fatalf("hook %v: %v", args, err)
	}
	return strings.TrimSpace(out)
}

func TestHookBasics(t *testing.T) {
	f := newHookFixture(t)
	plugin := f.pluginFile(t, tier.Basics)
	entry := filepath.Join(f.root, "index.js")

	hook(t, "premain", "--plugin", plugin, "--entry", entry)

	tests := []struct {
		path string
		want string
	}{
		{f.src("A.js"), "0"},
		{f.src("B.js"), "1"},
		{f.src("A.js"), "0"},
		{f.src("C.js"), "2"},
	}
	for _, tt := range tests {
		if got := hook(t, "id", tt.path, "--plugin", plugin, "--entry", entry); got != tt.want {
			t.Errorf("id(%s) = %s, want %s", filepath.Base(tt.path), got, tt.want)
		}
	}

	if got := hook(t, "filter", "--type", "js/module", f.src("A.js"), "--plugin", plugin); got != "true" {
		t.Errorf("filter(A.js) = %s, want true", got)
	}
	if got := hook(t, "filter", "--type", tier.VirtualScript, "__prelude__", "--plugin", plugin); got != "false" {
		t.Errorf("filter(__prelude__) = %s, want false", got)
	}
}

func TestHookModule(t *testing.T) {
	f := newHookFixture(t)
	basics := f.pluginFile(t, tier.Basics)
	hook(t, "premain", "--plugin", basics, "--entry", filepath.Join(f.root, "index.js"))
	hook(t, "id", f.src("A.js"), "--plugin", basics)

	plugin := f.pluginFile(t, tier.Module)
	entry := filepath.Join(f.scratch, "cart.js")
	hook(t, "premain", "--plugin", plugin, "--entry", entry)

	if got := hook(t, "id", f.src("A.js"), "--plugin", plugin, "--entry", entry); got != "0" {
		t.Errorf("id(A.js) = %s, want 0 from basics", got)
	}
	if got := hook(t, "id", f.src("D.js"), "--plugin", plugin, "--entry", entry); got != "100000" {
		t.Errorf("id(D.js) = %s, want 100000", got)
	}
	if got := hook(t, "id", f.src("E.js"), "--plugin", plugin, "--entry", entry); got != "100001" {
		t.Errorf("id(E.js) = %s, want 100001", got)
	}

	if got := hook(t, "filter", f.src("A.js"), "--plugin", plugin, "--entry", entry); got != "false" {
		t.Errorf("filter(A.js) = %s, want false", got)
	}
	if got := hook(t, "filter", f.src("D.js"), "--plugin", plugin, "--entry", entry); got != "true" {
		t.Errorf("filter(D.js) = %s, want true", got)
	}

	// A new premain starts the module ledger over.
	hook(t, "premain", "--plugin", plugin, "--entry", entry)
	if got := hook(t, "id", f.src("E.js"), "--plugin", plugin, "--entry", entry); got != "100000" {
		t.Errorf("id(E.js) after premain = %s, want 100000", got)
	}
}

func TestHookEnvironment(t *testing.T) {
	f := newHookFixture(t)
	t.Setenv(template.PluginEnv, f.pluginFile(t, tier.Screen))
	t.Setenv(template.EntryEnv, filepath.Join(f.scratch, "cart_list.js"))

	hook(t, "premain")
	if got := hook(t, "id", f.src("G.js")); got != "200000" {
		t.Errorf("id(G.js) = %s, want 200000", got)
	}
}

func TestHookErrors(t *testing.T) {
	f := newHookFixture(t)
	t.Setenv(template.PluginEnv, "")
	t.Setenv(template.EntryEnv, "")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no plugin", []string{"hook", "premain"}, errors.ErrCodeInvalidInput},
		{"missing file", []string{"hook", "premain", "--plugin", filepath.Join(t.TempDir(), "none.json")}, errors.ErrCodeInvalidInput},
		{"unknown entry", []string{"hook", "id", f.src("A.js"), "--plugin", f.pluginFile(t, tier.Module), "--entry", "other.js"}, errors.ErrCodeInstanceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, New(io.Discard, LogInfo), tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestHookPremainLogsInstance(t *testing.T) {
	f := newHookFixture(t)
	plugin := f.pluginFile(t, tier.Screen)

	var buf bytes.Buffer
	_, err := execute(t, New(&buf, LogDebug), "hook", "premain", "--plugin", plugin, "--entry", filepath.Join(f.scratch, "cart_list.js"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"tier resolved", "screen[0,0]", "cart_list.js"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q:\n%s", want, buf.String())
		}
	}
}
