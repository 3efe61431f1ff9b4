package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/tierpack/pkg/errors"
)

const projectJSON = `{
  "version": "v1.0.0",
  "depend": {"android": "0.72.4-a", "ios": "0.72.4-i"},
  "entry": "index.js",
  "output": "dist",
  "modules": ["modules/cart", "modules/profile"]
}`

const cartJSON = `{
  "name": "Cart",
  "prefix": "cart",
  "version": "v2.0.0",
  "entry": "src/common.ts",
  "screens": [
    {"prefix": "list", "path": "src/List.tsx", "preload": true, "deeplink": "app://cart"},
    {"prefix": "detail", "path": "src/Detail.tsx"}
  ]
}`

const profileTOML = `
prefix = "profile"
version = "v1.1.0"

[[screens]]
prefix = "home"
path = "src/Home.tsx"
deeplink = "app://me"
`

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input   string
		want    Platform
		wantErr bool
	}{
		{"android", Android, false},
		{"ios", IOS, false},
		{"", "", true},
		{"web", "", true},
		{"Android", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePlatform(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePlatform(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidPlatform) {
			t.Errorf("ParsePlatform(%q) code = %v", tt.input, errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ParsePlatform(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDependFor(t *testing.T) {
	d := Depend{Android: "a", IOS: "i"}
	if d.For(Android) != "a" || d.For(IOS) != "i" {
		t.Errorf("Depend.For mismatch: %q %q", d.For(Android), d.For(IOS))
	}
}

func TestLoadProjectJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tierpack.config.json"), projectJSON)

	p, err := LoadProject(root)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if p.Version != "v1.0.0" || p.Entry != "index.js" || p.Output != "dist" {
		t.Errorf("unexpected project: %+v", p)
	}
	if p.Depend.IOS != "0.72.4-i" {
		t.Errorf("Depend.IOS = %q", p.Depend.IOS)
	}
	if len(p.Modules) != 2 {
		t.Errorf("Modules = %v", p.Modules)
	}
}

func TestLoadProjectTOML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tierpack.config.toml"), `
version = "v3.0.0"
entry = "index.js"
output = "build"
modules = ["modules/a"]

[depend]
android = "1"
ios = "2"
`)
	p, err := LoadProject(root)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if p.Version != "v3.0.0" || p.Depend.For(IOS) != "2" || p.Output != "build" {
		t.Errorf("unexpected project: %+v", p)
	}
}

func TestLoadModuleYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "module.config.yaml"), `
name: Orders
prefix: orders
version: v1.2.0
entry: src/common.ts
screens:
  - prefix: list
    path: src/List.tsx
    preload: true
    deeplink: app://orders
  - prefix: detail
    path: src/Detail.tsx
`)
	m, err := LoadModule(dir)
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if m.Prefix != "orders" || m.Entry != "src/common.ts" || len(m.Screens) != 2 {
		t.Fatalf("unexpected module: %+v", m)
	}
	if !m.Screens[0].Preload || m.Screens[0].Deeplink != "app://orders" {
		t.Errorf("screen[0] = %+v", m.Screens[0])
	}
	if m.Screens[1].Preload || m.Screens[1].Deeplink != "" {
		t.Errorf("screen[1] = %+v", m.Screens[1])
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tierpack.config.json"), `{"version":"json","entry":"index.js","output":"dist"}`)
	writeFile(t, filepath.Join(root, "tierpack.config.yaml"), "version: yaml\nentry: index.js\noutput: dist\n")

	p, err := LoadProject(root)
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != "json" {
		t.Errorf("Version = %q, want the JSON config", p.Version)
	}
}

func TestLoadProjectErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.Code
	}{
		{"missing", "", "", errors.ErrCodeConfigNotFound},
		{"bad json", "tierpack.config.json", "{", errors.ErrCodeInvalidConfig},
		{"bad toml", "tierpack.config.toml", "version = ", errors.ErrCodeInvalidConfig},
		{"bad yaml", "tierpack.config.yaml", "version: [", errors.ErrCodeInvalidConfig},
		{"no version", "tierpack.config.json", `{"entry":"index.js","output":"dist"}`, errors.ErrCodeInvalidConfig},
		{"absolute entry", "tierpack.config.json", `{"version":"v1","entry":"/index.js","output":"dist"}`, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(root, tt.file), tt.content)
			}
			_, err := LoadProject(root)
			if !errors.Is(err, tt.code) {
				t.Errorf("LoadProject error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestModuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		module  Module
		wantErr bool
	}{
		{"minimal", Module{Prefix: "cart", Version: "v1"}, false},
		{"bad prefix", Module{Prefix: "my_cart", Version: "v1"}, true},
		{"no version", Module{Prefix: "cart"}, true},
		{"bad entry", Module{Prefix: "cart", Version: "v1", Entry: "/abs.ts"}, true},
		{"bad screen prefix", Module{Prefix: "cart", Version: "v1", Screens: []Screen{{Prefix: "", Path: "a.tsx"}}}, true},
		{"duplicate screen", Module{Prefix: "cart", Version: "v1", Screens: []Screen{
			{Prefix: "list", Path: "a.tsx"},
			{Prefix: "list", Path: "b.tsx"},
		}}, true},
		{"empty screen path", Module{Prefix: "cart", Version: "v1", Screens: []Screen{{Prefix: "list"}}}, true},
		{"bad deeplink", Module{Prefix: "cart", Version: "v1", Screens: []Screen{{Prefix: "list", Path: "a.tsx", Deeplink: "a b"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.module.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	root := newProject(t)
	p, err := LoadProject(root)
	if err != nil {
		t.Fatal(err)
	}
	scratch := filepath.Join(root, ".tierpack")

	builds, err := Resolve(root, p, scratch, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(builds) != 2 {
		t.Fatalf("len(builds) = %d, want 2", len(builds))
	}

	cart := builds[0]
	if cart.Prefix != "cart" || !cart.HasCommon() {
		t.Errorf("cart = %+v", cart)
	}
	if cart.EntryFile != filepath.Join(scratch, "cart.js") {
		t.Errorf("cart.EntryFile = %q", cart.EntryFile)
	}
	if cart.SourceEntry() != filepath.Join(root, "modules", "cart", "src", "common.ts") {
		t.Errorf("cart.SourceEntry() = %q", cart.SourceEntry())
	}
	if len(cart.Screens) != 2 {
		t.Fatalf("cart screens = %d", len(cart.Screens))
	}
	list := cart.Screens[0]
	if list.EntryFile != filepath.Join(scratch, "cart_list.js") || !list.Preload || list.Deeplink != "app://cart" {
		t.Errorf("list = %+v", list)
	}
	if list.SourcePath() != filepath.Join(root, "modules", "cart", "src", "List.tsx") {
		t.Errorf("list.SourcePath() = %q", list.SourcePath())
	}

	profile := builds[1]
	if profile.HasCommon() || profile.EntryFile != "" {
		t.Errorf("profile should have no shared entry: %+v", profile)
	}
}

func TestResolveFilter(t *testing.T) {
	root := newProject(t)
	p, _ := LoadProject(root)

	builds, err := Resolve(root, p, t.TempDir(), []string{"profile", "nope"})
	if err != nil {
		t.Fatal(err)
	}
	if len(builds) != 1 || builds[0].Prefix != "profile" {
		t.Fatalf("builds = %+v", builds)
	}

	missing := Missing([]string{"profile", "nope"}, builds)
	if len(missing) != 1 || missing[0] != "nope" {
		t.Errorf("Missing = %v", missing)
	}
}

func TestResolveDuplicatePrefix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tierpack.config.json"),
		`{"version":"v1","entry":"index.js","output":"dist","modules":["a","b"]}`)
	writeFile(t, filepath.Join(root, "a", "module.config.json"), `{"prefix":"cart","version":"v1"}`)
	writeFile(t, filepath.Join(root, "b", "module.config.json"), `{"prefix":"cart","version":"v1"}`)

	p, _ := LoadProject(root)
	_, err := Resolve(root, p, t.TempDir(), nil)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestAppKey(t *testing.T) {
	if got := AppKey("cart", "list"); got != "cart_list" {
		t.Errorf("AppKey = %q", got)
	}
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tierpack.config.json"), projectJSON)
	writeFile(t, filepath.Join(root, "modules", "cart", "module.config.json"), cartJSON)
	writeFile(t, filepath.Join(root, "modules", "profile", "module.config.toml"), profileTOML)
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
