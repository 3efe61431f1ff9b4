package bundler

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/tier"
)

func TestBundleArgs(t *testing.T) {
	req := Request{
		Platform:     config.IOS,
		EntryFile:    "/p/index.js",
		BundleOutput: "/p/dist/ios/basics.ios.bundle",
		AssetsDest:   "/p/dist/ios/res/",
	}
	got := BundleArgs(req, "/p/.tierpack/metro.config.js")
	want := []string{
		"bundle",
		"--platform", "ios",
		"--dev", "false",
		"--entry-file", "/p/index.js",
		"--bundle-output", "/p/dist/ios/basics.ios.bundle",
		"--assets-dest", "/p/dist/ios/res/",
		"--config", "/p/.tierpack/metro.config.js",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BundleArgs =\n%v\nwant\n%v", got, want)
	}
}

func TestHermes(t *testing.T) {
	got := HermesArgs("/out/a.bundle")
	want := []string{"/out/a.bundle", "-emit-binary", "-out", "/out/a.bundle.hbc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HermesArgs = %v, want %v", got, want)
	}

	tests := map[string]string{
		"darwin":  "osx-bin",
		"windows": "win64-bin",
		"linux":   "linux64-bin",
		"freebsd": "linux64-bin",
	}
	for goos, dir := range tests {
		if got := hermesBinDir(goos); got != dir {
			t.Errorf("hermesBinDir(%q) = %q, want %q", goos, got, dir)
		}
	}

	compiler := HermesCompiler("/p")
	if filepath.Base(compiler) != "hermesc" || filepath.Base(filepath.Dir(compiler)) != hermesBinDir(runtime.GOOS) {
		t.Errorf("HermesCompiler = %q", compiler)
	}
}

func TestServeArgs(t *testing.T) {
	got := ServeArgs(8081)
	want := []string{filepath.Join("node_modules", "react-native", "local-cli", "cli.js"), "start", "--port", "8081"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ServeArgs = %v, want %v", got, want)
	}
}

// fakeCLI writes an executable shell script standing in for react-native.
func fakeCLI(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "react-native")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testPlugin(t *testing.T) tier.PluginConfig {
	root := t.TempDir()
	return tier.PluginConfig{
		Tier:       tier.Basics,
		Platform:   config.Android,
		RootDir:    root,
		ScratchDir: filepath.Join(root, ".tierpack"),
	}
}

func TestExecBundle(t *testing.T) {
	// $9 is the --bundle-output value.
	cli := fakeCLI(t, `cp "$TIERPACK_PLUGIN" "$9" && test "$TIERPACK_ENTRY" = "$7"`)
	plugin := testPlugin(t)
	out := filepath.Join(plugin.RootDir, "basics.android.bundle")

	e := &Exec{Executable: "/bin/tierpack", Command: cli, Logger: log.New(os.Stderr)}
	err := e.Bundle(context.Background(), Request{
		Platform:     config.Android,
		EntryFile:    filepath.Join(plugin.RootDir, "index.js"),
		BundleOutput: out,
		AssetsDest:   filepath.Join(plugin.RootDir, "res") + string(filepath.Separator),
	}, plugin)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got, err := tier.DecodePluginConfig(data)
	if err != nil {
		t.Fatalf("bundler saw invalid plugin config: %v", err)
	}
	if got.Tier != tier.Basics || got.RootDir != plugin.RootDir {
		t.Errorf("plugin config = %+v", got)
	}

	// Temporary plugin and Metro configs are cleaned up.
	left, _ := filepath.Glob(filepath.Join(plugin.ScratchDir, "*"))
	if len(left) != 0 {
		t.Errorf("scratch files left behind: %v", left)
	}
}

func TestExecBundleFailure(t *testing.T) {
	cli := fakeCLI(t, "echo 'Unable to resolve module' >&2\nexit 3\n")
	plugin := testPlugin(t)

	e := &Exec{Executable: "/bin/tierpack", Command: cli}
	err := e.Bundle(context.Background(), Request{
		Platform:     config.Android,
		EntryFile:    "index.js",
		BundleOutput: filepath.Join(plugin.RootDir, "out.bundle"),
	}, plugin)

	if !errors.Is(err, errors.ErrCodeBundleFailed) {
		t.Fatalf("err = %v, want BUNDLE_FAILED", err)
	}
	var be *errors.BundleError
	if !stderrors.As(err, &be) {
		t.Fatalf("err = %v, want *BundleError", err)
	}
	if be.ExitCode != 3 || be.Stderr != "Unable to resolve module" || be.Entry != "index.js" {
		t.Errorf("BundleError = %+v", be)
	}
}

func TestExecBundleMissingCommand(t *testing.T) {
	plugin := testPlugin(t)
	e := &Exec{Executable: "/bin/tierpack", Command: filepath.Join(plugin.RootDir, "no-such-cli")}
	err := e.Bundle(context.Background(), Request{EntryFile: "index.js"}, plugin)

	var be *errors.BundleError
	if !stderrors.As(err, &be) || be.ExitCode != -1 {
		t.Errorf("err = %v, want BundleError with ExitCode -1", err)
	}
}
