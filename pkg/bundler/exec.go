package bundler

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/template"
	"github.com/matzehuels/tierpack/pkg/tier"
)

// DefaultCommand is the react-native CLI looked up on PATH.
const DefaultCommand = "react-native"

// Exec runs the react-native CLI as a child process.
type Exec struct {
	// Executable is the tierpack binary the generated Metro config calls
	// back into. Defaults to os.Executable().
	Executable string

	// Command is the react-native CLI. Defaults to DefaultCommand.
	Command string

	// Stdout and Stderr receive the development server's output. The
	// bundler's own output is captured and only reported on failure.
	Stdout io.Writer
	Stderr io.Writer

	Logger *log.Logger
}

// NewExec creates an Exec bundler that calls back into the running binary.
func NewExec(logger *log.Logger) (*Exec, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "locate tierpack executable")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Exec{
		Executable: self,
		Command:    DefaultCommand,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     logger,
	}, nil
}

// Bundle writes the plugin config and a Metro config for the tier into the
// scratch directory, runs `react-native bundle` and, with req.Hermes,
// hermesc on the result. Both files are removed afterwards.
func (e *Exec) Bundle(ctx context.Context, req Request, plugin tier.PluginConfig) error {
	pluginFile, err := e.writePlugin(plugin)
	if err != nil {
		return err
	}
	defer os.Remove(pluginFile)

	metroFile, err := e.writeMetroConfig(plugin)
	if err != nil {
		return err
	}
	defer os.Remove(metroFile)

	cmd := exec.CommandContext(ctx, e.command(), BundleArgs(req, metroFile)...)
	cmd.Dir = plugin.RootDir
	cmd.Env = append(os.Environ(),
		template.PluginEnv+"="+pluginFile,
		template.EntryEnv+"="+req.EntryFile,
	)
	e.logger().Debug("running bundler", "tier", plugin.Tier, "entry", req.EntryFile, "output", req.BundleOutput)
	if err := run(cmd, req.EntryFile); err != nil {
		return err
	}

	if !req.Hermes {
		return nil
	}
	hermes := exec.CommandContext(ctx, HermesCompiler(plugin.RootDir), HermesArgs(req.BundleOutput)...)
	hermes.Dir = plugin.RootDir
	e.logger().Debug("running hermesc", "bundle", req.BundleOutput)
	return run(hermes, req.BundleOutput)
}

// Serve starts the Metro development server and blocks until it exits or
// ctx is cancelled.
func (e *Exec) Serve(ctx context.Context, req ServeRequest) error {
	cmd := exec.CommandContext(ctx, "node", ServeArgs(req.Port)...)
	cmd.Dir = req.RootDir
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	e.logger().Info("starting development server", "port", req.Port)

	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeBundleFailed, err, "development server")
	}
	return nil
}

func (e *Exec) writePlugin(plugin tier.PluginConfig) (string, error) {
	data, err := plugin.Encode()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(plugin.ScratchDir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create %s", plugin.ScratchDir)
	}
	f, err := os.CreateTemp(plugin.ScratchDir, "plugin-"+string(plugin.Tier)+"-*.json")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create plugin config")
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write plugin config")
	}
	return f.Name(), nil
}

func (e *Exec) writeMetroConfig(plugin tier.PluginConfig) (string, error) {
	f, err := os.CreateTemp(plugin.ScratchDir, "metro-"+string(plugin.Tier)+"-*.config.js")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create metro config")
	}
	name := f.Name()
	f.Close()

	err = template.WriteFile(name, func(w io.Writer) error {
		return template.MetroConfig(w, template.MetroData{
			Tier:       string(plugin.Tier),
			Executable: e.Executable,
			RootDir:    plugin.RootDir,
		})
	})
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func (e *Exec) command() string {
	if e.Command == "" {
		return DefaultCommand
	}
	return e.Command
}

func (e *Exec) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

// run executes cmd capturing stderr into a BundleError on failure.
func run(cmd *exec.Cmd, entry string) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	be := &errors.BundleError{Entry: entry, ExitCode: -1, Stderr: strings.TrimSpace(stderr.String())}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		be.ExitCode = exitErr.ExitCode()
	}
	return errors.Wrap(errors.ErrCodeBundleFailed, be, "%s", filepath.Base(cmd.Path))
}

// =============================================================================
// Command lines
// =============================================================================

// BundleArgs returns the react-native arguments for req.
func BundleArgs(req Request, metroConfig string) []string {
	return []string{
		"bundle",
		"--platform", string(req.Platform),
		"--dev", "false",
		"--entry-file", req.EntryFile,
		"--bundle-output", req.BundleOutput,
		"--assets-dest", req.AssetsDest,
		"--config", metroConfig,
	}
}

// HermesArgs returns the hermesc arguments compiling bundle to
// <bundle>.hbc.
func HermesArgs(bundle string) []string {
	return []string{bundle, "-emit-binary", "-out", bundle + ".hbc"}
}

// HermesCompiler returns the hermesc path shipped in the project's
// hermes-engine package for the host OS.
func HermesCompiler(root string) string {
	return filepath.Join(root, "node_modules", "hermes-engine", hermesBinDir(runtime.GOOS), "hermesc")
}

func hermesBinDir(goos string) string {
	switch goos {
	case "darwin":
		return "osx-bin"
	case "windows":
		return "win64-bin"
	default:
		return "linux64-bin"
	}
}

// ServeArgs returns the node arguments starting the development server.
func ServeArgs(port int) []string {
	return []string{
		filepath.Join("node_modules", "react-native", "local-cli", "cli.js"),
		"start",
		"--port", strconv.Itoa(port),
	}
}
