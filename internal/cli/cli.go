package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tierpack/pkg/buildinfo"
	"github.com/matzehuels/tierpack/pkg/bundler"
	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/observability"
	"github.com/matzehuels/tierpack/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "tierpack"

	// defaultServeAddr is the listen address of the serve command.
	defaultServeAddr = ":8090"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// root is the project directory (--root).
	root string

	// newBundler builds the bundler used by build and debug. Tests replace it.
	newBundler func(*log.Logger) (bundler.Bundler, error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		root:   ".",
		newBundler: func(l *log.Logger) (bundler.Bundler, error) {
			return bundler.NewExec(l)
		},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Tierpack splits React Native apps into tiered bundles",
		Long:         `Tierpack builds a React Native app as a basics bundle, one bundle per module's shared code and one bundle per screen, with module ids that stay stable across the tiers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			observability.SetBuildHooks(buildLog{logger: c.Logger})
			observability.SetLedgerHooks(ledgerLog{logger: c.Logger})
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.root, "root", c.root, "project root directory")

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.debugCommand())
	root.AddCommand(c.ledgerCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.hookCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() (*pipeline.Runner, error) {
	b, err := c.newBundler(c.Logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(b, c.Logger), nil
}

// =============================================================================
// Paths
// =============================================================================

// rootDir returns the absolute project root.
func (c *CLI) rootDir() (string, error) {
	return filepath.Abs(c.root)
}

// outputDir returns <root>/<output>/<platform> from the project config.
func (c *CLI) outputDir(p config.Platform) (string, error) {
	root, err := c.rootDir()
	if err != nil {
		return "", err
	}
	cfg, err := config.LoadProject(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, cfg.Output, string(p)), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseModules splits a --modules value into prefixes. An empty value
// selects every module.
func parseModules(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// Flag Completion
// =============================================================================

// completePlatforms completes --platform values.
func completePlatforms(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{string(config.Android), string(config.IOS)}, cobra.ShellCompDirectiveNoFileComp
}

// completeModules completes --modules values with the prefixes of the
// modules listed in the project config.
func (c *CLI) completeModules(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	root, err := c.rootDir()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	project, err := config.LoadProject(root)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	// Complete the last element of a comma-separated list.
	done, _ := splitLast(toComplete)
	var out []string
	for _, dir := range project.Modules {
		m, err := config.LoadModule(filepath.Join(root, dir))
		if err != nil {
			continue
		}
		out = append(out, done+m.Prefix)
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// splitLast splits "a,b,c" into "a,b," and "c".
func splitLast(s string) (string, string) {
	i := strings.LastIndex(s, ",")
	return s[:i+1], s[i+1:]
}
