package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/template"
	"github.com/matzehuels/tierpack/pkg/tier"
)

// hookOpts holds the flags shared by the hook subcommands.
type hookOpts struct {
	plugin string // plugin config file, defaults to $TIERPACK_PLUGIN
	entry  string // bundle entry file, defaults to $TIERPACK_ENTRY
}

// hookCommand creates the hidden hook command. The Metro config written for
// each bundler run calls it once per serializer hook.
//
// Every id and filter call is its own process that reloads the plugin config
// and reparses the lower-tier ledgers, so a bundle costs one process start
// and one ledger read per module it contains. Large basics graphs feel this
// most.
func (c *CLI) hookCommand() *cobra.Command {
	var opts hookOpts

	cmd := &cobra.Command{
		Use:    "hook",
		Short:  "Serializer hooks called by the generated Metro config",
		Hidden: true,
	}

	cmd.PersistentFlags().StringVar(&opts.plugin, "plugin", "", "plugin config file (default $"+template.PluginEnv+")")
	cmd.PersistentFlags().StringVar(&opts.entry, "entry", "", "bundle entry file (default $"+template.EntryEnv+")")

	cmd.AddCommand(hookPremainCommand(&opts))
	cmd.AddCommand(hookIDCommand(&opts))
	cmd.AddCommand(hookFilterCommand(&opts))

	return cmd
}

func hookPremainCommand(opts *hookOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "premain",
		Short: "Resolve the tier instance and reset its ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.load()
			if err != nil {
				return err
			}
			if err := p.BeforeMain(opts.entryFile()); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("tier resolved",
				"tier", p.Config().Tier,
				"instance", p.Instance(),
				"entry", opts.entryFile())
			return nil
		},
	}
}

func hookIDCommand(opts *hookOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "id <module-path>",
		Short: "Print the id of a module path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.resolve()
			if err != nil {
				return err
			}
			factory, err := p.NewIDFactory()
			if err != nil {
				return err
			}
			id, err := factory(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.Itoa(id))
			return nil
		},
	}
}

func hookFilterCommand(opts *hookOpts) *cobra.Command {
	var outputType string

	cmd := &cobra.Command{
		Use:   "filter <module-path>",
		Short: "Print whether a module belongs in the bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.resolve()
			if err != nil {
				return err
			}
			ok, err := p.Filter(tier.BundleModule{Path: args[0], OutputType: outputType})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
			return nil
		},
	}

	cmd.Flags().StringVar(&outputType, "type", "", "output type of the module's first output")

	return cmd
}

// entryFile returns --entry, falling back to the environment.
func (o *hookOpts) entryFile() string {
	if o.entry != "" {
		return o.entry
	}
	return os.Getenv(template.EntryEnv)
}

// load reads the plugin config file and builds the plugin.
func (o *hookOpts) load() (*tier.TierPlugin, error) {
	path := o.plugin
	if path == "" {
		path = os.Getenv(template.PluginEnv)
	}
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no plugin config: pass --plugin or set %s", template.PluginEnv)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read plugin config")
	}
	cfg, err := tier.DecodePluginConfig(data)
	if err != nil {
		return nil, err
	}
	return tier.NewPlugin(cfg), nil
}

// resolve loads the plugin and binds it to the entry's tier instance without
// touching its ledger.
func (o *hookOpts) resolve() (*tier.TierPlugin, error) {
	p, err := o.load()
	if err != nil {
		return nil, err
	}
	if err := p.Resolve(o.entryFile()); err != nil {
		return nil, err
	}
	return p, nil
}
