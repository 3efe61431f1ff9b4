package cli

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/ledger"
	"github.com/matzehuels/tierpack/pkg/pipeline"
)

// debugCommand creates the debug command, which serves every selected
// module and screen from one aggregate entry behind a navigation menu.
func (c *CLI) debugCommand() *cobra.Command {
	var (
		modules  string
		platform string
		port     int
	)

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Start the development server with all modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := config.ParsePlatform(platform)
			if err != nil {
				return err
			}
			project, err := pipeline.Prepare(pipeline.Options{
				RootDir:  c.root,
				Platform: p,
				Only:     parseModules(modules),
			})
			if err != nil {
				return err
			}
			for _, prefix := range project.Missing {
				printWarning("No module with prefix %q", prefix)
			}

			runner, err := c.newRunner()
			if err != nil {
				return err
			}
			printInfo("Development server on port %s", StyleNumber.Render(strconv.Itoa(port)))
			printDetail("Entry: %s", filepath.Join(ledger.DirName, pipeline.DebugEntryFile))
			return runner.Debug(ctx, project, port)
		},
	}

	cmd.Flags().StringVarP(&modules, "modules", "m", "", "comma-separated module prefixes (all when empty)")
	cmd.Flags().StringVarP(&platform, "platform", "p", string(config.Android), "platform used to resolve modules")
	cmd.Flags().IntVar(&port, "port", pipeline.DefaultPort, "development server port")

	_ = cmd.RegisterFlagCompletionFunc("platform", completePlatforms)
	_ = cmd.RegisterFlagCompletionFunc("modules", c.completeModules)

	return cmd
}
