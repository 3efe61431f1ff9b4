package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/errors"
	"github.com/matzehuels/tierpack/pkg/pipeline"
)

// allModules is the --modules value used when the flag is given bare.
const allModules = "*"

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	platform   string // android or ios
	basics     bool   // build the basics bundle
	modules    string // comma-separated module prefixes, or allModules
	modulesSet bool   // --modules was given
	hermes     bool   // compile bundles to Hermes bytecode
	jobs       int    // bundler processes per stage, 0 for unbounded
}

// only returns the module prefixes selected by --modules. A bare flag may be
// followed by the prefixes as arguments.
func (o buildOpts) only(args []string) []string {
	if o.modules == allModules {
		return parseModules(strings.Join(args, ","))
	}
	return parseModules(o.modules)
}

// buildCommand creates the build command.
//
// The basics stage runs with --basics. The module, screen and manifest
// stages run when --modules is present; without a value it selects every
// module listed in the project config.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build --platform <android|ios> [--basics] [--modules [prefixes]]",
		Short: "Build tiered bundles for a platform",
		Example: `  tierpack build -p android --basics --modules
  tierpack build -p ios --modules=cart,profile
  tierpack build -p ios --modules cart profile --hermes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.modulesSet = cmd.Flags().Changed("modules")
			if len(args) > 0 && (!opts.modulesSet || opts.modules != allModules) {
				return errors.New(errors.ErrCodeInvalidInput, "unexpected arguments: %s", strings.Join(args, " "))
			}
			return c.runBuild(cmd.Context(), opts, opts.only(args))
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "target platform: android or ios (required)")
	cmd.Flags().BoolVarP(&opts.basics, "basics", "b", false, "build the basics bundle")
	cmd.Flags().StringVarP(&opts.modules, "modules", "m", "", "build modules and screens (comma-separated prefixes, all when empty)")
	cmd.Flags().Lookup("modules").NoOptDefVal = allModules
	cmd.Flags().BoolVar(&opts.hermes, "hermes", false, "compile bundles to Hermes bytecode")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "max concurrent bundler processes per stage (0 = one per bundle)")

	_ = cmd.RegisterFlagCompletionFunc("platform", completePlatforms)
	_ = cmd.RegisterFlagCompletionFunc("modules", c.completeModules)

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, opts buildOpts, only []string) error {
	logger := loggerFromContext(ctx)

	platform, err := config.ParsePlatform(opts.platform)
	if err != nil {
		return err
	}
	if !opts.basics && !opts.modulesSet {
		printWarning("Nothing to build")
		printNextStep("Build everything", "tierpack build -p "+string(platform)+" --basics --modules")
		return nil
	}

	project, err := pipeline.Prepare(pipeline.Options{
		RootDir:      c.root,
		Platform:     platform,
		Basics:       opts.basics,
		BuildModules: opts.modulesSet,
		Only:         only,
		Hermes:       opts.hermes,
		Jobs:         opts.jobs,
	})
	if err != nil {
		return err
	}
	for _, prefix := range project.Missing {
		printWarning("No module with prefix %q", prefix)
	}
	logger.Debug("resolved project", "root", project.RootDir, "modules", len(project.Modules))

	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	runner.OnStage = stageSpinner(ctx, platform)

	prog := newProgress(logger)
	results := runner.Build(ctx, project)

	failed := 0
	for _, res := range results {
		printStage(res)
		if !res.OK() {
			failed++
			printDetail("%s", errors.UserMessage(res.Err))
		}
	}
	prog.done("Built %d stages, %d failed", len(results), failed)
	printFile(project.OutputDir())
	return nil
}

// stageSpinner shows a spinner while each stage runs and its outcome once it
// settles.
func stageSpinner(ctx context.Context, platform config.Platform) func(string, bool, error) {
	var s *Spinner
	return func(stage string, done bool, err error) {
		label := fmt.Sprintf("%s %s", StyleHighlight.Render(stage), StyleDim.Render(string(platform)))
		if !done {
			s = newSpinnerWithContext(ctx, stage+" "+string(platform))
			s.Start()
			return
		}
		if s == nil {
			return
		}
		if err != nil {
			s.StopWithError(label + " failed")
		} else {
			s.StopWithSuccess(label)
		}
		s = nil
	}
}
