package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/pipeline"
	"github.com/matzehuels/mtlxport/pkg/source"
)

// translateOpts holds the command-line flags for the translate command.
type translateOpts struct {
	strict   bool
	material string // translate only this material
	root     string // node to translate from instead of the material output
	formats  string // comma-separated output formats
	output   string // output directory
	detailed bool   // detailed labels in dot/svg
	noCache  bool
	refresh  bool
	workers  int
}

// translateCommand creates the translate command.
func (c *CLI) translateCommand() *cobra.Command {
	var opts translateOpts

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate source materials into MaterialX documents",
		Long: `Translate reads a source node graph file (JSON or TOML) and writes one
MaterialX document per material.

Nodes without a direct MaterialX equivalent are synthesized as custom
definitions. Unsupported nodes become placeholders unless --strict is set.`,
		Example: `  mtlxport translate scene.json
  mtlxport translate scene.toml --material Brick --format mtlx,svg -o out/
  mtlxport translate scene.json --strict --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTranslate(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on unsupported nodes instead of emitting placeholders")
	cmd.Flags().StringVarP(&opts.material, "material", "m", "", "translate only this material")
	cmd.Flags().StringVar(&opts.root, "root", "", "translate from this node instead of the material output")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): mtlx (default), json, dot, svg (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node types and values in dot/svg output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and translate again")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "materials translated in parallel (default: number of CPUs)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{pipeline.FormatMTLX, pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("material", completeMaterials)

	return cmd
}

// completeMaterials offers the material names of the file argument.
func completeMaterials(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	file, err := source.ReadFile(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := make([]string, 0, len(file.Materials))
	for _, m := range file.Materials {
		names = append(names, m.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// runTranslate merges flags over the config and executes the pipeline.
func (c *CLI) runTranslate(cmd *cobra.Command, path string, opts translateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	strict := cfg.Strict
	if cmd.Flags().Changed("strict") {
		strict = opts.strict
	}
	formats := cfg.Formats
	if cmd.Flags().Changed("format") {
		if formats, err = pipeline.ParseFormats(opts.formats); err != nil {
			return err
		}
	}
	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = opts.workers
	}

	prog := newProgress(logger)
	file, err := source.ReadFile(path)
	if err != nil {
		return err
	}
	materials, err := pipeline.Select(file, opts.material, opts.root)
	if err != nil {
		return err
	}
	logger.Debug("read source", "path", path, "materials", len(materials))

	setup, err := cfg.newTranslator(strict, logger)
	if err != nil {
		return err
	}
	store, keyer, err := c.newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, keyer, logger, setup.Translator)
	defer runner.Close()

	result, err := runner.Execute(ctx, pipeline.Options{
		Materials: materials,
		Formats:   formats,
		Detailed:  opts.detailed,
		Workers:   workers,
		Refresh:   opts.refresh,
		Catalogs:  setup.Catalogs,
		Schemas:   setup.Schemas,
	})
	if err != nil {
		return err
	}

	if err := writeArtifacts(result, opts.output); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Translated %d materials", result.Stats.Materials-result.Stats.Failed))
	printReport(result, opts.output)

	if failed := result.Failed(); len(failed) > 0 {
		return errs.New(errs.ErrCodeValidationFailed, "%d of %d materials failed", len(failed), result.Stats.Materials)
	}
	return nil
}

// writeArtifacts writes each material's artifacts to dir as
// <material><ext>.
func writeArtifacts(result *pipeline.Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, m := range result.Materials {
		if m.Err != nil {
			continue
		}
		for format, data := range m.Artifacts {
			if err := os.WriteFile(artifactPath(dir, m.Material, format), data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", format, err)
			}
		}
	}
	return nil
}

func artifactPath(dir, material, format string) string {
	return filepath.Join(dir, mtlx.Sanitize(material)+pipeline.Extension(format))
}

// printReport prints one block per material.
func printReport(result *pipeline.Result, dir string) {
	for _, m := range result.Materials {
		if m.Err != nil {
			printError("%s: %s", m.Material, errs.UserMessage(m.Err))
			if m.Result != nil && m.FailedNode != "" {
				printDetail("failed at node %s", m.FailedNode)
			}
			continue
		}
		printSuccess("%s", m.Material)
		printStats(m.Stats.TargetNodes, len(m.Warnings), m.CacheInfo.TranslateHit, m.Degraded())
		for _, u := range m.Unsupported {
			printDetail("unsupported %s node %q replaced by a placeholder", u.Category, u.Name)
		}
		for _, w := range m.Warnings {
			printWarning("%s", w)
		}
		if m.Report != nil {
			for _, e := range m.Report.Errors {
				printError("%s", e)
			}
			for _, w := range m.Report.Warnings {
				printWarning("%s", w)
			}
		}

		formats := make([]string, 0, len(m.Artifacts))
		for format := range m.Artifacts {
			formats = append(formats, format)
		}
		slices.Sort(formats)
		for _, format := range formats {
			printFile(artifactPath(dir, m.Material, format))
		}
	}
	if result.Stats.Degraded > 0 {
		printNextStep("Fail on unsupported nodes instead", "mtlxport translate --strict")
	}
}
