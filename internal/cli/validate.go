package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/validate"
)

// validateCommand creates the validate command for checking existing
// MaterialX documents.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate [file.mtlx]",
		Short:   "Validate a MaterialX document",
		Example: `  mtlxport validate Brick.mtlx`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts, err := cfg.validateOptions()
			if err != nil {
				return err
			}
			report, err := validateFile(args[0], opts)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("validated", "path", args[0], "nodes", report.Statistics.Nodes)
			printValidation(args[0], report)
			if !report.Valid {
				return errs.New(errs.ErrCodeValidationFailed, "%s: %d errors", args[0], len(report.Errors))
			}
			return nil
		},
	}
}

func validateFile(path string, opts validate.Options) (validate.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return validate.Report{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	doc, err := mtlx.ReadXML(f)
	if err != nil {
		return validate.Report{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	return validate.Document(doc, opts), nil
}

func printValidation(path string, r validate.Report) {
	if r.Valid {
		printSuccess("%s is valid", path)
	} else {
		printError("%s is invalid", path)
	}
	for _, e := range r.Errors {
		printError("%s", e)
	}
	for _, w := range r.Warnings {
		printWarning("%s", w)
	}

	s := r.Statistics
	printKeyValue("materials", fmt.Sprint(s.Materials))
	printKeyValue("shaders", fmt.Sprint(s.Shaders))
	printKeyValue("nodegraphs", fmt.Sprint(s.NodeGraphs))
	printKeyValue("nodes", fmt.Sprint(s.Nodes))
	printKeyValue("nodedefs", fmt.Sprint(s.NodeDefs))
	printKeyValue("connections", fmt.Sprint(s.Connections))
	printKeyValue("reachable", fmt.Sprintf("%d (%.0f%%)", s.Reachable, s.Connectivity*100))
}
