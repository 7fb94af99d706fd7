package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mtlxport/pkg/mapper"
	"github.com/matzehuels/mtlxport/pkg/synth"
)

// catalogCommand creates the catalog command listing what the translator
// supports.
func (c *CLI) catalogCommand() *cobra.Command {
	var targets bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List supported source categories and MaterialX nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			setup, err := cfg.newTranslator(false, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}

			if targets {
				fmt.Fprintln(stdout, StyleTitle.Render("MaterialX nodes")+" "+StyleDim.Render("catalog "+setup.Catalog.Version()))
				for _, node := range setup.Catalog.Nodes() {
					var sigs []string
					for _, d := range setup.Catalog.Variants(node) {
						sigs = append(sigs, string(d.Type))
					}
					printKeyValue(node, strings.Join(sigs, ", "))
				}
				return nil
			}

			registry, err := mapper.Default()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, StyleTitle.Render("Mapped categories"))
			for _, cat := range registry.Categories() {
				printInfo("%s", cat)
			}
			fmt.Fprintln(stdout, StyleTitle.Render("Synthesized categories"))
			for _, cat := range synth.Categories() {
				printInfo("%s", cat)
			}
			printNextStep("List MaterialX target nodes", "mtlxport catalog --targets")
			return nil
		},
	}

	cmd.Flags().BoolVar(&targets, "targets", false, "list MaterialX node signatures instead of source categories")
	return cmd
}
