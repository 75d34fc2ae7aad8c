package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"careerai/internal/flows"

	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the available flows",
	Long:  "List every flow in the catalog with the tools it may call. Prompt overrides from the prompts directory are applied.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		catalog, err := flows.DefaultCatalog(cfg.Prompts.Overrides)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FLOW\tTOOLS\tDESCRIPTION")
		for _, def := range catalog.Definitions() {
			toolList := "-"
			if len(def.Tools) > 0 {
				toolList = strings.Join(def.Tools, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, toolList, def.Description)
		}
		return w.Flush()
	},
}
