package cli

import (
	"careerai/internal/common"
	"careerai/internal/formatters"

	"github.com/spf13/cobra"
)

// addOutputFlags registers --output and --format on cmd and validates the
// format before the command runs.
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, yaml, text, or markdown")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if target.OutputFormat == "" {
			target.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(target.OutputFormat, cfg.App.SupportedFormats)
	}

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.OutputFormats(formatters.GlobalRegistry, cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}
