package cli

import (
	"context"

	"careerai/internal/config"
	"careerai/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "careerai",
	Short: "Structured AI flows for resumes and job postings",
	Long: `CareerAI runs named prompt flows against a generative model and returns
schema-validated results. It analyzes resumes, writes job postings, searches
and suggests jobs, ranks stored resumes and finds a candidate's gaps.

Every flow is available as a command, over HTTP (serve) and over AMQP (worker).`,
	SilenceUsage: true,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	return rootCmd.ExecuteContext(withDependencies(ctx, cfg, logger))
}

// withDependencies attaches the config and logger to ctx, making them
// available to all subcommands.
func withDependencies(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(analyzeResumeCmd)
	rootCmd.AddCommand(generatePostingCmd)
	rootCmd.AddCommand(searchJobsCmd)
	rootCmd.AddCommand(suggestJobsCmd)
	rootCmd.AddCommand(rankResumesCmd)
	rootCmd.AddCommand(analyzeShortcomingsCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(resumesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(versionCmd)
}
