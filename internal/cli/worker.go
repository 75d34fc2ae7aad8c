package cli

import (
	"careerai/internal/worker"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process flow invocations from an AMQP queue",
	Long: `Consume invocation requests from the configured AMQP queue and publish
each result to the response exchange under "invocation.<id>".

A request is a JSON object: {"id": "...", "flow": "analyzeResume", "input": {...}}.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().Int("workers", 0, "Number of concurrent consumers (default from config)")
	workerCmd.Flags().String("queue-url", "", "AMQP broker URL (overrides config)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if cmd.Flags().Changed("workers") {
		cfg.Queue.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if url, _ := cmd.Flags().GetString("queue-url"); url != "" {
		cfg.Queue.URL = url
	}

	return withServices(ctx, func(rt *services) error {
		return worker.New(cfg.Queue, rt.invoker, logger).Run(ctx)
	})
}
