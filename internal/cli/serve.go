package cli

import (
	"fmt"

	"careerai/internal/server"
	"careerai/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for all flows",
	Long: `Start an HTTP server exposing every flow.

Available endpoints:
- POST /flows/{name}: Invoke a flow by name with a JSON input object
- POST /analyze-resume, /generate-posting, /search-jobs, /suggest-jobs,
  /rank-resumes, /analyze-shortcomings: Aliases for the built-in flows
- POST /resumes: Store a resume ({"name", "source", "text"})
- GET /resumes: List stored resumes
- GET /flows: Flow catalog with input and output schemas
- GET /openapi.json: OpenAPI 3 document
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveResumeDir string

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveResumeDir, "watch-resumes", "", "Directory to import and watch for resumes while serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	// Flags override configuration only when set
	for flagName, target := range map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	} {
		if f := cmd.Flags().Lookup(flagName); f.Changed {
			*target = f.Value.String()
		}
	}
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	return withServices(ctx, func(rt *services) error {
		srv := server.NewServer(cfg, Version, server.Dependencies{
			Invoker:   rt.invoker,
			Backend:   rt.backend,
			Resumes:   rt.store,
			Telemetry: rt.telemetry,
		}, logger)

		var watcher *store.Watcher
		if serveResumeDir != "" {
			importer := store.NewImporter(rt.store, cfg.App.MaxFileSize, logger)
			n, err := importer.ImportDir(ctx, serveResumeDir)
			if err != nil {
				return err
			}
			logger.Info("Imported resumes", "directory", serveResumeDir, "count", n)
			watcher = store.NewWatcher(serveResumeDir, importer, cfg.Storage.WatchDebounce, logger)
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Start(ctx) })
		if watcher != nil {
			g.Go(func() error { return watcher.Run(ctx) })
		}
		return g.Wait()
	})
}
