package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"careerai/internal/store"
	"careerai/internal/utils"

	"github.com/spf13/cobra"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "Manage the resume store used for ranking",
}

var resumesImportCmd = &cobra.Command{
	Use:   "import [file-or-directory]",
	Short: "Import resume files into the store",
	Long: `Import a text, markdown, PDF or DOCX resume, or every such file in a
directory. With --watch the directory keeps being watched and new or changed
files are imported until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runResumesImport,
}

var resumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored resumes",
	Args:  cobra.NoArgs,
	RunE:  runResumesList,
}

var watchResumes bool

func init() {
	resumesImportCmd.Flags().BoolVarP(&watchResumes, "watch", "w", false, "Keep watching the directory for changes")
	resumesCmd.AddCommand(resumesImportCmd)
	resumesCmd.AddCommand(resumesListCmd)
}

// withStore opens the configured resume store for fn.
func withStore(ctx context.Context, fn func(store.ResumeStore) error) error {
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	s, err := store.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.LogError(err, "Failed to close resume store")
		}
	}()
	return fn(s)
}

func runResumesImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if watchResumes && !info.IsDir() {
		return fmt.Errorf("--watch needs a directory, %s is a file", path)
	}

	return withStore(ctx, func(s store.ResumeStore) error {
		importer := store.NewImporter(s, cfg.App.MaxFileSize, logger)

		if !info.IsDir() {
			r, err := importer.ImportFile(ctx, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %s\n", r.Name, r.ID)
			return nil
		}

		n, err := importer.ImportDir(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d resumes from %s\n", n, path)

		if !watchResumes {
			return nil
		}
		return store.NewWatcher(path, importer, cfg.Storage.WatchDebounce, logger).Run(ctx)
	})
}

func runResumesList(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(s store.ResumeStore) error {
		resumes, err := s.ListResumes(cmd.Context())
		if err != nil {
			return err
		}
		if len(resumes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No resumes stored")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSIZE\tIMPORTED\tPREVIEW")
		for _, r := range resumes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Name,
				utils.FormatFileSize(int64(len(r.Text))),
				r.CreatedAt.Local().Format(time.DateTime),
				utils.Preview(r.Text, 40))
		}
		return w.Flush()
	})
}
