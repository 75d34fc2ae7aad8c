package cli

import (
	"context"
	"fmt"
	"strings"

	"careerai/internal/common"
	"careerai/internal/flows"
	"careerai/internal/types"

	"github.com/spf13/cobra"
)

var searchJobsCmd = &cobra.Command{
	Use:   "search-jobs [query...]",
	Short: "Find job listings for a free-text query",
	Long: `Search for job listings, e.g.

  careerai search-jobs React developer in New York`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchJobs,
}

var suggestJobsCmd = &cobra.Command{
	Use:   "suggest-jobs",
	Short: "Suggest up to three jobs for a job seeker",
	Long: `Suggest jobs that fit a job seeker's skills, experience and
certificates. Experience can be read from a file with --experience-file.`,
	Args: cobra.NoArgs,
	RunE: runSuggestJobs,
}

var (
	searchJobsConfig  common.CommandConfig
	suggestJobsConfig common.CommandConfig
	suggestInput      types.SuggestJobsInput
	experienceFile    string
)

func init() {
	addOutputFlags(searchJobsCmd, &searchJobsConfig)

	addOutputFlags(suggestJobsCmd, &suggestJobsConfig)
	f := suggestJobsCmd.Flags()
	f.StringVar(&suggestInput.Skills, "skills", "", "Comma-separated skills")
	f.StringVar(&suggestInput.Experience, "experience", "", "Work experience and qualifications")
	f.StringVar(&experienceFile, "experience-file", "", "File describing work experience")
	f.StringVar(&suggestInput.Certificates, "certificates", "", "Comma-separated certifications")
}

func runSearchJobs(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	input := types.SearchJobsInput{Query: strings.Join(args, " ")}

	logDetails := func(input types.SearchJobsInput, cfg common.CommandConfig) {
		logger.Info("Starting job search", "query", input.Query, "output_format", cfg.OutputFormat)
	}

	err := withServices(cmd.Context(), func(rt *services) error {
		op := func(ctx context.Context, in types.SearchJobsInput) ([]types.JobListing, error) {
			return flows.SearchJobs(ctx, rt.invoker, in)
		}
		return common.RunFlowCommand(cmd.Context(), logger, searchJobsConfig, input, op, logDetails)
	})
	if err != nil {
		return fmt.Errorf("failed to search jobs: %w", err)
	}
	return nil
}

func runSuggestJobs(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	input := suggestInput
	if err := fillFromFile(common.NewFileProcessor(logger), experienceFile, &input.Experience); err != nil {
		return err
	}

	logDetails := func(input types.SuggestJobsInput, cfg common.CommandConfig) {
		logger.Info("Starting job suggestion",
			"skills", input.Skills,
			"experience_chars", len(input.Experience),
			"output_format", cfg.OutputFormat)
	}

	err := withServices(cmd.Context(), func(rt *services) error {
		op := func(ctx context.Context, in types.SuggestJobsInput) ([]types.SuggestedJob, error) {
			return flows.SuggestJobs(ctx, rt.invoker, in)
		}
		return common.RunFlowCommand(cmd.Context(), logger, suggestJobsConfig, input, op, logDetails)
	})
	if err != nil {
		return fmt.Errorf("failed to suggest jobs: %w", err)
	}
	return nil
}
