package cli

import (
	"context"
	"fmt"

	"careerai/internal/common"
	"careerai/internal/flows"
	"careerai/internal/types"

	"github.com/spf13/cobra"
)

var rankResumesCmd = &cobra.Command{
	Use:   "rank-resumes [job-description-file]",
	Short: "Rank every stored resume against a job description",
	Long: `Rank the resumes in the configured store against a job description.
The model reads the resumes through the getAllResumes tool and returns at most
ten, best first, each with a gap analysis.

Import resumes first with "careerai resumes import".`,
	Args: cobra.ExactArgs(1),
	RunE: runRankResumes,
}

var analyzeShortcomingsCmd = &cobra.Command{
	Use:   "analyze-shortcomings [resume-file] [job-description-file]",
	Short: "Find a candidate's gaps against a job description",
	Long: `Identify the skills a candidate lacks for a role, the impact of each gap
and how an employer could mitigate it.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyzeShortcomings,
}

var (
	rankResumesConfig         common.CommandConfig
	analyzeShortcomingsConfig common.CommandConfig
)

func init() {
	addOutputFlags(rankResumesCmd, &rankResumesConfig)
	addOutputFlags(analyzeShortcomingsCmd, &analyzeShortcomingsConfig)
}

func runRankResumes(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	contents, err := common.NewFileProcessor(logger).ValidateAndReadFiles(args[0])
	if err != nil {
		return err
	}
	input := types.RankResumesInput{JobDescription: contents[0]}

	logDetails := func(input types.RankResumesInput, cfg common.CommandConfig) {
		logger.Info("Starting resume ranking",
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	err = withServices(cmd.Context(), func(rt *services) error {
		op := func(ctx context.Context, in types.RankResumesInput) ([]types.RankedResume, error) {
			return flows.RankResumes(ctx, rt.invoker, in)
		}
		return common.RunFlowCommand(cmd.Context(), logger, rankResumesConfig, input, op, logDetails)
	})
	if err != nil {
		return fmt.Errorf("failed to rank resumes: %w", err)
	}
	logger.Info("Resume ranking completed successfully")
	return nil
}

func runAnalyzeShortcomings(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	contents, err := common.NewFileProcessor(logger).ValidateAndReadFiles(args[0], args[1])
	if err != nil {
		return err
	}
	input := types.AnalyzeShortcomingsInput{
		ResumeText:     contents[0],
		JobDescription: contents[1],
	}

	logDetails := func(input types.AnalyzeShortcomingsInput, cfg common.CommandConfig) {
		logger.Info("Starting shortcoming analysis",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	err = withServices(cmd.Context(), func(rt *services) error {
		op := func(ctx context.Context, in types.AnalyzeShortcomingsInput) (*types.AnalyzeShortcomingsOutput, error) {
			return flows.AnalyzeShortcomings(ctx, rt.invoker, in)
		}
		return common.RunFlowCommand(cmd.Context(), logger, analyzeShortcomingsConfig, input, op, logDetails)
	})
	if err != nil {
		return fmt.Errorf("failed to analyze shortcomings: %w", err)
	}
	logger.Info("Shortcoming analysis completed successfully")
	return nil
}
