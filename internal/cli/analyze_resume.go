package cli

import (
	"context"
	"fmt"

	"careerai/internal/common"
	"careerai/internal/flows"
	"careerai/internal/types"

	"github.com/spf13/cobra"
)

var analyzeResumeCmd = &cobra.Command{
	Use:   "analyze-resume [resume-file]",
	Short: "Score a resume the way an applicant tracking system would",
	Long: `Analyze a resume and return an overall ATS score, a summary and a
per-section breakdown with suggestions. Pass --job and --company to score it
against a specific role. Text, markdown, PDF and DOCX files are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzeResume,
}

var (
	analyzeResumeConfig  common.CommandConfig
	analyzeResumeJobFile string
	analyzeResumeCompany string
)

func init() {
	addOutputFlags(analyzeResumeCmd, &analyzeResumeConfig)
	analyzeResumeCmd.Flags().StringVar(&analyzeResumeJobFile, "job", "", "Job description file to score against")
	analyzeResumeCmd.Flags().StringVar(&analyzeResumeCompany, "company", "", "File with details about the company")
}

func runAnalyzeResume(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	fp := common.NewFileProcessor(logger)

	contents, err := fp.ValidateAndReadFiles(args[0])
	if err != nil {
		return err
	}
	job, err := fp.ReadOptionalFile(analyzeResumeJobFile)
	if err != nil {
		return err
	}
	company, err := fp.ReadOptionalFile(analyzeResumeCompany)
	if err != nil {
		return err
	}

	input := types.AnalyzeResumeInput{
		ResumeText:     contents[0],
		JobDescription: job,
		CompanyDetails: company,
	}

	logDetails := func(input types.AnalyzeResumeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume analysis",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	err = withServices(cmd.Context(), func(rt *services) error {
		op := func(ctx context.Context, in types.AnalyzeResumeInput) (*types.AnalyzeResumeOutput, error) {
			return flows.AnalyzeResume(ctx, rt.invoker, in)
		}
		return common.RunFlowCommand(cmd.Context(), logger, analyzeResumeConfig, input, op, logDetails)
	})
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Resume analysis completed successfully")
	return nil
}
