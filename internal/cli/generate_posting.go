package cli

import (
	"context"
	"fmt"

	"careerai/internal/common"
	"careerai/internal/flows"
	"careerai/internal/types"

	"github.com/spf13/cobra"
)

var generatePostingCmd = &cobra.Command{
	Use:   "generate-posting",
	Short: "Write a job posting, or refine a previous one",
	Long: `Generate a job posting from employer details. To refine an earlier
posting pass --previous with its file and --refine with the instruction.

Long fields can be read from files with the matching *-file flag.`,
	Args: cobra.NoArgs,
	RunE: runGeneratePosting,
}

var (
	generatePostingConfig common.CommandConfig
	postingInput          types.JobPostingInput
	postingFiles          struct {
		description      string
		responsibilities string
		previous         string
	}
)

func init() {
	addOutputFlags(generatePostingCmd, &generatePostingConfig)

	f := generatePostingCmd.Flags()
	f.StringVar(&postingInput.JobTitle, "title", "", "Job title")
	f.StringVar(&postingInput.CompanyName, "company", "", "Company name")
	f.StringVar(&postingInput.Location, "location", "", `Job location, e.g. "Remote"`)
	f.StringVar(&postingInput.JobType, "type", types.JobTypeFullTime, "Employment type: Full-time, Part-time, Contract, Internship")
	f.StringVar(&postingInput.SalaryRange, "salary", "", "Salary range")
	f.StringVar(&postingInput.Description, "description", "", "Description of the company and the role")
	f.StringVar(&postingFiles.description, "description-file", "", "File with the description")
	f.StringVar(&postingInput.Responsibilities, "responsibilities", "", "Job responsibilities")
	f.StringVar(&postingFiles.responsibilities, "responsibilities-file", "", "File with the responsibilities")
	f.StringVar(&postingInput.MustHaveSkills, "must-have", "", "Comma-separated essential skills")
	f.StringVar(&postingInput.NiceToHaveSkills, "nice-to-have", "", "Comma-separated nice-to-have skills")
	f.StringVar(&postingInput.UserProfileID, "user-profile", "", "ID of the user creating the posting")
	f.StringVar(&postingInput.Refinement, "refine", "", "Instruction for refining the previous posting")
	f.StringVar(&postingFiles.previous, "previous", "", "File with the previously generated posting")

	_ = generatePostingCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{types.JobTypeFullTime, types.JobTypePartTime, types.JobTypeContract, types.JobTypeInternship},
			cobra.ShellCompDirectiveNoFileComp
	})
}

// fillFromFile replaces *field with the file's content when a file is named.
func fillFromFile(fp *common.FileProcessor, filename string, field *string) error {
	content, err := fp.ReadOptionalFile(filename)
	if err != nil {
		return err
	}
	if content != "" {
		*field = content
	}
	return nil
}

func runGeneratePosting(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	fp := common.NewFileProcessor(logger)

	input := postingInput
	for _, src := range []struct {
		file  string
		field *string
	}{
		{postingFiles.description, &input.Description},
		{postingFiles.responsibilities, &input.Responsibilities},
		{postingFiles.previous, &input.PreviousPosting},
	} {
		if err := fillFromFile(fp, src.file, src.field); err != nil {
			return err
		}
	}

	logDetails := func(input types.JobPostingInput, cfg common.CommandConfig) {
		logger.Info("Starting job posting generation",
			"job_title", input.JobTitle,
			"company", input.CompanyName,
			"refining", input.PreviousPosting != "",
			"output_format", cfg.OutputFormat)
	}

	err := withServices(cmd.Context(), func(rt *services) error {
		op := func(ctx context.Context, in types.JobPostingInput) (string, error) {
			return flows.GenerateJobPosting(ctx, rt.invoker, in)
		}
		return common.RunFlowCommand(cmd.Context(), logger, generatePostingConfig, input, op, logDetails)
	})
	if err != nil {
		return fmt.Errorf("failed to generate job posting: %w", err)
	}
	logger.Info("Job posting generated successfully")
	return nil
}
