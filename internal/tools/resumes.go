package tools

import (
	"context"
	"fmt"

	"careerai/internal/schema"
)

// GetAllResumes is the name the ranking prompt refers to.
const GetAllResumes = "getAllResumes"

// ResumeSource lists the text of every stored resume.
type ResumeSource interface {
	ListResumeTexts(ctx context.Context) ([]string, error)
}

// NewGetAllResumesTool returns the resume retrieval tool. With a policy
// other than FallbackNone the built-in sample corpus stands in for an empty
// or unreachable store.
func NewGetAllResumesTool(src ResumeSource, policy FallbackPolicy) Tool {
	return Tool{
		Name:         GetAllResumes,
		Description:  "Returns all resumes currently stored in the database.",
		InputSchema:  schema.Object(),
		OutputSchema: schema.List(schema.String("").Describe("The text content of a single resume.")),
		Policy:       policy,
		Fallback:     func() any { return SampleResumes() },
		Handler: func(ctx context.Context, _ map[string]any) (any, error) {
			if src == nil {
				return nil, fmt.Errorf("no resume store configured")
			}
			texts, err := src.ListResumeTexts(ctx)
			if err != nil {
				return nil, fmt.Errorf("list resumes: %w", err)
			}
			if texts == nil {
				texts = []string{}
			}
			return texts, nil
		},
	}
}
