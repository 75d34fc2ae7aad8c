package flows

import (
	"context"
	"encoding/json"
	"fmt"

	"careerai/internal/errors"
	"careerai/internal/types"
)

// AnalyzeResume runs the resume analysis flow.
func AnalyzeResume(ctx context.Context, inv *Invoker, in types.AnalyzeResumeInput) (*types.AnalyzeResumeOutput, error) {
	return run[types.AnalyzeResumeOutput](ctx, inv, AnalyzeResumeFlow, in)
}

// GenerateJobPosting writes or refines a job posting.
func GenerateJobPosting(ctx context.Context, inv *Invoker, in types.JobPostingInput) (string, error) {
	out, err := run[string](ctx, inv, GenerateJobPostingFlow, in)
	if err != nil {
		return "", err
	}
	return *out, nil
}

// SearchJobs returns listings for a query.
func SearchJobs(ctx context.Context, inv *Invoker, in types.SearchJobsInput) ([]types.JobListing, error) {
	out, err := run[[]types.JobListing](ctx, inv, SearchJobsFlow, in)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// SuggestJobs returns at most three suggestions.
func SuggestJobs(ctx context.Context, inv *Invoker, in types.SuggestJobsInput) ([]types.SuggestedJob, error) {
	out, err := run[[]types.SuggestedJob](ctx, inv, SuggestJobsFlow, in)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// RankResumes ranks the stored resumes, best first, at most ten.
func RankResumes(ctx context.Context, inv *Invoker, in types.RankResumesInput) ([]types.RankedResume, error) {
	out, err := run[[]types.RankedResume](ctx, inv, RankResumesFlow, in)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// AnalyzeShortcomings runs the gap analysis flow.
func AnalyzeShortcomings(ctx context.Context, inv *Invoker, in types.AnalyzeShortcomingsInput) (*types.AnalyzeShortcomingsOutput, error) {
	return run[types.AnalyzeShortcomingsOutput](ctx, inv, AnalyzeShortcomingsFlow, in)
}

func run[Out any](ctx context.Context, inv *Invoker, flow string, in any) (*Out, error) {
	input, err := ToInput(in)
	if err != nil {
		return nil, errors.NewInvalidInputError(flow, err)
	}
	result, err := inv.Invoke(ctx, flow, input)
	if err != nil {
		return nil, err
	}
	var out Out
	if err := Decode(result.Value, &out); err != nil {
		return nil, errors.NewOutputSchemaViolationError(flow, result.Raw, err)
	}
	return &out, nil
}

// ToInput converts a typed input struct into the map the invoker validates.
// Empty string fields are dropped so that an unset required field is
// reported as missing.
func ToInput(in any) (map[string]any, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("input must be an object: %w", err)
	}
	for k, v := range input {
		if s, ok := v.(string); ok && s == "" {
			delete(input, k)
		}
	}
	return input, nil
}

// Decode copies a validated flow value into a typed result.
func Decode(value any, out any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
