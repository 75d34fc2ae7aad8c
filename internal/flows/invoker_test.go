package flows

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"careerai/internal/ai"
	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/tools"
	"careerai/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	text     string
	err      error
	generate func(ctx context.Context, req *ai.GenerateRequest) (*ai.GenerateResponse, error)
	requests []*ai.GenerateRequest
}

func (f *fakeBackend) Generate(ctx context.Context, req *ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.requests = append(f.requests, req)
	if f.generate != nil {
		return f.generate(ctx, req)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{
		Text:  f.text,
		Usage: &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
		Model: "fake",
	}, nil
}

func (f *fakeBackend) ModelInfo(context.Context) *ai.ModelInfo { return &ai.ModelInfo{Name: "fake"} }

func (f *fakeBackend) Close() error { return nil }

type fakeSource struct {
	texts []string
	err   error
}

func (f *fakeSource) ListResumeTexts(context.Context) ([]string, error) {
	return f.texts, f.err
}

type fakeRecorder struct {
	flows []string
	errs  []error
}

func (r *fakeRecorder) RecordInvocation(_ context.Context, flow string, _ time.Duration, _ *ai.TokenUsage, err error) {
	r.flows = append(r.flows, flow)
	r.errs = append(r.errs, err)
}

func newTestInvoker(t *testing.T, backend ai.Backend, src tools.ResumeSource, policy tools.FallbackPolicy, opts ...Option) (*Invoker, *tools.Registry) {
	t.Helper()
	catalog, err := DefaultCatalog(nil)
	require.NoError(t, err)
	registry := tools.NewRegistry(errors.NewNop())
	require.NoError(t, registry.Register(tools.NewGetAllResumesTool(src, policy)))
	return NewInvoker(catalog, backend, registry, errors.NewNop(), opts...), registry
}

const validAnalysis = `{
  "overallScore": 72,
  "overallSummary": "Solid Python background.",
  "sectionAnalyses": [
    {"section": "Skills", "score": 80, "reasoning": "Relevant stack.", "suggestions": "Quantify impact."}
  ],
  "commentary": "extra fields are ignored"
}`

func TestAnalyzeResumeProducesScoredAnalysis(t *testing.T) {
	backend := &fakeBackend{text: validAnalysis}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	out, err := AnalyzeResume(context.Background(), inv, types.AnalyzeResumeInput{
		ResumeText: "Name: Jane Doe\nExperience: 4 years backend\nSkills: Python",
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, out.OverallScore, 0.0)
	assert.LessOrEqual(t, out.OverallScore, 100.0)
	require.NotEmpty(t, out.SectionAnalyses)
	assert.Equal(t, "Skills", out.SectionAnalyses[0].Section)

	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.Contains(t, req.Prompt, "Name: Jane Doe")
	assert.NotContains(t, req.Prompt, "Tailor your entire analysis")
	assert.NotContains(t, req.Prompt, "company details")
	assert.Contains(t, req.SystemPrompt, "resume expert")
	assert.Empty(t, req.Tools)
	assert.Nil(t, req.Caller)
}

func TestUndeclaredInputFieldsDoNotBlankThePrompt(t *testing.T) {
	backend := &fakeBackend{text: validAnalysis}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	_, err := inv.Invoke(context.Background(), AnalyzeResumeFlow, map[string]any{
		"resumeText": "Name: Jane Doe\nSkills: Python",
		"client-ref": "abc",
	})
	require.NoError(t, err)

	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.Contains(t, req.Prompt, "Name: Jane Doe")
	assert.Contains(t, req.SystemPrompt, "resume expert")
	assert.NotContains(t, req.Prompt, "abc")
}

func TestAnalyzeResumeIncludesOptionalSections(t *testing.T) {
	backend := &fakeBackend{text: validAnalysis}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	_, err := inv.Invoke(context.Background(), AnalyzeResumeFlow, map[string]any{
		"resumeText":     "Jane",
		"jobDescription": "Senior Go engineer",
	})
	require.NoError(t, err)
	assert.Contains(t, backend.requests[0].Prompt, "Tailor your entire analysis to the specific requirements of this job description:\nSenior Go engineer")
	assert.NotContains(t, backend.requests[0].Prompt, "company details")
}

func postingInput() map[string]any {
	return map[string]any{
		"jobTitle":         "Backend Engineer",
		"companyName":      "Acme",
		"location":         "Remote",
		"jobType":          "Full-time",
		"description":      "We build tools.",
		"responsibilities": "Ship services.",
		"mustHaveSkills":   "Go, SQL",
	}
}

func TestGenerateJobPostingMissingSkillsMakesNoCall(t *testing.T) {
	backend := &fakeBackend{text: "posting"}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	input := postingInput()
	delete(input, "mustHaveSkills")
	_, err := inv.Invoke(context.Background(), GenerateJobPostingFlow, input)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	assert.Empty(t, backend.requests)

	_, err = GenerateJobPosting(context.Background(), inv, types.JobPostingInput{
		JobTitle: "Backend Engineer", CompanyName: "Acme", Location: "Remote", JobType: "Full-time",
		Description: "We build tools.", Responsibilities: "Ship services.",
	})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	assert.Empty(t, backend.requests)
}

func TestGenerateJobPostingRejectsUnknownJobType(t *testing.T) {
	backend := &fakeBackend{text: "posting"}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	input := postingInput()
	input["jobType"] = "Freelance"
	_, err := inv.Invoke(context.Background(), GenerateJobPostingFlow, input)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	assert.Empty(t, backend.requests)
}

func TestGenerateJobPostingDatesAndCleansPosting(t *testing.T) {
	backend := &fakeBackend{text: "  <h1>Backend Engineer</h1>\nJoin our R&D team.  "}
	clock := func() time.Time { return time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC) }
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone, WithClock(clock))

	posting, err := inv.Invoke(context.Background(), GenerateJobPostingFlow, postingInput())
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer\nJoin our R&D team.", posting.Value)

	prompt := backend.requests[0].Prompt
	assert.Contains(t, prompt, `"Posted on: March 5, 2025"`)
	assert.Contains(t, prompt, "Generate a new job posting.")
	assert.NotContains(t, prompt, "Salary Range")
	assert.NotContains(t, prompt, "Nice-to-Have")
}

func TestGenerateJobPostingRefinement(t *testing.T) {
	backend := &fakeBackend{text: "refined"}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	input := postingInput()
	input["refinement"] = "make it shorter"
	input["previousPosting"] = "old posting text"
	input["salaryRange"] = "$100k"

	_, err := inv.Invoke(context.Background(), GenerateJobPostingFlow, input)
	require.NoError(t, err)

	prompt := backend.requests[0].Prompt
	assert.Contains(t, prompt, `The user's instruction for refinement is: "make it shorter".`)
	assert.Contains(t, prompt, "old posting text")
	assert.NotContains(t, prompt, "Generate a new job posting.")
	assert.Contains(t, prompt, "Salary Range: $100k")
}

func TestOutputMissingScoreIsSchemaViolation(t *testing.T) {
	raw := `{"overallSummary": "ok", "sectionAnalyses": []}`
	backend := &fakeBackend{text: raw}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	_, err := inv.Invoke(context.Background(), AnalyzeResumeFlow, map[string]any{"resumeText": "Jane"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeOutputSchemaViolation))

	payload, ok := errors.RawPayload(err)
	require.True(t, ok)
	assert.Equal(t, raw, payload)
}

func TestOutputOutOfRangeIsSchemaViolation(t *testing.T) {
	backend := &fakeBackend{text: strings.Replace(validAnalysis, `"overallScore": 72`, `"overallScore": 140`, 1)}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	_, err := inv.Invoke(context.Background(), AnalyzeResumeFlow, map[string]any{"resumeText": "Jane"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeOutputSchemaViolation))
}

func TestAnswerDecoding(t *testing.T) {
	tests := []struct {
		name string
		text string
		code string
	}{
		{"blank", "  \n ", errors.ErrCodeEmptyResult},
		{"null", "null", errors.ErrCodeEmptyResult},
		{"fenced null", "```json\nnull\n```", errors.ErrCodeEmptyResult},
		{"not json", "Here are some jobs!", errors.ErrCodeOutputSchemaViolation},
		{"wrong shape", `{"title": "x"}`, errors.ErrCodeOutputSchemaViolation},
		{"fenced list", "```json\n[]\n```", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, _ := newTestInvoker(t, &fakeBackend{text: tt.text}, nil, tools.FallbackNone)
			res, err := inv.Invoke(context.Background(), SearchJobsFlow, map[string]any{"query": "go"})
			if tt.code == "" {
				require.NoError(t, err)
				assert.IsType(t, []any{}, res.Value)
				assert.Empty(t, res.Value)
				return
			}
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestTextFlowEmptyAnswer(t *testing.T) {
	inv, _ := newTestInvoker(t, &fakeBackend{text: ""}, nil, tools.FallbackNone)
	_, err := inv.Invoke(context.Background(), GenerateJobPostingFlow, postingInput())
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmptyResult))
}

func TestSuggestJobsCapsAtThree(t *testing.T) {
	var items []string
	for i := 1; i <= 5; i++ {
		items = append(items, fmt.Sprintf(`{"jobTitle": "Job %d", "company": "C", "reason": "fit"}`, i))
	}
	inv, _ := newTestInvoker(t, &fakeBackend{text: "[" + strings.Join(items, ",") + "]"}, nil, tools.FallbackNone)

	jobs, err := SuggestJobs(context.Background(), inv, types.SuggestJobsInput{
		Skills: "Go", Experience: "5 years", Certificates: "CKA",
	})
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "Job 1", jobs[0].JobTitle)
	assert.Equal(t, "Job 3", jobs[2].JobTitle)
}

func rankedJSON(ranks ...int) string {
	items := make([]string, len(ranks))
	for i, r := range ranks {
		items[i] = fmt.Sprintf(`{"resume": "resume %d", "rank": %d, "reason": "r", "shortcomings": [`+
			`{"skill": "k8s", "impact": "i", "mitigation": "m", "severity": "low"}], "overallAssessment": "a"}`, r, r)
	}
	return "[" + strings.Join(items, ",") + "]"
}

// rankingBackend calls the declared tool once before answering, the way the
// Gemini backend does when the model asks for it.
func rankingBackend(answer string, seen *[]string) *fakeBackend {
	return &fakeBackend{generate: func(ctx context.Context, req *ai.GenerateRequest) (*ai.GenerateResponse, error) {
		out, err := req.Caller.CallTool(ctx, req.Tools[0].Name, map[string]any{})
		if err != nil {
			return nil, err
		}
		*seen = out.([]string)
		return &ai.GenerateResponse{Text: answer, ToolCalls: 1}, nil
	}}
}

func TestRankResumesSortsByRank(t *testing.T) {
	var seen []string
	backend := rankingBackend(rankedJSON(3, 1, 2), &seen)
	inv, _ := newTestInvoker(t, backend, &fakeSource{texts: []string{"a", "b", "c"}}, tools.FallbackNone)

	ranked, err := RankResumes(context.Background(), inv, types.RankResumesInput{JobDescription: "Go engineer"})
	require.NoError(t, err)

	var ranks []float64
	for _, r := range ranked {
		ranks = append(ranks, r.Rank)
	}
	assert.Equal(t, []float64{1, 2, 3}, ranks)
	assert.Equal(t, []string{"a", "b", "c"}, seen)

	req := backend.requests[0]
	require.Len(t, req.Tools, 1)
	assert.Equal(t, tools.GetAllResumes, req.Tools[0].Name)
	assert.Contains(t, req.Prompt, "Job Description: Go engineer")
}

func TestRankResumesKeepsTopTen(t *testing.T) {
	ranks := []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	var seen []string
	inv, _ := newTestInvoker(t, rankingBackend(rankedJSON(ranks...), &seen), &fakeSource{texts: []string{"a"}}, tools.FallbackNone)

	ranked, err := RankResumes(context.Background(), inv, types.RankResumesInput{JobDescription: "Go engineer"})
	require.NoError(t, err)
	require.Len(t, ranked, 10)
	assert.Equal(t, 1.0, ranked[0].Rank)
	assert.Equal(t, 10.0, ranked[9].Rank)
}

func TestRankResumesFallbackCorpusIsObservable(t *testing.T) {
	var seen []string
	backend := rankingBackend(rankedJSON(1), &seen)
	inv, registry := newTestInvoker(t, backend, &fakeSource{}, tools.FallbackOnEmpty)

	var events []tools.FallbackEvent
	registry.OnFallback(func(e tools.FallbackEvent) { events = append(events, e) })

	_, err := inv.Invoke(context.Background(), RankResumesFlow, map[string]any{"jobDescription": "Go engineer"})
	require.NoError(t, err)

	if diff := cmp.Diff(tools.SampleResumes(), seen); diff != "" {
		t.Errorf("tool output mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, events, 1)
	assert.Equal(t, tools.FallbackReasonEmpty, events[0].Reason)
}

func TestRankResumesToolFailureWithoutFallback(t *testing.T) {
	var seen []string
	backend := rankingBackend(rankedJSON(1), &seen)
	inv, _ := newTestInvoker(t, backend, &fakeSource{err: stderrors.New("store offline")}, tools.FallbackNone)

	_, err := inv.Invoke(context.Background(), RankResumesFlow, map[string]any{"jobDescription": "Go engineer"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeToolExecution))
}

func TestRankResumesWithoutRegistry(t *testing.T) {
	catalog, err := DefaultCatalog(nil)
	require.NoError(t, err)
	backend := &fakeBackend{text: "[]"}
	inv := NewInvoker(catalog, backend, nil, errors.NewNop())

	_, err = inv.Invoke(context.Background(), RankResumesFlow, map[string]any{"jobDescription": "Go"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeToolNotFound))
	assert.Empty(t, backend.requests)
}

func TestBackendFailures(t *testing.T) {
	t.Run("typed errors pass through", func(t *testing.T) {
		backendErr := errors.NewBackendUnavailableError("gemini returned HTTP 503", nil)
		inv, _ := newTestInvoker(t, &fakeBackend{err: backendErr}, nil, tools.FallbackNone)
		_, err := inv.Invoke(context.Background(), SearchJobsFlow, map[string]any{"query": "go"})
		assert.Same(t, backendErr, err)
	})

	t.Run("plain errors become backend unavailable", func(t *testing.T) {
		inv, _ := newTestInvoker(t, &fakeBackend{err: stderrors.New("dial tcp: refused")}, nil, tools.FallbackNone)
		_, err := inv.Invoke(context.Background(), SearchJobsFlow, map[string]any{"query": "go"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeBackendUnavailable))
	})
}

func TestUnknownFlow(t *testing.T) {
	inv, _ := newTestInvoker(t, &fakeBackend{}, nil, tools.FallbackNone)
	_, err := inv.Invoke(context.Background(), "writeCoverLetter", map[string]any{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeFlowNotFound))
}

func TestRecorderSeesEveryInvocation(t *testing.T) {
	rec := &fakeRecorder{}
	inv, _ := newTestInvoker(t, &fakeBackend{text: "[]"}, nil, tools.FallbackNone, WithRecorder(rec))

	res, err := inv.Invoke(context.Background(), SearchJobsFlow, map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, int64(150), res.Usage.TotalTokens)

	_, err = inv.Invoke(context.Background(), SearchJobsFlow, map[string]any{})
	require.Error(t, err)

	assert.Equal(t, []string{SearchJobsFlow, SearchJobsFlow}, rec.flows)
	assert.NoError(t, rec.errs[0])
	assert.True(t, errors.HasCode(rec.errs[1], errors.ErrCodeInvalidInput))
}

func TestAnalyzeShortcomingsRejectsUnknownSeverity(t *testing.T) {
	backend := &fakeBackend{text: `{"shortcomings": [{"skill": "Go", "impact": "i", "mitigation": "m", "severity": "minor"}], "overallAssessment": "ok"}`}
	inv, _ := newTestInvoker(t, backend, nil, tools.FallbackNone)

	_, err := AnalyzeShortcomings(context.Background(), inv, types.AnalyzeShortcomingsInput{ResumeText: "r", JobDescription: "j"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeOutputSchemaViolation))
}

func TestCatalogOverrides(t *testing.T) {
	catalog, err := DefaultCatalog(map[string]config.PromptOverride{
		"searchjobs": {Template: "Find: {{ query }}", System: "Be brief."},
	})
	require.NoError(t, err)

	backend := &fakeBackend{text: "[]"}
	inv := NewInvoker(catalog, backend, nil, errors.NewNop())
	_, err = inv.Invoke(context.Background(), SearchJobsFlow, map[string]any{"query": "rust"})
	require.NoError(t, err)
	assert.Equal(t, "Find: rust", backend.requests[0].Prompt)
	assert.Equal(t, "Be brief.", backend.requests[0].SystemPrompt)

	_, err = DefaultCatalog(map[string]config.PromptOverride{"nope": {Template: "x"}})
	assert.Error(t, err)

	_, err = DefaultCatalog(map[string]config.PromptOverride{"searchJobs": {Template: "{% if %}"}})
	assert.Error(t, err)
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	def := searchJobs()
	_, err := NewCatalog(def, def)
	assert.Error(t, err)

	catalog, err := NewCatalog(Builtin()...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		AnalyzeResumeFlow, AnalyzeShortcomingsFlow, GenerateJobPostingFlow,
		RankResumesFlow, SearchJobsFlow, SuggestJobsFlow,
	}, catalog.Names())
}
