// Package formatters renders flow results as json, yaml, text or markdown.
package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"careerai/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// Data type names used as registry keys
const (
	TypeAny                 = "any"
	TypeResumeAnalysis      = "AnalyzeResumeOutput"
	TypeJobPosting          = "JobPosting"
	TypeJobListings         = "JobListings"
	TypeSuggestedJobs       = "SuggestedJobs"
	TypeRankedResumes       = "RankedResumes"
	TypeShortcomingAnalysis = "AnalyzeShortcomingsOutput"
)

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("yaml", TypeAny, &YAMLFormatter{})

	for _, st := range []style{textStyle, markdownStyle} {
		registry.RegisterFormatter(st.format, TypeAny, &documentFormatter{style: st, dataType: TypeAny, render: renderAny})
		registry.RegisterFormatter(st.format, TypeJobPosting, &documentFormatter{style: st, dataType: TypeJobPosting, render: renderPosting})
		registry.RegisterFormatter(st.format, TypeResumeAnalysis, &documentFormatter{style: st, dataType: TypeResumeAnalysis, render: renderResumeAnalysis})
		registry.RegisterFormatter(st.format, TypeJobListings, &documentFormatter{style: st, dataType: TypeJobListings, render: renderJobListings})
		registry.RegisterFormatter(st.format, TypeSuggestedJobs, &documentFormatter{style: st, dataType: TypeSuggestedJobs, render: renderSuggestedJobs})
		registry.RegisterFormatter(st.format, TypeRankedResumes, &documentFormatter{style: st, dataType: TypeRankedResumes, render: renderRankedResumes})
		registry.RegisterFormatter(st.format, TypeShortcomingAnalysis, &documentFormatter{style: st, dataType: TypeShortcomingAnalysis, render: renderShortcomingAnalysis})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.AnalyzeResumeOutput:
		return *v
	case *types.AnalyzeShortcomingsOutput:
		return *v
	default:
		return data
	}
}

func getDataType(data any) string {
	switch data.(type) {
	case string:
		return TypeJobPosting
	case types.AnalyzeResumeOutput:
		return TypeResumeAnalysis
	case []types.JobListing:
		return TypeJobListings
	case []types.SuggestedJob:
		return TypeSuggestedJobs
	case []types.RankedResume:
		return TypeRankedResumes
	case types.AnalyzeShortcomingsOutput:
		return TypeShortcomingAnalysis
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// YAMLFormatter renders any value as YAML using its JSON field names
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	// Round-trip through JSON so keys match the json tags.
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return TypeAny
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()

// Ensure all formatters implement the Formatter interface
var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*YAMLFormatter)(nil)
	_ Formatter = (*documentFormatter)(nil)
)

// style separates text and markdown rendering of the same document
type style struct {
	format string
	title  func(string) string
	header func(string) string
	label  func(string) string
	bullet string
}

var textStyle = style{
	format: "text",
	title:  func(s string) string { return "=== " + strings.ToUpper(s) + " ===\n\n" },
	header: func(s string) string { return s + ":\n" },
	label:  func(s string) string { return s + ": " },
	bullet: "  - ",
}

var markdownStyle = style{
	format: "markdown",
	title:  func(s string) string { return "# " + s + "\n\n" },
	header: func(s string) string { return "## " + s + "\n\n" },
	label:  func(s string) string { return "**" + s + ":** " },
	bullet: "- ",
}

type documentFormatter struct {
	style    style
	dataType string
	render   func(b *strings.Builder, st style, data any) error
}

func (df *documentFormatter) Format(data any) (string, error) {
	var b strings.Builder
	if err := df.render(&b, df.style, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (df *documentFormatter) SupportedType() string {
	return df.dataType
}

func mismatch(want string, got any) error {
	return fmt.Errorf("expected %s, got %T", want, got)
}

func renderAny(b *strings.Builder, st style, data any) error {
	out, err := (&JSONFormatter{}).Format(data)
	if err != nil {
		return err
	}
	if st.format == "markdown" {
		b.WriteString("```json\n" + out + "```\n")
		return nil
	}
	b.WriteString(out)
	return nil
}

func renderPosting(b *strings.Builder, st style, data any) error {
	posting, ok := data.(string)
	if !ok {
		return mismatch("job posting text", data)
	}
	b.WriteString(st.title("Job Posting"))
	b.WriteString(strings.TrimSpace(posting))
	b.WriteString("\n")
	return nil
}

func renderResumeAnalysis(b *strings.Builder, st style, data any) error {
	result, ok := data.(types.AnalyzeResumeOutput)
	if !ok {
		return mismatch(TypeResumeAnalysis, data)
	}

	b.WriteString(st.title("Resume Analysis"))
	fmt.Fprintf(b, "%s%g/100\n\n", st.label("Overall Score"), result.OverallScore)
	b.WriteString(st.header("Summary"))
	b.WriteString(result.OverallSummary)
	b.WriteString("\n\n")

	for _, section := range result.SectionAnalyses {
		b.WriteString(st.header(fmt.Sprintf("%s (%g/100)", section.Section, section.Score)))
		b.WriteString(st.label("Reasoning") + section.Reasoning + "\n")
		b.WriteString(st.label("Suggestions") + section.Suggestions + "\n\n")
	}
	return nil
}

func renderJobListings(b *strings.Builder, st style, data any) error {
	listings, ok := data.([]types.JobListing)
	if !ok {
		return mismatch(TypeJobListings, data)
	}

	b.WriteString(st.title("Job Listings"))
	if len(listings) == 0 {
		b.WriteString("No listings found.\n")
		return nil
	}
	for i, job := range listings {
		b.WriteString(st.header(fmt.Sprintf("%d. %s at %s", i+1, job.Title, job.Company)))
		b.WriteString(st.label("Location") + job.Location + "\n")
		b.WriteString(st.label("Apply") + job.ApplyURL + "\n")
		b.WriteString(job.Description + "\n\n")
	}
	return nil
}

func renderSuggestedJobs(b *strings.Builder, st style, data any) error {
	jobs, ok := data.([]types.SuggestedJob)
	if !ok {
		return mismatch(TypeSuggestedJobs, data)
	}

	b.WriteString(st.title("Suggested Jobs"))
	for i, job := range jobs {
		b.WriteString(st.header(fmt.Sprintf("%d. %s at %s", i+1, job.JobTitle, job.Company)))
		b.WriteString(job.Reason + "\n\n")
	}
	return nil
}

func renderRankedResumes(b *strings.Builder, st style, data any) error {
	ranked, ok := data.([]types.RankedResume)
	if !ok {
		return mismatch(TypeRankedResumes, data)
	}

	b.WriteString(st.title("Ranked Resumes"))
	for _, r := range ranked {
		b.WriteString(st.header(fmt.Sprintf("Rank %g", r.Rank)))
		b.WriteString(st.label("Resume") + firstLine(r.Resume) + "\n")
		b.WriteString(st.label("Reason") + r.Reason + "\n")
		b.WriteString(st.label("Assessment") + r.OverallAssessment + "\n")
		writeShortcomings(b, st, r.Shortcomings)
		b.WriteString("\n")
	}
	return nil
}

func renderShortcomingAnalysis(b *strings.Builder, st style, data any) error {
	result, ok := data.(types.AnalyzeShortcomingsOutput)
	if !ok {
		return mismatch(TypeShortcomingAnalysis, data)
	}

	b.WriteString(st.title("Shortcoming Analysis"))
	b.WriteString(st.header("Overall Assessment"))
	b.WriteString(result.OverallAssessment + "\n\n")
	writeShortcomings(b, st, result.Shortcomings)
	return nil
}

func writeShortcomings(b *strings.Builder, st style, items []types.Shortcoming) {
	if len(items) == 0 {
		return
	}
	b.WriteString(st.label("Shortcomings") + "\n")
	for _, s := range items {
		fmt.Fprintf(b, "%s[%s] %s: %s Mitigation: %s\n", st.bullet, s.Severity, s.Skill, s.Impact, s.Mitigation)
	}
}

// firstLine shortens a resume to its first non-empty line for listings.
func firstLine(s string) string {
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
