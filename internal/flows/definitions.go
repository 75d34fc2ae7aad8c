package flows

import (
	"time"

	"careerai/internal/prompt"
	"careerai/internal/schema"
	"careerai/internal/tools"
	"careerai/internal/types"
)

// PostedOnLayout is how generated postings date themselves.
const PostedOnLayout = "January 2, 2006"

const (
	maxSuggestedJobs = 3
	maxRankedResumes = 10
)

var shortcomingSchema = schema.Object(
	schema.String("skill").Require().Describe("The missing or weak skill."),
	schema.String("impact").Require().Describe("The potential impact of this shortcoming on job performance."),
	schema.String("mitigation").Require().Describe("Suggestions on how the company can mitigate this shortcoming (training, mentoring, etc.)."),
	schema.Enum("severity", types.SeverityCritical, types.SeverityHigh, types.SeverityModerate, types.SeverityLow).
		Require().Describe("The severity level of the shortcoming."),
)

var shortcomingsField = schema.Array("shortcomings", shortcomingSchema).
	Require().Describe("An array of identified shortcomings in the resume.")

var overallAssessmentField = schema.String("overallAssessment").
	Require().Describe("An overall assessment of the candidate, considering their strengths and weaknesses.")

// Builtin returns fresh copies of the built-in flow definitions.
func Builtin() []Definition {
	return []Definition{
		analyzeResume(),
		generateJobPosting(),
		searchJobs(),
		suggestJobs(),
		rankResumes(),
		analyzeShortcomings(),
	}
}

func analyzeResume() Definition {
	section := schema.Object(
		schema.String("section").Require().Describe(`The name of the resume section being analyzed (e.g., "Summary", "Experience", "Skills").`),
		schema.Number("score").Range(0, 100).Require().Describe("The score for this specific section, from 0 to 100."),
		schema.String("reasoning").Require().Describe("The reasoning behind the score for this section."),
		schema.String("suggestions").Require().Describe("Actionable suggestions to improve this section."),
	)
	return Definition{
		Name:        AnalyzeResumeFlow,
		Description: "Scores a resume ATS-style, optionally against a job description and company details.",
		Input: schema.Object(
			schema.String("resumeText").Require().Describe("The text content of the resume."),
			schema.String("jobDescription").Describe("The job description for which the resume is being analyzed."),
			schema.String("companyDetails").Describe("Details about the company."),
		),
		Output: schema.Object(
			schema.Number("overallScore").Range(0, 100).Require().Describe("An estimated overall Applicant Tracking System (ATS) score for the resume (0-100)."),
			schema.String("overallSummary").Require().Describe("A brief, overall summary of the resume's strengths and weaknesses."),
			schema.Array("sectionAnalyses", section).Require().Describe("A point-wise breakdown of each section of the resume with scores, reasoning, and suggestions."),
		).Require(),
		System:   prompt.MustCompile(analyzeResumeSystem),
		Template: prompt.MustCompile(analyzeResumeTemplate),
	}
}

func generateJobPosting() Definition {
	return Definition{
		Name:        GenerateJobPostingFlow,
		Description: "Writes a job posting from employer details, or refines a previous posting.",
		Input: schema.Object(
			schema.String("jobTitle").Require().Describe("The title of the job."),
			schema.String("companyName").Require().Describe("The name of the company."),
			schema.String("location").Require().Describe(`The location of the job (e.g., "San Francisco, CA", "Remote").`),
			schema.Enum("jobType", types.JobTypeFullTime, types.JobTypePartTime, types.JobTypeContract, types.JobTypeInternship).
				Require().Describe("The type of employment."),
			schema.String("salaryRange").Describe("The salary range for the position."),
			schema.String("description").Require().Describe("A general description of the company and the role."),
			schema.String("responsibilities").Require().Describe("A list or description of the job responsibilities."),
			schema.String("mustHaveSkills").Require().Describe("A comma-separated list of essential skills."),
			schema.String("niceToHaveSkills").Describe("A comma-separated list of skills that are nice to have."),
			schema.String("userProfileId").Describe("The ID of the user creating the job posting."),
			schema.String("refinement").Describe("An instruction to refine the previously generated posting."),
			schema.String("previousPosting").Describe("The previously generated job posting text to be refined."),
		),
		Output:   schema.Text().Describe("The generated job posting text."),
		System:   prompt.MustCompile(generateJobPostingSystem),
		Template: prompt.MustCompile(generateJobPostingTemplate),
		Derive: func(_ map[string]any, now time.Time) prompt.Context {
			return prompt.Context{"postedOn": now.Format(PostedOnLayout)}
		},
		PostProcess: stripMarkup,
	}
}

func searchJobs() Definition {
	listing := schema.Object(
		schema.String("title").Require().Describe("The job title."),
		schema.String("company").Require().Describe("The company offering the job."),
		schema.String("location").Require().Describe("The location of the job."),
		schema.String("description").Require().Describe("A brief description of the job."),
		schema.String("applyUrl").Require().Describe("The URL to apply for the job."),
	)
	return Definition{
		Name:        SearchJobsFlow,
		Description: "Returns job listings matching a free-text query.",
		Input: schema.Object(
			schema.String("query").Require().Describe(`The search query for jobs, e.g., "React developer in New York".`),
		),
		Output:   schema.List(listing).Describe("A list of found job listings."),
		System:   prompt.MustCompile(searchJobsSystem),
		Template: prompt.MustCompile(searchJobsTemplate),
	}
}

func suggestJobs() Definition {
	suggestion := schema.Object(
		schema.String("jobTitle").Require().Describe("The title of the suggested job."),
		schema.String("company").Require().Describe("The company offering the job."),
		schema.String("reason").Require().Describe("The reasoning for suggesting this job, based on the seeker's skills, experience, and certificates."),
	)
	return Definition{
		Name:        SuggestJobsFlow,
		Description: "Suggests up to three jobs for a job seeker's skills, experience and certificates.",
		Input: schema.Object(
			schema.String("skills").Require().Describe("A comma-separated list of the job seeker's skills."),
			schema.String("experience").Require().Describe("A description of the job seeker's work experience and qualifications."),
			schema.String("certificates").Require().Describe("A comma-separated list of the job seeker's certifications."),
		),
		Output:      schema.List(suggestion).Describe("A list of suggested jobs with reasons."),
		System:      prompt.MustCompile(suggestJobsSystem),
		Template:    prompt.MustCompile(suggestJobsTemplate),
		PostProcess: capItems(maxSuggestedJobs),
	}
}

func rankResumes() Definition {
	ranked := schema.Object(
		schema.String("resume").Require().Describe("The resume that was ranked."),
		schema.Number("rank").Require().Describe("The rank of the resume (1 being the best)."),
		schema.String("reason").Require().Describe("The reason for the resume ranking."),
		shortcomingsField,
		overallAssessmentField,
	)
	return Definition{
		Name:        RankResumesFlow,
		Description: "Ranks every stored resume against a job description with a gap analysis for each.",
		Input: schema.Object(
			schema.String("jobDescription").Require().Describe("The job description for which to rank the resumes."),
		),
		Output:      schema.List(ranked).Describe("An array of ranked resumes with reasons and gap analysis."),
		System:      prompt.MustCompile(rankResumesSystem),
		Template:    prompt.MustCompile(rankResumesTemplate),
		Tools:       []string{tools.GetAllResumes},
		PostProcess: sortByRank(maxRankedResumes),
	}
}

func analyzeShortcomings() Definition {
	return Definition{
		Name:        AnalyzeShortcomingsFlow,
		Description: "Finds a candidate's gaps against a job description and how an employer can mitigate them.",
		Input: schema.Object(
			schema.String("resumeText").Require().Describe("The text content of the resume to analyze."),
			schema.String("jobDescription").Require().Describe("The job description for which the resume is being evaluated."),
		),
		Output:   schema.Object(shortcomingsField, overallAssessmentField).Require(),
		System:   prompt.MustCompile(analyzeShortcomingsSystem),
		Template: prompt.MustCompile(analyzeShortcomingsTemplate),
	}
}
