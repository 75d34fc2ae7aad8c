package types

// AnalyzeResumeInput represents the input for analyzing a resume
type AnalyzeResumeInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription,omitempty"`
	CompanyDetails string `json:"companyDetails,omitempty"`
}

// SectionAnalysis scores one section of a resume
type SectionAnalysis struct {
	Section     string  `json:"section"`
	Score       float64 `json:"score"` // 0-100
	Reasoning   string  `json:"reasoning"`
	Suggestions string  `json:"suggestions"`
}

// AnalyzeResumeOutput represents the ATS-style analysis of a resume
type AnalyzeResumeOutput struct {
	OverallScore    float64           `json:"overallScore"` // 0-100
	OverallSummary  string            `json:"overallSummary"`
	SectionAnalyses []SectionAnalysis `json:"sectionAnalyses"`
}

// Job types accepted by the posting generator
const (
	JobTypeFullTime   = "Full-time"
	JobTypePartTime   = "Part-time"
	JobTypeContract   = "Contract"
	JobTypeInternship = "Internship"
)

// JobPostingInput represents the employer details a posting is written from.
// Refinement and PreviousPosting together request a revision.
type JobPostingInput struct {
	JobTitle         string `json:"jobTitle"`
	CompanyName      string `json:"companyName"`
	Location         string `json:"location"`
	JobType          string `json:"jobType"`
	SalaryRange      string `json:"salaryRange,omitempty"`
	Description      string `json:"description"`
	Responsibilities string `json:"responsibilities"`
	MustHaveSkills   string `json:"mustHaveSkills"`
	NiceToHaveSkills string `json:"niceToHaveSkills,omitempty"`
	UserProfileID    string `json:"userProfileId,omitempty"`
	Refinement       string `json:"refinement,omitempty"`
	PreviousPosting  string `json:"previousPosting,omitempty"`
}

// SearchJobsInput represents a free-text job search
type SearchJobsInput struct {
	Query string `json:"query"`
}

// JobListing is one search result
type JobListing struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	ApplyURL    string `json:"applyUrl"`
}

// SuggestJobsInput describes a job seeker
type SuggestJobsInput struct {
	Skills       string `json:"skills"`
	Experience   string `json:"experience"`
	Certificates string `json:"certificates"`
}

// SuggestedJob is one job suggestion with the reasoning behind it
type SuggestedJob struct {
	JobTitle string `json:"jobTitle"`
	Company  string `json:"company"`
	Reason   string `json:"reason"`
}

// Shortcoming severities
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityModerate = "moderate"
	SeverityLow      = "low"
)

// Shortcoming is a missing or weak skill relative to a role
type Shortcoming struct {
	Skill      string `json:"skill"`
	Impact     string `json:"impact"`
	Mitigation string `json:"mitigation"`
	Severity   string `json:"severity"`
}

// RankResumesInput represents the role stored resumes are ranked against
type RankResumesInput struct {
	JobDescription string `json:"jobDescription"`
}

// RankedResume is one stored resume with its rank (1 is best) and gap analysis
type RankedResume struct {
	Resume            string        `json:"resume"`
	Rank              float64       `json:"rank"`
	Reason            string        `json:"reason"`
	Shortcomings      []Shortcoming `json:"shortcomings"`
	OverallAssessment string        `json:"overallAssessment"`
}

// AnalyzeShortcomingsInput pairs a resume with the role it is measured against
type AnalyzeShortcomingsInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

// AnalyzeShortcomingsOutput is a gap analysis of one candidate
type AnalyzeShortcomingsOutput struct {
	Shortcomings      []Shortcoming `json:"shortcomings"`
	OverallAssessment string        `json:"overallAssessment"`
}
