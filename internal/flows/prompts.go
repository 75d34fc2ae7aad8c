package flows

// System prompts set the role the model answers in. They are rendered with
// the same context as the user templates.
const (
	analyzeResumeSystem = `You are a resume expert specializing in providing detailed, scorable insights for job seekers.

You analyze resumes and provide actionable suggestions to improve their chances of getting past Applicant Tracking Systems (ATS) and impressing recruiters.`

	generateJobPostingSystem = `You are an expert job posting writer. You write compelling, professional and well-structured job postings in plain text, without HTML markup.`

	searchJobsSystem = `You are a helpful job search assistant.`

	suggestJobsSystem = `You are an AI job suggestion agent. You match job seekers with roles that fit their skills, experience and certifications.`

	rankResumesSystem = `You are an expert resume ranker for employers. You compare candidates against a job description and explain every ranking decision.`

	analyzeShortcomingsSystem = `You are an AI resume analyst, tasked with identifying shortcomings in a candidate's resume and suggesting how the company can address them.`
)

const analyzeResumeTemplate = `Analyze the resume below and provide actionable suggestions.

Your analysis MUST be structured as follows:
1. An "overallScore" for the entire resume (0-100).
2. An "overallSummary" of the candidate's profile.
3. A "sectionAnalyses" array for the key resume sections (e.g., Summary, Experience, Skills, Education). For each item in the array, provide a "section" name, a "score" for that section (0-100), clear "reasoning" for the score, and concrete, actionable "suggestions" for improvement.
{% if jobDescription %}
Tailor your entire analysis to the specific requirements of this job description:
{{ jobDescription }}
{% endif %}{% if companyDetails %}
Also consider these company details in your analysis:
{{ companyDetails }}
{% endif %}
Analyze this resume:
---
{{ resumeText }}
---`

const generateJobPostingTemplate = `Generate a job posting based on the following details. Put this line at the top of the posting: "Posted on: {{ postedOn }}".
{% if refinement %}
You are refining a previous job posting. The user's instruction for refinement is: "{{ refinement }}".

The previous job posting was:
---
{{ previousPosting }}
---

Regenerate the entire job posting based on the original details AND the refinement instruction.
{% else %}
Generate a new job posting.
{% endif %}
Original Details:
Job Title: {{ jobTitle }}
Company Name: {{ companyName }}
Location: {{ location }}
Job Type: {{ jobType }}
{% if salaryRange %}Salary Range: {{ salaryRange }}
{% endif %}
Company & Role Description:
{{ description }}

Responsibilities:
{{ responsibilities }}

Qualifications:
- Must-Have Skills: {{ mustHaveSkills }}
{% if niceToHaveSkills %}- Nice-to-Have Skills: {{ niceToHaveSkills }}
{% endif %}
Structure the output clearly with sections for Description, Responsibilities, and Qualifications. Ensure the tone is engaging for potential candidates.`

const searchJobsTemplate = `Find and return a list of 5 job listings based on the user's query. For each job, provide a title, company, location, a brief description, and a fictional application URL.

Query: {{ query }}

Return the results as a JSON array of job listings.`

const suggestJobsTemplate = `A job seeker has provided the following information:

Skills: {{ skills }}
Experience: {{ experience }}
Certifications: {{ certificates }}

Suggest jobs that are a good fit for their skills and experience, and explain why you think they're a good candidate for those jobs. Format each suggestion as a JSON object with "jobTitle", "company", and "reason" fields. Return a JSON array of these job suggestions. Limit suggestions to 3.

Ensure the suggestions are diverse and cover a range of potential roles.`

const rankResumesTemplate = `First use the "getAllResumes" tool to retrieve all resumes from the database.
Then, for each retrieved resume, perform two actions:
1. Rank the resume from best to worst based on how well it matches the job description.
2. Perform a detailed gap analysis (shortcoming analysis) against the job description. For each identified shortcoming, specify the skill, its impact, a mitigation strategy, and a severity ("critical", "high", "moderate", or "low"). Also include an "overallAssessment".

Job Description: {{ jobDescription }}

Return ONLY the top 10 resumes.
Output the results as a JSON array. Each element must contain the resume text, its rank (1 being the best), the reason for the rank, and the gap analysis results ("shortcomings" and "overallAssessment").`

const analyzeShortcomingsTemplate = `Consider the job description carefully.

Job Description: {{ jobDescription }}

Resume Text: {{ resumeText }}

Analyze the resume and identify any missing skills, experiences, or qualifications that might hinder the candidate's performance in the role. For each shortcoming, assess its potential impact and suggest specific actions the company can take to mitigate it (e.g., training programs, mentoring, on-the-job learning).
Also add the severity of the shortcoming as critical, high, moderate, or low.

Avoid generic or obvious recommendations. Focus on providing insightful and practical advice tailored to the specific job description and candidate profile.`
