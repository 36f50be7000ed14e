package domain

import "strings"

// Profile is the candidate-data snapshot passed into a fill pass. It is
// owned by the caller and never mutated; its lifetime is one pass.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	// Phone holds the local subscriber number; PhoneCountry holds the
	// dial code (e.g. "+1") when the page splits the two into separate
	// controls.
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country,omitempty"`

	Address Address `json:"address"`
	Links   Links   `json:"links"`

	CurrentCompany string `json:"current_company,omitempty"`
	CurrentTitle   string `json:"current_title,omitempty"`
	DesiredSalary  string `json:"desired_salary,omitempty"`
	NoticePeriod   string `json:"notice_period,omitempty"`

	Education []Education      `json:"education,omitempty"`
	Work      []WorkExperience `json:"work,omitempty"`

	// Answers are free-text Q&A pairs the candidate has pre-written
	// (cover-letter style prompts, visa status, referral source).
	Answers []ProfileAnswer `json:"answers,omitempty"`
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Links holds the candidate's public profiles.
type Links struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// Education is one entry in the candidate's education history, most
// recent first.
type Education struct {
	School       string `json:"school"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	GPA          string `json:"gpa,omitempty"`
	StartYear    string `json:"start_year,omitempty"`
	EndYear      string `json:"end_year,omitempty"`
}

// WorkExperience is one entry in the candidate's work history, most
// recent first.
type WorkExperience struct {
	Company   string `json:"company"`
	Title     string `json:"title"`
	Location  string `json:"location,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// ProfileAnswer is a pre-written answer to a known free-text question.
type ProfileAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FullName returns the candidate's display name.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// LatestEducation returns the most recent education entry, or nil.
func (p *Profile) LatestEducation() *Education {
	if len(p.Education) == 0 {
		return nil
	}
	return &p.Education[0]
}

// LatestWork returns the most recent work entry, or nil.
func (p *Profile) LatestWork() *WorkExperience {
	if len(p.Work) == 0 {
		return nil
	}
	return &p.Work[0]
}

// AnswerFor returns a pre-written answer whose question matches the
// given label, compared case-insensitively after trimming. Empty string
// when none matches.
func (p *Profile) AnswerFor(label string) string {
	want := strings.ToLower(strings.TrimSpace(label))
	if want == "" {
		return ""
	}
	for _, a := range p.Answers {
		if strings.ToLower(strings.TrimSpace(a.Question)) == want {
			return a.Answer
		}
	}
	return ""
}
