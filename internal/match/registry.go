package match

import (
	"regexp"
	"strings"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/siteprofile"
)

// Key is the stable identifier of a recognized field concept.
type Key string

const (
	KeyFirstName    Key = "firstName"
	KeyLastName     Key = "lastName"
	KeyFullName     Key = "fullName"
	KeyEmail        Key = "email"
	KeyPhone        Key = "phone"
	KeyPhoneCountry Key = "phoneCountry"
	KeyStreet       Key = "street"
	KeyCity         Key = "city"
	KeyState        Key = "state"
	KeyZip          Key = "zip"
	KeyCountry      Key = "country"
	KeyLinkedIn     Key = "linkedin"
	KeyGitHub       Key = "github"
	KeyPortfolio    Key = "portfolio"
	KeyCompany      Key = "currentCompany"
	KeyTitle        Key = "currentTitle"
	KeySalary       Key = "desiredSalary"
	KeyNoticePeriod Key = "noticePeriod"

	KeySchool       Key = "school"
	KeyDegree       Key = "degree"
	KeyFieldOfStudy Key = "fieldOfStudy"
	KeyGPA          Key = "gpa"
)

// Matcher binds one field concept to its recognition patterns and its
// profile value extractor. Patterns are tested in order; any hit claims
// the field.
type Matcher struct {
	Key      Key
	Patterns []*regexp.Regexp

	// Extract resolves the profile value committed into a matched
	// field. Empty string means the profile has no value for it.
	Extract func(p *domain.Profile) string

	// PreferredSelector optionally narrows which element the value
	// should land on when a page renders the concept as a compound
	// control.
	PreferredSelector string
}

// Registry is an ordered matcher table for one site profile. First key
// whose any pattern matches wins; registration order is precedence.
type Registry struct {
	matchers []Matcher
}

func rx(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// NewRegistry builds the matcher table for a site profile. The concept
// set is shared across families; ordering puts the narrower concepts
// (phone country, full name) ahead of the generic ones they would
// otherwise shadow.
func NewRegistry(sp *siteprofile.Profile) *Registry {
	matchers := []Matcher{
		{
			Key:      KeyPhoneCountry,
			Patterns: rx(`country.?code`, `dial.?code`, `phone.?country`, `calling.?code`),
			Extract:  func(p *domain.Profile) string { return p.PhoneCountry },
		},
		{
			Key:      KeyFirstName,
			Patterns: rx(`first.?name`, `given.?name`, `\bfname\b`, `^first$`),
			Extract:  func(p *domain.Profile) string { return p.FirstName },
		},
		{
			Key:      KeyLastName,
			Patterns: rx(`last.?name`, `family.?name`, `surname`, `\blname\b`, `^last$`),
			Extract:  func(p *domain.Profile) string { return p.LastName },
		},
		{
			Key:      KeyFullName,
			Patterns: rx(`full.?name`, `your.?name`, `legal.?name`, `^name$`),
			Extract:  func(p *domain.Profile) string { return p.FullName() },
		},
		{
			Key:      KeyEmail,
			Patterns: rx(`e.?mail`),
			Extract:  func(p *domain.Profile) string { return p.Email },
		},
		{
			Key:      KeyPhone,
			Patterns: rx(`phone`, `mobile`, `\btel\b`, `telephone`, `cell`),
			Extract:  func(p *domain.Profile) string { return p.Phone },
		},
		{
			Key:      KeyLinkedIn,
			Patterns: rx(`linked.?in`),
			Extract:  func(p *domain.Profile) string { return p.Links.LinkedIn },
		},
		{
			Key:      KeyGitHub,
			Patterns: rx(`git.?hub`),
			Extract:  func(p *domain.Profile) string { return p.Links.GitHub },
		},
		{
			Key:      KeyPortfolio,
			Patterns: rx(`portfolio`, `personal.?(web)?site`, `\bwebsite\b`, `\burl\b`),
			Extract:  func(p *domain.Profile) string { return p.Links.Portfolio },
		},
		{
			Key:      KeyStreet,
			Patterns: rx(`street`, `address.?line.?1`, `\baddress\b`),
			Extract:  func(p *domain.Profile) string { return p.Address.Street },
		},
		{
			Key:      KeyCity,
			Patterns: rx(`\bcity\b`, `\btown\b`, `locality`),
			Extract:  func(p *domain.Profile) string { return p.Address.City },
		},
		{
			Key:      KeyState,
			Patterns: rx(`\bstate\b`, `province`, `region`),
			Extract:  func(p *domain.Profile) string { return p.Address.State },
		},
		{
			Key:      KeyZip,
			Patterns: rx(`zip`, `postal`, `post.?code`),
			Extract:  func(p *domain.Profile) string { return p.Address.Zip },
		},
		{
			Key:      KeyCountry,
			Patterns: rx(`country`, `nation`),
			Extract:  func(p *domain.Profile) string { return p.Address.Country },
		},
		{
			Key:      KeyCompany,
			Patterns: rx(`current.?(company|employer)`, `\bcompany\b`, `employer`, `organi[sz]ation`),
			Extract:  func(p *domain.Profile) string { return p.CurrentCompany },
		},
		{
			Key:      KeyTitle,
			Patterns: rx(`current.?(title|role|position)`, `job.?title`, `\brole\b`),
			Extract:  func(p *domain.Profile) string { return p.CurrentTitle },
		},
		{
			Key:      KeySalary,
			Patterns: rx(`salary`, `compensation`, `pay.?expectation`, `expected.?pay`),
			Extract:  func(p *domain.Profile) string { return p.DesiredSalary },
		},
		{
			Key:      KeyNoticePeriod,
			Patterns: rx(`notice.?period`, `when.?can.?you.?start`, `start.?date`, `availability`),
			Extract:  func(p *domain.Profile) string { return p.NoticePeriod },
		},
	}

	// Fold in the family's own naming quirks: extra recognition
	// patterns appended to the concept they hint at.
	for i := range matchers {
		if extra := sp.MatcherHints[string(matchers[i].Key)]; len(extra) > 0 {
			matchers[i].Patterns = append(matchers[i].Patterns, rx(extra...)...)
		}
	}
	return &Registry{matchers: matchers}
}

// NewEducationRegistry builds the narrower matcher table the education
// handler applies to pre-classified education fields.
func NewEducationRegistry() *Registry {
	matchers := []Matcher{
		{
			Key:      KeySchool,
			Patterns: rx(`school`, `university`, `college`, `institution`, `alma.?mater`),
			Extract: func(p *domain.Profile) string {
				if e := p.LatestEducation(); e != nil {
					return e.School
				}
				return ""
			},
		},
		{
			Key:      KeyDegree,
			Patterns: rx(`degree`, `qualification`, `education.?level`),
			Extract: func(p *domain.Profile) string {
				if e := p.LatestEducation(); e != nil {
					return e.Degree
				}
				return ""
			},
		},
		{
			Key:      KeyFieldOfStudy,
			Patterns: rx(`field.?of.?study`, `major`, `discipline`, `course.?of.?study`),
			Extract: func(p *domain.Profile) string {
				if e := p.LatestEducation(); e != nil {
					return e.FieldOfStudy
				}
				return ""
			},
		},
		{
			Key:      KeyGPA,
			Patterns: rx(`\bgpa\b`, `grade.?point`, `academic.?average`),
			Extract: func(p *domain.Profile) string {
				if e := p.LatestEducation(); e != nil {
					return e.GPA
				}
				return ""
			},
		},
	}
	return &Registry{matchers: matchers}
}

// Match tests the haystack — a concatenation of element id, name,
// aria-label, placeholder, nearby label text, and described-by text —
// against every matcher in order. First match wins, not best match.
func (r *Registry) Match(haystack string) (*Matcher, bool) {
	if strings.TrimSpace(haystack) == "" {
		return nil, false
	}
	for i := range r.matchers {
		m := &r.matchers[i]
		for _, pattern := range m.Patterns {
			if pattern.MatchString(haystack) {
				return m, true
			}
		}
	}
	return nil, false
}

// Lookup returns the matcher for a key.
func (r *Registry) Lookup(key Key) (*Matcher, bool) {
	for i := range r.matchers {
		if r.matchers[i].Key == key {
			return &r.matchers[i], true
		}
	}
	return nil, false
}
