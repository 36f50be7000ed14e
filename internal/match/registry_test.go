package match

import (
	"testing"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/siteprofile"
)

func testProfile() *domain.Profile {
	return &domain.Profile{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Phone:        "5551234567",
		PhoneCountry: "+44",
		Address: domain.Address{
			Street:  "12 Analytical Way",
			City:    "London",
			State:   "Greater London",
			Zip:     "SW1A 1AA",
			Country: "United Kingdom",
		},
		Links: domain.Links{
			LinkedIn: "https://linkedin.com/in/ada",
			GitHub:   "https://github.com/ada",
		},
		CurrentCompany: "Babbage & Co",
		CurrentTitle:   "Chief Engineer",
		Education: []domain.Education{
			{School: "University of London", Degree: "BSc", FieldOfStudy: "Mathematics", GPA: "4.0"},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	sp, err := siteprofile.Lookup("generic")
	if err != nil {
		t.Fatalf("Lookup(generic) error = %v", err)
	}
	return NewRegistry(sp)
}

func TestRegistry_Match(t *testing.T) {
	r := newTestRegistry(t)
	p := testProfile()

	tests := []struct {
		haystack string
		wantKey  Key
		wantVal  string
	}{
		{"first_name job_application[first_name] First Name", KeyFirstName, "Ada"},
		{"job_application[last_name] Last Name", KeyLastName, "Lovelace"},
		{"email Email address", KeyEmail, "ada@example.com"},
		{"candidate-phone Phone number", KeyPhone, "5551234567"},
		{"phone_country_code Country code", KeyPhoneCountry, "+44"},
		{"country Country of residence", KeyCountry, "United Kingdom"},
		{"city City", KeyCity, "London"},
		{"postal_code Zip / Postal code", KeyZip, "SW1A 1AA"},
		{"urls[LinkedIn] LinkedIn profile", KeyLinkedIn, "https://linkedin.com/in/ada"},
		{"current-company Current employer", KeyCompany, "Babbage & Co"},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantKey), func(t *testing.T) {
			m, ok := r.Match(tt.haystack)
			if !ok {
				t.Fatalf("Match(%q) found nothing", tt.haystack)
			}
			if m.Key != tt.wantKey {
				t.Errorf("Key = %s, want %s", m.Key, tt.wantKey)
			}
			if got := m.Extract(p); got != tt.wantVal {
				t.Errorf("Extract() = %q, want %q", got, tt.wantVal)
			}
		})
	}
}

func TestRegistry_Match_FirstMatchWins(t *testing.T) {
	r := newTestRegistry(t)

	// "Email address" also matches the street matcher's address
	// pattern; email is registered earlier and must claim it.
	m, ok := r.Match("contact Email address")
	if !ok || m.Key != KeyEmail {
		t.Fatalf("got key %v, want %s", m, KeyEmail)
	}

	// A dial-code control must resolve to the phone-country key, not
	// the generic country key, even though both patterns match.
	m, ok = r.Match("phone-country-code Dial code")
	if !ok || m.Key != KeyPhoneCountry {
		t.Fatalf("got key %v, want %s", m, KeyPhoneCountry)
	}
}

func TestRegistry_Match_NoKey(t *testing.T) {
	r := newTestRegistry(t)

	if _, ok := r.Match("question_12345 Why do you want to join us?"); ok {
		t.Error("free-form question should not match any standard key")
	}
	if _, ok := r.Match(""); ok {
		t.Error("empty haystack should not match")
	}
}

func TestRegistry_ProfileHints(t *testing.T) {
	lever, err := siteprofile.Lookup("lever")
	if err != nil {
		t.Fatalf("Lookup(lever) error = %v", err)
	}
	hinted := NewRegistry(lever)
	generic := newTestRegistry(t)

	// Lever labels the employer control "org"; the hinted registry
	// resolves it, the shared pattern set alone does not.
	m, ok := hinted.Match("org Current org")
	if !ok || m.Key != KeyCompany {
		t.Fatalf("hinted Match(org) = %v, %v, want %s", m.Key, ok, KeyCompany)
	}
	if _, ok := generic.Match("org Current org"); ok {
		t.Error("generic registry should not resolve the org control")
	}

	m, ok = hinted.Match("candidate-location Location")
	if !ok || m.Key != KeyCity {
		t.Fatalf("hinted Match(location) = %v, %v, want %s", m.Key, ok, KeyCity)
	}
}

func TestEducationRegistry(t *testing.T) {
	r := NewEducationRegistry()
	p := testProfile()

	tests := []struct {
		haystack string
		wantKey  Key
		wantVal  string
	}{
		{"education_school School name", KeySchool, "University of London"},
		{"education_degree Degree", KeyDegree, "BSc"},
		{"education_major Field of study", KeyFieldOfStudy, "Mathematics"},
		{"education_gpa GPA", KeyGPA, "4.0"},
	}

	for _, tt := range tests {
		m, ok := r.Match(tt.haystack)
		if !ok {
			t.Fatalf("Match(%q) found nothing", tt.haystack)
		}
		if m.Key != tt.wantKey {
			t.Errorf("Match(%q) key = %s, want %s", tt.haystack, m.Key, tt.wantKey)
		}
		if got := m.Extract(p); got != tt.wantVal {
			t.Errorf("Extract() = %q, want %q", got, tt.wantVal)
		}
	}
}

func TestEducationRegistry_EmptyHistory(t *testing.T) {
	r := NewEducationRegistry()
	m, ok := r.Lookup(KeySchool)
	if !ok {
		t.Fatal("school matcher missing")
	}
	if got := m.Extract(&domain.Profile{}); got != "" {
		t.Errorf("Extract() with no education = %q, want empty", got)
	}
}

func TestDialCodeOptionIndex(t *testing.T) {
	options := []Option{
		{Text: "United States (+1)"},
		{Text: "United Kingdom (+44)"},
		{Text: "Germany (+49)"},
		{Text: "Dominican Republic (+1809)"},
	}

	tests := []struct {
		dial   string
		want   int
		wantOK bool
	}{
		{"+44", 1, true},
		{"44", 1, true},
		{"+1", 0, true}, // must not land on +1809
		{"+49", 2, true},
		{"+99", -1, false},
		{"", -1, false},
	}

	for _, tt := range tests {
		got, ok := DialCodeOptionIndex(options, tt.dial)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("DialCodeOptionIndex(%q) = (%d, %v), want (%d, %v)", tt.dial, got, ok, tt.want, tt.wantOK)
		}
	}
}
