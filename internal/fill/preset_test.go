package fill

import (
	"testing"

	"github.com/applyforge/applyforge/internal/domain"
)

func TestResolveDefinition(t *testing.T) {
	defs := DefaultDefinitions()

	tests := []struct {
		name  string
		label string
		ft    domain.FieldType
		want  string
		ok    bool
	}{
		{"gender", "Gender", domain.FieldTypeVirtual, "Decline to self identify", true},
		{"ethnicity", "Race/Ethnicity", domain.FieldTypeVirtualMulti, "Decline to self identify", true},
		{"veteran", "Veteran Status", domain.FieldTypeNativeSelect, "I am not a protected veteran", true},
		{"disability", "Disability Status", domain.FieldTypeNativeSelect, "I do not want to answer", true},
		{"referral", "How did you hear about this job?", domain.FieldTypeText, "LinkedIn", true},
		{"consent checkbox", "I agree to the privacy policy", domain.FieldTypeCheckbox, "true", true},
		{"consent on a text field misses", "I agree to the privacy policy", domain.FieldTypeText, "", false},
		{"unknown question", "Why do you want this role?", domain.FieldTypeTextarea, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := ResolveDefinition(defs, tt.label, tt.ft)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && def.Target() != tt.want {
				t.Errorf("Target() = %q, want %q", def.Target(), tt.want)
			}
		})
	}
}

func TestDefinitionTarget_Indices(t *testing.T) {
	two := 2
	tests := []struct {
		name string
		def  Definition
		want string
	}{
		{"literal", Definition{Literal: "No"}, "No"},
		{"single index", Definition{Index: &two}, "#2"},
		{"index list", Definition{Indices: []int{0, 2}}, "#0,#2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.def.Target(); got != tt.want {
				t.Errorf("Target() = %q, want %q", got, tt.want)
			}
		})
	}
}
