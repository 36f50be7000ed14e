package escalation

import (
	"context"
	"testing"

	"github.com/applyforge/applyforge/internal/domain"
)

func intPtr(i int) *int { return &i }

func sampleQuestions() []domain.AIQuestion {
	return []domain.AIQuestion{
		{ID: "auth", Type: domain.FieldTypeVirtual, Label: "Are you authorized to work in the US?", Options: []string{"Yes", "No"}},
		{ID: "why", Type: domain.FieldTypeTextarea, Label: "Why do you want to work here?"},
		{ID: "langs", Type: domain.FieldTypeVirtualMulti, Label: "Which languages do you know?", Options: []string{"Go", "Python", "Rust"}},
		{ID: "consent", Type: domain.FieldTypeCheckbox, Label: "Notification preferences", Options: []string{"Email", "SMS"}},
	}
}

func TestCorrelate_JoinsByID(t *testing.T) {
	answers := correlate(sampleQuestions(), []domain.AIAnswer{
		{QuestionID: "auth", SelectedIndex: intPtr(0)},
		{QuestionID: "why", Answer: "I admire the product."},
	})
	if len(answers) != 2 {
		t.Fatalf("got %d answers, want 2", len(answers))
	}
	if answers[0].QuestionID != "auth" || *answers[0].SelectedIndex != 0 {
		t.Errorf("auth answer = %+v", answers[0])
	}
	if answers[1].Answer != "I admire the product." {
		t.Errorf("why answer = %+v", answers[1])
	}
}

func TestCorrelate_LabelFallback(t *testing.T) {
	// The model returned the question label instead of the id.
	answers := correlate(sampleQuestions(), []domain.AIAnswer{
		{QuestionID: "Are you authorized to work in the US?", SelectedIndex: intPtr(1)},
	})
	if len(answers) != 1 {
		t.Fatalf("got %d answers, want 1", len(answers))
	}
	if answers[0].QuestionID != "auth" {
		t.Errorf("QuestionID = %q, want %q", answers[0].QuestionID, "auth")
	}
}

func TestCorrelate_DropsUnknownQuestion(t *testing.T) {
	answers := correlate(sampleQuestions(), []domain.AIAnswer{
		{QuestionID: "nonexistent", Answer: "whatever"},
	})
	if len(answers) != 0 {
		t.Errorf("got %d answers, want 0", len(answers))
	}
}

func TestValidateAnswer_SingleSelect(t *testing.T) {
	q := sampleQuestions()[0]

	if _, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "auth", SelectedIndex: intPtr(5)}); ok {
		t.Error("out-of-range index accepted")
	}
	if _, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "auth", Answer: "Maybe"}); ok {
		t.Error("text not in option set accepted")
	}
	if a, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "auth", Answer: "yes"}); !ok || a.Answer != "yes" {
		t.Errorf("case-insensitive option text rejected: %+v ok=%v", a, ok)
	}
}

func TestValidateAnswer_MultiSelect(t *testing.T) {
	q := sampleQuestions()[2]

	a, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "langs", SelectedIndices: []int{0, 7, 2}})
	if !ok {
		t.Fatal("valid multi answer rejected")
	}
	if len(a.SelectedIndices) != 2 || a.SelectedIndices[0] != 0 || a.SelectedIndices[1] != 2 {
		t.Errorf("SelectedIndices = %v, want [0 2]", a.SelectedIndices)
	}

	// A lone selected_index is accepted for multi questions.
	a, ok = validateAnswer(q, domain.AIAnswer{QuestionID: "langs", SelectedIndex: intPtr(1)})
	if !ok || len(a.SelectedIndices) != 1 || a.SelectedIndices[0] != 1 {
		t.Errorf("single index on multi = %+v ok=%v", a, ok)
	}

	if _, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "langs", SelectedIndices: []int{9}}); ok {
		t.Error("all-out-of-range indices accepted")
	}
}

func TestValidateAnswer_CheckboxGroup(t *testing.T) {
	q := sampleQuestions()[3]
	a, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "consent", SelectedIndices: []int{1}})
	if !ok || len(a.SelectedIndices) != 1 {
		t.Errorf("checkbox group answer = %+v ok=%v", a, ok)
	}
}

func TestValidateAnswer_Text(t *testing.T) {
	q := sampleQuestions()[1]

	if _, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "why", Answer: "   "}); ok {
		t.Error("blank text answer accepted")
	}

	a, ok := validateAnswer(q, domain.AIAnswer{QuestionID: "why", Answer: "Growth.", SelectedIndex: intPtr(0)})
	if !ok {
		t.Fatal("text answer rejected")
	}
	if a.SelectedIndex != nil {
		t.Error("stray selection not cleared from text answer")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"answers": []}`, `{"answers": []}`},
		{"code block", "Here you go:\n```json\n{\"answers\": []}\n```", `{"answers": []}`},
		{"leading prose", `Sure! {"answers": [{"question_id": "a"}]} Hope that helps.`, `{"answers": [{"question_id": "a"}]}`},
		{"nested braces in strings", `{"answers": [{"answer": "uses { and }"}]}`, `{"answers": [{"answer": "uses { and }"}]}`},
		{"no json", "I cannot answer that.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.input); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnswerCache_NilSafe(t *testing.T) {
	var cache *AnswerCache

	a, err := cache.Get(context.Background(), sampleQuestions()[0])
	if err != nil || a != nil {
		t.Errorf("nil cache Get = %+v, %v", a, err)
	}
	if err := cache.Set(context.Background(), sampleQuestions()[0], domain.AIAnswer{}); err != nil {
		t.Errorf("nil cache Set: %v", err)
	}
	if err := cache.Health(context.Background()); err != nil {
		t.Errorf("nil cache Health: %v", err)
	}
}
