package domain

// AIQuestion is one unresolved field packaged for the external answering
// collaborator. It exists for a single escalation round trip.
type AIQuestion struct {
	// ID is the stable field identity used to join answers back to
	// their originating field: element id, falling back to name,
	// falling back to a positional token.
	ID       string    `json:"id"`
	Type     FieldType `json:"type"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// AIAnswer is the collaborator's answer to one question. Exactly one of
// Answer, SelectedIndex, or SelectedIndices is expected to be set for
// any given field type.
type AIAnswer struct {
	QuestionID      string `json:"question_id"`
	Answer          string `json:"answer,omitempty"`
	SelectedIndex   *int   `json:"selected_index,omitempty"`
	SelectedIndices []int  `json:"selected_indices,omitempty"`
}

// HasSelection reports whether the answer carries index-based selection
// rather than free text.
func (a AIAnswer) HasSelection() bool {
	return a.SelectedIndex != nil || len(a.SelectedIndices) > 0
}
