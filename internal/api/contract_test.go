package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applyforge/applyforge/internal/domain"
)

// Contract tests validate that the bridge wire format stays stable:
// callers switch on the presence of "redirect" and "error" keys, so a
// completed result must never carry either.

// FillSuccessSchema is the completed-pass response shape
type FillSuccessSchema struct {
	Success            bool `json:"success"`
	Filled             int  `json:"filled"`
	Total              int  `json:"total"`
	Unmatched          int  `json:"unmatched"`
	AIQuestionsHandled int  `json:"aiQuestionsHandled"`
}

// FillRedirectSchema is the redirect response shape
type FillRedirectSchema struct {
	Redirect string `json:"redirect"`
}

// FillErrorSchema is the error response shape
type FillErrorSchema struct {
	Error string `json:"error"`
}

// QuestionsSchema is the question-collection response payload
type QuestionsSchema struct {
	PassID    string `json:"pass_id"`
	Questions []struct {
		ID      string   `json:"id"`
		Label   string   `json:"label"`
		Type    string   `json:"type"`
		Options []string `json:"options,omitempty"`
	} `json:"questions"`
}

func TestFillResultContract_Completed(t *testing.T) {
	result := domain.Completed(domain.Summary{
		Filled:             5,
		Total:              8,
		Unmatched:          3,
		AIQuestionsHandled: 2,
	})

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var schema FillSuccessSchema
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.True(t, schema.Success)
	assert.Equal(t, 5, schema.Filled)
	assert.Equal(t, 8, schema.Total)
	assert.Equal(t, 3, schema.Unmatched)
	assert.Equal(t, 2, schema.AIQuestionsHandled)

	// The discriminating keys are absent on success.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "redirect")
	assert.NotContains(t, raw, "error")
}

func TestFillResultContract_Redirect(t *testing.T) {
	result := domain.Redirected("https://boards.example.com/embed/apply")

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var schema FillRedirectSchema
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "https://boards.example.com/embed/apply", schema.Redirect)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "success")
	assert.NotContains(t, raw, "error")
}

func TestFillResultContract_Error(t *testing.T) {
	result := domain.Failed(assert.AnError)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var schema FillErrorSchema
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.NotEmpty(t, schema.Error)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "success")
	assert.NotContains(t, raw, "redirect")
}

func TestFillResultContract_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		result domain.PassResult
	}{
		{
			name:   "completed",
			result: domain.Completed(domain.Summary{Filled: 1, Total: 2, Unmatched: 1}),
		},
		{
			name:   "redirect",
			result: domain.Redirected("https://example.com/apply"),
		},
		{
			name:   "error",
			result: domain.PassResult{Kind: domain.PassError, Message: "browser crashed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			require.NoError(t, err)

			var got domain.PassResult
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.result.Kind, got.Kind)
			assert.Equal(t, tt.result.Summary, got.Summary)
			assert.Equal(t, tt.result.RedirectURL, got.RedirectURL)
		})
	}
}

func TestQuestionsContract(t *testing.T) {
	body := `{
		"pass_id": "7b6a2f0e-4f2e-4c63-b7a4-1f9d20d1c111",
		"questions": [
			{"id": "field-3", "label": "Are you authorized to work?", "type": "virtual", "options": ["Yes", "No"]},
			{"id": "field-4", "label": "Why this role?", "type": "text"}
		]
	}`

	var schema QuestionsSchema
	require.NoError(t, json.Unmarshal([]byte(body), &schema))
	assert.NotEmpty(t, schema.PassID)
	require.Len(t, schema.Questions, 2)
	assert.Equal(t, "field-3", schema.Questions[0].ID)
	assert.Len(t, schema.Questions[0].Options, 2)
	assert.Empty(t, schema.Questions[1].Options)
}
