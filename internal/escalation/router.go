package escalation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

// Router batches unresolved questions into one model round trip per
// pass and joins the answers back by question identity.
type Router struct {
	client *Client
	cache  *AnswerCache
	logger *zap.Logger
}

func NewRouter(client *Client, cache *AnswerCache, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{client: client, cache: cache, logger: logger}
}

// Enabled reports whether escalation is configured at all. A router
// without a client silently answers nothing, leaving unresolved fields
// unfilled rather than failing the pass.
func (r *Router) Enabled() bool {
	return r != nil && r.client != nil
}

const systemPrompt = `You are filling out a job application on behalf of an applicant.
You receive the applicant's profile and a list of form questions. Answer every question
from the applicant's perspective, truthfully based on the profile. Keep free-text answers
short and professional. For questions with an options list, pick from the options by
zero-based index: set "selected_index" for single choice, "selected_indices" for multiple
choice. Use "answer" only for questions without options. Never invent qualifications the
profile does not support. If the profile gives no basis for an answer and the question is
optional, you may omit it.

Respond with JSON of the form:
{"answers": [{"question_id": "...", "answer": "...", "selected_index": 0, "selected_indices": [0, 2]}]}`

type answerEnvelope struct {
	Answers []domain.AIAnswer `json:"answers"`
}

// Route answers a batch of questions: cached answers first, one
// CompleteJSON call for the rest. Returned answers are validated
// against their question's type and option set; invalid ones are
// dropped rather than committed blind.
func (r *Router) Route(ctx context.Context, profile *domain.Profile, questions []domain.AIQuestion) ([]domain.AIAnswer, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	if !r.Enabled() {
		return nil, nil
	}

	var answers []domain.AIAnswer
	var pending []domain.AIQuestion

	for _, q := range questions {
		cached, err := r.cache.Get(ctx, q)
		if err != nil {
			r.logger.Warn("answer cache read failed", zap.String("question", q.ID), zap.Error(err))
		}
		if cached != nil {
			answers = append(answers, *cached)
			continue
		}
		pending = append(pending, q)
	}

	if len(pending) == 0 {
		r.logger.Debug("all questions answered from cache", zap.Int("count", len(answers)))
		return answers, nil
	}

	userPrompt, err := buildUserPrompt(profile, pending)
	if err != nil {
		return answers, fmt.Errorf("building escalation prompt: %w", err)
	}

	var envelope answerEnvelope
	usage, err := r.client.CompleteJSON(ctx, systemPrompt, userPrompt, &envelope)
	if err != nil {
		return answers, domain.ErrEscalationFailed("model round trip", err)
	}
	if usage != nil {
		r.logger.Info("escalation complete",
			zap.Int("questions", len(pending)),
			zap.Int("answers", len(envelope.Answers)),
			zap.Int("tokens_in", usage.InputTokens),
			zap.Int("tokens_out", usage.OutputTokens),
		)
	}

	fresh := correlate(pending, envelope.Answers)
	for _, a := range fresh {
		q, ok := questionByID(pending, a.QuestionID)
		if !ok {
			continue
		}
		if err := r.cache.Set(ctx, q, a); err != nil {
			r.logger.Warn("answer cache write failed", zap.String("question", q.ID), zap.Error(err))
		}
	}

	return append(answers, fresh...), nil
}

// buildUserPrompt renders the applicant profile and the question batch.
func buildUserPrompt(profile *domain.Profile, questions []domain.AIQuestion) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling profile: %w", err)
	}
	questionsJSON, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling questions: %w", err)
	}

	var b strings.Builder
	b.WriteString("Applicant profile:\n")
	b.Write(profileJSON)
	b.WriteString("\n\nQuestions:\n")
	b.Write(questionsJSON)
	return b.String(), nil
}

// correlate joins model answers back to their questions by identity and
// validates each against the question's type: selections must be in
// range for the option set, text answers to select-like questions must
// validate against the options, and empty answers are dropped. An
// answer with an unknown question_id falls back to a normalized label
// match before being discarded.
func correlate(questions []domain.AIQuestion, answers []domain.AIAnswer) []domain.AIAnswer {
	var out []domain.AIAnswer
	for _, a := range answers {
		q, ok := questionByID(questions, a.QuestionID)
		if !ok {
			q, ok = questionByLabel(questions, a.QuestionID)
			if !ok {
				continue
			}
			a.QuestionID = q.ID
		}
		if validated, ok := validateAnswer(q, a); ok {
			out = append(out, validated)
		}
	}
	return out
}

func questionByID(questions []domain.AIQuestion, id string) (domain.AIQuestion, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.AIQuestion{}, false
}

func questionByLabel(questions []domain.AIQuestion, label string) (domain.AIQuestion, bool) {
	want := match.Normalize(label)
	if want == "" {
		return domain.AIQuestion{}, false
	}
	for _, q := range questions {
		if match.Normalize(q.Label) == want {
			return q, true
		}
	}
	return domain.AIQuestion{}, false
}

func validateAnswer(q domain.AIQuestion, a domain.AIAnswer) (domain.AIAnswer, bool) {
	optionCount := len(q.Options)

	switch {
	// Checkbox groups are multi-valued too.
	case (q.Type == domain.FieldTypeVirtualMulti || q.Type == domain.FieldTypeCheckbox) && optionCount > 0:
		var indices []int
		for _, i := range a.SelectedIndices {
			if i >= 0 && i < optionCount {
				indices = append(indices, i)
			}
		}
		// A single index is accepted for multi questions.
		if len(indices) == 0 && a.SelectedIndex != nil {
			if i := *a.SelectedIndex; i >= 0 && i < optionCount {
				indices = append(indices, i)
			}
		}
		if len(indices) == 0 {
			return a, false
		}
		a.SelectedIndices = indices
		a.SelectedIndex = nil
		return a, true

	case q.Type.SelectLike() && optionCount > 0:
		if a.SelectedIndex != nil {
			if i := *a.SelectedIndex; i >= 0 && i < optionCount {
				a.SelectedIndices = nil
				return a, true
			}
			return a, false
		}
		if a.Answer != "" && match.ValidateTarget(q.Options, a.Answer) {
			return a, true
		}
		return a, false

	default:
		if strings.TrimSpace(a.Answer) == "" {
			return a, false
		}
		a.SelectedIndex = nil
		a.SelectedIndices = nil
		return a, true
	}
}
