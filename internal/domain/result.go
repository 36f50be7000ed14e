package domain

import "encoding/json"

// PassKind discriminates the outcome of a fill pass. A redirect is a
// first-class outcome, not an error: the caller is expected to navigate
// to the reported URL and run a fresh pass there.
type PassKind string

const (
	PassCompleted PassKind = "completed"
	PassRedirect  PassKind = "redirect"
	PassError     PassKind = "error"
)

// Summary aggregates per-handler fill counts for one pass.
type Summary struct {
	Filled             int `json:"filled"`
	Total              int `json:"total"`
	Unmatched          int `json:"unmatched"`
	AIQuestionsHandled int `json:"ai_questions_handled"`
}

// Add folds another partial summary into this one.
func (s *Summary) Add(other Summary) {
	s.Filled += other.Filled
	s.Total += other.Total
	s.Unmatched += other.Unmatched
	s.AIQuestionsHandled += other.AIQuestionsHandled
}

// PassResult is the discriminated result of one fill pass.
type PassResult struct {
	Kind        PassKind
	Summary     Summary
	RedirectURL string
	Message     string
}

// Completed builds a successful pass result.
func Completed(summary Summary) PassResult {
	return PassResult{Kind: PassCompleted, Summary: summary}
}

// Redirected builds a redirect pass result.
func Redirected(url string) PassResult {
	return PassResult{Kind: PassRedirect, RedirectURL: url}
}

// Failed builds an error pass result.
func Failed(err error) PassResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return PassResult{Kind: PassError, Message: msg}
}

// MarshalJSON encodes the result in the bridge wire format: a success
// summary, a redirect object, or an error object.
func (r PassResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case PassRedirect:
		return json.Marshal(struct {
			Redirect string `json:"redirect"`
		}{Redirect: r.RedirectURL})
	case PassError:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: r.Message})
	default:
		return json.Marshal(struct {
			Success            bool `json:"success"`
			Filled             int  `json:"filled"`
			Total              int  `json:"total"`
			Unmatched          int  `json:"unmatched"`
			AIQuestionsHandled int  `json:"aiQuestionsHandled"`
		}{
			Success:            true,
			Filled:             r.Summary.Filled,
			Total:              r.Summary.Total,
			Unmatched:          r.Summary.Unmatched,
			AIQuestionsHandled: r.Summary.AIQuestionsHandled,
		})
	}
}

// UnmarshalJSON decodes the bridge wire format back into a PassResult.
func (r *PassResult) UnmarshalJSON(data []byte) error {
	var wire struct {
		Success            *bool  `json:"success"`
		Filled             int    `json:"filled"`
		Total              int    `json:"total"`
		Unmatched          int    `json:"unmatched"`
		AIQuestionsHandled int    `json:"aiQuestionsHandled"`
		Redirect           string `json:"redirect"`
		Error              string `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch {
	case wire.Redirect != "":
		*r = Redirected(wire.Redirect)
	case wire.Error != "":
		*r = PassResult{Kind: PassError, Message: wire.Error}
	default:
		*r = Completed(Summary{
			Filled:             wire.Filled,
			Total:              wire.Total,
			Unmatched:          wire.Unmatched,
			AIQuestionsHandled: wire.AIQuestionsHandled,
		})
	}
	return nil
}
