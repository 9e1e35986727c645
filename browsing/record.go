package browsing

import "errors"

// CandidateRecord is one ranked, post-processed action candidate as written to JSONL.
type CandidateRecord struct {
	RunID          string        `json:"run_id"`
	Rank           int           `json:"rank"`
	SampleIndex    int           `json:"sample_index"`
	Confidence     float64       `json:"confidence"`
	ScoreError     string        `json:"score_error,omitempty"`
	Response       AgentResponse `json:"response"`
	Action         string        `json:"action,omitempty"`
	NormalizeError string        `json:"normalize_error,omitempty"`
	QuotesBalanced bool          `json:"quotes_balanced,omitempty"`
	Repeated       bool          `json:"repeated"`
}

// NormalizeWithRetry normalizes raw and, when balanceQuotes is set and the first attempt fails
// with ErrMalformedInput, retries once on EscapeUnbalancedQuotes(raw). retried reports whether
// the returned action came from the second attempt.
func NormalizeWithRetry(raw string, balanceQuotes bool) (action string, retried bool, err error) {
	action, err = NormalizeAction(raw)
	if err == nil || !balanceQuotes || !errors.Is(err, ErrMalformedInput) {
		return action, false, err
	}
	balanced := EscapeUnbalancedQuotes(raw)
	if balanced == raw {
		return "", false, err
	}
	action, err = NormalizeAction(balanced)
	if err != nil {
		return "", true, err
	}
	return action, true, nil
}

// BuildCandidateRecords ranks scored candidates and turns each into a record: sections parsed,
// action normalized, and repetition checked against previous actions.
func BuildCandidateRecords(runID string, cands []Candidate, previous []string, balanceQuotes bool) []CandidateRecord {
	ranked := RankCandidates(cands)
	out := make([]CandidateRecord, 0, len(ranked))
	for i, c := range ranked {
		rec := CandidateRecord{
			RunID:       runID,
			Rank:        i + 1,
			SampleIndex: c.Index,
			Confidence:  c.Confidence,
			Response:    ParseAgentResponse(c.Text),
			Repeated:    ContainsAnyAction(c.Text, previous),
		}
		if c.ScoreErr != nil {
			rec.ScoreError = c.ScoreErr.Error()
		}
		if rec.Response.Action != "" {
			action, retried, err := NormalizeWithRetry(rec.Response.Action, balanceQuotes)
			if err != nil {
				rec.NormalizeError = err.Error()
			} else {
				rec.Action = action
				rec.QuotesBalanced = retried
			}
		}
		out = append(out, rec)
	}
	return out
}
