package browsing

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrEmptySequence is returned when a response has no scored tokens.
	ErrEmptySequence = errors.New("empty token sequence")

	// ErrMissingLogprobs is returned when the backend did not report top-K alternatives.
	ErrMissingLogprobs = errors.New("missing top logprobs")
)

// TokenAlternative is one of the top-K candidates a backend reports at a generation step.
type TokenAlternative struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
}

// TokenLogprob is the chosen token at one position plus the alternatives considered there.
type TokenLogprob struct {
	Token       string             `json:"token"`
	Logprob     float64            `json:"logprob"`
	TopLogprobs []TokenAlternative `json:"top_logprobs"`
}

// ConfidenceScore returns the mean, over all positions, of the chosen token's share of
// probability mass among the top-K alternatives at that position.
//
// This is not a normalized probability over the vocabulary. When the chosen token is absent
// from the reported alternatives its own mass joins the denominator, keeping each share in (0, 1].
func ConfidenceScore(tokens []TokenLogprob) (float64, error) {
	if len(tokens) == 0 {
		return 0, ErrEmptySequence
	}
	var sum float64
	for i, tok := range tokens {
		share, err := tokenShare(tok)
		if err != nil {
			return 0, fmt.Errorf("position %d: %w", i, err)
		}
		sum += share
	}
	return sum / float64(len(tokens)), nil
}

func tokenShare(tok TokenLogprob) (float64, error) {
	if len(tok.TopLogprobs) == 0 {
		return 0, ErrMissingLogprobs
	}
	// Shift by the largest logprob so exp never underflows to zero for the whole set.
	shift := tok.Logprob
	for _, alt := range tok.TopLogprobs {
		if alt.Logprob > shift {
			shift = alt.Logprob
		}
	}

	var denom float64
	chosenListed := false
	for _, alt := range tok.TopLogprobs {
		denom += math.Exp(alt.Logprob - shift)
		if sameAlternative(tok, alt) {
			chosenListed = true
		}
	}
	num := math.Exp(tok.Logprob - shift)
	if !chosenListed {
		denom += num
	}
	// exp underflows to 0 once the chosen token trails the best one by about 745 nats.
	return max(num/denom, math.SmallestNonzeroFloat64), nil
}

func sameAlternative(tok TokenLogprob, alt TokenAlternative) bool {
	if tok.Token != "" || alt.Token != "" {
		return tok.Token == alt.Token
	}
	return math.Abs(tok.Logprob-alt.Logprob) < 1e-9
}

// Candidate is one independently sampled completion from an n-best request.
type Candidate struct {
	Index      int
	Text       string
	Logprobs   []TokenLogprob
	Confidence float64
	// ScoreErr is set when the candidate could not be scored; such candidates rank last.
	ScoreErr error
}

// ScoreCandidates fills Confidence (or ScoreErr) for every candidate in place.
func ScoreCandidates(cands []Candidate) {
	for i := range cands {
		cands[i].Confidence, cands[i].ScoreErr = ConfidenceScore(cands[i].Logprobs)
	}
}

// RankCandidates orders candidates by descending confidence, keeping sample order for ties.
// Unscored candidates sort after all scored ones.
func RankCandidates(cands []Candidate) []Candidate {
	out := append([]Candidate(nil), cands...)
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].ScoreErr == nil) != (out[j].ScoreErr == nil) {
			return out[i].ScoreErr == nil
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// MeanConfidence averages the confidence of the scored candidates.
func MeanConfidence(cands []Candidate) (float64, error) {
	var sum float64
	n := 0
	for _, c := range cands {
		if c.ScoreErr != nil {
			continue
		}
		sum += c.Confidence
		n++
	}
	if n == 0 {
		return 0, ErrEmptySequence
	}
	return sum / float64(n), nil
}
