package browsing

import "strings"

// SubtaskStatus is the judged progress of a subtask from a screenshot.
type SubtaskStatus string

const (
	StatusCompleted        SubtaskStatus = "completed"
	StatusCloseToCompleted SubtaskStatus = "close_to_completed"
	StatusInProgress       SubtaskStatus = "in_progress"
	StatusFewProgress      SubtaskStatus = "few_progress"
	StatusImpossible       SubtaskStatus = "impossible"
)

// StatusOptions lists the statuses in the order they are offered to the model.
var StatusOptions = []SubtaskStatus{
	StatusCompleted,
	StatusCloseToCompleted,
	StatusInProgress,
	StatusFewProgress,
	StatusImpossible,
}

var statusDescriptions = map[SubtaskStatus]string{
	StatusCompleted:        "The subtask has been successfully completed.",
	StatusCloseToCompleted: "Only one simple action is needed to complete the subtask.",
	StatusInProgress:       "The subtask is ongoing and requires more than one action to complete.",
	StatusFewProgress:      "Minimal or almost no progress has been made.",
	StatusImpossible:       "The subtask cannot be completed due to website constraints.",
}

// Describe returns the one-line meaning shown to the judge model.
func (s SubtaskStatus) Describe() string { return statusDescriptions[s] }

// StatusTally is the vote count for one status over a set of sampled judgements.
type StatusTally struct {
	Status SubtaskStatus
	Count  int
	// Text is the last sample that mentioned Status.
	Text string
}

// TallyStatus counts, for every status option, how many samples mention it. A sample that
// mentions several options votes for each of them. The winner is the highest count, ties going
// to the option listed first. ok is false when no sample mentioned any option.
func TallyStatus(samples []string) (winner StatusTally, all []StatusTally, ok bool) {
	counts := make(map[SubtaskStatus]*StatusTally, len(StatusOptions))
	for _, s := range samples {
		for _, opt := range StatusOptions {
			if !mentionsStatus(s, opt) {
				continue
			}
			t := counts[opt]
			if t == nil {
				t = &StatusTally{Status: opt}
				counts[opt] = t
			}
			t.Count++
			t.Text = s
		}
	}
	for _, opt := range StatusOptions {
		t := counts[opt]
		if t == nil {
			continue
		}
		all = append(all, *t)
		if !ok || t.Count > winner.Count {
			winner = *t
			ok = true
		}
	}
	return winner, all, ok
}

// mentionsStatus matches the option as a whole word so "completed" does not also count
// every "close_to_completed" answer.
func mentionsStatus(text string, opt SubtaskStatus) bool {
	needle := string(opt)
	for from := 0; ; {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		if !isWordByte(text, start-1) && !isWordByte(text, end) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || isDigit(c) || isLetterASCII(c)
}
