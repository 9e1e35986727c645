package browsing

import (
	"errors"
	"fmt"
	"strings"
)

// PlannerInput is the JSON object the planner prompt is given.
type PlannerInput struct {
	Sites  string `json:"sites"`
	Intent string `json:"intent"`
}

// Subtask is one step of a plan, delegated to the acting agent.
type Subtask struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Plan is the planner's structured output.
type Plan struct {
	Thought  string    `json:"thought"`
	Keywords []string  `json:"keywords"`
	Subtasks []Subtask `json:"subtasks"`
}

// Validate checks that the plan has at least one subtask, that ids are positive and strictly
// increasing, and that no description is blank.
func (p Plan) Validate() error {
	if len(p.Subtasks) == 0 {
		return errors.New("plan has no subtasks")
	}
	prev := 0
	for i, st := range p.Subtasks {
		if st.ID <= prev {
			return fmt.Errorf("subtask %d: id %d must be > %d", i, st.ID, prev)
		}
		if strings.TrimSpace(st.Description) == "" {
			return fmt.Errorf("subtask %d: empty description", st.ID)
		}
		prev = st.ID
	}
	return nil
}

// Normalize trims whitespace and drops blank and duplicate keywords (case-insensitive).
func (p *Plan) Normalize() {
	p.Thought = strings.TrimSpace(p.Thought)
	p.Keywords = dedupeStrings(p.Keywords)
	for i := range p.Subtasks {
		p.Subtasks[i].Description = strings.TrimSpace(p.Subtasks[i].Description)
	}
}

// Instructions is the extractor's structured output: keywords and the steps to reach the intent.
type Instructions struct {
	Keywords []string `json:"keywords"`
	Steps    []string `json:"steps"`
}

// Normalize trims and dedupes keywords and drops blank steps.
func (in *Instructions) Normalize() {
	in.Keywords = dedupeStrings(in.Keywords)
	steps := in.Steps[:0]
	for _, s := range in.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	in.Steps = steps
}

// AsPlan turns extracted steps into numbered subtasks.
func (in Instructions) AsPlan() Plan {
	p := Plan{Keywords: append([]string(nil), in.Keywords...)}
	for i, s := range in.Steps {
		p.Subtasks = append(p.Subtasks, Subtask{ID: i + 1, Description: s})
	}
	return p
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
