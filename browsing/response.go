package browsing

import (
	"regexp"
	"strings"
)

// AgentResponse holds the tagged sections the UI-assistant prompt asks the model to emit.
type AgentResponse struct {
	ScreenRegion string `json:"screen_region,omitempty"`
	Reflection   string `json:"reflection,omitempty"`
	Think        string `json:"think,omitempty"`
	Action       string `json:"action,omitempty"`
}

var sectionPatterns = map[string]*regexp.Regexp{
	"screen_region": regexp.MustCompile(`(?s)<screen_region>(.*?)</screen_region>`),
	"reflection":    regexp.MustCompile(`(?s)<reflection>(.*?)</reflection>`),
	"think":         regexp.MustCompile(`(?s)<think>(.*?)</think>`),
	"action":        regexp.MustCompile(`(?s)<action>(.*?)</action>`),
}

// ParseAgentResponse extracts the first occurrence of each tagged section. Missing sections
// are left empty; a response without an <action> block is still returned.
func ParseAgentResponse(text string) AgentResponse {
	return AgentResponse{
		ScreenRegion: firstSection(text, "screen_region"),
		Reflection:   firstSection(text, "reflection"),
		Think:        firstSection(text, "think"),
		Action:       firstSection(text, "action"),
	}
}

func firstSection(text, name string) string {
	m := sectionPatterns[name].FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// CountRepeated counts the texts that contain any of the previous actions verbatim.
func CountRepeated(texts []string, previous []string) int {
	count := 0
	for _, t := range texts {
		if ContainsAnyAction(t, previous) {
			count++
		}
	}
	return count
}

// ContainsAnyAction reports whether text contains one of the actions as a substring.
func ContainsAnyAction(text string, actions []string) bool {
	for _, a := range actions {
		a = strings.TrimSpace(a)
		if a != "" && strings.Contains(text, a) {
			return true
		}
	}
	return false
}
