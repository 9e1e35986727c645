package browsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleResponse = `<screen_region>top navigation bar</screen_region>
<reflection>
The search box is still empty.
</reflection>
<think>Type the query first.</think>
<action>
fill('a12', 'running shoes')  # search
</action>`

func TestParseAgentResponse(t *testing.T) {
	got := ParseAgentResponse(sampleResponse)
	assert.Equal(t, "top navigation bar", got.ScreenRegion)
	assert.Equal(t, "The search box is still empty.", got.Reflection)
	assert.Equal(t, "Type the query first.", got.Think)
	assert.Equal(t, "fill('a12', 'running shoes')  # search", got.Action)
}

func TestParseAgentResponse_MissingSections(t *testing.T) {
	got := ParseAgentResponse("just prose, no tags")
	assert.Equal(t, AgentResponse{}, got)

	got = ParseAgentResponse("<action>click('1')</action><action>click('2')</action>")
	assert.Equal(t, "click('1')", got.Action)
}

func TestCountRepeated(t *testing.T) {
	previous := []string{"click('12')", "  ", "scroll(0, 200)"}
	texts := []string{
		"<action>click('12')</action>",
		"<action>click('13')</action>",
		"<action>scroll(0, 200)</action>",
	}
	assert.Equal(t, 2, CountRepeated(texts, previous))
	assert.Equal(t, 0, CountRepeated(texts, nil))
	assert.False(t, ContainsAnyAction("anything", []string{""}))
}
