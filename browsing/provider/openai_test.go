package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
)

func TestGenerateSchema_StrictObjects(t *testing.T) {
	schema := GenerateSchema[browsing.Plan]()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []string{"thought", "keywords", "subtasks"}, schema["required"])

	props := schema["properties"].(map[string]interface{})
	subtasks := props["subtasks"].(map[string]interface{})
	items := subtasks["items"].(map[string]interface{})
	assert.Equal(t, false, items["additionalProperties"])
	assert.ElementsMatch(t, []string{"id", "description"}, items["required"])
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("POST /chat/completions: 429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("rate limit reached")))
	assert.False(t, isRateLimitError(nil))
	assert.True(t, isServerError(errors.New("503 Service Unavailable")))
	assert.False(t, isServerError(errors.New("400 Bad Request")))
}
