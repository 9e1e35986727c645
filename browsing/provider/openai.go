package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewClient builds an OpenAI-compatible client for the endpoint. SDK-level retries are
// disabled; CallWithRetry owns retry policy.
func NewClient(ep Endpoint) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(ep.APIKey),
		option.WithMaxRetries(0),
	}
	if ep.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(ep.BaseURL))
	}
	return openai.NewClient(opts...)
}

var (
	rateLimitWaitTimes   = []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes = []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}
)

// CallWithRetry issues a chat completion, retrying rate-limit and server errors up to
// maxAttempts times in total. maxAttempts <= 1 means a single attempt.
func CallWithRetry(ctx context.Context, client *openai.Client, params openai.ChatCompletionNewParams, maxAttempts int) (*openai.ChatCompletion, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if maxAttempts > len(rateLimitWaitTimes) {
		maxAttempts = len(rateLimitWaitTimes)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := client.Chat.Completions.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		var wait time.Duration
		switch {
		case isRateLimitError(err):
			wait = rateLimitWaitTimes[attempt]
		case isServerError(err):
			wait = serverErrorWaitTimes[attempt]
		default:
			return nil, err
		}
		if attempt == maxAttempts-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts due to API issues", maxAttempts)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusCode(err); ok {
		return code == 429
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusCode(err); ok {
		return code >= 500
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// GenerateSchema reflects T into a strict JSON schema accepted by structured outputs.
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	ensureOpenAICompliance(schemaObj)
	return schemaObj
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
)

// ensureOpenAICompliance marks every object closed and every property required, recursively.
func ensureOpenAICompliance(schema map[string]interface{}) {
	if schemaType, ok := schema[typeKey].(string); ok && schemaType == "object" {
		schema[additionalPropertiesKey] = false

		if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
			var requiredFields []string
			for propName := range properties {
				requiredFields = append(requiredFields, propName)
			}
			if len(requiredFields) > 0 {
				schema[requiredKey] = requiredFields
			}
		}
	}

	if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				ensureOpenAICompliance(propMap)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]interface{}); ok {
		ensureOpenAICompliance(items)
	}

	if additionalProps, ok := schema[additionalPropertiesKey].(map[string]interface{}); ok {
		ensureOpenAICompliance(additionalProps)
	}
}
