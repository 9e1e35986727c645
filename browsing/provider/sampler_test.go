package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
)

const completionBody = `{
  "id": "cmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "m",
  "choices": [
    {
      "index": 0,
      "finish_reason": "stop",
      "message": {"role": "assistant", "content": "<action>click('1')</action>"},
      "logprobs": {"content": [
        {"token": "click", "logprob": -0.2, "bytes": [], "top_logprobs": [
          {"token": "click", "logprob": -0.2, "bytes": []},
          {"token": "fill", "logprob": -1.8, "bytes": []}
        ]}
      ]}
    },
    {
      "index": 1,
      "finish_reason": "stop",
      "message": {"role": "assistant", "content": "<action>scroll(0, 200)</action>"},
      "logprobs": {"content": [
        {"token": "scroll", "logprob": -1.8, "bytes": [], "top_logprobs": [
          {"token": "click", "logprob": -0.2, "bytes": []},
          {"token": "scroll", "logprob": -1.8, "bytes": []}
        ]}
      ]}
    }
  ]
}`

type capturedRequest struct {
	body map[string]any
}

func fakeServer(t *testing.T, status []int, body string, got *capturedRequest) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		n := int(calls.Add(1)) - 1
		raw, _ := io.ReadAll(r.Body)
		if got != nil {
			_ = json.Unmarshal(raw, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		if n < len(status) && status[n] != http.StatusOK {
			w.WriteHeader(status[n])
			_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestSampler(url string, attempts int) ChatSampler {
	client := NewClient(Endpoint{Model: "m", BaseURL: url + "/v1/", APIKey: "test"})
	return ChatSampler{Client: &client, Model: "m", Attempts: attempts}
}

func TestSampleScored(t *testing.T) {
	var req capturedRequest
	srv, _ := fakeServer(t, nil, completionBody, &req)
	s := newTestSampler(srv.URL, 1)

	cands, err := s.SampleScored(context.Background(), UserTexts("sys", "obs"), SampleParams{
		Temperature: 1.0, TopP: 0.95, N: 2, TopLogprobs: 5,
	})
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.EqualValues(t, 2, req.body["n"])
	assert.Equal(t, true, req.body["logprobs"])
	assert.EqualValues(t, 5, req.body["top_logprobs"])
	assert.EqualValues(t, 0.95, req.body["top_p"])
	assert.Len(t, req.body["messages"], 2)

	assert.Equal(t, "<action>click('1')</action>", cands[0].Text)
	assert.NoError(t, cands[0].ScoreErr)
	assert.Greater(t, cands[0].Confidence, cands[1].Confidence)

	ranked := browsing.RankCandidates(cands)
	assert.Equal(t, 0, ranked[0].Index)
}

func TestComplete_OmitsSamplingExtras(t *testing.T) {
	var req capturedRequest
	srv, _ := fakeServer(t, nil, completionBody, &req)
	s := newTestSampler(srv.URL, 1)

	text, err := s.Complete(context.Background(), UserTexts("plan this"), SampleParams{N: 20})
	require.NoError(t, err)
	assert.Equal(t, "<action>click('1')</action>", text)
	assert.NotContains(t, req.body, "n")
	assert.NotContains(t, req.body, "logprobs")
}

func TestStructured_DecodesContent(t *testing.T) {
	plan := `{"id":"c","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"thought\":\"t\",\"keywords\":[\"k\"],\"subtasks\":[{\"id\":1,\"description\":\"open\"}]}"}}]}`
	var req capturedRequest
	srv, _ := fakeServer(t, nil, plan, &req)
	s := newTestSampler(srv.URL, 1)

	var got browsing.Plan
	err := s.Structured(context.Background(), UserTexts("x"), SampleParams{}, "plan", GenerateSchema[browsing.Plan](), &got)
	require.NoError(t, err)
	assert.Equal(t, []browsing.Subtask{{ID: 1, Description: "open"}}, got.Subtasks)

	format, ok := req.body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
}

func TestCallWithRetry_RateLimitThenSuccess(t *testing.T) {
	saved := rateLimitWaitTimes
	rateLimitWaitTimes = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { rateLimitWaitTimes = saved })

	srv, calls := fakeServer(t, []int{http.StatusTooManyRequests}, completionBody, nil)
	s := newTestSampler(srv.URL, 3)

	cands, err := s.Sample(context.Background(), UserTexts("x"), SampleParams{})
	require.NoError(t, err)
	assert.Len(t, cands, 2)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCallWithRetry_ClientErrorNotRetried(t *testing.T) {
	srv, calls := fakeServer(t, []int{http.StatusBadRequest}, completionBody, nil)
	s := newTestSampler(srv.URL, 3)

	_, err := s.Sample(context.Background(), UserTexts("x"), SampleParams{})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSample_RequiresClientAndModel(t *testing.T) {
	_, err := ChatSampler{Model: "m"}.Sample(context.Background(), nil, SampleParams{})
	assert.Error(t, err)
	client := openai.NewClient()
	_, err = ChatSampler{Client: &client}.Sample(context.Background(), nil, SampleParams{})
	assert.Error(t, err)
}

func TestTokenLogprobs(t *testing.T) {
	in := []openai.ChatCompletionTokenLogprob{{
		Token:   "a",
		Logprob: -0.5,
		TopLogprobs: []openai.ChatCompletionTokenLogprobTopLogprob{
			{Token: "a", Logprob: -0.5},
			{Token: "b", Logprob: -1},
		},
	}}
	got := TokenLogprobs(in)
	assert.Equal(t, []browsing.TokenLogprob{{
		Token:       "a",
		Logprob:     -0.5,
		TopLogprobs: []browsing.TokenAlternative{{Token: "a", Logprob: -0.5}, {Token: "b", Logprob: -1}},
	}}, got)
	assert.Nil(t, TokenLogprobs(nil))
}
