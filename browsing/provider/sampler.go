package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
	"github.com/theimaginaryfoundation/browse-o-bot/browsing/fileutils"
)

// SampleParams are the sampling knobs of one chat completion request.
type SampleParams struct {
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	// N is the number of independent candidates; 0 means the backend default (1).
	N int
	// TopLogprobs > 0 requests per-token logprobs with that many alternatives.
	TopLogprobs int
	// Logprobs requests per-token logprobs without alternatives when TopLogprobs is 0.
	Logprobs  bool
	MaxTokens int
}

// ChatSampler sends chat completion requests for one model.
type ChatSampler struct {
	Client *openai.Client
	Model  string
	// Attempts bounds CallWithRetry; 0 or 1 disables retries.
	Attempts int
}

func (s ChatSampler) check() error {
	if s.Client == nil {
		return errors.New("ChatSampler: client is nil")
	}
	if s.Model == "" {
		return errors.New("ChatSampler: model is empty")
	}
	return nil
}

// BuildParams assembles the request for messages and p.
func (s ChatSampler) BuildParams(messages []openai.ChatCompletionMessageParamUnion, p SampleParams) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(s.Model),
		Messages:    messages,
		Temperature: openai.Float(p.Temperature),
	}
	if p.TopP > 0 {
		params.TopP = openai.Float(p.TopP)
	}
	if p.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(p.FrequencyPenalty)
	}
	if p.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(p.PresencePenalty)
	}
	if p.N > 0 {
		params.N = openai.Int(int64(p.N))
	}
	if p.TopLogprobs > 0 {
		params.Logprobs = openai.Bool(true)
		params.TopLogprobs = openai.Int(int64(p.TopLogprobs))
	} else if p.Logprobs {
		params.Logprobs = openai.Bool(true)
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}
	return params
}

// Sample requests p.N candidates and returns them unscored, in backend order.
func (s ChatSampler) Sample(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p SampleParams) ([]browsing.Candidate, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	resp, err := CallWithRetry(ctx, s.Client, s.BuildParams(messages, p), s.Attempts)
	if err != nil {
		return nil, err
	}
	return CandidatesFromCompletion(resp), nil
}

// SampleScored is Sample followed by browsing.ScoreCandidates.
func (s ChatSampler) SampleScored(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p SampleParams) ([]browsing.Candidate, error) {
	cands, err := s.Sample(ctx, messages, p)
	if err != nil {
		return nil, err
	}
	browsing.ScoreCandidates(cands)
	return cands, nil
}

// Complete returns the text of the first candidate.
func (s ChatSampler) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p SampleParams) (string, error) {
	p.N = 0
	cands, err := s.Sample(ctx, messages, p)
	if err != nil {
		return "", err
	}
	if len(cands) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return cands[0].Text, nil
}

// Structured asks for a strict JSON-schema response named name and decodes it into out.
func (s ChatSampler) Structured(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, p SampleParams, name string, schema map[string]interface{}, out any) error {
	if err := s.check(); err != nil {
		return err
	}
	p.N = 0
	params := s.BuildParams(messages, p)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        name,
				Schema:      schema,
				Strict:      openai.Bool(true),
				Description: openai.String(name + " JSON"),
			},
		},
	}
	resp, err := CallWithRetry(ctx, s.Client, params, s.Attempts)
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return errors.New("completion returned no choices")
	}
	if err := fileutils.DecodeModelJSON(resp.Choices[0].Message.Content, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// CandidatesFromCompletion converts every choice, carrying its token logprobs when present.
func CandidatesFromCompletion(resp *openai.ChatCompletion) []browsing.Candidate {
	if resp == nil {
		return nil
	}
	out := make([]browsing.Candidate, 0, len(resp.Choices))
	for i, ch := range resp.Choices {
		out = append(out, browsing.Candidate{
			Index:    i,
			Text:     ch.Message.Content,
			Logprobs: TokenLogprobs(ch.Logprobs.Content),
		})
	}
	return out
}

// TokenLogprobs maps SDK logprob records onto the scorer's input type.
func TokenLogprobs(in []openai.ChatCompletionTokenLogprob) []browsing.TokenLogprob {
	if len(in) == 0 {
		return nil
	}
	out := make([]browsing.TokenLogprob, 0, len(in))
	for _, t := range in {
		tok := browsing.TokenLogprob{Token: t.Token, Logprob: t.Logprob}
		for _, alt := range t.TopLogprobs {
			tok.TopLogprobs = append(tok.TopLogprobs, browsing.TokenAlternative{Token: alt.Token, Logprob: alt.Logprob})
		}
		out = append(out, tok)
	}
	return out
}
