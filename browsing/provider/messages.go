package provider

import "github.com/openai/openai-go"

// UserTexts turns each string into its own user-role message, in order.
func UserTexts(texts ...string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(texts))
	for _, t := range texts {
		out = append(out, openai.UserMessage(t))
	}
	return out
}

// UserTextWithImage is a single user message carrying text and one image URL (often a data URL).
func UserTextWithImage(text, imageURL string) openai.ChatCompletionMessageParamUnion {
	return openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(text),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
	})
}
