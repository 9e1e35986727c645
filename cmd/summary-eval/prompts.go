package main

import (
	"fmt"
	"strings"
)

const simplePromptTemplate = "Summarize this news article: {article}"

const metaPromptTemplate = `
Improve the following prompt to generate a more detailed summary.
Adhere to prompt engineering best practices.
Make sure the structure is clear and intuitive and contains the type of news, tags and sentiment analysis.

{simple_prompt}

Only return the prompt.
`

const evaluationPromptTemplate = `
You are an expert editor tasked with evaluating the quality of a news article summary. Below is the original article and the summary to be evaluated:

**Original Article**:
%s

**Summary**:
%s

Please evaluate the summary based on the following criteria, using a scale of 1 to 5 (1 being the lowest and 5 being the highest). Be critical in your evaluation and only give high scores for exceptional summaries:

1. **Categorization and Context**: Does the summary clearly identify the type or category of news (e.g., Politics, Technology, Sports) and provide appropriate context?
2. **Keyword and Tag Extraction**: Does the summary include relevant keywords or tags that accurately capture the main topics and themes of the article?
3. **Sentiment Analysis**: Does the summary accurately identify the overall sentiment of the article and provide a clear, well-supported explanation for this sentiment?
4. **Clarity and Structure**: Is the summary clear, well-organized, and structured in a way that makes it easy to understand the main points?
5. **Detail and Completeness**: Does the summary provide a detailed account that includes all necessary components (type of news, tags, sentiment) comprehensively?

Provide your scores and justifications for each criterion, ensuring a rigorous and detailed evaluation.
`

func simplePrompt(article string) string {
	return strings.Replace(simplePromptTemplate, "{article}", article, 1)
}

func metaPrompt() string {
	return strings.Replace(metaPromptTemplate, "{simple_prompt}", simplePromptTemplate, 1)
}

// improvedPrompt appends the article to the model-written prompt, as the meta prompt result
// carries no placeholder of its own.
func improvedPrompt(generated, article string) string {
	return generated + article
}

func evaluationPrompt(article, summary string) string {
	return fmt.Sprintf(evaluationPromptTemplate, article, summary)
}
