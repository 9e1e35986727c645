package main

import (
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/browse-o-bot/browsing"
)

func buildJudgePrompt(subtask string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given a screenshot of a website, determine the status of the task: '%s' ", strings.TrimSpace(subtask))
	b.WriteString("Analyze the screenshot to assess progress and output two fields: choice and reason, separated by a comma. ")
	b.WriteString("Keep the reason within 100 words. Select one of the following options for choice:\n")
	for _, opt := range browsing.StatusOptions {
		fmt.Fprintf(&b, "%s, %s\n", opt, opt.Describe())
	}
	return strings.TrimRight(b.String(), "\n")
}
