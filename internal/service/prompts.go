package service

import (
	"fmt"
	"strings"

	"rentalbot/internal/model"
	"rentalbot/internal/retrieval"
)

const qaTemplate = `%s%s Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
If a property does not meet one of the guest's stated requirements (number of guests, bedrooms, amenities, dates, budget), say so explicitly and suggest the closest alternatives instead of recommending a mismatched property.

Previous conversation:
%s

Context:
%s

Question: %s
Answer:`

const summaryTemplate = `Please provide a concise summary of the following conversation, focusing on:
1. The user's explicit requirements (location, dates, number of guests, budget)
2. Their preferences and constraints (amenities, property type, pets)
3. Properties that were discussed or recommended
4. Any concerns or questions the user raised

%s`

// maxPromptExamples caps the training exchanges rendered into each prompt
const maxPromptExamples = 3

// BuildQAPrompt renders the answer prompt from history, retrieved properties and the question
func BuildQAPrompt(chain model.ChainConfig, chatHistory string, retrieved []model.SearchResult, question string) string {
	systemMessage := chain.SystemMessage
	if systemMessage == "" {
		systemMessage = model.DefaultSystemMessage
	}
	return fmt.Sprintf(qaTemplate, renderExamples(chain.Examples), systemMessage, chatHistory, renderContext(retrieved), question)
}

func renderExamples(examples []model.TrainingExample) string {
	if len(examples) == 0 {
		return ""
	}
	if len(examples) > maxPromptExamples {
		examples = examples[:maxPromptExamples]
	}

	var b strings.Builder
	b.WriteString("Examples of how to respond to guests:\n")
	for _, ex := range examples {
		fmt.Fprintf(&b, "Guest: %s\nAssistant: %s\n", ex.Input, ex.Output)
	}
	b.WriteString("\n")
	return b.String()
}

// BuildSummaryPrompt renders the summarization prompt over a message window
func BuildSummaryPrompt(messages []model.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return fmt.Sprintf(summaryTemplate, strings.Join(lines, "\n"))
}

func renderContext(results []model.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		var b strings.Builder
		b.WriteString(retrieval.DescribeProperty(r.Property))
		if len(r.MatchedReasons) > 0 {
			b.WriteString("\nMatches: " + strings.Join(r.MatchedReasons, "; "))
		}
		if len(r.UnmetConstraints) > 0 {
			b.WriteString("\nDoes not meet: " + strings.Join(r.UnmetConstraints, "; "))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
