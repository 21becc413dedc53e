package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"askdata/internal/query"
)

// maxModelSuggestions caps how many model-generated questions join the
// rule-based list.
const maxModelSuggestions = 4

var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// QuestionSuggester proposes questions for a dataset. The rule-based list
// always works; a reachable Ollama model adds a few more.
type QuestionSuggester struct {
	client *Client
}

// NewQuestionSuggester wraps an optional model client; nil disables the
// model path entirely.
func NewQuestionSuggester(client *Client) *QuestionSuggester {
	return &QuestionSuggester{client: client}
}

// Suggest returns suggested questions for the engine's dataset. Model
// failures degrade silently to the rule-based list.
func (qs *QuestionSuggester) Suggest(ctx context.Context, engine *query.Engine) []string {
	suggestions := engine.SmartSuggestions()
	if qs.client == nil || !qs.client.Available(ctx) {
		return suggestions
	}

	extras, err := qs.generate(ctx, engine)
	if err != nil {
		return suggestions
	}

	seen := make(map[string]bool, len(suggestions))
	for _, s := range suggestions {
		seen[strings.ToLower(s)] = true
	}
	added := 0
	for _, extra := range extras {
		extra = strings.TrimSpace(extra)
		if extra == "" || seen[strings.ToLower(extra)] {
			continue
		}
		suggestions = append(suggestions, extra)
		seen[strings.ToLower(extra)] = true
		added++
		if added >= maxModelSuggestions {
			break
		}
	}
	return suggestions
}

// generate asks the model for extra questions and extracts the JSON array
// from its response.
func (qs *QuestionSuggester) generate(ctx context.Context, engine *query.Engine) ([]string, error) {
	prof := engine.Profile()
	lines := make([]string, len(prof.Columns))
	for i, col := range prof.Columns {
		lines[i] = fmt.Sprintf("- %s (%s)", col.Name, col.Kind)
	}

	prompt := fmt.Sprintf(`You are a data analyst. A dataset has these columns:
%s

Suggest 4 short natural-language questions a business user might ask about this data.
Return ONLY a JSON array of strings.
`, strings.Join(lines, "\n"))

	response, err := qs.client.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	jsonStr := jsonArrayPattern.FindString(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	var extras []string
	if err := json.Unmarshal([]byte(jsonStr), &extras); err != nil {
		return nil, err
	}
	return extras, nil
}
