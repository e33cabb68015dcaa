package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gopkg.in/yaml.v3"

	"rosterbot/internal/config"
	"rosterbot/internal/domain"
	"rosterbot/internal/report"
)

const maxNamesPerRequest = 100

const (
	SourceNormalized = "normalized"
	SourceLLM        = "llm"
)

// AliasSuggestion proposes a roster name for a submitted name that did not
// match. Suggestions are advisory; nothing applies them automatically.
type AliasSuggestion struct {
	Name       string  `json:"name"`
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

type aliasResponseItem struct {
	Name       string  `json:"name"`
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// SuggestAliases maps unmatched names to roster names. Names whose
// normalized key equals a roster entry's are resolved locally; the rest go
// to the configured provider when there is one.
func SuggestAliases(ctx context.Context, cfg config.Config, unmatched []string, orgs []domain.Organization) ([]AliasSuggestion, LLMUsage, error) {
	byKey := make(map[string]string, len(orgs))
	rosterNames := make(map[string]bool, len(orgs))
	for _, org := range orgs {
		byKey[report.NormalizeKey(org.Name)] = org.Name
		rosterNames[org.Name] = true
	}

	var suggestions []AliasSuggestion
	var remaining []string
	seen := make(map[string]bool, len(unmatched))
	for _, name := range unmatched {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if canonical, ok := byKey[report.NormalizeKey(name)]; ok && canonical != name {
			suggestions = append(suggestions, AliasSuggestion{Name: name, Suggestion: canonical, Confidence: 1, Source: SourceNormalized})
			continue
		}
		remaining = append(remaining, name)
	}
	log.Printf("alias suggest unmatched=%d normalized=%d remaining=%d", len(seen), len(suggestions), len(remaining))

	if len(remaining) == 0 || !cfg.LLMConfigured() {
		return suggestions, LLMUsage{}, nil
	}
	if len(remaining) > maxNamesPerRequest {
		log.Printf("alias suggest truncating names from %d to %d", len(remaining), maxNamesPerRequest)
		remaining = remaining[:maxNamesPerRequest]
	}

	systemPrompt, userPrompt := buildAliasPrompts(remaining, orgs)
	model := modelFor(cfg.LLMProvider, cfg.LLMModel)

	var responseText string
	var usage LLMUsage
	var err error
	switch cfg.LLMProvider {
	case "openai":
		log.Printf("llm alias-suggest provider=openai model=%s names=%d", model, len(remaining))
		responseText, usage, err = callOpenAI(ctx, cfg.OpenAIAPIKey, model, systemPrompt, userPrompt)
	default:
		log.Printf("llm alias-suggest provider=anthropic model=%s names=%d", model, len(remaining))
		responseText, usage, err = callAnthropic(ctx, cfg.AnthropicAPIKey, model, systemPrompt, userPrompt)
	}
	if err != nil {
		return suggestions, usage, err
	}

	items, err := parseAliasResponse(responseText)
	if err != nil {
		return suggestions, usage, err
	}

	asked := make(map[string]bool, len(remaining))
	for _, name := range remaining {
		asked[name] = true
	}
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		suggestion := strings.TrimSpace(item.Suggestion)
		if !asked[name] || !rosterNames[suggestion] || name == suggestion {
			continue
		}
		if item.Confidence < cfg.LLMConfidence {
			log.Printf("alias suggest dropped name=%q suggestion=%q confidence=%.2f", name, suggestion, item.Confidence)
			continue
		}
		asked[name] = false
		suggestions = append(suggestions, AliasSuggestion{Name: name, Suggestion: suggestion, Confidence: item.Confidence, Source: SourceLLM})
	}
	return suggestions, usage, nil
}

func buildAliasPrompts(names []string, orgs []domain.Organization) (string, string) {
	systemPrompt := `You match organization names typed into a survey form against an official roster of Korean social-service organizations.
Typos, missing or extra spaces, dropped syllables, and abbreviations are common. The region is a strong hint.
Only suggest names that appear verbatim in the roster. If no roster entry is a plausible match, omit the name.
Respond with a JSON array only: [{"name": "<submitted name>", "suggestion": "<roster name>", "confidence": <0..1>}]`

	var b strings.Builder
	b.WriteString("Roster (region | name):\n")
	for _, org := range orgs {
		fmt.Fprintf(&b, "- %s | %s\n", org.Region, org.Name)
	}
	b.WriteString("\nSubmitted names with no exact roster match:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return systemPrompt, b.String()
}

func parseAliasResponse(responseText string) ([]aliasResponseItem, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var items []aliasResponseItem
	if err := json.Unmarshal([]byte(responseText), &items); err != nil {
		truncated := responseText
		if len(truncated) > 512 {
			truncated = truncated[:512] + fmt.Sprintf("... [truncated, total_length=%d]", len(responseText))
		}
		return nil, fmt.Errorf("parsing alias response: %w (truncated response: %s)", err, truncated)
	}
	return items, nil
}

// AliasesYAML renders suggestions as an aliases block for the roster file,
// each entry commented with where it came from.
func AliasesYAML(suggestions []AliasSuggestion) (string, error) {
	entries := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range suggestions {
		entries.Content = append(entries.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: s.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: s.Suggestion, LineComment: fmt.Sprintf("%s %.2f", s.Source, s.Confidence)},
		)
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "aliases"},
		entries,
	}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return "", fmt.Errorf("encoding aliases: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatAliasSuggestions is the chat rendering of SuggestAliases output.
func FormatAliasSuggestions(suggestions []AliasSuggestion, unmatched int) string {
	if unmatched == 0 {
		return "명단과 일치하지 않는 기관명이 없습니다."
	}
	if len(suggestions) == 0 {
		return fmt.Sprintf("명단 불일치 %d건에 대해 제안할 별칭이 없습니다.", unmatched)
	}
	block, err := AliasesYAML(suggestions)
	if err != nil {
		return fmt.Sprintf("별칭 제안을 만들지 못했습니다: %v", err)
	}
	return fmt.Sprintf("*별칭 제안 %d/%d건* (명단 파일에 붙여넣고 재시작하면 적용됩니다)\n```\n%s```", len(suggestions), unmatched, block)
}
