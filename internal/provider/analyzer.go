package provider

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SiteAnalyzer calls an LLM (preferring OpenAI if available, else
// Anthropic) to distill a scraped page's metadata into a niche
// description, themes, and supplemental keywords. It satisfies the
// scanner.Analyzer interface without the scanner package needing to
// import provider directly (only its concrete construction in main
// does).
type SiteAnalyzer struct {
	OpenAIKey    string
	AnthropicKey string
}

type siteAnalysis struct {
	NicheDescription string   `json:"niche_description"`
	Themes           []string `json:"themes"`
	Keywords         []string `json:"keywords"`
	Language         string   `json:"language"`
}

// AnalyzeSite implements scanner.Analyzer.
func (a SiteAnalyzer) AnalyzeSite(ctx context.Context, apiKey, title, metaDescription string, headings, keywords []string) (string, []string, []string, string, error) {
	tag := TagOpenAI
	key := a.OpenAIKey
	if key == "" {
		tag = TagAnthropic
		key = a.AnthropicKey
	}
	if apiKey != "" {
		key = apiKey
	}
	if key == "" {
		return "", nil, nil, "", fmt.Errorf("no LLM key available for site analysis")
	}

	system := "You analyze website metadata and respond with strict JSON only."
	user := fmt.Sprintf(
		"Title: %s\nMeta description: %s\nHeadings: %s\nKeywords: %s\n\n"+
			"Respond with JSON: {\"niche_description\": string, \"themes\": [string], \"keywords\": [string], \"language\": string}",
		title, metaDescription, strings.Join(headings, "; "), strings.Join(keywords, ", "),
	)

	completion, err := Complete(ctx, tag, key, system, user)
	if err != nil {
		return "", nil, nil, "", err
	}

	var parsed siteAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(completion)), &parsed); err != nil {
		return "", nil, nil, "", err
	}
	return parsed.NicheDescription, parsed.Themes, parsed.Keywords, parsed.Language, nil
}

// extractJSONObject trims leading/trailing commentary an LLM may wrap
// its JSON response in, returning the substring from the first '{' to
// the last '}'.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
