// Package generator implements the article generator (§4.9): content
// format selection, prompt assembly, the provider call, the seven-step
// response-cleaning pipeline, and parsing into an article record.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/toinevv/seo-system-blank/internal/catalog"
	"github.com/toinevv/seo-system-blank/internal/errs"
	"github.com/toinevv/seo-system-blank/internal/models"
	"github.com/toinevv/seo-system-blank/internal/provider"
)

const (
	maxExcerptChars  = 200
	maxSlugChars     = 60
	readingWordsPerMinute = 200
	formatHistoryWindow  = 3
)

// Generate runs the full pipeline and returns a populated Article. tag
// and key select the provider to call; the caller (scheduler) is
// responsible for retrying on the other provider when this returns a
// GenerateError for empty content.
func Generate(ctx context.Context, topic *models.Topic, website *models.Website, tag, key string) (*models.Article, error) {
	format := selectFormat(website)
	systemPrompt := systemPromptFor(website, tag)
	userPrompt := buildPrompt(format, topic, website)

	raw, err := provider.Complete(ctx, tag, key, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &errs.GenerateError{Provider: tag, Reason: "empty completion"}
	}

	cleaned := Clean(raw)
	article := parse(cleaned, topic, website)
	article.SearchIntent = topic.SearchIntent
	article.FormatKey = format.Key
	return article, nil
}

// selectFormat implements step 1: pick uniformly at random from the
// website's enabled formats, excluding any format used in the last 3
// entries of format_history unless doing so would leave nothing.
func selectFormat(website *models.Website) catalog.Format {
	enabled := website.Generation.EnabledFormats
	if len(enabled) == 0 {
		for key := range catalog.Formats {
			enabled = append(enabled, key)
		}
	}

	recent := website.Generation.FormatHistory
	if len(recent) > formatHistoryWindow {
		recent = recent[len(recent)-formatHistoryWindow:]
	}
	excluded := make(map[string]bool, len(recent))
	for _, f := range recent {
		excluded[f] = true
	}

	var candidates []string
	for _, key := range enabled {
		if !excluded[key] {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		candidates = enabled
	}

	chosenKey := candidates[rand.Intn(len(candidates))]
	format, ok := catalog.Formats[chosenKey]
	if !ok {
		// enabled formats may reference an unknown key; fall back to
		// whichever catalog entry map iteration yields first (not a
		// fixed entry) rather than fail generation outright.
		for _, f := range catalog.Formats {
			return f
		}
	}
	return format
}

func systemPromptFor(website *models.Website, tag string) string {
	if override, ok := website.Generation.SystemPromptOverrides[tag]; ok && override != "" {
		return override
	}
	voice := catalog.Voices[website.Generation.VoiceStyle]
	return fmt.Sprintf(
		"You are a %s content writer. Write in the first person (%s), with %s formality and %s sentence complexity. %s",
		voice.DisplayName, voice.FirstPerson, voice.Formality, voice.SentenceComplexity,
		contractionsInstruction(voice.UseContractions),
	)
}

func contractionsInstruction(useContractions bool) string {
	if useContractions {
		return "Use contractions naturally."
	}
	return "Avoid contractions."
}

// buildPrompt implements step 2: compose the format structure, heading
// style, voice/tone instruction, human-elements instruction, GEO
// instruction, and the formatting contract, with topic slots injected.
func buildPrompt(format catalog.Format, topic *models.Topic, website *models.Website) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a %s article titled around: %q\n", format.DisplayName, topic.Title)
	fmt.Fprintf(&b, "Keywords to cover: %s\n", strings.Join(topic.Keywords, ", "))
	fmt.Fprintf(&b, "Language: %s. Category: %s.\n", website.Identity.Language, topic.Category)
	fmt.Fprintf(&b, "Target length: %d-%d words.\n", format.MinWords, format.MaxWords)

	b.WriteString("Required sections, in order:\n")
	for _, s := range format.Sections {
		fmt.Fprintf(&b, "- %s: %s\n", s.Key, s.Description)
	}
	fmt.Fprintf(&b, "Heading style: %s.\n", format.HeadingStyle)

	if website.Generation.HumanElements {
		b.WriteString(humanElementsInstruction(catalog.DefaultHumanElements))
	}

	if rule, ok := catalog.IntentRules[string(topic.SearchIntent)]; ok {
		fmt.Fprintf(&b, "Optimize for %s search intent (GEO priority %d): include a short TL;DR, an FAQ section, and quotable, statistic-backed statements so AI search engines can extract this content directly.\n", rule.Intent, rule.GeoPriority)
	}

	b.WriteString("Return only the article body. No document wrapper, no code fences, start at the first section.\n")
	return b.String()
}

func humanElementsInstruction(h catalog.HumanElements) string {
	var parts []string
	if h.RhetoricalQuestions {
		parts = append(parts, "occasional rhetorical questions")
	}
	if h.ConversationalAsides {
		parts = append(parts, "brief conversational asides")
	}
	if h.OpinionMarkers {
		parts = append(parts, "clearly marked opinions")
	}
	if h.UncertaintyMarkers {
		parts = append(parts, "honest uncertainty markers where appropriate")
	}
	if h.AnecdoteHints {
		parts = append(parts, "a hint of anecdote or concrete example")
	}
	if h.TransitionVariety {
		parts = append(parts, "varied transition phrases between sections")
	}
	if len(parts) == 0 {
		return ""
	}
	return "Write like a genuine human author: include " + strings.Join(parts, ", ") + ".\n"
}

// parse implements step 5.
func parse(cleaned string, topic *models.Topic, website *models.Website) *models.Article {
	slug := Slugify(topic.Title)
	title := extractTitle(cleaned, topic.Title)
	excerpt := excerptOf(cleaned)
	words := countWords(stripHTML(cleaned))
	readTime := words / readingWordsPerMinute
	if readTime < 1 {
		readTime = 1
	}

	return &models.Article{
		Title:          title,
		Slug:           slug,
		Content:        cleaned,
		Status:         "published",
		Excerpt:        excerpt,
		PrimaryKeyword: firstKeyword(topic.Keywords),
		Author:         website.Identity.DefaultAuthor,
		ReadTime:       readTime,
		Category:       topic.Category,
		WebsiteDomain:  website.Domain,
		Language:       website.Identity.Language,
	}
}

func firstKeyword(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	return keywords[0]
}

func extractTitle(html, fallback string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		if h1 := doc.Find("h1").First().Text(); strings.TrimSpace(h1) != "" {
			return strings.TrimSpace(h1)
		}
		if h2 := doc.Find("h2").First().Text(); strings.TrimSpace(h2) != "" {
			return strings.TrimSpace(h2)
		}
	}
	return fallback
}

func excerptOf(html string) string {
	plain := strings.TrimSpace(stripHTML(html))
	if len(plain) <= maxExcerptChars {
		return plain
	}
	return strings.TrimSpace(plain[:maxExcerptChars])
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
