// Package catalog is the process-wide immutable registry of content
// formats, voice styles, human-writing cues, seasonal themes, and the
// search-intent classifier. Nothing in this package performs I/O; it
// is built once at process start and consulted by the article
// generator, the topic engine, and the scorer.
package catalog

import "strings"

// Format describes one of the eight editorial templates that shape a
// prompt and its expected output structure.
type Format struct {
	Key              string
	DisplayName      string
	Sections         []Section
	Tone             string
	HeadingStyle     string
	MinWords         int
	MaxWords         int
}

// Section is one required part of a Format's structure.
type Section struct {
	Key         string
	Description string
}

// Voice describes a surface-form bundle applied on top of a Format.
type Voice struct {
	Key               string
	DisplayName       string
	UseContractions   bool
	FirstPerson       string // "I" or "we"
	SentenceComplexity string
	Formality         string
	UseEmoji          bool
}

// HumanElements are the boolean switches that make generated prose
// read less like a template.
type HumanElements struct {
	RhetoricalQuestions   bool
	ConversationalAsides  bool
	OpinionMarkers        bool
	UncertaintyMarkers    bool
	AnecdoteHints         bool
	TransitionVariety     bool
}

// SearchIntentRule maps a search intent to the lowercase substrings
// that signal it, plus a GEO priority used when composing prompts.
type SearchIntentRule struct {
	Intent      string
	Signals     []string
	GeoPriority int
}

// Formats is the catalog's eight content formats, keyed by Key.
var Formats = map[string]Format{
	"listicle": {
		Key: "listicle", DisplayName: "Listicle",
		Sections: []Section{
			{Key: "intro", Description: "Brief hook introducing the list's premise"},
			{Key: "list_items", Description: "Numbered list of items, each with 2-3 sentences of explanation"},
			{Key: "conclusion", Description: "Short wrap-up summarizing the takeaway"},
		},
		Tone: "punchy", HeadingStyle: "numbered", MinWords: 800, MaxWords: 1800,
	},
	"how_to_guide": {
		Key: "how_to_guide", DisplayName: "How-To Guide",
		Sections: []Section{
			{Key: "intro", Description: "What the reader will accomplish and why it matters"},
			{Key: "prerequisites", Description: "What's needed before starting"},
			{Key: "steps", Description: "Ordered steps, each a clear imperative action"},
			{Key: "tips", Description: "Common pitfalls and troubleshooting tips"},
		},
		Tone: "instructional", HeadingStyle: "step", MinWords: 900, MaxWords: 2200,
	},
	"deep_dive": {
		Key: "deep_dive", DisplayName: "Deep Dive",
		Sections: []Section{
			{Key: "intro", Description: "Frame the question the deep dive answers"},
			{Key: "background", Description: "Context needed to follow the analysis"},
			{Key: "analysis", Description: "The core argument, broken into sub-topics"},
			{Key: "implications", Description: "What this means in practice"},
		},
		Tone: "analytical", HeadingStyle: "thematic", MinWords: 1400, MaxWords: 3000,
	},
	"comparison": {
		Key: "comparison", DisplayName: "Comparison",
		Sections: []Section{
			{Key: "intro", Description: "What's being compared and why it matters"},
			{Key: "criteria", Description: "The dimensions used to compare"},
			{Key: "side_by_side", Description: "Option-by-option breakdown against the criteria"},
			{Key: "verdict", Description: "A recommendation or decision framework"},
		},
		Tone: "balanced", HeadingStyle: "versus", MinWords: 1000, MaxWords: 2200,
	},
	"case_study": {
		Key: "case_study", DisplayName: "Case Study",
		Sections: []Section{
			{Key: "intro", Description: "The situation before the case study's subject acted"},
			{Key: "challenge", Description: "The specific problem being solved"},
			{Key: "approach", Description: "What was done, in enough detail to be credible"},
			{Key: "results", Description: "Concrete, ideally quantified outcomes"},
		},
		Tone: "narrative", HeadingStyle: "chronological", MinWords: 1000, MaxWords: 2200,
	},
	"qa": {
		Key: "qa", DisplayName: "Q&A",
		Sections: []Section{
			{Key: "intro", Description: "Why these questions come up"},
			{Key: "questions", Description: "Each question as a heading, answered directly below it"},
		},
		Tone: "conversational", HeadingStyle: "question", MinWords: 800, MaxWords: 1800,
	},
	"news_commentary": {
		Key: "news_commentary", DisplayName: "News Commentary",
		Sections: []Section{
			{Key: "intro", Description: "The news item being discussed"},
			{Key: "context", Description: "Why it matters to the reader"},
			{Key: "commentary", Description: "Analysis and opinion on the implications"},
		},
		Tone: "topical", HeadingStyle: "thematic", MinWords: 700, MaxWords: 1600,
	},
	"ultimate_guide": {
		Key: "ultimate_guide", DisplayName: "Ultimate Guide",
		Sections: []Section{
			{Key: "intro", Description: "Scope of the guide and who it's for"},
			{Key: "fundamentals", Description: "The baseline concepts a reader needs"},
			{Key: "deep_sections", Description: "Comprehensive coverage, organized by sub-topic"},
			{Key: "faq", Description: "Common questions answered briefly"},
			{Key: "conclusion", Description: "Summary and next steps"},
		},
		Tone: "authoritative", HeadingStyle: "comprehensive", MinWords: 1800, MaxWords: 3500,
	},
}

// Voices is the catalog's four voice styles, keyed by Key.
var Voices = map[string]Voice{
	"professional": {
		Key: "professional", DisplayName: "Professional",
		UseContractions: false, FirstPerson: "we", SentenceComplexity: "moderate",
		Formality: "high", UseEmoji: false,
	},
	"conversational": {
		Key: "conversational", DisplayName: "Conversational",
		UseContractions: true, FirstPerson: "I", SentenceComplexity: "simple",
		Formality: "low", UseEmoji: false,
	},
	"expert": {
		Key: "expert", DisplayName: "Expert",
		UseContractions: false, FirstPerson: "we", SentenceComplexity: "complex",
		Formality: "high", UseEmoji: false,
	},
	"friendly": {
		Key: "friendly", DisplayName: "Friendly",
		UseContractions: true, FirstPerson: "I", SentenceComplexity: "simple",
		Formality: "low", UseEmoji: true,
	},
}

// DefaultHumanElements is applied when a website's generation policy
// enables human-writing cues without further customization.
var DefaultHumanElements = HumanElements{
	RhetoricalQuestions:  true,
	ConversationalAsides: true,
	OpinionMarkers:       true,
	UncertaintyMarkers:   false,
	AnecdoteHints:        true,
	TransitionVariety:    true,
}

// SeasonalThemes is keyed by calendar month, 1 (January) through 12
// (December).
var SeasonalThemes = map[int][]string{
	1:  {"new year planning", "fresh starts", "annual goal setting"},
	2:  {"winter efficiency", "valentine's gifting", "short-month urgency"},
	3:  {"spring preparation", "first-quarter review", "renewal"},
	4:  {"spring cleaning", "tax season", "growth planning"},
	5:  {"early summer prep", "graduation season", "outdoor season kickoff"},
	6:  {"summer planning", "mid-year review", "vacation season"},
	7:  {"peak summer", "back-to-school early prep", "mid-year momentum"},
	8:  {"back-to-school", "end-of-summer wrap-up", "fall preparation"},
	9:  {"autumn planning", "Q4 kickoff", "harvest season"},
	10: {"fall optimization", "holiday season prep", "year-end planning"},
	11: {"holiday shopping", "gratitude themes", "year-end push"},
	12: {"holiday season", "year in review", "next-year planning"},
}

// IntentRules drives both the search-intent classifier and the
// GEO-optimization instruction assembled into prompts.
var IntentRules = map[string]SearchIntentRule{
	"informational": {
		Intent:      "informational",
		Signals:     []string{"what is", "how does", "why", "guide to", "explained", "meaning of"},
		GeoPriority: 3,
	},
	"commercial": {
		Intent:      "commercial",
		Signals:     []string{"best", "top", "review", "vs", "comparison", "worth it"},
		GeoPriority: 2,
	},
	"transactional": {
		Intent:      "transactional",
		Signals:     []string{"buy", "price", "discount", "coupon", "order", "near me"},
		GeoPriority: 1,
	},
	"navigational": {
		Intent:      "navigational",
		Signals:     []string{"login", "sign in", "official site", "download", "app"},
		GeoPriority: 1,
	},
}

// ClassifySearchIntent matches text against each rule's lowercase
// substring signals and returns the first matching intent, falling
// back to "informational" when nothing matches.
func ClassifySearchIntent(text string) string {
	lower := strings.ToLower(text)
	for _, key := range []string{"transactional", "navigational", "commercial", "informational"} {
		rule := IntentRules[key]
		for _, signal := range rule.Signals {
			if strings.Contains(lower, signal) {
				return rule.Intent
			}
		}
	}
	return "informational"
}
