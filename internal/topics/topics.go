// Package topics implements the topic-lifecycle state machine (§4.7):
// selecting a due website's next topic with reuse counting, and
// discovering new topics via the search API and an LLM.
package topics

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/toinevv/seo-system-blank/internal/catalog"
	"github.com/toinevv/seo-system-blank/internal/errs"
	"github.com/toinevv/seo-system-blank/internal/httpclient"
	"github.com/toinevv/seo-system-blank/internal/models"
	"github.com/toinevv/seo-system-blank/internal/provider"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Gateway is the subset of the central store the topic engine needs.
// Implemented by *store.Gateway; declared here so this package does
// not import store directly (keeps the dependency direction leaf-ward).
type Gateway interface {
	FindUnusedTopic(ctx context.Context, websiteID string) (*models.Topic, error)
	FindReusableTopic(ctx context.Context, websiteID string, maxUses int) (*models.Topic, error)
	InsertTopic(ctx context.Context, topic *models.Topic) (*models.Topic, error)
	MarkTopicUsed(ctx context.Context, topicID string, maxUses int) error
	GetWebsiteScan(ctx context.Context, websiteID string) (*models.WebsiteScan, error)
}

// Engine selects and discovers topics for a website.
type Engine struct {
	Store Gateway
}

func New(store Gateway) *Engine {
	return &Engine{Store: store}
}

// NextTopic implements the ordered policy in §4.7: unused, then
// reusable (if max_topic_uses > 1), then auto-minted via LLM, then
// none.
func (e *Engine) NextTopic(ctx context.Context, website *models.Website, openAIKey, anthropicKey string) (*models.Topic, error) {
	if t, err := e.Store.FindUnusedTopic(ctx, website.ID); err != nil {
		return nil, err
	} else if t != nil {
		return t, nil
	}

	if website.Topics.MaxTopicUses > 1 {
		if t, err := e.Store.FindReusableTopic(ctx, website.ID, website.Topics.MaxTopicUses); err != nil {
			return nil, err
		} else if t != nil {
			return t, nil
		}
	}

	if website.Topics.AutoGenerateTopics && (openAIKey != "" || anthropicKey != "") {
		scan, err := e.Store.GetWebsiteScan(ctx, website.ID)
		if err != nil {
			scan = nil
		}
		return e.autoMint(ctx, website, openAIKey, anthropicKey, scan)
	}

	return nil, nil
}

// MarkUsed delegates to the store's mark-used operation.
func (e *Engine) MarkUsed(ctx context.Context, topic *models.Topic, maxUses int) error {
	return e.Store.MarkTopicUsed(ctx, topic.ID, maxUses)
}

// aiTopicSuggestion is the structured shape expected back from the
// LLM for both discovery and auto-mint prompts.
type aiTopicSuggestion struct {
	Title        string   `json:"title"`
	Keywords     []string `json:"keywords"`
	Category     string   `json:"category"`
	SearchIntent string   `json:"search_intent"`
	Timeliness   string   `json:"timeliness"`
	FormatHint   string   `json:"format_hint"`
}

// autoMint asks the LLM for exactly one topic, tags it
// source=ai_generated, and persists it. When scan is non-nil, its
// content themes are recorded in the discovery context.
func (e *Engine) autoMint(ctx context.Context, website *models.Website, openAIKey, anthropicKey string, scan *models.WebsiteScan) (*models.Topic, error) {
	suggestions, err := e.requestAITopics(ctx, website, openAIKey, anthropicKey, scan, 1)
	if err != nil || len(suggestions) == 0 {
		return nil, err
	}

	topic := suggestionToTopic(website.ID, suggestions[0], models.SourceAIGenerated)
	if scan != nil {
		topic.DiscoveryContext = map[string]interface{}{"scan_themes": scan.ContentThemes}
	}
	return e.Store.InsertTopic(ctx, topic)
}

// DiscoverGoogle converts Google Custom Search results into candidate
// topics, keeping only those whose extracted keywords overlap the
// scan's themes, per §4.7's discovery algorithm.
func DiscoverGoogle(ctx context.Context, apiKey, cx string, scan *models.WebsiteScan) ([]models.Topic, error) {
	if apiKey == "" || cx == "" || scan == nil {
		return nil, nil
	}

	queries := buildSearchQueries(scan)
	if len(queries) > 10 {
		queries = queries[:10]
	}

	var topics []models.Topic
	executed := 0
	for _, q := range queries {
		if executed >= 5 {
			break
		}
		items, err := searchGoogle(ctx, apiKey, cx, q)
		executed++
		if err != nil {
			continue
		}
		for _, item := range items {
			keywords := extractOverlap(item.Title+" "+item.Snippet, scan.ContentThemes)
			if len(keywords) == 0 {
				continue
			}
			topics = append(topics, models.Topic{
				WebsiteID: scan.WebsiteID,
				Title:     item.Title,
				Keywords:  keywords,
				Source:    models.SourceGoogleSearch,
				Priority:  1,
			})
			if len(topics) >= 10 {
				return topics, nil
			}
		}
	}
	return topics, nil
}

// DiscoverAI asks the LLM for 5 topics using the scan's niche, themes,
// and sample headings plus the current month's seasonal themes, per
// §4.7's discovery algorithm.
func (e *Engine) DiscoverAI(ctx context.Context, website *models.Website, openAIKey, anthropicKey string, scan *models.WebsiteScan) ([]models.Topic, error) {
	suggestions, err := e.requestAITopics(ctx, website, openAIKey, anthropicKey, scan, 5)
	if err != nil {
		return nil, err
	}

	topics := make([]models.Topic, 0, len(suggestions))
	for _, s := range suggestions {
		topics = append(topics, *suggestionToTopic(website.ID, s, models.SourceAISuggested))
	}
	return topics, nil
}

func (e *Engine) requestAITopics(ctx context.Context, website *models.Website, openAIKey, anthropicKey string, scan *models.WebsiteScan, count int) ([]aiTopicSuggestion, error) {
	tag, key, ok := provider.Choose(website, provider.Keys{OpenAIKey: openAIKey, AnthropicKey: anthropicKey}, "topic_discovery")
	if !ok {
		return nil, &errs.GenerateError{Reason: "no LLM key available for topic discovery"}
	}

	system := "You propose blog article topics and respond with strict JSON only."
	user := buildTopicPrompt(website, scan, count)

	completion, err := provider.Complete(ctx, tag, key, system, user)
	if err != nil {
		return nil, err
	}
	if completion == "" {
		return nil, &errs.GenerateError{Provider: tag, Reason: "empty completion"}
	}

	var wrapper struct {
		Topics []aiTopicSuggestion `json:"topics"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(completion)), &wrapper); err != nil {
		return nil, &errs.DecodeError{Context: "ai topic suggestions", Reason: err.Error()}
	}
	return wrapper.Topics, nil
}

func buildTopicPrompt(website *models.Website, scan *models.WebsiteScan, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Propose %d blog article topics for a website in language %q.\n", count, website.Identity.Language)
	if scan != nil {
		fmt.Fprintf(&b, "Niche: %s\nThemes: %s\nSample headings: %s\n", scan.NicheDescription, strings.Join(scan.ContentThemes, ", "), strings.Join(scan.Headings, "; "))
	}
	month := int(time.Now().Month())
	fmt.Fprintf(&b, "Seasonal themes this month: %s\n", strings.Join(catalog.SeasonalThemes[month], ", "))
	b.WriteString(`Respond with JSON: {"topics": [{"title": string, "keywords": [string], "category": string, "search_intent": string, "timeliness": string, "format_hint": string}]}`)
	return b.String()
}

func suggestionToTopic(websiteID string, s aiTopicSuggestion, source models.TopicSource) *models.Topic {
	intent := models.SearchIntent(s.SearchIntent)
	switch intent {
	case models.IntentInformational, models.IntentCommercial, models.IntentTransactional, models.IntentNavigational:
	default:
		intent = models.SearchIntent(catalog.ClassifySearchIntent(s.Title))
	}

	timeliness := models.Timeliness(s.Timeliness)
	switch timeliness {
	case models.TimelinessEvergreen, models.TimelinessSeasonal, models.TimelinessNews, models.TimelinessTrending:
	default:
		timeliness = models.TimelinessEvergreen
	}

	formatHint := s.FormatHint
	if _, ok := catalog.Formats[formatHint]; !ok {
		formatHint = ""
	}

	return &models.Topic{
		WebsiteID:    websiteID,
		Title:        s.Title,
		Keywords:     s.Keywords,
		Category:     s.Category,
		Priority:     1,
		Source:       source,
		SearchIntent: intent,
		Timeliness:   timeliness,
		FormatHint:   formatHint,
	}
}

func buildSearchQueries(scan *models.WebsiteScan) []string {
	var queries []string
	keywords := scan.MainKeywords
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	for _, kw := range keywords {
		queries = append(queries, kw+" guide", kw+" tips")
	}
	themes := scan.ContentThemes
	if len(themes) > 3 {
		themes = themes[:3]
	}
	queries = append(queries, themes...)
	return queries
}

func extractOverlap(text string, themes []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, theme := range themes {
		if strings.Contains(lower, strings.ToLower(theme)) {
			out = append(out, theme)
		}
	}
	return out
}

type searchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

func searchGoogle(ctx context.Context, apiKey, cx, query string) ([]searchItem, error) {
	var out struct {
		Items []searchItem `json:"items"`
	}
	url := fmt.Sprintf("https://www.googleapis.com/customsearch/v1?key=%s&cx=%s&q=%s", apiKey, cx, strings.ReplaceAll(query, " ", "+"))
	if err := httpclient.JSONRequest(ctx, "GET", url, nil, nil, 8*time.Second, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
