// Package models defines the domain entities owned by the central
// coordination store: websites, their credentials, candidate topics,
// website scans, and generation logs. These are semantic types, not
// storage types, but every exported field carries the json tag the
// central store's REST wire format actually uses — see Website's
// custom (Un)MarshalJSON for how its nested policy structs flatten to
// that wire's single-level attribute list.
package models

import (
	"encoding/json"
	"time"
)

// SchedulingMode selects which next-run policy a Website uses.
type SchedulingMode string

const (
	ScheduleFixed  SchedulingMode = "fixed"
	ScheduleWindow SchedulingMode = "window"
	ScheduleRandom SchedulingMode = "random"
)

// RotationMode selects how the provider router picks between LLM
// providers for a given website.
type RotationMode string

const (
	RotationOpenAIOnly    RotationMode = "openai_only"
	RotationAnthropicOnly RotationMode = "anthropic_only"
	RotationAlternate     RotationMode = "rotate"
)

// SchedulePolicy is the scheduling half of a Website's configuration.
type SchedulePolicy struct {
	Mode             SchedulingMode `json:"scheduling_mode"`
	MinHours         int            `json:"min_hours_between_posts"`
	MaxHours         int            `json:"max_hours_between_posts"`
	PreferredDays    []time.Weekday `json:"preferred_days"`
	WindowStartHour  int            `json:"window_start_hour"`
	WindowEndHour    int            `json:"window_end_hour"`
	LastPostingHour  int            `json:"last_posting_hour"`
	DaysBetweenPosts int            `json:"days_between_posts"`
	PreferredTime    string         `json:"preferred_time"` // "HH:MM", fixed mode only
}

// TopicPolicy is the topic-lifecycle half of a Website's configuration.
type TopicPolicy struct {
	MaxTopicUses        int  `json:"max_topic_uses"`
	AutoGenerateTopics  bool `json:"auto_generate_topics"`
	GoogleSearchEnabled bool `json:"google_search_enabled"`
	ScanFrequencyDays   int  `json:"scan_frequency_days"`
	AutoScan            bool `json:"auto_scan"`
}

// GenerationPolicy is the article-generation half of a Website's
// configuration.
type GenerationPolicy struct {
	EnabledFormats        []string          `json:"enabled_formats"` // subset of catalog.Formats keys; empty means "all"
	VoiceStyle            string            `json:"voice_style"`
	HumanElements         bool              `json:"human_elements"`
	RotationMode          RotationMode      `json:"rotation_mode"`
	LastAPIUsed           string            `json:"last_api_used"` // "openai" | "anthropic" | ""
	FormatHistory         []string          `json:"format_history"`
	SystemPromptOverrides map[string]string `json:"system_prompt_overrides"` // provider -> override
}

// ContentIdentity carries the per-website authorial metadata injected
// into generated articles.
type ContentIdentity struct {
	Language      string `json:"language"`
	DefaultAuthor string `json:"default_author"`
}

// Website is a tenant configuration. The Go type groups its policy
// fields into nested structs for ergonomic access (website.Generation.X,
// website.Schedule.X, ...), but the central store's REST wire format is
// a single flat attribute list per spec §3 — MarshalJSON/UnmarshalJSON
// below translate between the two so json.Marshal/jsoniter never see
// the nested shape directly.
type Website struct {
	ID     string
	Name   string
	Domain string
	Active bool

	Schedule   SchedulePolicy
	Topics     TopicPolicy
	Generation GenerationPolicy
	Identity   ContentIdentity

	LastGeneratedAt *time.Time
	NextScheduledAt time.Time
}

// websiteWire is the flat, snake_case JSON shape of Website as the
// central store actually sends and accepts it.
type websiteWire struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Active bool   `json:"is_active"`

	SchedulingMode   SchedulingMode `json:"scheduling_mode"`
	MinHours         int            `json:"min_hours_between_posts"`
	MaxHours         int            `json:"max_hours_between_posts"`
	PreferredDays    []time.Weekday `json:"preferred_days"`
	WindowStartHour  int            `json:"window_start_hour"`
	WindowEndHour    int            `json:"window_end_hour"`
	LastPostingHour  int            `json:"last_posting_hour"`
	DaysBetweenPosts int            `json:"days_between_posts"`
	PreferredTime    string         `json:"preferred_time"`

	MaxTopicUses        int  `json:"max_topic_uses"`
	AutoGenerateTopics  bool `json:"auto_generate_topics"`
	GoogleSearchEnabled bool `json:"google_search_enabled"`
	ScanFrequencyDays   int  `json:"scan_frequency_days"`
	AutoScan            bool `json:"auto_scan"`

	EnabledFormats        []string          `json:"enabled_formats"`
	VoiceStyle            string            `json:"voice_style"`
	HumanElements         bool              `json:"human_elements"`
	RotationMode          RotationMode      `json:"rotation_mode"`
	LastAPIUsed           string            `json:"last_api_used"`
	FormatHistory         []string          `json:"format_history"`
	SystemPromptOverrides map[string]string `json:"system_prompt_overrides"`

	Language      string `json:"language"`
	DefaultAuthor string `json:"default_author"`

	LastGeneratedAt *time.Time `json:"last_generated_at"`
	NextScheduledAt time.Time `json:"next_scheduled_at"`
}

// MarshalJSON flattens Website into the central store's wire shape.
func (w Website) MarshalJSON() ([]byte, error) {
	return json.Marshal(websiteWire{
		ID:     w.ID,
		Name:   w.Name,
		Domain: w.Domain,
		Active: w.Active,

		SchedulingMode:   w.Schedule.Mode,
		MinHours:         w.Schedule.MinHours,
		MaxHours:         w.Schedule.MaxHours,
		PreferredDays:    w.Schedule.PreferredDays,
		WindowStartHour:  w.Schedule.WindowStartHour,
		WindowEndHour:    w.Schedule.WindowEndHour,
		LastPostingHour:  w.Schedule.LastPostingHour,
		DaysBetweenPosts: w.Schedule.DaysBetweenPosts,
		PreferredTime:    w.Schedule.PreferredTime,

		MaxTopicUses:        w.Topics.MaxTopicUses,
		AutoGenerateTopics:  w.Topics.AutoGenerateTopics,
		GoogleSearchEnabled: w.Topics.GoogleSearchEnabled,
		ScanFrequencyDays:   w.Topics.ScanFrequencyDays,
		AutoScan:            w.Topics.AutoScan,

		EnabledFormats:        w.Generation.EnabledFormats,
		VoiceStyle:            w.Generation.VoiceStyle,
		HumanElements:         w.Generation.HumanElements,
		RotationMode:          w.Generation.RotationMode,
		LastAPIUsed:           w.Generation.LastAPIUsed,
		FormatHistory:         w.Generation.FormatHistory,
		SystemPromptOverrides: w.Generation.SystemPromptOverrides,

		Language:      w.Identity.Language,
		DefaultAuthor: w.Identity.DefaultAuthor,

		LastGeneratedAt: w.LastGeneratedAt,
		NextScheduledAt: w.NextScheduledAt,
	})
}

// UnmarshalJSON un-flattens the central store's wire shape into Website.
func (w *Website) UnmarshalJSON(data []byte) error {
	var wire websiteWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	w.ID = wire.ID
	w.Name = wire.Name
	w.Domain = wire.Domain
	w.Active = wire.Active

	w.Schedule = SchedulePolicy{
		Mode:             wire.SchedulingMode,
		MinHours:         wire.MinHours,
		MaxHours:         wire.MaxHours,
		PreferredDays:    wire.PreferredDays,
		WindowStartHour:  wire.WindowStartHour,
		WindowEndHour:    wire.WindowEndHour,
		LastPostingHour:  wire.LastPostingHour,
		DaysBetweenPosts: wire.DaysBetweenPosts,
		PreferredTime:    wire.PreferredTime,
	}
	w.Topics = TopicPolicy{
		MaxTopicUses:        wire.MaxTopicUses,
		AutoGenerateTopics:  wire.AutoGenerateTopics,
		GoogleSearchEnabled: wire.GoogleSearchEnabled,
		ScanFrequencyDays:   wire.ScanFrequencyDays,
		AutoScan:            wire.AutoScan,
	}
	w.Generation = GenerationPolicy{
		EnabledFormats:        wire.EnabledFormats,
		VoiceStyle:            wire.VoiceStyle,
		HumanElements:         wire.HumanElements,
		RotationMode:          wire.RotationMode,
		LastAPIUsed:           wire.LastAPIUsed,
		FormatHistory:         wire.FormatHistory,
		SystemPromptOverrides: wire.SystemPromptOverrides,
	}
	w.Identity = ContentIdentity{
		Language:      wire.Language,
		DefaultAuthor: wire.DefaultAuthor,
	}

	w.LastGeneratedAt = wire.LastGeneratedAt
	w.NextScheduledAt = wire.NextScheduledAt
	return nil
}

// ApiKeys is the per-website credentials bundle. The two provider keys
// and the target database service key are stored encrypted; only the
// target base URL is plaintext. Ciphertexts are only meaningful with
// the process-wide encryption key (see internal/cryptobox).
type ApiKeys struct {
	WebsiteID             string `json:"website_id"`
	OpenAIKeyEncrypted    string `json:"openai_key_encrypted"`
	AnthropicKeyEncrypted string `json:"anthropic_key_encrypted"`
	TargetDBBaseURL       string `json:"target_db_base_url"`
	TargetDBKeyEncrypted  string `json:"target_db_key_encrypted"`
}

// TopicSource tags how a Topic came into existence.
type TopicSource string

const (
	SourceAIGenerated  TopicSource = "ai_generated"
	SourceAISuggested  TopicSource = "ai_suggested"
	SourceGoogleSearch TopicSource = "google_search"
	SourceManual       TopicSource = "manual"
)

// SearchIntent classifies the commercial intent behind a topic.
type SearchIntent string

const (
	IntentInformational SearchIntent = "informational"
	IntentCommercial     SearchIntent = "commercial"
	IntentTransactional  SearchIntent = "transactional"
	IntentNavigational   SearchIntent = "navigational"
)

// Timeliness classifies how time-sensitive a topic is.
type Timeliness string

const (
	TimelinessEvergreen Timeliness = "evergreen"
	TimelinessSeasonal  Timeliness = "seasonal"
	TimelinessNews      Timeliness = "news"
	TimelinessTrending  Timeliness = "trending"
)

// Topic is a candidate article subject.
type Topic struct {
	ID        string `json:"id"`
	WebsiteID string `json:"website_id"`

	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
	Priority int      `json:"priority"`

	Source     TopicSource `json:"source"`
	IsUsed     bool        `json:"is_used"`
	TimesUsed  int         `json:"times_used"`
	LastUsedAt *time.Time  `json:"last_used_at"`

	DiscoveryContext map[string]interface{} `json:"discovery_context"`
	FormatHint       string                 `json:"format_hint"`

	SearchIntent   SearchIntent `json:"search_intent"`
	Timeliness     Timeliness   `json:"timeliness"`
	TrendingReason string       `json:"trending_reason"`
}

// ScanStatus is the lifecycle state of a WebsiteScan.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanScanning  ScanStatus = "scanning"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// NavLink is one navigation link discovered during a website scan.
type NavLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// WebsiteScan is the cached content profile of a tenant's public site.
// There is at most one row per website.
type WebsiteScan struct {
	WebsiteID string `json:"website_id"`

	HomepageTitle    string    `json:"homepage_title"`
	MetaDescription  string    `json:"meta_description"`
	MainKeywords     []string  `json:"main_keywords"` // capped 50
	Headings         []string  `json:"headings"`      // capped 30
	NavLinks         []NavLink `json:"nav_links"`      // capped 10
	ContentThemes    []string  `json:"content_themes"`
	NicheDescription string    `json:"niche_description"`

	PagesScanned  int        `json:"pages_scanned"`
	Status        ScanStatus `json:"status"`
	LastScannedAt time.Time  `json:"last_scanned_at"`
	Error         string     `json:"error"`
}

// GenerationStatus is the lifecycle state of a GenerationLog.
type GenerationStatus string

const (
	GenerationGenerating GenerationStatus = "generating"
	GenerationSuccess    GenerationStatus = "success"
	GenerationFailed     GenerationStatus = "failed"
)

// GenerationLog is one record per article-generation attempt.
type GenerationLog struct {
	ID        string `json:"id"`
	WebsiteID string `json:"website_id"`
	TopicID   string `json:"topic_id"`

	Status GenerationStatus `json:"status"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	ArticleTitle string `json:"article_title"`
	ArticleSlug  string `json:"article_slug"`
	Provider     string `json:"provider"`
	SEOScore     int    `json:"seo_score"`
	Error        string `json:"error"`
}

// Article is the output shipped to a tenant's article database.
type Article struct {
	// Required core.
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`

	// Optional set — any of these may be dropped by schema adaptation
	// before the final publish.
	Excerpt         string   `json:"excerpt,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	PrimaryKeyword  string   `json:"primary_keyword,omitempty"`
	Author          string   `json:"author,omitempty"`
	ReadTime        int      `json:"read_time,omitempty"`
	Category        string   `json:"category,omitempty"`
	SEOScore        int      `json:"seo_score,omitempty"`
	ProductID       string   `json:"product_id,omitempty"`
	WebsiteDomain   string   `json:"website_domain,omitempty"`
	Language        string   `json:"language,omitempty"`
	GeoOptimized    bool     `json:"geo_optimized,omitempty"`

	// Not part of the publish payload; carried for scoring/logging.
	SearchIntent SearchIntent `json:"-"`
	FormatKey    string       `json:"-"`
}
