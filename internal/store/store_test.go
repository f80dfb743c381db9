package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/toinevv/seo-system-blank/internal/models"
)

// TestWebsiteRoundTripsAgainstFlatWireShape guards the bug class the
// central store gateway is most exposed to: Website's nested policy
// structs must serialize to (and parse back from) the flat, snake_case
// attribute list the REST store actually speaks, not a nested
// "schedule": {...} document.
func TestWebsiteRoundTripsAgainstFlatWireShape(t *testing.T) {
	raw := []byte(`{
		"id": "w1",
		"name": "Example",
		"domain": "example.com",
		"is_active": true,
		"scheduling_mode": "window",
		"min_hours_between_posts": 12,
		"max_hours_between_posts": 36,
		"preferred_days": [1, 3, 5],
		"window_start_hour": 8,
		"window_end_hour": 20,
		"last_posting_hour": 14,
		"days_between_posts": 0,
		"preferred_time": "",
		"max_topic_uses": 3,
		"auto_generate_topics": true,
		"google_search_enabled": false,
		"scan_frequency_days": 7,
		"auto_scan": true,
		"enabled_formats": ["how_to_guide", "listicle"],
		"voice_style": "conversational",
		"human_elements": true,
		"rotation_mode": "rotate",
		"last_api_used": "openai",
		"format_history": ["listicle"],
		"system_prompt_overrides": {"openai": "custom prompt"},
		"language": "en",
		"default_author": "Editorial Team",
		"last_generated_at": "2026-07-20T09:00:00Z",
		"next_scheduled_at": "2026-07-30T09:00:00Z"
	}`)

	var website models.Website
	if err := json.Unmarshal(raw, &website); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if website.ID != "w1" || website.Domain != "example.com" || !website.Active {
		t.Fatalf("flat core fields did not bind: %+v", website)
	}
	if website.Schedule.Mode != models.ScheduleWindow || website.Schedule.WindowStartHour != 8 {
		t.Fatalf("schedule policy did not bind: %+v", website.Schedule)
	}
	if website.Topics.ScanFrequencyDays != 7 || !website.Topics.AutoScan {
		t.Fatalf("topic policy did not bind: %+v", website.Topics)
	}
	if website.Generation.RotationMode != models.RotationAlternate || website.Generation.VoiceStyle != "conversational" {
		t.Fatalf("generation policy did not bind: %+v", website.Generation)
	}
	if website.Identity.Language != "en" || website.Identity.DefaultAuthor != "Editorial Team" {
		t.Fatalf("content identity did not bind: %+v", website.Identity)
	}
	if !website.NextScheduledAt.Equal(time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("next_scheduled_at did not bind: %v", website.NextScheduledAt)
	}

	out, err := json.Marshal(website)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(out, &flat); err != nil {
		t.Fatalf("unmarshal re-encoded website: %v", err)
	}
	for _, key := range []string{"is_active", "scheduling_mode", "window_start_hour", "scan_frequency_days", "rotation_mode", "language", "next_scheduled_at"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("expected flat wire key %q in re-encoded website, got keys %v", key, flat)
		}
	}
	if _, ok := flat["Schedule"]; ok {
		t.Errorf("Website must not serialize its nested SchedulePolicy under a \"Schedule\" key")
	}
}

func TestTopicJSONTagsMatchSnakeCaseWire(t *testing.T) {
	raw := []byte(`{
		"id": "t1",
		"website_id": "w1",
		"title": "best budget laptops",
		"keywords": ["laptop", "budget"],
		"category": "electronics",
		"priority": 2,
		"source": "google_search",
		"is_used": false,
		"times_used": 0,
		"search_intent": "commercial",
		"timeliness": "evergreen"
	}`)

	var topic models.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if topic.WebsiteID != "w1" || topic.IsUsed || topic.TimesUsed != 0 {
		t.Fatalf("topic did not bind snake_case fields: %+v", topic)
	}
	if topic.Source != models.SourceGoogleSearch || topic.SearchIntent != models.IntentCommercial {
		t.Fatalf("topic enum fields did not bind: %+v", topic)
	}
}

func TestWebsiteScanJSONTagsMatchSnakeCaseWire(t *testing.T) {
	raw := []byte(`{
		"website_id": "w1",
		"homepage_title": "Example",
		"meta_description": "An example site",
		"main_keywords": ["example"],
		"nav_links": [{"url": "https://example.com/about", "text": "About"}],
		"status": "completed",
		"last_scanned_at": "2026-07-20T09:00:00Z"
	}`)

	var scan models.WebsiteScan
	if err := json.Unmarshal(raw, &scan); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if scan.WebsiteID != "w1" || scan.Status != models.ScanCompleted {
		t.Fatalf("website scan did not bind snake_case fields: %+v", scan)
	}
	if len(scan.NavLinks) != 1 || scan.NavLinks[0].URL != "https://example.com/about" {
		t.Fatalf("nav links did not bind: %+v", scan.NavLinks)
	}
}
