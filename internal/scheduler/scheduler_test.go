package scheduler

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/toinevv/seo-system-blank/internal/cryptobox"
	"github.com/toinevv/seo-system-blank/internal/models"
)

func TestNextRunFixedUsesPreferredTime(t *testing.T) {
	policy := models.SchedulePolicy{Mode: models.ScheduleFixed, DaysBetweenPosts: 2, PreferredTime: "14:30"}
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	next := NextRun(policy, now)

	if next.Day() != 3 {
		t.Errorf("expected +2 days, got day %d", next.Day())
	}
	if next.Hour() != 14 || next.Minute() != 30 {
		t.Errorf("expected 14:30, got %02d:%02d", next.Hour(), next.Minute())
	}
}

func TestNextRunFixedDefaultsToOneDay(t *testing.T) {
	policy := models.SchedulePolicy{Mode: models.ScheduleFixed}
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	next := NextRun(policy, now)
	if next.Day() != 2 {
		t.Errorf("expected +1 day default, got day %d", next.Day())
	}
}

func TestNextRunWindowRespectsPreferredDays(t *testing.T) {
	policy := models.SchedulePolicy{
		Mode:            models.ScheduleWindow,
		MinHours:        1,
		MaxHours:        3,
		PreferredDays:   []time.Weekday{time.Wednesday},
		WindowStartHour: 8,
		WindowEndHour:   20,
	}
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) // a Thursday

	for i := 0; i < 20; i++ {
		next := NextRun(policy, now)
		if next.Weekday() != time.Wednesday {
			t.Fatalf("expected snap to Wednesday, got %s", next.Weekday())
		}
		if next.Hour() < 8 || next.Hour() > 20 {
			t.Fatalf("hour %d outside window [8,20]", next.Hour())
		}
	}
}

func TestNextRunWindowBoundedToSevenSnapAttempts(t *testing.T) {
	// No weekday at all is preferred - snapToPreferredWeekday must
	// terminate after 7 attempts rather than loop forever.
	got := snapToPreferredWeekday(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), []time.Weekday{})
	if got.IsZero() {
		t.Fatalf("expected a concrete time, got zero value")
	}
}

func TestNextRunRandomHourWithinRange(t *testing.T) {
	policy := models.SchedulePolicy{Mode: models.ScheduleRandom, MinHours: 1, MaxHours: 24}
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		next := NextRun(policy, now)
		if next.Hour() < 6 || next.Hour() > 22 {
			t.Fatalf("random mode hour %d outside [6,22]", next.Hour())
		}
	}
}

func TestAppendFormatHistoryCapsAtTen(t *testing.T) {
	history := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	updated := appendFormatHistory(history, "k")
	if len(updated) != 10 {
		t.Fatalf("expected history capped at 10, got %d", len(updated))
	}
	if updated[len(updated)-1] != "k" {
		t.Fatalf("expected newest entry last, got %v", updated)
	}
	if updated[0] != "b" {
		t.Fatalf("expected oldest entry dropped, got %v", updated)
	}
}

func TestAcquireAndReleaseLease(t *testing.T) {
	s := &Service{}
	if !s.acquireLease("site-1") {
		t.Fatalf("expected lease to be acquired")
	}
	if s.acquireLease("site-1") {
		t.Fatalf("expected second acquire on same website to fail while held")
	}
	s.releaseLease("site-1")
	if !s.acquireLease("site-1") {
		t.Fatalf("expected lease to be acquirable again after release")
	}
}

type fakeGateway struct {
	websites    []models.Website
	apiKeys     *models.ApiKeys
	logsCreated int
}

func (f *fakeGateway) ListDueWebsites(ctx context.Context, now time.Time) ([]models.Website, error) {
	return f.websites, nil
}

func (f *fakeGateway) GetAPIKeys(ctx context.Context, websiteID string) (*models.ApiKeys, error) {
	return f.apiKeys, nil
}

func (f *fakeGateway) CreateGenerationLog(ctx context.Context, websiteID, topicID string) (string, error) {
	f.logsCreated++
	return "log-1", nil
}

func (f *fakeGateway) FinalizeGenerationLog(ctx context.Context, logID string, status models.GenerationStatus, fields map[string]interface{}) error {
	return nil
}

func (f *fakeGateway) UpdateWebsiteAfterRun(ctx context.Context, websiteID string, nextRun time.Time, lastAPI string, recentFormats []string, lastPostingHour int) error {
	return nil
}

type noTopicEngine struct{}

func (noTopicEngine) NextTopic(ctx context.Context, website *models.Website, openAIKey, anthropicKey string) (*models.Topic, error) {
	return nil, nil
}

func (noTopicEngine) MarkUsed(ctx context.Context, topic *models.Topic, maxUses int) error {
	return nil
}

func TestGenerationLogOnlyCreatedWhenTopicFound(t *testing.T) {
	// NextTopic returning nil must neither create a GenerationLog nor
	// count as processed work.
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	targetKey, err := cryptobox.Encrypt("target-service-key", key)
	if err != nil {
		t.Fatalf("encrypt target key: %v", err)
	}
	gw := &fakeGateway{
		websites: []models.Website{{ID: "site-1"}},
		apiKeys:  &models.ApiKeys{WebsiteID: "site-1", TargetDBKeyEncrypted: targetKey},
	}
	s := New(gw, noTopicEngine{}, key, PlatformKeys{})

	processed, err := s.Tick(context.Background(), time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected 0 processed websites without a topic, got %d", processed)
	}
	if gw.logsCreated != 0 {
		t.Fatalf("expected no generation log without a topic, got %d", gw.logsCreated)
	}
}
