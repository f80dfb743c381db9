// Package scheduler implements the outer orchestrator loop (§4.11):
// find due websites, process each end-to-end through the rest of the
// pipeline, and reschedule. It also implements the next-run policy and
// the per-website serialization lease required by §5.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toinevv/seo-system-blank/internal/catalog"
	"github.com/toinevv/seo-system-blank/internal/cryptobox"
	"github.com/toinevv/seo-system-blank/internal/errs"
	"github.com/toinevv/seo-system-blank/internal/generator"
	"github.com/toinevv/seo-system-blank/internal/logging"
	"github.com/toinevv/seo-system-blank/internal/metrics"
	"github.com/toinevv/seo-system-blank/internal/models"
	"github.com/toinevv/seo-system-blank/internal/provider"
	"github.com/toinevv/seo-system-blank/internal/publisher"
	"github.com/toinevv/seo-system-blank/internal/scorer"
)

// Gateway is the subset of the central store the scheduler needs
// directly (the rest is delegated to the topic engine).
type Gateway interface {
	ListDueWebsites(ctx context.Context, now time.Time) ([]models.Website, error)
	GetAPIKeys(ctx context.Context, websiteID string) (*models.ApiKeys, error)
	CreateGenerationLog(ctx context.Context, websiteID, topicID string) (string, error)
	FinalizeGenerationLog(ctx context.Context, logID string, status models.GenerationStatus, fields map[string]interface{}) error
	UpdateWebsiteAfterRun(ctx context.Context, websiteID string, nextRun time.Time, lastAPI string, recentFormats []string, lastPostingHour int) error
}

// TopicEngine is the subset of topics.Engine the scheduler needs.
type TopicEngine interface {
	NextTopic(ctx context.Context, website *models.Website, openAIKey, anthropicKey string) (*models.Topic, error)
	MarkUsed(ctx context.Context, topic *models.Topic, maxUses int) error
}

// PlatformKeys are the process-wide fallback LLM keys used when a
// website has no per-website keys of its own.
type PlatformKeys struct {
	OpenAIKey    string
	AnthropicKey string
}

// Service is the scheduler/orchestrator.
type Service struct {
	Store         Gateway
	Topics        TopicEngine
	EncryptionKey string
	Platform      PlatformKeys

	leases sync.Map // website id -> struct{}, held for the duration of one website's task

	ticker   *time.Ticker
	stopChan chan struct{}
	mu       sync.RWMutex
	running  bool
}

func New(store Gateway, topics TopicEngine, encryptionKey string, platform PlatformKeys) *Service {
	return &Service{
		Store:         store,
		Topics:        topics,
		EncryptionKey: encryptionKey,
		Platform:      platform,
		stopChan:      make(chan struct{}),
	}
}

// Start runs Tick on a fixed interval until Stop is called, following
// the teacher's ticker-driven background loop.
func (s *Service) Start(interval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ticker = time.NewTicker(interval)
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-s.ticker.C:
				if _, err := s.Tick(context.Background(), time.Now()); err != nil {
					logging.FromContext(context.Background()).Error().Err(err).Msg("tick failed")
				}
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.stopChan)
}

func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Tick implements the contract tick(now) -> processed_count. Websites
// are processed with per-tenant serialization: a website already
// leased (an in-flight run from a prior, still-running tick) is
// skipped rather than double-processed.
func (s *Service) Tick(ctx context.Context, now time.Time) (int, error) {
	tickStart := time.Now()
	defer func() { metrics.ObserveTick(time.Since(tickStart)) }()

	websites, err := s.Store.ListDueWebsites(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(websites) == 0 {
		return 0, nil
	}

	processed := 0
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := range websites {
		website := websites[i]
		if !s.acquireLease(website.ID) {
			continue
		}
		wg.Add(1)
		go func(w models.Website) {
			defer wg.Done()
			defer s.releaseLease(w.ID)

			taskCtx, logger := logging.WithTaskID(ctx, uuid.NewString())
			didWork, err := s.processWebsite(taskCtx, &w, now)
			if err != nil {
				logger.Error().Err(err).Str("website_id", w.ID).Msg("website processing failed")
			}
			if didWork {
				mu.Lock()
				processed++
				mu.Unlock()
			}
		}(website)
	}

	wg.Wait()
	metrics.IncWebsitesProcessed(processed)
	return processed, nil
}

func (s *Service) acquireLease(websiteID string) bool {
	_, loaded := s.leases.LoadOrStore(websiteID, struct{}{})
	return !loaded
}

func (s *Service) releaseLease(websiteID string) {
	s.leases.Delete(websiteID)
}

// processWebsite runs steps (a)-(l) of §4.11 for one website.
// didWork is true only when a GenerationLog was created (i.e.
// next_topic returned a topic) — this is the quantity the scheduler's
// per-tick processed_count and the GenerationLog-count invariant in §8
// are defined against.
func (s *Service) processWebsite(ctx context.Context, website *models.Website, now time.Time) (didWork bool, err error) {
	apiKeys, err := s.Store.GetAPIKeys(ctx, website.ID)
	if err != nil {
		return false, err
	}

	openAIKey, anthropicKey, targetKey, err := s.resolveKeys(apiKeys)
	if err != nil {
		return false, err
	}

	topic, err := s.Topics.NextTopic(ctx, website, openAIKey, anthropicKey)
	if err != nil {
		return false, err
	}
	if topic == nil {
		return false, nil
	}

	logID, err := s.Store.CreateGenerationLog(ctx, website.ID, topic.ID)
	if err != nil {
		return false, err
	}
	didWork = true

	keys := provider.Keys{OpenAIKey: openAIKey, AnthropicKey: anthropicKey}
	tag, key, ok := provider.Choose(website, keys, "article")
	if !ok {
		metrics.IncGenerationOutcome("failed")
		_ = s.Store.FinalizeGenerationLog(ctx, logID, models.GenerationFailed, map[string]interface{}{
			"error": "no provider key available",
		})
		return didWork, nil
	}

	callStart := time.Now()
	article, usedTag, genErr := s.generateWithFallback(ctx, topic, website, tag, key, keys)
	metrics.ObserveProviderCall(usedTagOrFallback(usedTag, tag), time.Since(callStart))
	if genErr != nil {
		metrics.IncGenerationOutcome("failed")
		_ = s.Store.FinalizeGenerationLog(ctx, logID, models.GenerationFailed, map[string]interface{}{
			"error": "Content generation failed (both APIs)",
		})
		return didWork, nil
	}

	if article.SearchIntent == "" {
		article.SearchIntent = models.SearchIntent(catalog.ClassifySearchIntent(topic.Title))
	}

	seoScore, _, geoOptimized := scorer.Score(article.Title, article.MetaDescription, article.PrimaryKeyword, article.Content)
	article.SEOScore = seoScore
	article.GeoOptimized = geoOptimized
	article.PublishedAt = now
	article.CreatedAt = now

	if err := publisher.Publish(ctx, article, apiKeys.TargetDBBaseURL, targetKey); err != nil {
		metrics.IncGenerationOutcome("failed")
		_ = s.Store.FinalizeGenerationLog(ctx, logID, models.GenerationFailed, map[string]interface{}{
			"error": "Failed to save article",
		})
		return didWork, nil
	}

	metrics.IncGenerationOutcome("success")
	if err := s.Store.FinalizeGenerationLog(ctx, logID, models.GenerationSuccess, map[string]interface{}{
		"article_title": article.Title,
		"article_slug":  article.Slug,
		"provider":      usedTag,
		"seo_score":     seoScore,
	}); err != nil {
		return didWork, err
	}

	if err := s.Topics.MarkUsed(ctx, topic, website.Topics.MaxTopicUses); err != nil {
		return didWork, err
	}

	nextRun := NextRun(website.Schedule, now)
	recentFormats := appendFormatHistory(website.Generation.FormatHistory, article.FormatKey)
	if err := s.Store.UpdateWebsiteAfterRun(ctx, website.ID, nextRun, usedTag, recentFormats, now.Hour()); err != nil {
		return didWork, err
	}

	return didWork, nil
}

// usedTagOrFallback labels the provider-latency metric even when
// generation failed and usedTag was never set.
func usedTagOrFallback(usedTag, attemptedTag string) string {
	if usedTag != "" {
		return usedTag
	}
	return attemptedTag
}

func appendFormatHistory(history []string, formatKey string) []string {
	updated := append(append([]string{}, history...), formatKey)
	const maxHistory = 10
	if len(updated) > maxHistory {
		updated = updated[len(updated)-maxHistory:]
	}
	return updated
}

// generateWithFallback calls the article generator on the chosen
// provider; on empty/failed content it retries once on the other
// provider if a key is available, per §4.8's fallback rule.
func (s *Service) generateWithFallback(ctx context.Context, topic *models.Topic, website *models.Website, tag, key string, keys provider.Keys) (*models.Article, string, error) {
	article, err := generator.Generate(ctx, topic, website, tag, key)
	if err == nil {
		return article, tag, nil
	}

	otherTag, otherKey, ok := provider.Other(tag, keys)
	if !ok {
		return nil, "", err
	}

	article, err2 := generator.Generate(ctx, topic, website, otherTag, otherKey)
	if err2 != nil {
		return nil, "", err2
	}
	return article, otherTag, nil
}

// resolveKeys decrypts per-website provider keys, falling back to
// platform-wide keys when a website carries none, per §4.11 step (a).
// It aborts (returns an error) only if the target database key cannot
// be obtained — the providers are allowed to come up empty and be
// routed around by the provider router.
func (s *Service) resolveKeys(apiKeys *models.ApiKeys) (openAIKey, anthropicKey, targetKey string, err error) {
	if apiKeys.OpenAIKeyEncrypted != "" {
		if openAIKey, err = cryptobox.Decrypt(apiKeys.OpenAIKeyEncrypted, s.EncryptionKey); err != nil {
			openAIKey = ""
		}
	}
	if openAIKey == "" {
		openAIKey = s.Platform.OpenAIKey
	}

	if apiKeys.AnthropicKeyEncrypted != "" {
		if anthropicKey, err = cryptobox.Decrypt(apiKeys.AnthropicKeyEncrypted, s.EncryptionKey); err != nil {
			anthropicKey = ""
		}
	}
	if anthropicKey == "" {
		anthropicKey = s.Platform.AnthropicKey
	}

	if apiKeys.TargetDBKeyEncrypted == "" {
		return openAIKey, anthropicKey, "", &errs.ConfigError{Field: "target_db_key", Reason: "missing"}
	}
	targetKey, decErr := cryptobox.Decrypt(apiKeys.TargetDBKeyEncrypted, s.EncryptionKey)
	if decErr != nil {
		return openAIKey, anthropicKey, "", decErr
	}
	return openAIKey, anthropicKey, targetKey, nil
}

// NextRun computes the next scheduled run time per the policy in
// §4.11, keyed by the website's scheduling mode.
func NextRun(policy models.SchedulePolicy, now time.Time) time.Time {
	switch policy.Mode {
	case models.ScheduleFixed:
		return nextRunFixed(policy, now)
	case models.ScheduleWindow:
		return nextRunWindow(policy, now)
	default:
		return nextRunRandom(policy, now)
	}
}

func nextRunFixed(policy models.SchedulePolicy, now time.Time) time.Time {
	days := policy.DaysBetweenPosts
	if days <= 0 {
		days = 1
	}
	next := now.AddDate(0, 0, days)

	hour, minute := 9, 0
	if t, err := parseHHMM(policy.PreferredTime); err == nil {
		hour, minute = t[0], t[1]
	}
	return time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, next.Location())
}

func nextRunWindow(policy models.SchedulePolicy, now time.Time) time.Time {
	minH, maxH := policy.MinHours, policy.MaxHours
	if maxH <= 0 {
		maxH = minH + 1
	}
	hoursAhead := minH
	if maxH > minH {
		hoursAhead = minH + rand.Intn(maxH-minH+1)
	}
	candidate := now.Add(time.Duration(hoursAhead) * time.Hour)

	if len(policy.PreferredDays) > 0 {
		candidate = snapToPreferredWeekday(candidate, policy.PreferredDays)
	}

	startHour, endHour := policy.WindowStartHour, policy.WindowEndHour
	if endHour <= startHour {
		endHour = startHour
	}
	hour := pickWindowHour(startHour, endHour, policy.LastPostingHour)
	minute := rand.Intn(60)

	return time.Date(candidate.Year(), candidate.Month(), candidate.Day(), hour, minute, 0, 0, candidate.Location())
}

func nextRunRandom(policy models.SchedulePolicy, now time.Time) time.Time {
	minH, maxH := policy.MinHours, policy.MaxHours
	if maxH <= 0 {
		maxH = minH + 1
	}
	hoursAhead := minH
	if maxH > minH {
		hoursAhead = minH + rand.Intn(maxH-minH+1)
	}
	candidate := now.Add(time.Duration(hoursAhead) * time.Hour)

	hour := 6 + rand.Intn(17) // [6, 22]
	minute := rand.Intn(60)
	return time.Date(candidate.Year(), candidate.Month(), candidate.Day(), hour, minute, 0, 0, candidate.Location())
}

// snapToPreferredWeekday advances candidate forward a day at a time,
// up to 7 attempts, until its weekday is in preferredDays. If none of
// the 7 attempts land on a preferred day, the source's silent
// fallthrough is followed: the last candidate is returned as-is
// (spec §9 open question, resolved in DESIGN.md).
func snapToPreferredWeekday(candidate time.Time, preferredDays []time.Weekday) time.Time {
	allowed := make(map[time.Weekday]bool, len(preferredDays))
	for _, d := range preferredDays {
		allowed[d] = true
	}
	for i := 0; i < 7; i++ {
		if allowed[candidate.Weekday()] {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func pickWindowHour(start, end, excludeHour int) int {
	var hours []int
	for h := start; h <= end; h++ {
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return excludeHour
	}
	if len(hours) > 1 {
		filtered := hours[:0:0]
		for _, h := range hours {
			if h != excludeHour {
				filtered = append(filtered, h)
			}
		}
		if len(filtered) > 0 {
			hours = filtered
		}
	}
	return hours[rand.Intn(len(hours))]
}

func parseHHMM(s string) ([2]int, error) {
	var out [2]int
	_, err := time.Parse("15:04", s)
	if err != nil {
		return out, err
	}
	t, _ := time.Parse("15:04", s)
	out[0], out[1] = t.Hour(), t.Minute()
	return out, nil
}
