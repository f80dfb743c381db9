// Package store is the thin, typed facade over the central
// coordination database's REST interface: websites, api_keys, topics,
// website_scans, and generation_logs. Every operation takes a
// request-scoped deadline and maps transport failures to the errs
// taxonomy; none of them retry internally — retries are the caller's
// responsibility, per spec.
package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/toinevv/seo-system-blank/internal/httpclient"
	"github.com/toinevv/seo-system-blank/internal/models"
)

const defaultDeadline = 10 * time.Second

// Gateway is the central store client. BaseURL and APIKey identify the
// coordination database's REST endpoint; every call is authenticated
// with a bearer-style header.
type Gateway struct {
	BaseURL string
	APIKey  string
}

func New(baseURL, apiKey string) *Gateway {
	return &Gateway{BaseURL: baseURL, APIKey: apiKey}
}

func (g *Gateway) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + g.APIKey,
	}
}

func (g *Gateway) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := g.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return httpclient.JSONRequest(ctx, "GET", u, g.headers(), nil, defaultDeadline, out)
}

func (g *Gateway) post(ctx context.Context, path string, body, out interface{}) error {
	return httpclient.JSONRequest(ctx, "POST", g.BaseURL+path, g.headers(), body, defaultDeadline, out)
}

func (g *Gateway) patch(ctx context.Context, path string, body, out interface{}) error {
	return httpclient.JSONRequest(ctx, "PATCH", g.BaseURL+path, g.headers(), body, defaultDeadline, out)
}

// ListDueWebsites returns active websites whose next_scheduled_at is
// at or before now.
func (g *Gateway) ListDueWebsites(ctx context.Context, now time.Time) ([]models.Website, error) {
	q := url.Values{}
	q.Set("is_active", "true")
	q.Set("next_scheduled_at_lte", now.UTC().Format(time.RFC3339))
	var out []models.Website
	if err := g.get(ctx, "/websites", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListWebsites returns every website, active or not, for aggregate
// reporting (e.g. the ops /stats endpoint).
func (g *Gateway) ListWebsites(ctx context.Context) ([]models.Website, error) {
	var out []models.Website
	if err := g.get(ctx, "/websites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTopics returns every topic across all websites, for aggregate
// reporting (e.g. the ops /stats endpoint's breakdown by source).
func (g *Gateway) ListTopics(ctx context.Context) ([]models.Topic, error) {
	var out []models.Topic
	if err := g.get(ctx, "/topics", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecentGenerationLogs returns the most recent generation attempts
// across all websites, newest first, capped at limit.
func (g *Gateway) ListRecentGenerationLogs(ctx context.Context, limit int) ([]models.GenerationLog, error) {
	q := url.Values{}
	q.Set("order", "started_at.desc")
	q.Set("limit", fmt.Sprintf("%d", limit))
	var out []models.GenerationLog
	if err := g.get(ctx, "/generation_logs", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWebsite fetches a single website by id.
func (g *Gateway) GetWebsite(ctx context.Context, id string) (*models.Website, error) {
	var out models.Website
	if err := g.get(ctx, "/websites/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAPIKeys fetches the credentials bundle for a website.
func (g *Gateway) GetAPIKeys(ctx context.Context, websiteID string) (*models.ApiKeys, error) {
	var out models.ApiKeys
	if err := g.get(ctx, "/api_keys/"+websiteID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWebsiteScan fetches the cached scan for a website, if any.
func (g *Gateway) GetWebsiteScan(ctx context.Context, websiteID string) (*models.WebsiteScan, error) {
	var out models.WebsiteScan
	if err := g.get(ctx, "/website_scans/"+websiteID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertWebsiteScan creates or replaces the scan row for a website.
func (g *Gateway) UpsertWebsiteScan(ctx context.Context, scan *models.WebsiteScan) error {
	return g.post(ctx, "/website_scans/"+scan.WebsiteID, scan, nil)
}

// SetScanStatus transitions a scan's status, optionally recording an
// error message (used for the failed state).
func (g *Gateway) SetScanStatus(ctx context.Context, websiteID string, status models.ScanStatus, errMsg string) error {
	body := map[string]interface{}{"status": status}
	if errMsg != "" {
		body["error"] = errMsg
	}
	return g.patch(ctx, "/website_scans/"+websiteID, body, nil)
}

// FindUnusedTopic returns the highest-priority unused topic for a
// website, or nil if none exists.
func (g *Gateway) FindUnusedTopic(ctx context.Context, websiteID string) (*models.Topic, error) {
	q := url.Values{}
	q.Set("website_id", websiteID)
	q.Set("is_used", "false")
	q.Set("order", "priority.desc")
	q.Set("limit", "1")
	var out []models.Topic
	if err := g.get(ctx, "/topics", q, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// FindReusableTopic returns the topic with times_used < maxUses,
// ordered by descending priority then ascending times_used (least-
// reused first among equal-priority topics).
func (g *Gateway) FindReusableTopic(ctx context.Context, websiteID string, maxUses int) (*models.Topic, error) {
	q := url.Values{}
	q.Set("website_id", websiteID)
	q.Set("times_used_lt", fmt.Sprintf("%d", maxUses))
	q.Set("order", "priority.desc,times_used.asc")
	q.Set("limit", "1")
	var out []models.Topic
	if err := g.get(ctx, "/topics", q, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// InsertTopic persists a newly minted or discovered topic and returns
// the stored record (including its assigned id).
func (g *Gateway) InsertTopic(ctx context.Context, topic *models.Topic) (*models.Topic, error) {
	var out models.Topic
	if err := g.post(ctx, "/topics", topic, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkTopicUsed sends a single PATCH asking the store to apply the
// update atomically (no read first): times_used becomes times_used+1,
// and is_used becomes true once that meets or exceeds maxUses.
func (g *Gateway) MarkTopicUsed(ctx context.Context, topicID string, maxUses int) error {
	body := map[string]interface{}{
		"times_used_increment": 1,
		"is_used_if_reaches":   maxUses,
	}
	return g.patch(ctx, "/topics/"+topicID+"/mark_used", body, nil)
}

// CreateGenerationLog opens a new log row in the "generating" state
// and returns its id.
func (g *Gateway) CreateGenerationLog(ctx context.Context, websiteID, topicID string) (string, error) {
	body := map[string]interface{}{
		"website_id": websiteID,
		"topic_id":   topicID,
		"status":     models.GenerationGenerating,
		"started_at": time.Now().UTC(),
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/generation_logs", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// FinalizeGenerationLog transitions a log row to its terminal status
// exactly once, attaching the fields relevant to that outcome.
func (g *Gateway) FinalizeGenerationLog(ctx context.Context, logID string, status models.GenerationStatus, fields map[string]interface{}) error {
	body := map[string]interface{}{
		"status":       status,
		"completed_at": time.Now().UTC(),
	}
	for k, v := range fields {
		body[k] = v
	}
	return g.patch(ctx, "/generation_logs/"+logID, body, nil)
}

// UpdateWebsiteAfterRun advances a website's scheduling and rotation
// state following a completed (successful) run.
func (g *Gateway) UpdateWebsiteAfterRun(ctx context.Context, websiteID string, nextRun time.Time, lastAPI string, recentFormats []string, lastPostingHour int) error {
	body := map[string]interface{}{
		"next_scheduled_at": nextRun.UTC(),
		"last_api_used":     lastAPI,
		"format_history":    recentFormats,
		"last_posting_hour": lastPostingHour,
		"last_generated_at": time.Now().UTC(),
	}
	return g.patch(ctx, "/websites/"+websiteID, body, nil)
}
