// Package publisher implements the schema-adaptive insert into a
// tenant's article table: POST a payload built from the article's
// required core plus its optional set, and if the tenant schema
// rejects a specific optional column, drop that column and retry.
package publisher

import (
	"context"
	"regexp"
	"time"

	"github.com/toinevv/seo-system-blank/internal/errs"
	"github.com/toinevv/seo-system-blank/internal/httpclient"
	"github.com/toinevv/seo-system-blank/internal/models"
)

const (
	publishTimeout   = 15 * time.Second
	maxSchemaRetries = 5
)

// unknownColumnPattern extracts a column name from a tenant store's
// unknown-column error body. It is intentionally permissive about the
// surrounding error-code text, matching only the part the contract
// guarantees: the offending column name appears somewhere parseable.
var unknownColumnPattern = regexp.MustCompile(`(?i)(?:unknown|unrecognized|no such|undefined)\s+column[:\s]+['"]?([a-zA-Z_][a-zA-Z0-9_]*)['"]?`)

// requiredCore is the set of payload keys that may never be dropped by
// schema adaptation; an unknown-column error naming one of these is
// fatal.
var requiredCore = map[string]bool{
	"title": true, "slug": true, "content": true,
	"status": true, "published_at": true, "created_at": true,
}

// Publish builds the payload and POSTs it to the tenant's article
// insert endpoint, shrinking the optional set on unknown-column errors
// until it converges or the retry budget (5) is exhausted.
func Publish(ctx context.Context, article *models.Article, targetBaseURL, targetServiceKey string) error {
	payload := buildPayload(article)

	headers := map[string]string{}
	if targetServiceKey != "" {
		headers["Authorization"] = "Bearer " + targetServiceKey
	}

	var lastColumn string
	for attempt := 0; attempt <= maxSchemaRetries; attempt++ {
		err := httpclient.JSONRequest(ctx, "POST", targetBaseURL, headers, payload, publishTimeout, nil)
		if err == nil {
			return nil
		}

		column, ok := unknownColumnFromError(err)
		if !ok {
			return &errs.PublishError{Reason: err.Error()}
		}
		if requiredCore[column] {
			return &errs.PublishError{Reason: "tenant schema rejected required core column " + column}
		}
		if attempt == maxSchemaRetries {
			return &errs.SchemaAdaptationExhausted{Attempts: attempt + 1, LastColumn: column}
		}
		delete(payload, column)
		lastColumn = column
	}
	return &errs.SchemaAdaptationExhausted{Attempts: maxSchemaRetries + 1, LastColumn: lastColumn}
}

// buildPayload assembles the required-core-plus-optional-set map. Only
// non-zero optional fields are included, except geo_optimized, which
// is always included (false is a meaningful value), matching the teacher's
// pattern of building REST payloads as plain maps rather than
// marshaling a fixed struct (so a later delete() can drop one key).
func buildPayload(a *models.Article) map[string]interface{} {
	payload := map[string]interface{}{
		"title":        a.Title,
		"slug":         a.Slug,
		"content":      a.Content,
		"status":       a.Status,
		"published_at": a.PublishedAt.UTC(),
		"created_at":   a.CreatedAt.UTC(),
	}

	optional := map[string]interface{}{
		"excerpt":          a.Excerpt,
		"meta_description": a.MetaDescription,
		"tags":             a.Tags,
		"primary_keyword":  a.PrimaryKeyword,
		"author":           a.Author,
		"read_time":        a.ReadTime,
		"category":         a.Category,
		"seo_score":        a.SEOScore,
		"product_id":       a.ProductID,
		"website_domain":   a.WebsiteDomain,
		"language":         a.Language,
		"geo_optimized":    a.GeoOptimized,
	}
	for k, v := range optional {
		if !isZero(v) {
			payload[k] = v
		}
	}
	return payload
}

func isZero(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case int:
		return t == 0
	case bool:
		return false // geo_optimized=false is a meaningful value, always include it
	case []string:
		return len(t) == 0
	default:
		return v == nil
	}
}

func unknownColumnFromError(err error) (string, bool) {
	httpErr, ok := err.(*errs.HttpError)
	if !ok {
		return "", false
	}
	m := unknownColumnPattern.FindStringSubmatch(httpErr.Body)
	if m == nil {
		return "", false
	}
	return m[1], true
}
