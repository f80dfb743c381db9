package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/toinevv/seo-system-blank/internal/errs"
	"github.com/toinevv/seo-system-blank/internal/models"
)

func sampleArticle() *models.Article {
	return &models.Article{
		Title:        "How to Wax a Surfboard",
		Slug:         "how-to-wax-a-surfboard",
		Content:      "<p>content</p>",
		Status:       "published",
		PublishedAt:  time.Now(),
		CreatedAt:    time.Now(),
		Excerpt:      "short excerpt",
		SEOScore:     72,
		GeoOptimized: true,
	}
}

func TestPublishSucceedsFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "how-to-wax-a-surfboard", body["slug"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := Publish(context.Background(), sampleArticle(), srv.URL, "key")
	require.NoError(t, err)
}

func TestPublishSchemaAdaptationDropsUnknownColumns(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch calls {
		case 1:
			require.Contains(t, body, "geo_optimized")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"unknown column: geo_optimized"}`))
		case 2:
			require.NotContains(t, body, "geo_optimized")
			require.Contains(t, body, "seo_score")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"unknown column: seo_score"}`))
		default:
			require.NotContains(t, body, "geo_optimized")
			require.NotContains(t, body, "seo_score")
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	err := Publish(context.Background(), sampleArticle(), srv.URL, "key")
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestPublishRequiredCoreRejectionIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown column: slug"}`))
	}))
	defer srv.Close()

	err := Publish(context.Background(), sampleArticle(), srv.URL, "key")
	require.Error(t, err)
	var pubErr *errs.PublishError
	require.ErrorAs(t, err, &pubErr)
}

func TestPublishExhaustsRetryBudget(t *testing.T) {
	columns := []string{"excerpt", "meta_description", "tags", "primary_keyword", "author", "read_time", "category", "seo_score", "product_id", "website_domain", "language", "geo_optimized"}
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		col := columns[calls%len(columns)]
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown column: ` + col + `"}`))
	}))
	defer srv.Close()

	err := Publish(context.Background(), sampleArticle(), srv.URL, "key")
	require.Error(t, err)
	var exhausted *errs.SchemaAdaptationExhausted
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 6, calls)
}
