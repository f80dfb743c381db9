package generator

import (
	"testing"

	"github.com/toinevv/seo-system-blank/internal/models"
)

func TestSelectFormatExcludesRecentHistory(t *testing.T) {
	website := &models.Website{
		Generation: models.GenerationPolicy{
			EnabledFormats: []string{"listicle", "how_to_guide"},
			FormatHistory:  []string{"listicle", "listicle", "listicle"},
		},
	}
	for i := 0; i < 20; i++ {
		got := selectFormat(website)
		if got.Key == "listicle" {
			t.Fatalf("listicle should be excluded by recent format history")
		}
	}
}

func TestSelectFormatFallsBackWhenAllExcluded(t *testing.T) {
	website := &models.Website{
		Generation: models.GenerationPolicy{
			EnabledFormats: []string{"listicle"},
			FormatHistory:  []string{"listicle", "listicle", "listicle"},
		},
	}
	got := selectFormat(website)
	if got.Key != "listicle" {
		t.Fatalf("expected fallback to the only enabled format, got %q", got.Key)
	}
}

func TestParseComputesReadTimeFloor(t *testing.T) {
	website := &models.Website{Domain: "example.com", Identity: models.ContentIdentity{Language: "en"}}
	topic := &models.Topic{Title: "How to Wax a Surfboard", Keywords: []string{"wax a surfboard"}}

	shortContent := "<h2>Intro</h2><p>Just a few words here.</p>"
	article := parse(shortContent, topic, website)
	if article.ReadTime < 1 {
		t.Errorf("read time must be at least 1, got %d", article.ReadTime)
	}
	if article.Slug != "how-to-wax-a-surfboard" {
		t.Errorf("unexpected slug: %q", article.Slug)
	}
}

func TestParseExtractsTitleFromHeading(t *testing.T) {
	website := &models.Website{}
	topic := &models.Topic{Title: "Fallback Title"}
	content := "<h1>Actual Heading Title</h1><p>body</p>"
	article := parse(content, topic, website)
	if article.Title != "Actual Heading Title" {
		t.Errorf("expected heading title, got %q", article.Title)
	}
}

func TestParseExcerptCappedAt200Chars(t *testing.T) {
	website := &models.Website{}
	topic := &models.Topic{Title: "Topic"}
	longContent := "<p>"
	for len(longContent) < 500 {
		longContent += "word "
	}
	longContent += "</p>"
	article := parse(longContent, topic, website)
	if len(article.Excerpt) > 200 {
		t.Errorf("excerpt must be capped at 200 chars, got %d", len(article.Excerpt))
	}
}
