package generator

import (
	"strings"
	"testing"
)

func TestCleanRemovesCodeFences(t *testing.T) {
	raw := "```html\n<p>hello</p>\n```\n<h2>Intro</h2><p>body</p>"
	cleaned := Clean(raw)
	if strings.Contains(cleaned, "```") {
		t.Errorf("expected code fences removed, got %q", cleaned)
	}
}

func TestCleanStripsDocumentStructureTags(t *testing.T) {
	raw := "<!DOCTYPE html><html><head><title>X</title></head><body><h2>Intro</h2><p>body</p></body></html>"
	cleaned := Clean(raw)
	for _, tag := range []string{"<!DOCTYPE", "<html", "<head", "<body", "<title"} {
		if strings.Contains(cleaned, tag) {
			t.Errorf("expected %q stripped, got %q", tag, cleaned)
		}
	}
}

func TestCleanRemovesLeadingMetaCommentary(t *testing.T) {
	raw := "Here is the requested article:\n<h2>Intro</h2><p>body</p>"
	cleaned := Clean(raw)
	if strings.Contains(strings.ToLower(cleaned), "here is the requested article") {
		t.Errorf("expected meta-commentary line removed, got %q", cleaned)
	}
}

func TestCleanRemovesHTMLComments(t *testing.T) {
	raw := "<h2>Intro</h2><!-- internal note --><p>body</p>"
	cleaned := Clean(raw)
	if strings.Contains(cleaned, "internal note") {
		t.Errorf("expected html comment removed, got %q", cleaned)
	}
}

func TestCleanConvertsMarkdownHeadingsAndBullets(t *testing.T) {
	raw := "## Section One\n* first point\n- second point"
	cleaned := Clean(raw)
	if !strings.Contains(cleaned, "<h2>Section One</h2>") {
		t.Errorf("expected markdown h2 converted, got %q", cleaned)
	}
	if !strings.Contains(cleaned, "<li>first point</li>") || !strings.Contains(cleaned, "<li>second point</li>") {
		t.Errorf("expected bullets converted, got %q", cleaned)
	}
}

func TestCleanCollapsesBlankLineRuns(t *testing.T) {
	raw := "<p>one</p>\n\n\n\n\n<p>two</p>"
	cleaned := Clean(raw)
	if strings.Contains(cleaned, "\n\n\n") {
		t.Errorf("expected blank line runs collapsed, got %q", cleaned)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	raw := "Here is the article:\n```\nfence\n```\n<!DOCTYPE html><html><body><h2>Intro</h2><!-- note -->\n\n\n\n<p>body</p>## More\n* item</body></html>"
	once := Clean(raw)
	twice := Clean(once)
	if once != twice {
		t.Errorf("Clean is not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestSlugifyLowercasesAndHyphenates(t *testing.T) {
	got := Slugify("How to Wax a Surfboard")
	if got != "how-to-wax-a-surfboard" {
		t.Errorf("got %q", got)
	}
}

func TestSlugifyTruncatesTo60Chars(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got := Slugify(long)
	if len(got) > 60 {
		t.Errorf("slug longer than 60 chars: %d", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug must not end with a trailing hyphen after truncation: %q", got)
	}
}

func TestSlugifyMatchesContract(t *testing.T) {
	got := Slugify("Top 10 Ways (to) Save Money!")
	for _, r := range got {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			t.Errorf("slug %q contains disallowed character %q", got, r)
		}
	}
}
