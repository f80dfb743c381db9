package scorer

import (
	"strings"
	"testing"
)

func TestTitleLengthBoundaries(t *testing.T) {
	cases := []struct {
		length int
		want   int
	}{
		{49, 5},
		{50, 8},
		{60, 8},
		{61, 5},
	}
	for _, c := range cases {
		title := strings.Repeat("a", c.length)
		got := scoreTitle(title, "")
		if got != c.want {
			t.Errorf("title length %d: scoreTitle = %d, want %d", c.length, got, c.want)
		}
	}
}

func TestWordCountBoundary(t *testing.T) {
	html1500 := "<p>" + strings.Repeat("word ", 1500) + "</p>"
	html1499 := "<p>" + strings.Repeat("word ", 1499) + "</p>"

	_, b1500, _ := Score("Some Title Here For The Test 12345", "", "", html1500)
	_, b1499, _ := Score("Some Title Here For The Test 12345", "", "", html1499)

	if got := b1500.Structure; got < 8 {
		t.Errorf("1500 words: structure subtotal = %d, expected at least the 8pt length component", got)
	}
	if got := b1499.Structure; got >= b1500.Structure {
		t.Errorf("1499 words should score less structure than 1500: got %d vs %d", got, b1500.Structure)
	}
}

func TestFAQHeadingBonus(t *testing.T) {
	withFAQ := "<h2>Frequently Asked Questions</h2><p>text</p>"
	withoutFAQ := "<h2>Is this good?</h2><h2>Is this bad?</h2><p>text</p>"

	geoFAQ := scoreGEOFromHTML(withFAQ)
	geoTwoQuestions := scoreGEOFromHTML(withoutFAQ)

	if geoFAQ < 8 {
		t.Errorf("FAQ heading should score at least 8 GEO points, got %d", geoFAQ)
	}
	if geoTwoQuestions < 5 || geoTwoQuestions >= 8 {
		t.Errorf("two question headings without FAQ should score 5, got %d", geoTwoQuestions)
	}
}

func scoreGEOFromHTML(html string) int {
	_, b, _ := Score("Some Title", "", "", html)
	return b.GEO
}

func TestGeoOptimizedFlagThreshold(t *testing.T) {
	html := "<h2>Frequently Asked Questions</h2><h2>Summary</h2><ul><li>a</li><li>b</li><li>c</li><li>d</li><li>e</li></ul>"
	_, b, geoOK := Score("Title", "", "", html)
	if b.GEO < 15 {
		t.Fatalf("expected GEO subtotal >= 15 for this fixture, got %d", b.GEO)
	}
	if !geoOK {
		t.Error("expected geo_optimized=true when GEO subtotal >= 15")
	}
}

func TestTotalNeverExceeds100(t *testing.T) {
	html := `<h2>FAQ</h2><h2>Summary</h2><h3>a</h3><h3>b</h3>
	<ul><li>1</li><li>2</li><li>3</li><li>4</li><li>5</li></ul>
	<p>Pallets are a kind of shipping platform. Pallet cost means the total cost.</p>
	<p>Another paragraph.</p><p>Third.</p><p>Fourth.</p><p>Fifth with 50% savings in 3 hours.</p>`
	total, _, _ := Score("Best Pallet Optimization Guide 2026 Ultimate", "Save money on pallet costs today with this guide", "pallet", html)
	if total > 100 {
		t.Errorf("total score must be capped at 100, got %d", total)
	}
	if total < 0 {
		t.Errorf("total score must not be negative, got %d", total)
	}
}
