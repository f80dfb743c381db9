// Package scorer implements the SEO/GEO scoring rubric of spec §4.10.
// The score is a deterministic function of the article's rendered
// HTML content, title, meta description, and primary keyword; the
// exact point values here are the contract implementations must
// reproduce, not a rough approximation.
package scorer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Breakdown is the per-category subtotal returned alongside the total
// score, for logging.
type Breakdown struct {
	Title     int
	Structure int
	Meta      int
	Keywords  int
	GEO       int
}

var powerWords = []string{"how", "why", "what", "best", "guide", "top", "ultimate", "essential", "complete"}

var definitionalPattern = regexp.MustCompile(`(?i)\b\w[\w\s]{0,40}\b(?:is|means|refers to|defined as)\b`)

var numberWithUnitPattern = regexp.MustCompile(`\b\d+(\.\d+)?\s*(%|percent|minutes?|hours?|days?|years?|kg|lbs?|km|miles?|\$)`)

// Score computes the 0-100 SEO/GEO score for an article's rendered
// HTML content and metadata. geoOptimized is true when the GEO
// subtotal reaches at least 15.
func Score(title, metaDescription, primaryKeyword, html string) (total int, breakdown Breakdown, geoOptimized bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}

	breakdown.Title = scoreTitle(title, primaryKeyword)
	breakdown.Structure = scoreStructure(doc, html)
	breakdown.Meta = scoreMeta(metaDescription, primaryKeyword)
	breakdown.Keywords = scoreKeywords(doc, html, primaryKeyword)
	breakdown.GEO = scoreGEO(doc)

	total = breakdown.Title + breakdown.Structure + breakdown.Meta + breakdown.Keywords + breakdown.GEO
	if total > 100 {
		total = 100
	}
	geoOptimized = breakdown.GEO >= 15
	return total, breakdown, geoOptimized
}

func scoreTitle(title, primaryKeyword string) int {
	score := 0

	n := len(title)
	switch {
	case n >= 50 && n <= 60:
		score += 8
	case (n >= 30 && n <= 49) || (n >= 61 && n <= 70):
		score += 5
	case n >= 20:
		score += 2
	}

	if primaryKeyword != "" {
		lowerTitle := strings.ToLower(title)
		lowerKeyword := strings.ToLower(primaryKeyword)
		idx := strings.Index(lowerTitle, lowerKeyword)
		if idx >= 0 {
			if idx < len(title)/3 {
				score += 8
			} else {
				score += 5
			}
		}
	}

	lowerTitle := strings.ToLower(title)
	for _, w := range powerWords {
		if strings.Contains(lowerTitle, w) {
			score += 4
			break
		}
	}

	return score
}

func scoreStructure(doc *goquery.Document, html string) int {
	score := 0

	words := countWords(stripTags(html))
	switch {
	case words >= 1500:
		score += 8
	case words >= 1000:
		score += 5
	case words >= 600:
		score += 2
	}

	h2Count := doc.Find("h2").Length()
	switch {
	case h2Count >= 3:
		score += 5
	case h2Count >= 2:
		score += 3
	}

	h3Count := doc.Find("h3").Length()
	switch {
	case h3Count >= 2:
		score += 4
	case h3Count >= 1:
		score += 2
	}

	if doc.Find("ul, ol").Length() > 0 {
		score += 4
	}

	pCount := doc.Find("p").Length()
	switch {
	case pCount >= 5:
		score += 4
	case pCount >= 3:
		score += 2
	}

	return score
}

func scoreMeta(metaDescription, primaryKeyword string) int {
	score := 0
	n := len(metaDescription)

	if n > 0 {
		switch {
		case n >= 120 && n <= 160:
			score += 8
		case n >= 80 && n <= 119:
			score += 5
		default:
			score += 2
		}
	}

	if primaryKeyword != "" && strings.Contains(strings.ToLower(metaDescription), strings.ToLower(primaryKeyword)) {
		score += 4
	}

	if n >= 50 {
		score += 3
	}

	return score
}

func scoreKeywords(doc *goquery.Document, html, primaryKeyword string) int {
	score := 0

	if primaryKeyword != "" {
		plain := stripTags(html)
		totalTokens := countWords(plain)
		tokenLength := countWords(primaryKeyword)
		if totalTokens > 0 && tokenLength > 0 {
			count := strings.Count(strings.ToLower(plain), strings.ToLower(primaryKeyword))
			density := float64(count*tokenLength) / float64(totalTokens) * 100
			switch {
			case density >= 0.5 && density <= 2.5:
				score += 8
			case (density >= 0.2 && density < 0.5) || (density > 2.5 && density <= 4.0):
				score += 4
			}
		}

		firstP := doc.Find("p").First().Text()
		if strings.Contains(strings.ToLower(firstP), strings.ToLower(primaryKeyword)) {
			score += 4
		}

		inHeading := false
		doc.Find("h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(strings.ToLower(s.Text()), strings.ToLower(primaryKeyword)) {
				inHeading = true
				return false
			}
			return true
		})
		if inHeading {
			score += 3
		}
	}

	return score
}

func scoreGEO(doc *goquery.Document) int {
	score := 0

	var headingTexts []string
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		headingTexts = append(headingTexts, s.Text())
	})

	hasFAQHeading := false
	questionHeadings := 0
	hasSummaryHeading := false
	for _, h := range headingTexts {
		lower := strings.ToLower(strings.TrimSpace(h))
		if strings.Contains(lower, "faq") || strings.Contains(lower, "frequently asked") || strings.Contains(lower, "questions") {
			hasFAQHeading = true
		}
		if strings.HasSuffix(strings.TrimSpace(h), "?") {
			questionHeadings++
		}
		if strings.Contains(lower, "summary") || strings.Contains(lower, "key takeaway") || strings.Contains(lower, "conclusion") || strings.Contains(lower, "tl;dr") || strings.Contains(lower, "tldr") {
			hasSummaryHeading = true
		}
	}

	switch {
	case hasFAQHeading:
		score += 8
	case questionHeadings >= 2:
		score += 5
	}

	if hasSummaryHeading {
		score += 5
	}

	bulletCount := doc.Find("li").Length()
	switch {
	case bulletCount >= 5:
		score += 5
	case bulletCount >= 3:
		score += 3
	}

	text := doc.Text()
	defMatches := len(definitionalPattern.FindAllString(text, -1))
	switch {
	case defMatches >= 2:
		score += 4
	case defMatches >= 1:
		score += 2
	}

	if numberWithUnitPattern.MatchString(text) {
		score += 3
	}

	return score
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(html string) string {
	return tagPattern.ReplaceAllString(html, " ")
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
