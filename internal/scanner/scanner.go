// Package scanner implements the website-scan pipeline: homepage and
// navigation crawl, metadata extraction via goquery, and (when an LLM
// key is available) AI-assisted niche classification. The result is a
// WebsiteScan cached and reused until it ages past the website's
// configured scan frequency.
package scanner

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/toinevv/seo-system-blank/internal/errs"
	"github.com/toinevv/seo-system-blank/internal/httpclient"
	"github.com/toinevv/seo-system-blank/internal/models"
)

const (
	homepageTimeout = 10 * time.Second
	navPageTimeout  = 6 * time.Second
	maxNavLinks     = 10
	maxNavFetches   = 5
	maxKeywords     = 50
	maxHeadings     = 30
	maxAIHeadings   = 20
	maxAIKeywords   = 30
)

// Analyzer calls an LLM to distill a niche description, themes, and
// extra keywords from scraped page metadata. It is satisfied by the
// provider package's AI analysis helper; kept as an interface here so
// the scanner has no direct provider dependency.
type Analyzer interface {
	AnalyzeSite(ctx context.Context, apiKey, title, metaDescription string, headings, keywords []string) (niche string, themes, extraKeywords []string, language string, err error)
}

// page is one fetched-and-parsed HTML page's extracted metadata.
type page struct {
	title    string
	meta     string
	headings []string
	keywords []string
	navLinks []models.NavLink
}

// Scan runs the full algorithm in spec §4.6 against domain and returns
// the resulting WebsiteScan. aiKey may be empty, in which case step 7
// (AI analysis) is skipped and NicheDescription is left empty.
func Scan(ctx context.Context, websiteID, domain, aiKey string, analyzer Analyzer) (*models.WebsiteScan, error) {
	home, homeURL, err := fetchHomepage(ctx, domain)
	if err != nil {
		return nil, &errs.ScanError{WebsiteID: websiteID, Reason: err.Error()}
	}

	merged := parsePage(home, homeURL)

	navTargets := merged.navLinks
	if len(navTargets) > maxNavFetches {
		navTargets = navTargets[:maxNavFetches]
	}
	for _, link := range navTargets {
		body, err := httpclient.FetchPage(ctx, link.URL, navPageTimeout)
		if err != nil {
			continue // a failed nav-page fetch does not fail the whole scan
		}
		sub := parsePage(body, homeURL)
		merged.headings = append(merged.headings, sub.headings...)
		merged.keywords = append(merged.keywords, sub.keywords...)
	}

	merged.headings = dedupe(merged.headings)
	merged.keywords = dedupe(merged.keywords)

	scan := &models.WebsiteScan{
		WebsiteID:       websiteID,
		HomepageTitle:   merged.title,
		MetaDescription: merged.meta,
		MainKeywords:    cap50(merged.keywords, maxKeywords),
		Headings:        cap50(merged.headings, maxHeadings),
		NavLinks:        capNav(merged.navLinks, maxNavLinks),
		PagesScanned:    1 + len(navTargets),
		Status:          models.ScanCompleted,
		LastScannedAt:   time.Now().UTC(),
	}

	if aiKey != "" && analyzer != nil {
		aiHeadings := cap50(scan.Headings, maxAIHeadings)
		aiKeywords := cap50(scan.MainKeywords, maxAIKeywords)
		niche, themes, extraKeywords, _, err := analyzer.AnalyzeSite(ctx, aiKey, scan.HomepageTitle, scan.MetaDescription, aiHeadings, aiKeywords)
		if err == nil {
			scan.NicheDescription = niche
			scan.ContentThemes = themes
			scan.MainKeywords = cap50(dedupe(append(scan.MainKeywords, extraKeywords...)), maxKeywords)
		}
	}

	return scan, nil
}

// ShouldReuse reports whether an existing scan is still fresh enough
// that a new scan should be skipped, per the reuse policy in §4.6.
func ShouldReuse(scan *models.WebsiteScan, scanFrequencyDays int) bool {
	if scan == nil || scan.Status != models.ScanCompleted {
		return false
	}
	age := time.Since(scan.LastScannedAt)
	return age < time.Duration(scanFrequencyDays)*24*time.Hour
}

// fetchHomepage fetches domain's homepage, retrying once against the
// www.-prefixed variant on failure.
func fetchHomepage(ctx context.Context, domain string) (body string, effectiveURL string, err error) {
	primary := normalizeURL(domain)
	body, err = httpclient.FetchPage(ctx, primary, homepageTimeout)
	if err == nil {
		return body, primary, nil
	}

	wwwURL := withWWW(primary)
	if wwwURL == primary {
		return "", "", err
	}
	body, wwwErr := httpclient.FetchPage(ctx, wwwURL, homepageTimeout)
	if wwwErr != nil {
		return "", "", err
	}
	return body, wwwURL, nil
}

func normalizeURL(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

func withWWW(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	if strings.HasPrefix(parsed.Host, "www.") {
		return u
	}
	parsed.Host = "www." + parsed.Host
	return parsed.String()
}

var keywordSplitPattern = regexp.MustCompile(`[-|:,]`)

// parsePage extracts title, meta description, h1/h2 headings,
// candidate keywords, and navigation links from one HTML page, per
// steps 3-4 of §4.6.
func parsePage(html, baseURL string) page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return page{}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	meta, _ := doc.Find(`meta[name="description"]`).Attr("content")
	metaKeywordsAttr, _ := doc.Find(`meta[name="keywords"]`).Attr("content")

	var headings []string
	doc.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			headings = append(headings, text)
		}
	})

	keywords := extractKeywordTokens(metaKeywordsAttr)
	keywords = append(keywords, extractKeywordTokens(title)...)
	for _, h := range headings {
		keywords = append(keywords, extractKeywordTokens(h)...)
	}

	navLinks := extractNavLinks(doc, baseURL)

	return page{
		title:    title,
		meta:     strings.TrimSpace(meta),
		headings: headings,
		keywords: keywords,
		navLinks: navLinks,
	}
}

// extractKeywordTokens splits on "- | : ," and keeps tokens 4-25
// characters long, matching the candidate-keyword rule in §4.6 step 3.
func extractKeywordTokens(text string) []string {
	var out []string
	for _, raw := range keywordSplitPattern.Split(text, -1) {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if len(tok) >= 4 && len(tok) <= 25 {
			out = append(out, tok)
		}
	}
	return out
}

// extractNavLinks scans <nav> and <header> regions, resolves relative
// URLs against baseURL, and drops fragment-only, javascript:, and
// cross-domain links.
func extractNavLinks(doc *goquery.Document, baseURL string) []models.NavLink {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []models.NavLink
	doc.Find("nav a[href], header a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Host != "" && resolved.Host != base.Host {
			return
		}
		resolved.Fragment = ""
		text := strings.TrimSpace(s.Text())
		links = append(links, models.NavLink{URL: resolved.String(), Text: text})
	})
	return links
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func cap50(in []string, n int) []string {
	if len(in) <= n {
		return in
	}
	return in[:n]
}

func capNav(in []models.NavLink, n int) []models.NavLink {
	seen := make(map[string]bool, len(in))
	out := make([]models.NavLink, 0, n)
	for _, link := range in {
		if seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		out = append(out, link)
		if len(out) == n {
			break
		}
	}
	return out
}
