package generator

import (
	"regexp"
	"strings"
)

var (
	codeFencePattern = regexp.MustCompile("(?s)```.*?```")

	doctypePattern = regexp.MustCompile(`(?is)<!DOCTYPE[^>]*>`)
	htmlTagPattern = regexp.MustCompile(`(?is)</?html[^>]*>`)
	headTagPattern = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	bodyTagPattern = regexp.MustCompile(`(?is)</?body[^>]*>`)
	metaTagPattern = regexp.MustCompile(`(?is)<meta[^>]*>`)
	titleTagPattern = regexp.MustCompile(`(?is)<title[^>]*>.*?</title>`)
	headerTagPattern = regexp.MustCompile(`(?is)<header[^>]*>.*?</header>`)

	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

	h2MarkdownPattern = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	h3MarkdownPattern = regexp.MustCompile(`(?m)^###\s+(.+)$`)
	bulletMarkdownPattern = regexp.MustCompile(`(?m)^[*-]\s+(.+)$`)

	blankLineRunPattern = regexp.MustCompile(`\n{3,}`)
)

// metaCommentaryLinePattern matches leading meta-commentary lines like
// "Here is the article:" or "Below is a how-to guide:" without relying
// on a single brittle regex for every phrasing.
var metaCommentaryLinePattern = regexp.MustCompile(`(?i)^\s*(here is the .*article[:\s]*|here['’]s the .*article[:\s]*|below is .*[:\s]*|i['’]ve written .*[:\s]*|\[.*article\]\s*)$`)

// Clean applies the seven cleaning rules of §4.9, in order, to raw
// provider output before it is parsed into an article record. Clean is
// idempotent: Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	s := raw

	// a. Remove Markdown code fences.
	s = codeFencePattern.ReplaceAllString(s, "")

	// b. Strip document-structure tags.
	s = doctypePattern.ReplaceAllString(s, "")
	s = headTagPattern.ReplaceAllString(s, "")
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = bodyTagPattern.ReplaceAllString(s, "")
	s = metaTagPattern.ReplaceAllString(s, "")
	s = titleTagPattern.ReplaceAllString(s, "")
	s = headerTagPattern.ReplaceAllString(s, "")

	// c. Remove leading meta-commentary lines.
	lines := strings.Split(s, "\n")
	start := 0
	for start < len(lines) && metaCommentaryLinePattern.MatchString(strings.TrimSpace(lines[start])) {
		start++
	}
	s = strings.Join(lines[start:], "\n")

	// d. Remove HTML comments.
	s = htmlCommentPattern.ReplaceAllString(s, "")

	// e. If the computed title appears as the first line, remove the
	// repetition. Approximated here by dropping a leading line that is
	// itself a single heading-like line duplicating the first heading
	// found later — conservatively, drop a leading plain-text line that
	// exactly matches the text of the first heading tag or markdown
	// heading that follows it.
	s = dropLeadingTitleRepetition(s)

	// f. Convert residual Markdown headings/list markers to HTML.
	s = h2MarkdownPattern.ReplaceAllString(s, "<h2>$1</h2>")
	s = h3MarkdownPattern.ReplaceAllString(s, "<h3>$1</h3>")
	s = bulletMarkdownPattern.ReplaceAllString(s, "<li>$1</li>")

	// g. Collapse runs of 3+ blank lines to 2.
	s = blankLineRunPattern.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s) + "\n"
}

var leadingHeadingPattern = regexp.MustCompile(`(?is)^\s*<h[12][^>]*>(.*?)</h[12]>`)

func dropLeadingTitleRepetition(s string) string {
	trimmed := strings.TrimLeft(s, "\n\t ")
	lines := strings.SplitN(trimmed, "\n", 2)
	if len(lines) < 2 {
		return s
	}
	firstLine := strings.TrimSpace(lines[0])
	if firstLine == "" {
		return s
	}

	m := leadingHeadingPattern.FindStringSubmatch(lines[1])
	if m == nil {
		return s
	}
	headingText := strings.TrimSpace(stripHTML(m[1]))
	if strings.EqualFold(headingText, firstLine) {
		return lines[1]
	}
	return s
}

var anyTagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	return anyTagPattern.ReplaceAllString(s, " ")
}

var (
	slugDisallowedPattern = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespacePattern = regexp.MustCompile(`[\s-]+`)
)

// Slugify derives a URL slug from a topic title: lowercase, keep
// alphanumerics and spaces, collapse runs of whitespace/hyphens to a
// single hyphen, truncate to 60 characters, and trim any trailing
// hyphen left by truncation.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugDisallowedPattern.ReplaceAllString(s, "")
	s = slugWhitespacePattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugChars {
		s = s[:maxSlugChars]
		s = strings.TrimRight(s, "-")
	}
	return s
}
