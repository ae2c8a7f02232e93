package search

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	ellipsis            = "..."
	breadcrumbSeparator = "›"
)

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	schemePattern = regexp.MustCompile(`(?i)^https?://`)
)

// NormalizeHTML applies the repair rules for scraped HTML candidates.
// The rules run in a fixed order: the trailing slash is appended only after
// ellipsis truncation so a cut URL still ends up slash-terminated.
func NormalizeHTML(c Candidate) Result {
	displayURL := removeWhitespace(c.DisplayURL)

	url := c.Href
	if url == "" {
		url = strings.ReplaceAll(displayURL, breadcrumbSeparator, "/")
	}
	url = ensureScheme(url)

	if strings.Contains(url, ellipsis) || strings.Contains(displayURL, ellipsis) {
		url = cutAtEllipsis(url)
		displayURL = cutAtEllipsis(displayURL)
	}

	return Result{
		Title:       strings.TrimSpace(c.Title),
		Description: cleanDescription(c.Description),
		DisplayURL:  displayURL,
		URL:         ensureTrailingSlash(url),
		Source:      c.Source,
	}
}

// NormalizeJSON applies the subset of rules needed for API candidates, whose
// fields are neither space-padded nor ellipsis-truncated.
func NormalizeJSON(c Candidate) Result {
	return Result{
		Title:       strings.TrimSpace(c.Title),
		Description: cleanDescription(c.Description),
		DisplayURL:  c.DisplayURL,
		URL:         ensureTrailingSlash(ensureScheme(c.Href)),
		Source:      c.Source,
	}
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ensureScheme lower-cases an existing scheme so every URL matches ^https?://.
func ensureScheme(url string) string {
	if prefix := schemePattern.FindString(url); prefix != "" {
		return strings.ToLower(prefix) + url[len(prefix):]
	}
	return "https://" + url
}

func cutAtEllipsis(s string) string {
	if i := strings.Index(s, ellipsis); i >= 0 {
		return s[:i]
	}
	return s
}

func ensureTrailingSlash(url string) string {
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}

func stripScheme(url string) string {
	return schemePattern.ReplaceAllString(url, "")
}

func cleanDescription(desc string) string {
	desc = tagPattern.ReplaceAllString(desc, "")
	desc = strings.NewReplacer("\r\n", "", "\r", "", "\n", "").Replace(desc)
	return strings.TrimSpace(desc)
}
