package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const DefaultDuckDuckGoURL = "https://html.duckduckgo.com"

// DuckDuckGo scrapes the JavaScript-free HTML results page.
type DuckDuckGo struct {
	baseURL   string
	collector *colly.Collector
	logger    *zap.Logger
}

func NewDuckDuckGo(baseURL, userAgent string, client *http.Client, logger *zap.Logger) *DuckDuckGo {
	if baseURL == "" {
		baseURL = DefaultDuckDuckGoURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	if client != nil {
		c.SetClient(client)
	}

	return &DuckDuckGo{
		baseURL:   strings.TrimRight(baseURL, "/"),
		collector: c,
		logger:    logger,
	}
}

func (d *DuckDuckGo) Name() string {
	return SourceDuckDuckGo
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	searchURL := d.baseURL + "/html?q=" + url.QueryEscape(query)

	// Clone shares the HTTP backend but keeps callbacks local to this search.
	c := d.collector.Clone()
	c.Context = ctx

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	d.logger.Debug("fetching results", zap.String("engine", d.Name()), zap.String("url", searchURL))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}

	return parseDuckDuckGo(body)
}

func parseDuckDuckGo(body []byte) ([]Result, error) {
	results := []Result{}
	if len(bytes.TrimSpace(body)) == 0 {
		return results, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: failed to parse document: %w", err)
	}

	if doc.Find(".result--no-result").Length() > 0 {
		return results, nil
	}

	doc.Find(".results_links_deep").Each(func(_ int, s *goquery.Selection) {
		results = append(results, NormalizeHTML(Candidate{
			Title:       s.Find(".result__title a").Text(),
			DisplayURL:  s.Find(".result__url").Text(),
			Description: strings.TrimSpace(s.Find(".result__snippet").Text()),
			Source:      SourceDuckDuckGo,
		}))
	})

	return results, nil
}
