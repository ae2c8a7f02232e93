package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

const DefaultGoogleURL = "https://www.google.com"

const (
	redirectPrefix = "/url?q="
	redirectSuffix = "&sa="
)

// googleSelectors target the markup Google serves to clients without JavaScript.
var googleSelectors = struct {
	Block       string
	Title       string
	DisplayURL  string
	Description string
	Link        string
}{
	Block:       "div.Gx5Zad.fP1Qef.xpd.EtOod.pkphOe",
	Title:       "h3",
	DisplayURL:  "div.BNeawe.UPmit.AP7Wnd",
	Description: "div.BNeawe.s3v9rd.AP7Wnd",
	Link:        "a[href]",
}

// Google scrapes the basic HTML results page, which is served as ISO-8859-1.
type Google struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

func NewGoogle(baseURL, userAgent string, client *http.Client, logger *zap.Logger) *Google {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		logger:    logger,
	}
}

func (g *Google) Name() string {
	return SourceGoogle
}

func (g *Google) Search(ctx context.Context, query string) ([]Result, error) {
	return g.SearchPage(ctx, query, 0)
}

// SearchPage fetches the results page starting at the given result offset.
func (g *Google) SearchPage(ctx context.Context, query string, offset int) ([]Result, error) {
	searchURL := g.baseURL + "/search?q=" + url.QueryEscape(query) + "&start=" + strconv.Itoa(offset)

	g.logger.Debug("fetching results", zap.String("engine", g.Name()), zap.String("url", searchURL))
	raw, err := fetch(ctx, g.client, searchURL, map[string]string{"User-Agent": g.userAgent})
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}

	body, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("google: failed to decode body: %w", err)
	}

	return parseGoogle(body)
}

func parseGoogle(body []byte) ([]Result, error) {
	results := []Result{}
	if len(bytes.TrimSpace(body)) == 0 {
		return results, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google: failed to parse document: %w", err)
	}

	doc.Find(googleSelectors.Block).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find(googleSelectors.Link).First().Attr("href")
		results = append(results, NormalizeHTML(Candidate{
			Title:       s.Find(googleSelectors.Title).First().Text(),
			DisplayURL:  s.Find(googleSelectors.DisplayURL).First().Text(),
			Description: s.Find(googleSelectors.Description).First().Text(),
			Href:        unwrapRedirect(href),
			Source:      SourceGoogle,
		}))
	})

	return results, nil
}

// unwrapRedirect recovers the destination from a "/url?q=<target>&sa=..." link.
func unwrapRedirect(href string) string {
	target := strings.TrimPrefix(href, redirectPrefix)
	if i := strings.Index(target, redirectSuffix); i >= 0 {
		target = target[:i]
	}
	return target
}
