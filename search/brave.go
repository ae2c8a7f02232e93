package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const DefaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search web API.
type Brave struct {
	baseURL string
	apiKey  func() string
	client  *http.Client
	logger  *zap.Logger
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave builds the engine. apiKey is consulted on every request so a key
// rotated in the environment takes effect without a restart.
func NewBrave(baseURL string, apiKey func() string, client *http.Client, logger *zap.Logger) *Brave {
	if baseURL == "" {
		baseURL = DefaultBraveURL
	}
	if apiKey == nil {
		apiKey = func() string { return "" }
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Brave{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

func (b *Brave) Name() string {
	return SourceBrave
}

func (b *Brave) Search(ctx context.Context, query string) ([]Result, error) {
	searchURL := b.baseURL + "?q=" + url.QueryEscape(query)

	b.logger.Debug("fetching results", zap.String("engine", b.Name()), zap.String("url", searchURL))
	data, err := fetch(ctx, b.client, searchURL, map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": b.apiKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("brave: %w", err)
	}

	var resp braveResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("brave: failed to decode response: %w", err)
	}

	results := make([]Result, 0, len(resp.Web.Results))
	for _, item := range resp.Web.Results {
		results = append(results, NormalizeJSON(Candidate{
			Title:       item.Title,
			Description: item.Description,
			DisplayURL:  stripScheme(item.URL),
			Href:        item.URL,
			Source:      SourceBrave,
		}))
	}

	return results, nil
}
