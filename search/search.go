package search

import "context"

const (
	SourceDuckDuckGo = "DuckDuckGo"
	SourceBrave      = "Brave"
	SourceGoogle     = "Google"
)

// Result is one normalized search hit.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DisplayURL  string `json:"displayUrl"`
	URL         string `json:"url"`
	Source      string `json:"source"`
}

// Engine fetches a single results page from one search backend.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

// Candidate holds the raw fields scraped from a provider before normalization.
type Candidate struct {
	Title       string
	Description string
	DisplayURL  string
	Href        string
	Source      string
}
