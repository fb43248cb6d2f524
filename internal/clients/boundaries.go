package clients

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go-deepagent/internal/tools"
)

// QuoteHTTP fetches market data from a quote service.
type QuoteHTTP struct {
	httpJSON
}

var _ tools.QuoteClient = (*QuoteHTTP)(nil)

func NewQuote(base string, timeout time.Duration) *QuoteHTTP {
	return &QuoteHTTP{newHTTPJSON(base, timeout)}
}

func (c *QuoteHTTP) Quote(ctx context.Context, ticker string) (tools.Quote, error) {
	var payload struct {
		Name          string  `json:"name"`
		Currency      string  `json:"currency"`
		Price         float64 `json:"price"`
		MarketCap     int64   `json:"market_cap"`
		TrailingPE    float64 `json:"trailing_pe"`
		RevenueGrowth float64 `json:"revenue_growth"`
		Summary       string  `json:"summary"`
	}
	err := c.getJSON(ctx, "/quote", url.Values{"ticker": {ticker}}, &payload)
	if err != nil {
		return tools.Quote{}, err
	}
	return tools.Quote{
		Name:          payload.Name,
		Currency:      payload.Currency,
		Price:         payload.Price,
		MarketCap:     payload.MarketCap,
		TrailingPE:    payload.TrailingPE,
		RevenueGrowth: payload.RevenueGrowth,
		Summary:       payload.Summary,
	}, nil
}

// SearchHTTP runs web searches through a search service.
type SearchHTTP struct {
	httpJSON
}

var _ tools.SearchClient = (*SearchHTTP)(nil)

func NewSearch(base string, timeout time.Duration) *SearchHTTP {
	return &SearchHTTP{newHTTPJSON(base, timeout)}
}

func (c *SearchHTTP) Search(ctx context.Context, query string, k int) ([]tools.SearchResult, error) {
	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"results"`
	}
	err := c.getJSON(ctx, "/search", url.Values{"q": {query}, "k": {strconv.Itoa(k)}}, &payload)
	if err != nil {
		return nil, err
	}
	out := make([]tools.SearchResult, len(payload.Results))
	for i, r := range payload.Results {
		out[i] = tools.SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Snippet}
	}
	return out, nil
}

// RetrieverHTTP queries the knowledge base service.
type RetrieverHTTP struct {
	httpJSON
}

var _ tools.Retriever = (*RetrieverHTTP)(nil)

func NewRetriever(base string, timeout time.Duration) *RetrieverHTTP {
	return &RetrieverHTTP{newHTTPJSON(base, timeout)}
}

func (c *RetrieverHTTP) Retrieve(ctx context.Context, query string, k int) ([]tools.Passage, error) {
	body := map[string]any{"query": query, "k": k}
	var payload struct {
		Passages []struct {
			Source  string `json:"source"`
			Content string `json:"content"`
		} `json:"passages"`
	}
	if err := c.postJSON(ctx, "/retrieve", body, &payload); err != nil {
		return nil, err
	}
	out := make([]tools.Passage, len(payload.Passages))
	for i, p := range payload.Passages {
		out[i] = tools.Passage{Source: p.Source, Content: p.Content}
	}
	return out, nil
}
