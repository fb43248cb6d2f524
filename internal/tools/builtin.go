package tools

import (
	"context"
	"fmt"
	"strings"
)

// Quote carries the fields the stock lookup tool reports on.
type Quote struct {
	Name          string
	Currency      string
	Price         float64
	MarketCap     int64
	TrailingPE    float64
	RevenueGrowth float64
	Summary       string
}

// QuoteClient fetches market data for one ticker symbol.
type QuoteClient interface {
	Quote(ctx context.Context, ticker string) (Quote, error)
}

// SearchResult is one hit from a web search.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchClient runs a web search and returns the top hits.
type SearchClient interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// Passage is one retrieved span from the private knowledge base.
type Passage struct {
	Source  string
	Content string
}

// Retriever queries the private knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

const searchResultCount = 5

// StockLookup wraps a quote client as a registered tool.
func StockLookup(client QuoteClient) Tool {
	return Tool{
		Name:        "stock_lookup",
		Description: "look up a company's market data: price, market cap, valuation, revenue growth",
		Schema:      map[string]string{"ticker": "the stock ticker symbol, e.g. MSFT"},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := stringArg(args, "ticker")
			if err != nil {
				return "", err
			}
			ticker = strings.ToUpper(strings.TrimSpace(ticker))
			q, err := client.Quote(ctx, ticker)
			if err != nil {
				return "", fmt.Errorf("quote %s: %w", ticker, err)
			}
			summary := q.Summary
			if len(summary) > 500 {
				summary = summary[:500] + "..."
			}
			return fmt.Sprintf(
				"Stock: %s (%s)\nPrice: %.2f %s\nMarket cap: %d\nTrailing PE: %.2f\nRevenue growth: %.2f\nBusiness summary: %s",
				q.Name, ticker, q.Price, q.Currency, q.MarketCap, q.TrailingPE, q.RevenueGrowth, summary,
			), nil
		},
	}
}

// WebSearch wraps a search client as a registered tool.
func WebSearch(client SearchClient) Tool {
	return Tool{
		Name:        "web_search",
		Description: "search the web for recent news or general knowledge",
		Schema:      map[string]string{"query": "the search query"},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			query, err := stringArg(args, "query")
			if err != nil {
				return "", err
			}
			results, err := client.Search(ctx, query, searchResultCount)
			if err != nil {
				return "", fmt.Errorf("search: %w", err)
			}
			if len(results) == 0 {
				return "no results found", nil
			}
			var b strings.Builder
			for _, r := range results {
				fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
			}
			return b.String(), nil
		},
	}
}

// KnowledgeSearch wraps a knowledge base retriever as a registered tool.
func KnowledgeSearch(retriever Retriever) Tool {
	return Tool{
		Name:        "knowledge_search",
		Description: "query the private knowledge base for theory, methods and paper content",
		Schema:      map[string]string{"query": "what to look up in the knowledge base"},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			query, err := stringArg(args, "query")
			if err != nil {
				return "", err
			}
			passages, err := retriever.Retrieve(ctx, query, 3)
			if err != nil {
				return "", fmt.Errorf("retrieve: %w", err)
			}
			if len(passages) == 0 {
				return "no relevant passages found", nil
			}
			var b strings.Builder
			for _, p := range passages {
				fmt.Fprintf(&b, "[%s] %s\n", p.Source, p.Content)
			}
			return b.String(), nil
		},
	}
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", name)
	}
	return s, nil
}
