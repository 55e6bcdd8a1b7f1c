// Package quote fetches market prices from Yahoo Finance.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sjoeborg/krona/internal/common"
	"github.com/Sjoeborg/krona/internal/service"
)

const (
	defaultSearchURL = "https://query1.finance.yahoo.com/v1/finance/search"
	defaultChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	userAgent        = "krona/1.0"
)

// YahooClient implements the QuoteProvider interface against the public
// Yahoo Finance endpoints.
type YahooClient struct {
	searchURL  string
	chartURL   string
	httpClient *http.Client
}

var _ service.QuoteProvider = (*YahooClient)(nil)

// NewYahooClient creates a quote client with sane timeouts.
func NewYahooClient() *YahooClient {
	return &YahooClient{
		searchURL: defaultSearchURL,
		chartURL:  defaultChartURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Yahoo API response types
type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		Exchange  string `json:"exchange"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Search finds the best-matching listed security for a free-text query.
func (c *YahooClient) Search(ctx context.Context, query string) (service.SecurityInfo, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", "5")
	params.Set("newsCount", "0")

	var resp searchResponse
	if err := c.getJSON(ctx, c.searchURL+"?"+params.Encode(), &resp); err != nil {
		return service.SecurityInfo{}, fmt.Errorf("failed to search for %q: %w", query, err)
	}

	for _, q := range resp.Quotes {
		if q.QuoteType != "EQUITY" && q.QuoteType != "ETF" && q.QuoteType != "MUTUALFUND" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		return service.SecurityInfo{
			Symbol:   q.Symbol,
			Exchange: q.Exchange,
			Name:     name,
		}, nil
	}
	return service.SecurityInfo{}, fmt.Errorf("no security found for %q: %w", query, common.ErrNotFound)
}

// History returns daily closing prices for symbol over [start, end].
func (c *YahooClient) History(ctx context.Context, symbol string, start, end time.Time) ([]service.Quote, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")

	endpoint := fmt.Sprintf("%s/%s?%s", c.chartURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s: %w", symbol, common.ErrNotFound)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote series for %s: %w", symbol, common.ErrNotFound)
	}
	closes := result.Indicators.Quote[0].Close

	quotes := make([]service.Quote, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		quotes = append(quotes, service.Quote{
			Date:     time.Unix(ts, 0).UTC(),
			Price:    *closes[i],
			Currency: result.Meta.Currency,
		})
	}
	return quotes, nil
}

func (c *YahooClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
