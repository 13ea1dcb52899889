package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"PortfolioLedger/internal/model"
)

// DefaultAlphaVantageURL is the public Alpha Vantage endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage time series API.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	return &AlphaVantageFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avBar is one entry of an Alpha Vantage time series; only the close is used.
type avBar struct {
	Close string `json:"4. close"`
}

type avResponse struct {
	Daily        map[string]avBar `json:"Time Series (Daily)"`
	Monthly      map[string]avBar `json:"Monthly Time Series"`
	ErrorMessage string           `json:"Error Message"`
	Note         string           `json:"Note"`
	Information  string           `json:"Information"`
}

func avFunction(g model.Granularity) string {
	if g == model.Daily {
		return "TIME_SERIES_DAILY"
	}
	return "TIME_SERIES_MONTHLY"
}

func (f *AlphaVantageFetcher) FetchSeries(g model.Granularity, symbol string) (Series, error) {
	q := url.Values{}
	q.Set("function", avFunction(g))
	q.Set("symbol", symbol)
	q.Set("outputsize", "full")
	q.Set("apikey", f.APIKey)
	endpoint := f.BaseURL + "/query?" + q.Encode()

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, string(body))
	}

	var r avResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	switch {
	case r.ErrorMessage != "":
		return nil, fmt.Errorf("alphavantage api error: %s", r.ErrorMessage)
	case r.Note != "":
		return nil, fmt.Errorf("alphavantage throttled: %s", r.Note)
	case r.Information != "":
		return nil, fmt.Errorf("alphavantage: %s", r.Information)
	}

	bars := r.Monthly
	if g == model.Daily {
		bars = r.Daily
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alphavantage: no %s data for %s", strings.ToLower(g.String()), symbol)
	}

	series := make(Series, len(bars))
	for date, bar := range bars {
		c, err := strconv.ParseFloat(strings.TrimSpace(bar.Close), 64)
		if err != nil {
			continue // skip unparseable closes
		}
		series[date] = c
	}
	return series, nil
}
