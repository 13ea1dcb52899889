package collector

import (
	"net/http"
	"net/url"
	"time"

	"PortfolioLedger/internal/model"
)

// Series maps a yyyy-mm-dd date to that day's closing price.
type Series map[string]float64

// Fetcher retrieves the full closing-price history of a symbol. Daily
// requests return daily closes; Monthly and Yearly both return month-end
// closes.
type Fetcher interface {
	FetchSeries(g model.Granularity, symbol string) (Series, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
