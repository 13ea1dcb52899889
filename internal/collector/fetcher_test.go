package collector

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"PortfolioLedger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphaVantageFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "full", q.Get("outputsize"))
		assert.Equal(t, "secret", q.Get("apikey"))

		switch q.Get("function") {
		case "TIME_SERIES_DAILY":
			w.Write([]byte(`{"Meta Data":{},"Time Series (Daily)":{
				"2022-01-03":{"1. open":"167.5","4. close":"170.40"},
				"2022-01-04":{"4. close":"167.52"},
				"2022-01-05":{"4. close":"n/a"}}}`))
		case "TIME_SERIES_MONTHLY":
			w.Write([]byte(`{"Monthly Time Series":{"2021-12-31":{"4. close":"3334.34"}}}`))
		}
	}))
	defer srv.Close()

	f := NewAlphaVantageFetcher(srv.URL, "secret", "")
	daily, err := f.FetchSeries(model.Daily, "AMZN")
	require.NoError(t, err)
	assert.Equal(t, Series{"2022-01-03": 170.40, "2022-01-04": 167.52}, daily)

	monthly, err := f.FetchSeries(model.Yearly, "AMZN")
	require.NoError(t, err)
	assert.Equal(t, Series{"2021-12-31": 3334.34}, monthly)
}

func TestAlphaVantageFetcher_Errors(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"error message": {200, `{"Error Message":"Invalid API call."}`},
		"throttled":     {200, `{"Note":"Thank you for using Alpha Vantage!"}`},
		"information":   {200, `{"Information":"premium endpoint"}`},
		"empty":         {200, `{}`},
		"bad json":      {200, `{`},
		"status":        {500, `oops`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAlphaVantageFetcher(srv.URL, "k", "").FetchSeries(model.Daily, "AMZN")
			assert.Error(t, err)
		})
	}
}

func TestYahooFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/BRK-B", r.URL.Path)
		assert.Equal(t, "1mo", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1640995200,1643673600,1646092800],
			"indicators":{"quote":[{"close":[300.5,null,310.25]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	s, err := f.FetchSeries(model.Monthly, "BRK.B")
	require.NoError(t, err)
	assert.Equal(t, Series{"2022-01-01": 300.5, "2022-03-01": 310.25}, s)
}
