package chartApi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/internal/externalApi"
	"github.com/ivgord/stockfolio/internal/model"
)

func newTestApi(url string) *ChartApi {
	cfg := &config.Config{}
	cfg.API.Timeout = 5 * time.Second
	cfg.API.ChartApi.Url = url
	return New(cfg)
}

func chartBody(timestamps []int64, closes []any) string {
	quotes := ""
	for i, c := range closes {
		if i > 0 {
			quotes += ","
		}
		if c == nil {
			quotes += "null"
		} else {
			quotes += fmt.Sprintf("%v", c)
		}
	}

	ts := ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += strconv.FormatInt(t, 10)
	}

	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {
					"currency": "USD",
					"symbol": "AAPL",
					"gmtoffset": -14400,
					"exchangeTimezoneName": "America/New_York"
				},
				"timestamp": [%s],
				"indicators": {
					"quote": [{
						"open": [%s],
						"high": [%s],
						"low": [%s],
						"close": [%s],
						"volume": [%s]
					}],
					"adjclose": [{"adjclose": [%s]}]
				}
			}],
			"error": null
		}
	}`, ts, quotes, quotes, quotes, quotes, intsOf(len(timestamps)), quotes)
}

func intsOf(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "1000"
	}
	return out
}

func TestFetchSeriesIntraday(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		gotQuery = map[string]string{
			"interval": r.URL.Query().Get("interval"),
			"range":    r.URL.Query().Get("range"),
			"period1":  r.URL.Query().Get("period1"),
		}
		fmt.Fprint(w, chartBody([]int64{1700000000, 1700000060}, []any{190.5, 191.0}))
	}))
	defer srv.Close()

	api := newTestApi(srv.URL)

	set, err := api.FetchSeries(context.Background(), []string{"AAPL"}, model.FetchParams{
		DataType: model.Intraday,
		Interval: "1m",
		Period:   "5d",
	})
	require.NoError(t, err)

	assert.Equal(t, "1m", gotQuery["interval"])
	assert.Equal(t, "5d", gotQuery["range"])
	assert.Empty(t, gotQuery["period1"])

	series, ok := set["AAPL"]
	require.True(t, ok)
	assert.Equal(t, "USD", series.Currency)
	require.Len(t, series.Candles, 2)

	// intraday timestamps stay in the exchange timezone
	_, offset := series.Candles[0].Timestamp.Zone()
	assert.Equal(t, -14400, offset)
	assert.True(t, series.Candles[0].Close.Equal(series.Candles[0].AdjClose))
}

func TestFetchSeriesInterday(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"interval": r.URL.Query().Get("interval"),
			"range":    r.URL.Query().Get("range"),
			"period1":  r.URL.Query().Get("period1"),
			"period2":  r.URL.Query().Get("period2"),
		}
		fmt.Fprint(w, chartBody([]int64{1700000000}, []any{190.5}))
	}))
	defer srv.Close()

	api := newTestApi(srv.URL)

	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)

	set, err := api.FetchSeries(context.Background(), []string{"AAPL"}, model.FetchParams{
		DataType: model.Interday,
		Interval: "1d",
		Start:    start,
		End:      end,
	})
	require.NoError(t, err)

	assert.Equal(t, "1d", gotQuery["interval"])
	assert.Empty(t, gotQuery["range"])
	assert.Equal(t, strconv.FormatInt(start.Unix(), 10), gotQuery["period1"])
	// end bound is pushed one day forward so the last day is included
	assert.Equal(t, strconv.FormatInt(end.Add(24*time.Hour).Unix(), 10), gotQuery["period2"])

	series := set["AAPL"]
	require.Len(t, series.Candles, 1)

	// interday timestamps collapse to UTC day boundaries
	ts := series.Candles[0].Timestamp
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 0, ts.Hour())
}

func TestFetchSeriesDropsNullBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody([]int64{1700000000, 1700000060, 1700000120}, []any{190.5, nil, 191.0}))
	}))
	defer srv.Close()

	api := newTestApi(srv.URL)

	set, err := api.FetchSeries(context.Background(), []string{"AAPL"}, model.FetchParams{
		DataType: model.Intraday,
		Interval: "1m",
		Period:   "1d",
	})
	require.NoError(t, err)
	assert.Len(t, set["AAPL"].Candles, 2)
}

func TestFetchSeriesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	api := newTestApi(srv.URL)

	_, err := api.FetchSeries(context.Background(), []string{"NOPE"}, model.FetchParams{
		DataType: model.Intraday,
		Interval: "1m",
		Period:   "1d",
	})
	assert.ErrorIs(t, err, externalApi.ErrUnavailable)
}

func TestFetchSeriesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	api := newTestApi(srv.URL)

	_, err := api.FetchSeries(context.Background(), []string{"AAPL"}, model.FetchParams{
		DataType: model.Intraday,
		Interval: "1m",
		Period:   "1d",
	})
	assert.ErrorIs(t, err, externalApi.ErrUnavailable)
}

func TestFetchSeriesTransportError(t *testing.T) {
	api := newTestApi("http://127.0.0.1:1")

	_, err := api.FetchSeries(context.Background(), []string{"AAPL"}, model.FetchParams{
		DataType: model.Intraday,
		Interval: "1m",
		Period:   "1d",
	})
	assert.ErrorIs(t, err, externalApi.ErrUnavailable)
}

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody([]int64{1700000000, 1700003600}, []any{190.5, 192.25}))
	}))
	defer srv.Close()

	api := newTestApi(srv.URL)

	quote, err := api.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Ticker)
	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, "192.25", quote.Close.String())
}
