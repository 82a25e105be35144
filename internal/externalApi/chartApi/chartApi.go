package chartApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/internal/externalApi"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/model/chartModel"
	"github.com/ivgord/stockfolio/utils"
)

// ChartApi fetches OHLCV series from a chart-style market data endpoint.
// Intraday requests are range-based and keep the exchange timezone on
// timestamps, interday requests use explicit epoch bounds and UTC dates.
type ChartApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *ChartApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.ChartApi.Url)
	return &ChartApi{client: client}
}

func (a *ChartApi) FetchSeries(ctx context.Context, tickers []string, params model.FetchParams) (model.SeriesSet, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug(
		"ChartApi.FetchSeries start",
		slog.String("rqID", rqID),
		slog.Any("tickers", tickers),
		slog.String("dataType", string(params.DataType)),
	)

	set := make(model.SeriesSet, len(tickers))
	for _, ticker := range tickers {
		series, err := a.fetchTicker(ctx, ticker, params)
		if err != nil {
			return nil, err
		}
		set[ticker] = series
	}

	slog.Debug("ChartApi.FetchSeries completed", slog.String("rqID", rqID))

	return set, nil
}

// FetchQuote returns the latest daily close for one ticker.
func (a *ChartApi) FetchQuote(ctx context.Context, ticker string) (model.Quote, error) {
	series, err := a.fetchTicker(ctx, ticker, model.FetchParams{
		DataType: model.Intraday,
		Interval: "1d",
		Period:   "1d",
	})
	if err != nil {
		return model.Quote{}, err
	}

	if len(series.Candles) == 0 {
		return model.Quote{}, fmt.Errorf("%w: no candles for %s", externalApi.ErrUnavailable, ticker)
	}

	last := series.Candles[len(series.Candles)-1]
	return model.Quote{
		Ticker:   ticker,
		Close:    last.Close,
		Currency: series.Currency,
		At:       last.Timestamp,
	}, nil
}

func (a *ChartApi) fetchTicker(ctx context.Context, ticker string, params model.FetchParams) (model.Series, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/v8/finance/chart/%s", ticker)

	queryParams := map[string]string{
		"interval":       params.Interval,
		"includePrePost": "false",
		"events":         "div,splits",
	}

	if params.DataType == model.Intraday {
		queryParams["range"] = params.Period
	} else {
		queryParams["period1"] = strconv.FormatInt(dayStartUTC(params.Start).Unix(), 10)
		// end bound is exclusive at the provider, push it one day forward
		queryParams["period2"] = strconv.FormatInt(dayStartUTC(params.End).Add(24*time.Hour).Unix(), 10)
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(queryParams).
		Get(url)

	if err != nil {
		slog.Error("error while dialing ChartApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Series{}, fmt.Errorf("%w: %s", externalApi.ErrUnavailable, err)
	}

	if resp.StatusCode() != 200 {
		slog.Warn("ChartApi non-200 response", slog.Int("status", resp.StatusCode()), slog.String("ticker", ticker), slog.String("rqID", rqID))
		return model.Series{}, fmt.Errorf("%w: status %d for %s", externalApi.ErrUnavailable, resp.StatusCode(), ticker)
	}

	rawChart := chartModel.RawChart{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshal response into chartModel.RawChart", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Series{}, err
	}

	series, err := a.parseRawChart(ticker, rawChart, params.DataType)
	if err != nil {
		slog.Error("can't parse raw chart", slog.String("err", err.Error()), slog.String("ticker", ticker), slog.String("rqID", rqID))
		return model.Series{}, err
	}

	return series, nil
}

func (a *ChartApi) parseRawChart(ticker string, rawChart chartModel.RawChart, dataType model.DataType) (model.Series, error) {
	if rawChart.Chart.Error != nil {
		return model.Series{}, fmt.Errorf("%w: %s (%s)", externalApi.ErrUnavailable, rawChart.Chart.Error.Description, rawChart.Chart.Error.Code)
	}

	if len(rawChart.Chart.Result) == 0 {
		return model.Series{}, fmt.Errorf("%w: empty result for %s", externalApi.ErrUnavailable, ticker)
	}

	result := rawChart.Chart.Result[0]

	if len(result.Indicators.Quote) == 0 {
		return model.Series{}, fmt.Errorf("%w: no quote block for %s", externalApi.ErrUnavailable, ticker)
	}

	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Close) != n || len(quote.Volume) != n {
		return model.Series{}, fmt.Errorf("quote arrays and timestamps length mismatch for %s", ticker)
	}

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	loc := time.UTC
	if dataType == model.Intraday {
		// keep the exchange timezone on intraday timestamps
		loc = time.FixedZone(result.Meta.ExchangeTimezoneName, result.Meta.GmtOffset)
	}

	series := model.Series{
		Ticker:   ticker,
		Currency: result.Meta.Currency,
		Candles:  make([]model.Candle, 0, len(result.Timestamp)),
	}

	for i, ts := range result.Timestamp {
		// provider emits nulls for halted bars, drop them
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}

		candle := model.Candle{
			Timestamp: time.Unix(ts, 0).In(loc),
			Open:      decimal.NewFromFloat(*quote.Open[i]),
			High:      decimal.NewFromFloat(*quote.High[i]),
			Low:       decimal.NewFromFloat(*quote.Low[i]),
			Close:     decimal.NewFromFloat(*quote.Close[i]),
		}

		if dataType == model.Interday {
			candle.Timestamp = candle.Timestamp.UTC().Truncate(24 * time.Hour)
		}

		if quote.Volume[i] != nil {
			candle.Volume = *quote.Volume[i]
		}

		if i < len(adjClose) && adjClose[i] != nil {
			candle.AdjClose = decimal.NewFromFloat(*adjClose[i])
		} else {
			candle.AdjClose = candle.Close
		}

		series.Candles = append(series.Candles, candle)
	}

	if len(series.Candles) == 0 {
		return model.Series{}, fmt.Errorf("%w: no data for %s in requested range", externalApi.ErrUnavailable, ticker)
	}

	return series, nil
}

func dayStartUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
