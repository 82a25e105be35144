package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar of a price series.
type Candle struct {
	Timestamp time.Time       `json:"ts"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	AdjClose  decimal.Decimal `json:"adjClose"`
	Volume    int64           `json:"volume"`
}

// Series is the fetched time series for one ticker.
type Series struct {
	Ticker   string   `json:"ticker"`
	Currency string   `json:"currency"`
	Candles  []Candle `json:"candles"`
}

// SeriesSet maps ticker to its series, the unit returned by one portfolio
// data fetch.
type SeriesSet map[string]Series

// Quote is the cached latest close for one ticker, refreshed by the
// background warm job.
type Quote struct {
	Ticker   string          `json:"ticker"`
	Close    decimal.Decimal `json:"close"`
	Currency string          `json:"currency"`
	At       time.Time       `json:"at"`
}
