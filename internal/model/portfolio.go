package model

import "time"

type Portfolio struct {
	PortfolioID int64
	UserID      int64
	Name        string
	DataType    DataType
	Interval    string
	Period      string // intraday only
	StartDate   time.Time
	EndDate     time.Time // interday only, together with StartDate
	IsReadonly  bool
	CreatedAt   time.Time
	Stocks      []PortfolioStock
}

type PortfolioStock struct {
	Ticker  string
	AddedAt time.Time
}

// PortfolioSummary is the list-view projection.
type PortfolioSummary struct {
	PortfolioID int64
	Name        string
	DataType    DataType
	Interval    string
	StocksCount int
	CreatedAt   time.Time
}

func (p Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(p.Stocks))
	for _, s := range p.Stocks {
		tickers = append(tickers, s.Ticker)
	}
	return tickers
}
