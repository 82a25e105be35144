package dbModel

import (
	"database/sql"
	"time"
)

type Portfolio struct {
	PortfolioID int64          `db:"portfolio_id"`
	UserID      int64          `db:"user_id"`
	Name        string         `db:"name"`
	DataType    string         `db:"data_type"`
	Interval    string         `db:"interval_str"`
	Period      sql.NullString `db:"period"`
	StartDate   sql.NullTime   `db:"start_date"`
	EndDate     sql.NullTime   `db:"end_date"`
	IsReadonly  bool           `db:"is_readonly"`
	CreatedAt   time.Time      `db:"created_at"`
}

type PortfolioSummary struct {
	PortfolioID int64     `db:"portfolio_id"`
	Name        string    `db:"name"`
	DataType    string    `db:"data_type"`
	Interval    string    `db:"interval_str"`
	StocksCount int       `db:"stocks_count"`
	CreatedAt   time.Time `db:"created_at"`
}

type PortfolioStock struct {
	PortfolioID int64     `db:"portfolio_id"`
	Ticker      string    `db:"ticker"`
	AddedAt     time.Time `db:"added_at"`
}
