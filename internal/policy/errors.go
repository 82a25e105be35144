package policy

import "errors"

var (
	ErrUnknownInterval      = errors.New("unknown interval")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrPeriodTooLong        = errors.New("intraday period exceeds 60 days")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrInvalidTicker        = errors.New("invalid ticker")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrWeakPassword         = errors.New("weak password")
	ErrInvalidPortfolioName = errors.New("invalid portfolio name")
)
