package service

import "errors"

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPortfolioExists    = errors.New("portfolio with this name already exists")
	ErrNotFound           = errors.New("not found")
	ErrReadOnlyPortfolio  = errors.New("portfolio is read-only")
	ErrTickerExists       = errors.New("ticker already in portfolio")
	ErrDataUnavailable    = errors.New("market data unavailable")
)
