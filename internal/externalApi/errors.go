package externalApi

import "errors"

var (
	// ErrUnavailable covers unknown ticker, empty range and transport
	// failures alike. The provider does not reliably distinguish them.
	ErrUnavailable = errors.New("market data unavailable")
)
