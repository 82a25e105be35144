package model

// DataType discriminates the two portfolio kinds. Intraday portfolios are
// period-bounded and read-only after creation, interday portfolios carry an
// explicit date range and stay mutable.
type DataType string

const (
	Intraday DataType = "intraday"
	Interday DataType = "interday"
)
