package model

import "time"

// FetchParams is the discriminated parameter set for the market data
// provider. DataType selects which fields are meaningful: intraday requests
// carry Period, interday requests carry Start and End. Interval is common to
// both.
type FetchParams struct {
	DataType DataType
	Interval string
	Period   string    // intraday
	Start    time.Time // interday
	End      time.Time // interday
}

// FetchParamsFor builds provider parameters from a stored portfolio.
func FetchParamsFor(p Portfolio) FetchParams {
	params := FetchParams{
		DataType: p.DataType,
		Interval: p.Interval,
	}

	if p.DataType == Intraday {
		params.Period = p.Period
	} else {
		params.Start = p.StartDate
		params.End = p.EndDate
	}

	return params
}
