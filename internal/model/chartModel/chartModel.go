package chartModel

// RawChart mirrors the provider's chart response envelope.
type RawChart struct {
	Chart struct {
		Result []RawResult `json:"result"`
		Error  *RawError   `json:"error"`
	} `json:"chart"`
}

type RawError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type RawResult struct {
	Meta struct {
		Currency             string `json:"currency"`
		Symbol               string `json:"symbol"`
		GmtOffset            int    `json:"gmtoffset"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}
