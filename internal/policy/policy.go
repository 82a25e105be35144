// Package policy holds the stateless validation rules for portfolio
// parameters and account fields. Interval membership decides the portfolio
// data type, intraday periods are capped at 60 days, interday ranges must
// end no later than today.
package policy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ivgord/stockfolio/internal/model"
)

const (
	maxIntradayDays  = 60
	maxTickerLen     = 10
	maxPortfolioName = 50
	minPasswordLen   = 8
)

var intradayIntervals = map[string]struct{}{
	"1m": {}, "2m": {}, "5m": {}, "15m": {}, "30m": {}, "60m": {}, "90m": {}, "1h": {},
}

var interdayIntervals = map[string]struct{}{
	"1d": {}, "5d": {}, "1wk": {}, "1mo": {}, "3mo": {},
}

// namedPeriods maps the accepted shorthand periods to their day count.
var namedPeriods = map[string]int{
	"1d":  1,
	"5d":  5,
	"1mo": 30,
}

var (
	tickerRe   = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]*$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	periodRe   = regexp.MustCompile(`^(\d{1,3})d$`)
)

// Classify maps an interval string to its portfolio data type.
func Classify(interval string) (model.DataType, error) {
	if _, ok := intradayIntervals[interval]; ok {
		return model.Intraday, nil
	}
	if _, ok := interdayIntervals[interval]; ok {
		return model.Interday, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInterval, interval)
}

// PeriodDays parses an intraday period into a day count. Accepts the named
// shorthands and the Nd form.
func PeriodDays(period string) (int, error) {
	if days, ok := namedPeriods[period]; ok {
		return days, nil
	}

	m := periodRe.FindStringSubmatch(period)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	days, err := strconv.Atoi(m[1])
	if err != nil || days == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	return days, nil
}

// ValidateIntraday checks the period against the provider's 60-day intraday
// history limit.
func ValidateIntraday(period string) error {
	days, err := PeriodDays(period)
	if err != nil {
		return err
	}

	if days > maxIntradayDays {
		return fmt.Errorf("%w: %q", ErrPeriodTooLong, period)
	}

	return nil
}

// ValidateInterday checks that start < end and end is not in the future.
// Both bounds are treated with day granularity.
func ValidateInterday(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidDateRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if end.After(today.Add(24*time.Hour - time.Nanosecond)) {
		return fmt.Errorf("%w: end %s is in the future", ErrInvalidDateRange, end.Format(time.DateOnly))
	}

	return nil
}

// ValidateTicker normalizes a ticker to upper case and checks it against the
// exchange symbol alphabet (letters, digits, dot, hyphen).
func ValidateTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if ticker == "" || len(ticker) > maxTickerLen || !tickerRe.MatchString(ticker) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}

	return ticker, nil
}

// ValidateTickers validates and normalizes a batch, rejecting the whole batch
// on the first bad symbol. Duplicates collapse into one entry, order kept.
func ValidateTickers(tickers []string) ([]string, error) {
	validated := make([]string, 0, len(tickers))
	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		vt, err := ValidateTicker(t)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[vt]; ok {
			continue
		}
		seen[vt] = struct{}{}
		validated = append(validated, vt)
	}
	return validated, nil
}

// ValidateUsername normalizes a username to lower case. 3-30 characters,
// letters, digits and underscores only.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if !usernameRe.MatchString(username) {
		return "", fmt.Errorf("%w: must be 3-30 characters of letters, digits or underscores", ErrInvalidUsername)
	}
	return strings.ToLower(username), nil
}

// ValidatePassword enforces the fixed strength policy: at least 8 characters
// with an upper-case letter, a lower-case letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: shorter than %d characters", ErrWeakPassword, minPasswordLen)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("%w: needs upper-case, lower-case and digit characters", ErrWeakPassword)
	}

	return nil
}

// ValidatePortfolioName checks the 1-50 character bound.
func ValidatePortfolioName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxPortfolioName {
		return "", fmt.Errorf("%w: must be 1-%d characters", ErrInvalidPortfolioName, maxPortfolioName)
	}
	return name, nil
}
