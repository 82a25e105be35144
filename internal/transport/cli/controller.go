package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/policy"
	"github.com/ivgord/stockfolio/internal/service"
	"github.com/ivgord/stockfolio/internal/service/portfolioService"
)

type PortfolioService interface {
	Register(ctx context.Context, username, password string) (userID int64, err error)
	Login(ctx context.Context, username, password string) (userID int64, err error)
	CreatePortfolio(ctx context.Context, userID int64, params portfolioService.CreatePortfolioParams) (model.Portfolio, error)
	ListPortfolios(ctx context.Context, userID int64) ([]model.PortfolioSummary, error)
	GetPortfolio(ctx context.Context, userID int64, name string) (model.Portfolio, error)
	GetPortfolioData(ctx context.Context, userID int64, name string) (model.SeriesSet, error)
	AddStocks(ctx context.Context, userID int64, name string, tickers []string) (added, skipped []string, err error)
	RemoveStocks(ctx context.Context, userID int64, name string, tickers []string) (removed, missing []string, err error)
	UpdateDateRange(ctx context.Context, userID int64, name string, start, end time.Time) error
	DeletePortfolio(ctx context.Context, userID int64, name string) error
	ExportPortfolioReport(ctx context.Context, userID int64, name string) (location string, err error)
	GetQuote(ctx context.Context, ticker string) (model.Quote, error)
	Account(ctx context.Context, userID int64) (model.User, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (model.Session, error)
	SetSession(ctx context.Context, sessionID string, sess model.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// Controller translates terminal input into service calls and renders the
// results. One Controller serves one terminal run.
type Controller struct {
	cfg       *config.Config
	service   PortfolioService
	session   SessionStore
	sessionID string
	in        *bufio.Reader
	out       io.Writer
}

func NewController(cfg *config.Config, svc PortfolioService, sess SessionStore, sessionID string, in io.Reader, out io.Writer) *Controller {
	return &Controller{
		cfg:       cfg,
		service:   svc,
		session:   sess,
		sessionID: sessionID,
		in:        bufio.NewReader(in),
		out:       out,
	}
}

func (c *Controller) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Controller) prompt(label string) (string, error) {
	c.printf("%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Controller) promptTickers(label string) ([]string, error) {
	raw, err := c.prompt(label)
	if err != nil {
		return nil, err
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	return fields, nil
}

func (c *Controller) promptDate(label string) (time.Time, error) {
	raw, err := c.prompt(label)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, policy.ErrInvalidDateRange
	}
	return t, nil
}

func (c *Controller) currentSession(ctx context.Context) (model.Session, error) {
	return c.session.GetSession(ctx, c.sessionID)
}

func (c *Controller) handleRegister(ctx context.Context) error {
	username, err := c.prompt("username")
	if err != nil {
		return err
	}
	password, err := c.prompt("password")
	if err != nil {
		return err
	}

	userID, err := c.service.Register(ctx, username, password)
	if err != nil {
		c.renderError(err)
		return nil
	}

	sess := model.Session{UserID: userID, Username: strings.ToLower(username)}
	if err := c.session.SetSession(ctx, c.sessionID, sess); err != nil {
		return err
	}

	c.printf("registered and logged in as %s\n", sess.Username)
	return nil
}

func (c *Controller) handleLogin(ctx context.Context) error {
	username, err := c.prompt("username")
	if err != nil {
		return err
	}
	password, err := c.prompt("password")
	if err != nil {
		return err
	}

	userID, err := c.service.Login(ctx, username, password)
	if err != nil {
		c.renderError(err)
		return nil
	}

	sess := model.Session{UserID: userID, Username: strings.ToLower(username)}
	if err := c.session.SetSession(ctx, c.sessionID, sess); err != nil {
		return err
	}

	c.printf("logged in as %s\n", sess.Username)
	return nil
}

func (c *Controller) handleLogout(ctx context.Context) error {
	if err := c.session.DeleteSession(ctx, c.sessionID); err != nil {
		return err
	}
	c.printf("logged out\n")
	return nil
}

func (c *Controller) handleCreatePortfolio(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}
	tickers, err := c.promptTickers("tickers (comma separated)")
	if err != nil {
		return err
	}
	interval, err := c.prompt("interval (1m 2m 5m 15m 30m 60m 90m 1h / 1d 5d 1wk 1mo 3mo)")
	if err != nil {
		return err
	}

	params := portfolioService.CreatePortfolioParams{
		Name:     name,
		Tickers:  tickers,
		Interval: interval,
	}

	dataType, err := policy.Classify(interval)
	if err != nil {
		c.renderError(err)
		return nil
	}

	switch dataType {
	case model.Intraday:
		params.Period, err = c.prompt("period (1d 5d 1mo or Nd, max 60 days)")
		if err != nil {
			return err
		}
	case model.Interday:
		params.Start, err = c.promptDate("start date (YYYY-MM-DD)")
		if err != nil {
			if errors.Is(err, policy.ErrInvalidDateRange) {
				c.renderError(err)
				return nil
			}
			return err
		}
		params.End, err = c.promptDate("end date (YYYY-MM-DD)")
		if err != nil {
			if errors.Is(err, policy.ErrInvalidDateRange) {
				c.renderError(err)
				return nil
			}
			return err
		}
	}

	portfolio, err := c.service.CreatePortfolio(ctx, sess.UserID, params)
	if err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("created portfolio %q (%s, %d tickers)\n", portfolio.Name, portfolio.DataType, len(portfolio.Stocks))
	return nil
}

func (c *Controller) handleListPortfolios(ctx context.Context, sess model.Session) error {
	portfolios, err := c.service.ListPortfolios(ctx, sess.UserID)
	if err != nil {
		c.renderError(err)
		return nil
	}

	if len(portfolios) == 0 {
		c.printf("no portfolios yet\n")
		return nil
	}

	for _, p := range portfolios {
		c.printf("%-20s %-9s interval=%-4s stocks=%d\n", p.Name, p.DataType, p.Interval, p.StocksCount)
	}
	return nil
}

func (c *Controller) handleShowPortfolio(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}

	portfolio, err := c.service.GetPortfolio(ctx, sess.UserID, name)
	if err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("name: %s\ntype: %s\ninterval: %s\n", portfolio.Name, portfolio.DataType, portfolio.Interval)
	if portfolio.DataType == model.Intraday {
		c.printf("period: %s\n", portfolio.Period)
	} else {
		c.printf("range: %s .. %s\n", portfolio.StartDate.Format(time.DateOnly), portfolio.EndDate.Format(time.DateOnly))
	}
	c.printf("tickers:")
	for _, stock := range portfolio.Stocks {
		c.printf(" %s", stock.Ticker)
	}
	c.printf("\n")
	return nil
}

func (c *Controller) handleShowData(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}

	set, err := c.service.GetPortfolioData(ctx, sess.UserID, name)
	if err != nil {
		c.renderError(err)
		return nil
	}

	if len(set) == 0 {
		c.printf("portfolio has no stocks\n")
		return nil
	}

	tickers := make([]string, 0, len(set))
	for ticker := range set {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		series := set[ticker]
		c.printf("\n%s (%s), %d bars\n", series.Ticker, series.Currency, len(series.Candles))
		c.printf("%-20s %10s %10s %10s %10s %12s\n", "timestamp", "open", "high", "low", "close", "volume")
		for _, candle := range series.Candles {
			c.printf("%-20s %10s %10s %10s %10s %12d\n",
				candle.Timestamp.Format(time.DateTime),
				candle.Open.StringFixed(2),
				candle.High.StringFixed(2),
				candle.Low.StringFixed(2),
				candle.Close.StringFixed(2),
				candle.Volume,
			)
		}
	}
	return nil
}

func (c *Controller) handleAddStocks(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}
	tickers, err := c.promptTickers("tickers to add")
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		c.printf("no tickers given\n")
		return nil
	}

	added, skipped, err := c.service.AddStocks(ctx, sess.UserID, name, tickers)
	if err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("added: %s\n", strings.Join(added, ", "))
	if len(skipped) > 0 {
		c.printf("already present: %s\n", strings.Join(skipped, ", "))
	}
	return nil
}

func (c *Controller) handleRemoveStocks(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}
	tickers, err := c.promptTickers("tickers to remove")
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		c.printf("no tickers given\n")
		return nil
	}

	removed, missing, err := c.service.RemoveStocks(ctx, sess.UserID, name, tickers)
	if err != nil {
		c.renderError(err)
		return nil
	}

	if len(removed) > 0 {
		c.printf("removed: %s\n", strings.Join(removed, ", "))
	}
	if len(missing) > 0 {
		c.printf("not in portfolio: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Controller) handleUpdateDates(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}
	start, err := c.promptDate("new start date (YYYY-MM-DD)")
	if err != nil {
		if errors.Is(err, policy.ErrInvalidDateRange) {
			c.renderError(err)
			return nil
		}
		return err
	}
	end, err := c.promptDate("new end date (YYYY-MM-DD)")
	if err != nil {
		if errors.Is(err, policy.ErrInvalidDateRange) {
			c.renderError(err)
			return nil
		}
		return err
	}

	if err := c.service.UpdateDateRange(ctx, sess.UserID, name, start, end); err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("date range updated\n")
	return nil
}

func (c *Controller) handleDeletePortfolio(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}

	confirm, err := c.prompt(fmt.Sprintf("delete %q and all its stocks? (y/n)", name))
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "y") {
		c.printf("cancelled\n")
		return nil
	}

	if err := c.service.DeletePortfolio(ctx, sess.UserID, name); err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("portfolio deleted\n")
	return nil
}

func (c *Controller) handleExportReport(ctx context.Context, sess model.Session) error {
	name, err := c.prompt("portfolio name")
	if err != nil {
		return err
	}

	c.printf("exporting, this may take a while...\n")

	location, err := c.service.ExportPortfolioReport(ctx, sess.UserID, name)
	if err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("report saved: %s\n", location)
	return nil
}

func (c *Controller) handleAccount(ctx context.Context, sess model.Session) error {
	user, err := c.service.Account(ctx, sess.UserID)
	if err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("username: %s\nmember since: %s\n", user.Username, user.CreatedAt.Format(time.DateOnly))
	return nil
}

func (c *Controller) handleQuote(ctx context.Context, _ model.Session) error {
	raw, err := c.prompt("ticker")
	if err != nil {
		return err
	}

	ticker, err := policy.ValidateTicker(raw)
	if err != nil {
		c.renderError(err)
		return nil
	}

	quote, err := c.service.GetQuote(ctx, ticker)
	if err != nil {
		c.renderError(err)
		return nil
	}

	c.printf("%s: %s %s (as of %s)\n", quote.Ticker, quote.Close.StringFixed(2), quote.Currency, quote.At.Format(time.DateTime))
	return nil
}

var errMessages = map[error]string{
	policy.ErrUnknownInterval:      "unknown interval",
	policy.ErrInvalidPeriod:        "invalid period, use 1d, 5d, 1mo or Nd",
	policy.ErrPeriodTooLong:        "intraday period cannot exceed 60 days",
	policy.ErrInvalidDateRange:     "invalid date range: start must precede end, end cannot be in the future",
	policy.ErrInvalidTicker:        "invalid ticker",
	policy.ErrInvalidUsername:      "username must be 3-30 characters: letters, digits, underscore",
	policy.ErrWeakPassword:         "password must be at least 8 characters with upper, lower and digit",
	policy.ErrInvalidPortfolioName: "portfolio name must be 1-50 characters",
	service.ErrUsernameTaken:       "username already taken",
	service.ErrInvalidCredentials:  "invalid username or password",
	service.ErrPortfolioExists:     "you already have a portfolio with this name",
	service.ErrNotFound:            "portfolio not found",
	service.ErrReadOnlyPortfolio:   "intraday portfolios cannot be modified",
	service.ErrTickerExists:        "all of these tickers are already in the portfolio",
	service.ErrDataUnavailable:     "market data is unavailable right now, try again later",
}

func (c *Controller) renderError(err error) {
	for sentinel, msg := range errMessages {
		if errors.Is(err, sentinel) {
			c.printf("error: %s\n", msg)
			return
		}
	}
	c.printf("error: something went wrong, try again later\n")
}
