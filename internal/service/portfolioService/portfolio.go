package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivgord/stockfolio/data/repository"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/policy"
	"github.com/ivgord/stockfolio/internal/service"
	"github.com/ivgord/stockfolio/utils"
)

// CreatePortfolioParams carries the raw creation input. Interval decides the
// data type: intraday portfolios take Period, interday ones take Start/End.
type CreatePortfolioParams struct {
	Name     string
	Tickers  []string
	Interval string
	Period   string
	Start    time.Time
	End      time.Time
}

func (s *PortfolioService) CreatePortfolio(ctx context.Context, userID int64, params CreatePortfolioParams) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.CreatePortfolio"

	slog.Debug("CreatePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", params.Name))
	defer func() {
		slog.Debug("CreatePortfolio finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", params.Name))
	}()

	name, err := policy.ValidatePortfolioName(params.Name)
	if err != nil {
		return model.Portfolio{}, err
	}

	tickers, err := policy.ValidateTickers(params.Tickers)
	if err != nil {
		return model.Portfolio{}, err
	}

	dataType, err := policy.Classify(params.Interval)
	if err != nil {
		return model.Portfolio{}, err
	}

	portfolio = model.Portfolio{
		UserID:   userID,
		Name:     name,
		DataType: dataType,
		Interval: params.Interval,
	}

	switch dataType {
	case model.Intraday:
		if err = policy.ValidateIntraday(params.Period); err != nil {
			return model.Portfolio{}, err
		}
		portfolio.Period = params.Period
		portfolio.IsReadonly = true
	case model.Interday:
		if err = policy.ValidateInterday(params.Start, params.End); err != nil {
			return model.Portfolio{}, err
		}
		portfolio.StartDate = params.Start
		portfolio.EndDate = params.End
	}

	// portfolio row and its stock rows commit or roll back together
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		portfolioID, txErr := s.repo.InsertPortfolio(ctx, portfolio)
		if txErr != nil {
			return txErr
		}
		portfolio.PortfolioID = portfolioID

		for _, ticker := range tickers {
			if _, txErr = s.repo.InsertStockToPortfolio(ctx, portfolioID, ticker); txErr != nil {
				return txErr
			}
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.Portfolio{}, service.ErrPortfolioExists
		}
		slog.Error("got error creating portfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, err
	}

	for _, ticker := range tickers {
		portfolio.Stocks = append(portfolio.Stocks, model.PortfolioStock{Ticker: ticker})
	}

	if s.cfg.RefetchOnChange {
		// initial fetch warms the cache, portfolio creation already committed
		go s.refreshSeries(context.WithoutCancel(ctx), portfolio)
	}

	return portfolio, nil
}

func (s *PortfolioService) ListPortfolios(ctx context.Context, userID int64) ([]model.PortfolioSummary, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ListPortfolios"

	slog.Debug("ListPortfolios start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ListPortfolios finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	portfolios, err := s.repo.GetPortfolios(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetPortfolios", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return portfolios, nil
}

// GetPortfolio loads a portfolio with its stock set. Ownership is part of
// the lookup, a foreign portfolio is indistinguishable from a missing one.
func (s *PortfolioService) GetPortfolio(ctx context.Context, userID int64, name string) (model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetPortfolio"

	portfolio, err := s.repo.GetPortfolioByName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Portfolio{}, service.ErrNotFound
		}
		slog.Error("got error from repo.GetPortfolioByName", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, err
	}

	return portfolio, nil
}

// AddStocks inserts new tickers into an interday portfolio. Tickers already
// present are skipped and reported back, not treated as a failure, unless
// nothing at all was added.
func (s *PortfolioService) AddStocks(ctx context.Context, userID int64, name string, tickers []string) (added, skipped []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.AddStocks"

	slog.Debug("AddStocks start", slog.String("rqID", rqID), slog.String("op", op), slog.Any("tickers", tickers))
	defer func() {
		slog.Debug("AddStocks finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	portfolio, err := s.GetPortfolio(ctx, userID, name)
	if err != nil {
		return nil, nil, err
	}

	if portfolio.IsReadonly {
		return nil, nil, service.ErrReadOnlyPortfolio
	}

	tickers, err = policy.ValidateTickers(tickers)
	if err != nil {
		return nil, nil, err
	}

	if len(tickers) == 0 {
		return nil, nil, fmt.Errorf("%w: empty ticker batch", policy.ErrInvalidTicker)
	}

	// the insert is conflict-tolerant, so a duplicate in the batch cannot
	// abort the transaction and drop the rest
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, ticker := range tickers {
			inserted, txErr := s.repo.InsertStockToPortfolio(ctx, portfolio.PortfolioID, ticker)
			if txErr != nil {
				return txErr
			}
			if inserted {
				added = append(added, ticker)
			} else {
				skipped = append(skipped, ticker)
			}
		}
		return nil
	})

	if err != nil {
		slog.Error("got error adding stocks", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, nil, err
	}

	if len(added) == 0 {
		return nil, skipped, service.ErrTickerExists
	}

	s.flushSeries(ctx, portfolio.PortfolioID)

	if s.cfg.RefetchOnChange {
		go s.refetchTickers(context.WithoutCancel(ctx), portfolio, added)
	}

	return added, skipped, nil
}

// RemoveStocks deletes matching association rows. A ticker that was never a
// member is a no-op and is reported in missing.
func (s *PortfolioService) RemoveStocks(ctx context.Context, userID int64, name string, tickers []string) (removed, missing []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RemoveStocks"

	slog.Debug("RemoveStocks start", slog.String("rqID", rqID), slog.String("op", op), slog.Any("tickers", tickers))
	defer func() {
		slog.Debug("RemoveStocks finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	portfolio, err := s.GetPortfolio(ctx, userID, name)
	if err != nil {
		return nil, nil, err
	}

	if portfolio.IsReadonly {
		return nil, nil, service.ErrReadOnlyPortfolio
	}

	tickers, err = policy.ValidateTickers(tickers)
	if err != nil {
		return nil, nil, err
	}

	if len(tickers) == 0 {
		return nil, nil, fmt.Errorf("%w: empty ticker batch", policy.ErrInvalidTicker)
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, ticker := range tickers {
			deleted, txErr := s.repo.DeleteStockFromPortfolio(ctx, portfolio.PortfolioID, ticker)
			if txErr != nil {
				return txErr
			}
			if deleted {
				removed = append(removed, ticker)
			} else {
				missing = append(missing, ticker)
			}
		}
		return nil
	})

	if err != nil {
		slog.Error("got error removing stocks", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, nil, err
	}

	if len(removed) > 0 {
		s.flushSeries(ctx, portfolio.PortfolioID)
	}

	return removed, missing, nil
}

// UpdateDateRange moves the date window of an interday portfolio.
func (s *PortfolioService) UpdateDateRange(ctx context.Context, userID int64, name string, start, end time.Time) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.UpdateDateRange"

	slog.Debug("UpdateDateRange start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	defer func() {
		slog.Debug("UpdateDateRange finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	}()

	portfolio, err := s.GetPortfolio(ctx, userID, name)
	if err != nil {
		return err
	}

	if portfolio.IsReadonly || portfolio.DataType == model.Intraday {
		return service.ErrReadOnlyPortfolio
	}

	if err = policy.ValidateInterday(start, end); err != nil {
		return err
	}

	if err = s.repo.UpdatePortfolioDates(ctx, portfolio.PortfolioID, start, end); err != nil {
		slog.Error("got error from repo.UpdatePortfolioDates", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	s.flushSeries(ctx, portfolio.PortfolioID)

	if s.cfg.RefetchOnChange {
		portfolio.StartDate = start
		portfolio.EndDate = end
		go s.refreshSeries(context.WithoutCancel(ctx), portfolio)
	}

	return nil
}

func (s *PortfolioService) DeletePortfolio(ctx context.Context, userID int64, name string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.DeletePortfolio"

	slog.Debug("DeletePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	defer func() {
		slog.Debug("DeletePortfolio finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	}()

	portfolio, err := s.GetPortfolio(ctx, userID, name)
	if err != nil {
		return err
	}

	if err = s.repo.DeletePortfolio(ctx, portfolio.PortfolioID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeletePortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	s.flushSeries(ctx, portfolio.PortfolioID)

	return nil
}

func (s *PortfolioService) flushSeries(ctx context.Context, portfolioID int64) {
	// flushed synchronously so the next read cannot race a stale entry
	if err := s.cache.FlushPortfolioSeries(ctx, portfolioID); err != nil {
		slog.Error("got error from cache.FlushPortfolioSeries", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
	}
}
