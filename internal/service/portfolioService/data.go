package portfolioService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ivgord/stockfolio/internal/externalApi"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/service"
	"github.com/ivgord/stockfolio/utils"
)

// GetPortfolioData returns the series set for every ticker of the portfolio,
// read-through via the Redis cache.
func (s *PortfolioService) GetPortfolioData(ctx context.Context, userID int64, name string) (model.SeriesSet, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetPortfolioData"

	slog.Debug("GetPortfolioData start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	defer func() {
		slog.Debug("GetPortfolioData finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	}()

	portfolio, err := s.GetPortfolio(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	if len(portfolio.Stocks) == 0 {
		return model.SeriesSet{}, nil
	}

	set, err := s.cache.GetPortfolioSeries(ctx, portfolio.PortfolioID)
	if err == nil {
		return set, nil
	}

	slog.Warn("can't get series from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	set, err = s.chartApi.FetchSeries(ctx, portfolio.Tickers(), model.FetchParamsFor(portfolio))
	if err != nil {
		if errors.Is(err, externalApi.ErrUnavailable) {
			return nil, service.ErrDataUnavailable
		}
		slog.Error("got error from chartApi.FetchSeries", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	go s.cache.SetPortfolioSeries(context.WithoutCancel(ctx), portfolio.PortfolioID, set)

	return set, nil
}

// GetQuote returns the latest close for a ticker, from the warm cache when
// possible.
func (s *PortfolioService) GetQuote(ctx context.Context, ticker string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetQuote"

	quote, err := s.cache.GetQuote(ctx, ticker)
	if err == nil {
		return quote, nil
	}

	slog.Warn("can't get quote from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	quote, err = s.chartApi.FetchQuote(ctx, ticker)
	if err != nil {
		if errors.Is(err, externalApi.ErrUnavailable) {
			return model.Quote{}, service.ErrDataUnavailable
		}
		return model.Quote{}, err
	}

	go s.cache.SetQuotes(context.WithoutCancel(ctx), []model.Quote{quote})

	return quote, nil
}

// WarmQuotesCache refreshes the latest quote for every ticker referenced by
// any portfolio. Runs on the scheduler.
func (s *PortfolioService) WarmQuotesCache(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.WarmQuotesCache"

	slog.Debug("WarmQuotesCache start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("WarmQuotesCache finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	tickers, err := s.repo.GetDistinctTickers(ctx)
	if err != nil {
		return err
	}

	quotes := make([]model.Quote, 0, len(tickers))
	for _, ticker := range tickers {
		quote, err := s.chartApi.FetchQuote(ctx, ticker)
		if err != nil {
			slog.Warn("can't fetch quote", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("err", err.Error()))
			continue
		}
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil
	}

	return s.cache.SetQuotes(ctx, quotes)
}

// ExportPortfolioReport renders the portfolio's current data into an xlsx
// workbook. The file is uploaded to cloud storage when configured, otherwise
// saved under the report directory. Returns the link or the local path.
func (s *PortfolioService) ExportPortfolioReport(ctx context.Context, userID int64, name string) (location string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ExportPortfolioReport"

	slog.Debug("ExportPortfolioReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	defer func() {
		slog.Debug("ExportPortfolioReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	}()

	portfolio, err := s.GetPortfolio(ctx, userID, name)
	if err != nil {
		return "", err
	}

	set, err := s.GetPortfolioData(ctx, userID, name)
	if err != nil {
		return "", err
	}

	fileBytes, fileExtension, err := s.reportGenerator.Generate(ctx, portfolio, set)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	filename := fmt.Sprintf("%s_%s%s", portfolio.Name, time.Now().Format("20060102_150405"), fileExtension)

	if s.cloudStorage != nil {
		link, err := s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
		if err == nil {
			return link, nil
		}
		slog.Warn("cloud upload failed, falling back to local file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	if err := os.MkdirAll(s.cfg.Report.Dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.Report.Dir, filename)
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return "", err
	}

	return path, nil
}

// refreshSeries re-fetches and caches the portfolio's series. Best-effort:
// failures are logged, the committed mutation stands either way.
func (s *PortfolioService) refreshSeries(ctx context.Context, portfolio model.Portfolio) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.refreshSeries"

	if len(portfolio.Stocks) == 0 {
		return
	}

	set, err := s.chartApi.FetchSeries(ctx, portfolio.Tickers(), model.FetchParamsFor(portfolio))
	if err != nil {
		slog.Warn("refresh fetch failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return
	}

	if err := s.cache.SetPortfolioSeries(ctx, portfolio.PortfolioID, set); err != nil {
		slog.Warn("can't cache refreshed series", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}

// refetchTickers pulls data for tickers just added to the portfolio over its
// stored range. Best-effort, same as refreshSeries.
func (s *PortfolioService) refetchTickers(ctx context.Context, portfolio model.Portfolio, tickers []string) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.refetchTickers"

	_, err := s.chartApi.FetchSeries(ctx, tickers, model.FetchParamsFor(portfolio))
	if err != nil {
		slog.Warn("refetch for added tickers failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}
