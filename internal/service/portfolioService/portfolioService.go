// Package portfolioService implements the application core: account
// registration and login, portfolio CRUD with the intraday/interday policy,
// on-demand market data fetching and report export.
package portfolioService

import (
	"context"
	"io"
	"time"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/internal/model"
)

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	InsertUser(ctx context.Context, username, passwordHash, salt string) (userID int64, err error)
	GetCredentials(ctx context.Context, username string) (model.Credentials, error)
	GetUser(ctx context.Context, userID int64) (model.User, error)
	InsertPortfolio(ctx context.Context, p model.Portfolio) (portfolioID int64, err error)
	GetPortfolioByName(ctx context.Context, userID int64, name string) (model.Portfolio, error)
	GetPortfolios(ctx context.Context, userID int64) ([]model.PortfolioSummary, error)
	InsertStockToPortfolio(ctx context.Context, portfolioID int64, ticker string) (inserted bool, err error)
	DeleteStockFromPortfolio(ctx context.Context, portfolioID int64, ticker string) (deleted bool, err error)
	UpdatePortfolioDates(ctx context.Context, portfolioID int64, start, end time.Time) error
	DeletePortfolio(ctx context.Context, portfolioID int64) error
	GetDistinctTickers(ctx context.Context) ([]string, error)
}

type Cache interface {
	GetPortfolioSeries(ctx context.Context, portfolioID int64) (model.SeriesSet, error)
	SetPortfolioSeries(ctx context.Context, portfolioID int64, set model.SeriesSet) error
	FlushPortfolioSeries(ctx context.Context, portfolioID int64) error
	SetQuotes(ctx context.Context, quotes []model.Quote) error
	GetQuote(ctx context.Context, ticker string) (model.Quote, error)
}

type ChartApi interface {
	FetchSeries(ctx context.Context, tickers []string, params model.FetchParams) (model.SeriesSet, error)
	FetchQuote(ctx context.Context, ticker string) (model.Quote, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, portfolio model.Portfolio, set model.SeriesSet) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type PortfolioService struct {
	cfg             *config.Config
	repo            Repository
	cache           Cache
	chartApi        ChartApi
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	chartApi ChartApi,
	reportGenerator ReportGenerator,
	cloudStorage CloudStorage,
) *PortfolioService {
	return &PortfolioService{
		cfg:             cfg,
		repo:            repo,
		cache:           cache,
		chartApi:        chartApi,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
	}
}
