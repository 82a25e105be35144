package dbConverter

import (
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/model/dbModel"
)

func ConvertPortfolio(dbPortfolio dbModel.Portfolio, dbStocks []dbModel.PortfolioStock) model.Portfolio {
	p := model.Portfolio{
		PortfolioID: dbPortfolio.PortfolioID,
		UserID:      dbPortfolio.UserID,
		Name:        dbPortfolio.Name,
		DataType:    model.DataType(dbPortfolio.DataType),
		Interval:    dbPortfolio.Interval,
		IsReadonly:  dbPortfolio.IsReadonly,
		CreatedAt:   dbPortfolio.CreatedAt,
	}

	if dbPortfolio.Period.Valid {
		p.Period = dbPortfolio.Period.String
	}
	if dbPortfolio.StartDate.Valid {
		p.StartDate = dbPortfolio.StartDate.Time
	}
	if dbPortfolio.EndDate.Valid {
		p.EndDate = dbPortfolio.EndDate.Time
	}

	p.Stocks = make([]model.PortfolioStock, 0, len(dbStocks))
	for _, s := range dbStocks {
		p.Stocks = append(p.Stocks, model.PortfolioStock{Ticker: s.Ticker, AddedAt: s.AddedAt})
	}

	return p
}

func ConvertPortfolioSummary(dbSummary dbModel.PortfolioSummary) model.PortfolioSummary {
	return model.PortfolioSummary{
		PortfolioID: dbSummary.PortfolioID,
		Name:        dbSummary.Name,
		DataType:    model.DataType(dbSummary.DataType),
		Interval:    dbSummary.Interval,
		StocksCount: dbSummary.StocksCount,
		CreatedAt:   dbSummary.CreatedAt,
	}
}

func ConvertUser(dbUser dbModel.User) model.User {
	return model.User{
		UserID:    dbUser.UserID,
		Username:  dbUser.Username,
		CreatedAt: dbUser.CreatedAt,
	}
}

func ConvertCredentials(dbCreds dbModel.Credentials) model.Credentials {
	return model.Credentials{
		UserID:       dbCreds.UserID,
		PasswordHash: dbCreds.PasswordHash,
		Salt:         dbCreds.Salt,
	}
}
