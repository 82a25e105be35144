package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivgord/stockfolio/data/repository"
	"github.com/ivgord/stockfolio/internal/converter/dbConverter"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/model/dbModel"
	"github.com/ivgord/stockfolio/utils"
)

func (r *Postgres) InsertPortfolio(ctx context.Context, p model.Portfolio) (portfolioID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertPortfolio"
	query := `
		INSERT INTO portfolios(user_id, name, data_type, interval_str, period, start_date, end_date, is_readonly)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING portfolio_id
	`

	slog.Debug("InsertPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertPortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertPortfolio completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var period sql.NullString
	if p.Period != "" {
		period = sql.NullString{String: p.Period, Valid: true}
	}

	var startDate, endDate sql.NullTime
	if !p.StartDate.IsZero() {
		startDate = sql.NullTime{Time: p.StartDate, Valid: true}
	}
	if !p.EndDate.IsZero() {
		endDate = sql.NullTime{Time: p.EndDate, Valid: true}
	}

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		p.UserID,
		p.Name,
		string(p.DataType),
		p.Interval,
		period,
		startDate,
		endDate,
		p.IsReadonly,
	).Scan(&portfolioID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return portfolioID, nil
}

func (r *Postgres) GetPortfolioByName(ctx context.Context, userID int64, name string) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPortfolioByName"
	query := `
		SELECT portfolio_id, user_id, name, data_type, interval_str, period, start_date, end_date, is_readonly, created_at
		FROM portfolios
		WHERE user_id = $1
		AND name = $2
		`

	slog.Debug("GetPortfolioByName start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPortfolioByName failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPortfolioByName completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, userID, name).StructScan(&dbPortfolio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, repository.ErrNotFound
		}
		return model.Portfolio{}, err
	}

	dbStocks, err := r.getPortfolioStocks(ctx, dbPortfolio.PortfolioID)
	if err != nil {
		return model.Portfolio{}, err
	}

	return dbConverter.ConvertPortfolio(dbPortfolio, dbStocks), nil
}

func (r *Postgres) getPortfolioStocks(ctx context.Context, portfolioID int64) (stocks []dbModel.PortfolioStock, err error) {
	query := `
		SELECT portfolio_id, ticker, added_at
		FROM portfolio_stocks
		WHERE portfolio_id = $1
		ORDER BY ticker
		`

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, portfolioID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var stock dbModel.PortfolioStock
		err = rows.StructScan(&stock)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, stock)
	}

	return stocks, rows.Err()
}

func (r *Postgres) GetPortfolios(ctx context.Context, userID int64) (portfolios []model.PortfolioSummary, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPortfolios"
	query := `
		SELECT p.portfolio_id, p.name, p.data_type, p.interval_str, p.created_at,
			count(ps.ticker) AS stocks_count
		FROM portfolios p
		LEFT JOIN portfolio_stocks ps USING(portfolio_id)
		WHERE p.user_id = $1
		GROUP BY p.portfolio_id
		ORDER BY p.created_at
		`

	slog.Debug("GetPortfolios start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPortfolios failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPortfolios completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var summary dbModel.PortfolioSummary
		err = rows.StructScan(&summary)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, dbConverter.ConvertPortfolioSummary(summary))
	}

	return portfolios, rows.Err()
}

// InsertStockToPortfolio inserts one association row. A ticker already in the
// portfolio is not an error: the insert is conflict-tolerant so a duplicate
// inside a batch cannot abort the surrounding transaction. Reported via the
// inserted flag instead.
func (r *Postgres) InsertStockToPortfolio(ctx context.Context, portfolioID int64, ticker string) (inserted bool, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO portfolio_stocks(portfolio_id, ticker)
		VALUES($1, $2)
		ON CONFLICT (portfolio_id, ticker) DO NOTHING
		`

	slog.Debug("InsertStockToPortfolio start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertStockToPortfolio failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertStockToPortfolio completed", slog.String("rqID", rqID))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, portfolioID, ticker)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *Postgres) DeleteStockFromPortfolio(ctx context.Context, portfolioID int64, ticker string) (deleted bool, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteStockFromPortfolio"
	query := `
		DELETE FROM portfolio_stocks
		WHERE
			portfolio_id = $1
			AND ticker = $2
		`

	slog.Debug("DeleteStockFromPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("DeleteStockFromPortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteStockFromPortfolio completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, portfolioID, ticker)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *Postgres) UpdatePortfolioDates(ctx context.Context, portfolioID int64, start, end time.Time) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdatePortfolioDates"
	query := `
		UPDATE portfolios
		SET
			start_date = $1,
			end_date = $2
		WHERE portfolio_id = $3
	`

	slog.Debug("UpdatePortfolioDates start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdatePortfolioDates failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdatePortfolioDates completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, start, end, portfolioID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) DeletePortfolio(ctx context.Context, portfolioID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeletePortfolio"

	// portfolio_stocks rows go with it via ON DELETE CASCADE
	query := `DELETE FROM portfolios WHERE portfolio_id = $1`

	slog.Debug("DeletePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("DeletePortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeletePortfolio completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, portfolioID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *Postgres) GetDistinctTickers(ctx context.Context) (tickers []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetDistinctTickers"
	query := `SELECT DISTINCT ticker FROM portfolio_stocks ORDER BY ticker`

	slog.Debug("GetDistinctTickers start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetDistinctTickers failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetDistinctTickers completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &tickers, query)
	if err != nil {
		return nil, err
	}

	return tickers, nil
}
