package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivgord/stockfolio/data/repository"
	"github.com/ivgord/stockfolio/internal/converter/dbConverter"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/model/dbModel"
	"github.com/ivgord/stockfolio/utils"
)

func (r *Postgres) InsertUser(ctx context.Context, username, passwordHash, salt string) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO users(username, password_hash, salt) VALUES($1, $2, $3) RETURNING user_id`

	slog.Debug("InsertUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertUser completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, username, passwordHash, salt).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return userID, nil
}

func (r *Postgres) GetCredentials(ctx context.Context, username string) (creds model.Credentials, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT user_id, password_hash, salt FROM users WHERE username = $1`

	slog.Debug("GetCredentials start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetCredentials failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetCredentials completed", slog.String("rqID", rqID))
		}
	}()

	dbCreds := dbModel.Credentials{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, username).StructScan(&dbCreds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Credentials{}, repository.ErrNotFound
		}
		return model.Credentials{}, err
	}

	return dbConverter.ConvertCredentials(dbCreds), nil
}

func (r *Postgres) GetUser(ctx context.Context, userID int64) (user model.User, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT user_id, username, created_at FROM users WHERE user_id = $1`

	slog.Debug("GetUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetUser completed", slog.String("rqID", rqID))
		}
	}()

	dbUser := dbModel.User{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, userID).StructScan(&dbUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, err
	}

	return dbConverter.ConvertUser(dbUser), nil
}
