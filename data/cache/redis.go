package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/utils"
)

var ErrCacheMiss = errors.New("cache miss")

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func seriesKey(portfolioID int64) string {
	return fmt.Sprintf("series:%d", portfolioID)
}

func quoteKey(ticker string) string {
	return fmt.Sprintf("quote:%s", ticker)
}

func (r *RedisCache) SetPortfolioSeries(ctx context.Context, portfolioID int64, set model.SeriesSet) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetPortfolioSeries start", slog.String("rqID", rqID))

	payload, err := json.Marshal(set)
	if err != nil {
		slog.Error("can't marshal series set", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	err = r.redis.Set(ctx, seriesKey(portfolioID), payload, r.cfg.Cache.SeriesExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetPortfolioSeries completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetPortfolioSeries(ctx context.Context, portfolioID int64) (model.SeriesSet, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetPortfolioSeries start", slog.String("rqID", rqID))

	res, err := r.redis.Get(ctx, seriesKey(portfolioID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	set := model.SeriesSet{}
	err = json.Unmarshal([]byte(res), &set)
	if err != nil {
		slog.Error("can't unmarshal series set", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("GetPortfolioSeries completed", slog.String("rqID", rqID))

	return set, nil
}

// FlushPortfolioSeries drops the cached series after any portfolio mutation.
func (r *RedisCache) FlushPortfolioSeries(ctx context.Context, portfolioID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("FlushPortfolioSeries start", slog.String("rqID", rqID))

	err := r.redis.Del(ctx, seriesKey(portfolioID)).Err()
	if err != nil {
		slog.Error("failed on redis.Del", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (r *RedisCache) SetQuotes(ctx context.Context, quotes []model.Quote) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetQuotes start", slog.String("rqID", rqID))

	pipe := r.redis.Pipeline()
	for _, quote := range quotes {
		payload, err := json.Marshal(quote)
		if err != nil {
			slog.Error("can't marshal quote", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.Any("quote", quote))
			return err
		}

		pipe.Set(ctx, quoteKey(quote.Ticker), payload, r.cfg.Cache.QuotesExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetQuotes completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetQuote(ctx context.Context, ticker string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetQuote start", slog.String("rqID", rqID))

	res, err := r.redis.Get(ctx, quoteKey(ticker)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Quote{}, ErrCacheMiss
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", quoteKey(ticker)))
		return model.Quote{}, err
	}

	quote := model.Quote{}
	err = json.Unmarshal([]byte(res), &quote)
	if err != nil {
		slog.Error("can't unmarshal quote", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.Quote{}, err
	}

	slog.Debug("GetQuote completed", slog.String("rqID", rqID))

	return quote, nil
}
