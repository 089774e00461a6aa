package di

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"trend_backend/internal/app/config"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/usecase"
	"trend_backend/internal/platform/cache"
)

// NewCandleStore はCACHE_DSNからローソク足キャッシュを生成します。
// "redis://" スキームはRedis、それ以外はCSVディレクトリとして扱います。
func NewCandleStore(cfg config.Config) (usecase.CandleStore, error) {
	if strings.HasPrefix(cfg.CacheDSN, "redis://") || strings.HasPrefix(cfg.CacheDSN, "rediss://") {
		opt, err := redis.ParseURL(cfg.CacheDSN)
		if err != nil {
			return nil, fmt.Errorf("parse CACHE_DSN: %w", err)
		}
		return cache.NewRedisCandleStore(redis.NewClient(opt), cfg.CacheExpiry, "candles"), nil
	}
	return cache.NewCSVCandleStore(cfg.CacheDSN, cfg.CacheExpiry), nil
}

// NewUniverse はCODE_LISTをインストゥルメントユニバースに解決します。
// パースできないコードが混じっている場合は起動時エラーにします。
func NewUniverse(cfg config.Config) ([]entity.Instrument, error) {
	universe := make([]entity.Instrument, 0, len(cfg.CodeList))
	for _, code := range cfg.CodeList {
		inst, err := entity.ParseInstrument(code)
		if err != nil {
			return nil, fmt.Errorf("CODE_LIST: %w", err)
		}
		universe = append(universe, inst)
	}
	return universe, nil
}
