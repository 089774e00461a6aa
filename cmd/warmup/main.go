package main

import (
	"context"
	"log"
	"time"

	"trend_backend/internal/app/config"
	"trend_backend/internal/app/di"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/usecase"
	"trend_backend/internal/shared/ratelimiter"
	"trend_backend/internal/shared/retry"
)

// warmupIntervals はプリフェッチ対象の時間足です。
var warmupIntervals = []entity.Interval{
	entity.IntervalDay,
	entity.IntervalWeek,
	entity.IntervalMonth,
}

// ユニバース全銘柄のローソク足を取得してキャッシュを温めるバッチです。
// 市場が開く前に定期実行することを想定しています。
func main() {
	cfg := config.Load()

	universe, err := di.NewUniverse(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if len(universe) == 0 {
		log.Fatal("CODE_LIST is empty, nothing to warm up")
	}

	market, err := di.NewMarket(cfg)
	if err != nil {
		log.Fatal(err)
	}
	store, err := di.NewCandleStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// 上流のレート制限に合わせて呼び出し頻度を抑える
	limiter := ratelimiter.NewRateLimiter(30, time.Minute)

	if failed := warmup(ctx, universe, market, store, limiter); failed > 0 {
		log.Fatalf("warmup finished with %d failures", failed)
	}
	log.Println("warmup ok")
}

// warmup はユニバース×時間足の全組み合わせをプリフェッチし、失敗数を返します。
// 個々の失敗はログに残して続行します（1銘柄の不調で全体を止めない）。
func warmup(ctx context.Context, universe []entity.Instrument,
	market usecase.MarketRepository, store usecase.CandleStore,
	limiter ratelimiter.RateLimiterInterface) int {

	var failed int
	for _, inst := range universe {
		for _, interval := range warmupIntervals {
			limiter.WaitIfNeeded()

			err := retry.Do(ctx, 2, func() error {
				candles, err := market.FetchCandles(ctx, inst, interval, 1000)
				if err != nil {
					return err
				}
				if len(candles) == 0 {
					log.Printf("[WARN] no data for %s %s", inst.Key(), interval)
					return nil
				}
				return store.Put(ctx, inst, interval, candles)
			})
			if err != nil {
				failed++
				log.Printf("[ERROR] warmup %s %s: %v", inst.Key(), interval, err)
			}
		}
	}
	return failed
}
