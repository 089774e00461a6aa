// Package usecase はチャートデータ組み立てのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"trend_backend/internal/feature/chart/domain"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/indicator"
	paramsentity "trend_backend/internal/feature/params/domain/entity"
)

const (
	// DefaultInterval はローソク足クエリのデフォルト時間足です。
	DefaultInterval = entity.IntervalDay
	// DefaultMaxCount はデフォルトのローソク足返却件数です。
	DefaultMaxCount = 1000
	// MaxMaxCount はローソク足の最大返却件数です。
	MaxMaxCount = 5000
)

// MarketRepository は上流プロバイダからローソク足を取得するリポジトリを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	// FetchCandles はインストゥルメントの直近count本のローソク足を昇順で返します。
	FetchCandles(ctx context.Context, inst entity.Instrument, interval entity.Interval, count int) ([]entity.Candle, error)
}

// CandleStore はローソク足キャッシュの読み書きレイヤーを抽象化します。
// Getの第2戻り値はフレッシュヒットかどうかで、「未取得」と「期限切れ」は
// どちらもfalseとなり呼び出し側からは区別できません（どちらも再取得する）。
type CandleStore interface {
	Get(ctx context.Context, inst entity.Instrument, interval entity.Interval) ([]entity.Candle, bool, error)
	Put(ctx context.Context, inst entity.Instrument, interval entity.Interval, candles []entity.Candle) error
}

// ParamsSource は銘柄別チューニング済みパラメータの検索を抽象化します。
// 戻り値nilは「チューニング済みパラメータなし」を意味し、接続・クエリ失敗も
// 同じ扱いになります（呼び出し側はデフォルト値にフォールバックする）。
type ParamsSource interface {
	Lookup(ctx context.Context, dsn, stockCode string) *paramsentity.TunedParams
}

// Config はチャートユースケースの動作設定です。
type Config struct {
	EMAPeriod    int    // グローバルEMA期間（銘柄別チューニングなし）
	MACDParamsDB string // MACDパラメータストアのDSN（空なら常にデフォルト値）
	KDParamsDB   string // KDパラメータストアのDSN
	RSIParamsDB  string // RSIパラメータストアのDSN
}

// chartUsecase はチャートデータ組み立てのユースケースを定義します。
type chartUsecase struct {
	universe []entity.Instrument
	market   MarketRepository
	store    CandleStore
	params   ParamsSource
	cfg      Config
}

// NewChartUsecase はchartUsecaseの新しいインスタンスを生成します。
// universeは設定済みインストゥルメントユニバースで、ここに無い銘柄への
// リクエストはErrInstrumentNotFoundになります。
func NewChartUsecase(universe []entity.Instrument, market MarketRepository, store CandleStore, params ParamsSource, cfg Config) *chartUsecase {
	if cfg.EMAPeriod <= 0 {
		cfg.EMAPeriod = 240
	}
	return &chartUsecase{
		universe: universe,
		market:   market,
		store:    store,
		params:   params,
		cfg:      cfg,
	}
}

// ListInstruments は設定済みインストゥルメントユニバースを返します。
func (cu *chartUsecase) ListInstruments() []entity.Instrument {
	out := make([]entity.Instrument, len(cu.universe))
	copy(out, cu.universe)
	return out
}

// resolve はコード文字列をユニバース内のInstrumentに解決します。
func (cu *chartUsecase) resolve(code string) (entity.Instrument, error) {
	for _, inst := range cu.universe {
		if inst.Key() == code {
			return inst, nil
		}
	}
	return entity.Instrument{}, fmt.Errorf("%w: %s", domain.ErrInstrumentNotFound, code)
}

// loadCandles はキャッシュを参照し、ミス・期限切れの場合のみ上流から取得して
// キャッシュへ書き戻します。取得結果が0本のときはErrNoDataを返し、
// キャッシュ書き込みは行いません。
func (cu *chartUsecase) loadCandles(ctx context.Context, inst entity.Instrument, interval entity.Interval, count int) ([]entity.Candle, error) {
	if cached, fresh, err := cu.store.Get(ctx, inst, interval); err == nil && fresh {
		return tail(cached, count), nil
	} else if err != nil {
		// キャッシュはあくまで補助なので、読み取り失敗は再取得で吸収する
		slog.Warn("candle cache read failed", "instrument", inst.Key(), "interval", interval, "error", err)
	}

	candles, err := cu.market.FetchCandles(ctx, inst, interval, count)
	if err != nil {
		// アダプタ層のエラーはこのリクエストに限り「データなし」に縮退させる。
		// リトライやソース間フェイルオーバーはこのパイプラインでは行わない。
		slog.Error("upstream fetch failed", "instrument", inst.Key(), "interval", interval, "error", err)
		candles = nil
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNoData, inst.Key(), interval)
	}

	if err := cu.store.Put(ctx, inst, interval, candles); err != nil {
		slog.Warn("candle cache write failed", "instrument", inst.Key(), "interval", interval, "error", err)
	}
	return tail(candles, count), nil
}

// GetCandles は指定された銘柄と時間足のローソク足データを取得します。
func (cu *chartUsecase) GetCandles(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error) {
	inst, err := cu.resolve(code)
	if err != nil {
		return nil, err
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if maxCount <= 0 || maxCount > MaxMaxCount {
		maxCount = DefaultMaxCount
	}
	return cu.loadCandles(ctx, inst, interval, maxCount)
}

// GetChartData はローソク足と全指標を組み立てた正規モデルを返します。
//
// MACD・KD・RSIはそれぞれ独立にパラメータストアを参照し、レコードが無ければ
// ドキュメント化されたデフォルト値を使います。EMAだけはグローバル設定の期間で
// 計算し、銘柄別チューニングの対象外です。
func (cu *chartUsecase) GetChartData(ctx context.Context, code string, interval entity.Interval, maxCount int) (*entity.ChartData, error) {
	inst, err := cu.resolve(code)
	if err != nil {
		return nil, err
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if maxCount <= 0 || maxCount > MaxMaxCount {
		maxCount = DefaultMaxCount
	}
	candles, err := cu.loadCandles(ctx, inst, interval, maxCount)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	macdParams := cu.params.Lookup(ctx, cu.cfg.MACDParamsDB, code).MACD()
	kdParams := cu.params.Lookup(ctx, cu.cfg.KDParamsDB, code).KD()
	rsiParams := cu.params.Lookup(ctx, cu.cfg.RSIParamsDB, code).RSI()

	vmacd, macdSignal := indicator.VMACD(closes, highs, lows,
		macdParams.FastPeriod, macdParams.SlowPeriod, macdParams.SignalPeriod)
	k, d := indicator.KD(highs, lows, closes, kdParams.KPeriod, kdParams.DPeriod)

	return &entity.ChartData{
		Instrument:    inst,
		Candles:       candles,
		EMA:           indicator.EMA(closes, cu.cfg.EMAPeriod),
		EMAPeriod:     cu.cfg.EMAPeriod,
		VMACD:         vmacd,
		MACDSignal:    macdSignal,
		K:             k,
		D:             d,
		KDOversold:    kdParams.Oversold,
		KDOverbought:  kdParams.Overbought,
		RSI:           indicator.RSI(closes, rsiParams.Period),
		RSIOversold:   rsiParams.Oversold,
		RSIOverbought: rsiParams.Overbought,
	}, nil
}

// tail は系列の末尾（直近）count本を返します。
func tail(candles []entity.Candle, count int) []entity.Candle {
	if count > 0 && len(candles) > count {
		return candles[len(candles)-count:]
	}
	return candles
}
