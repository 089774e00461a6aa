package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trend_backend/internal/feature/chart/adapters"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/usecase"
)

// EastmoneyMarket はEastmoney公開ゲートウェイからローソク足を取得する
// MarketRepository実装です。米国株はディレクトリでsecidを解決します。
type EastmoneyMarket struct {
	cfg       Config
	client    *http.Client
	directory *Directory
}

var _ usecase.MarketRepository = (*EastmoneyMarket)(nil)

// NewEastmoneyMarket は指定された設定とHTTPクライアントでEastmoneyMarketの
// 新しいインスタンスを生成します。
func NewEastmoneyMarket(cfg Config, client *http.Client) *EastmoneyMarket {
	return &EastmoneyMarket{
		cfg:       cfg,
		client:    client,
		directory: NewDirectory(cfg.DirectoryBaseURL, cfg.CacheDir, client),
	}
}

// kltParam は内部の時間足をゲートウェイのkltパラメータに変換します。
func kltParam(interval entity.Interval) string {
	switch interval {
	case entity.IntervalWeek:
		return "102"
	case entity.IntervalMonth:
		return "103"
	case entity.Interval60M:
		return "60"
	default:
		return "101"
	}
}

// secID は内部のインストゥルメント表記をゲートウェイのsecidに変換します。
// 市場プレフィックスは 1=上海、0=深セン、116=香港、米国はディレクトリから。
func (m *EastmoneyMarket) secID(ctx context.Context, inst entity.Instrument) (string, error) {
	switch inst.Market {
	case entity.MarketSH:
		return "1." + inst.Code, nil
	case entity.MarketSZ:
		return "0." + inst.Code, nil
	case entity.MarketHK:
		return "116." + inst.Code, nil
	case entity.MarketUS:
		return m.directory.SecID(ctx, inst.Code)
	default:
		return "", fmt.Errorf("eastmoney: unsupported market %q", inst.Market)
	}
}

// klineResponse はローソク足エンドポイントのレスポンスです。
// 行はカンマ区切りの文字列で返ります。
type klineResponse struct {
	Data struct {
		KLines []string `json:"klines"`
	} `json:"data"`
}

// FetchCandles はゲートウェイから時系列を取得し、昇順・直近count本に
// 正規化して返します。不正な行はスキップします。
func (m *EastmoneyMarket) FetchCandles(ctx context.Context, inst entity.Instrument, interval entity.Interval, count int) ([]entity.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	secid, err := m.secID(ctx, inst)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := fmt.Sprintf("%s/api/qt/stock/kline/get?secid=%s&klt=%s&fqt=1&beg=%s&end=%s&fields1=f1,f2,f3&fields2=f51,f52,f53,f54,f55,f56",
		m.cfg.KlineBaseURL, secid, kltParam(interval),
		adapters.SpanStart(now, interval, count).Format("20060102"), now.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("eastmoney http %d", res.StatusCode)
	}

	var body klineResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}

	candles := make([]entity.Candle, 0, len(body.Data.KLines))
	for _, row := range body.Data.KLines {
		c, err := parseKlineRow(row)
		if err != nil {
			slog.Warn("skipping malformed kline row", "row", row, "error", err)
			continue
		}
		candles = append(candles, c)
	}
	return adapters.Normalize(candles, count), nil
}

// parseKlineRow は "日付,始値,終値,高値,安値,出来高" 形式の行をパースします。
func parseKlineRow(row string) (entity.Candle, error) {
	fields := strings.Split(row, ",")
	if len(fields) < 6 {
		return entity.Candle{}, fmt.Errorf("want at least 6 fields, got %d", len(fields))
	}
	tm, err := time.Parse("2006-01-02 15:04", fields[0])
	if err != nil {
		tm, err = time.Parse("2006-01-02", fields[0])
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse date %q: %w", fields[0], err)
		}
	}
	o, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse open %q: %w", fields[1], err)
	}
	c, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse close %q: %w", fields[2], err)
	}
	h, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse high %q: %w", fields[3], err)
	}
	l, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse low %q: %w", fields[4], err)
	}
	vol, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse volume %q: %w", fields[5], err)
	}
	return entity.Candle{Time: tm, Open: o, High: h, Low: l, Close: c, Volume: int64(vol)}, nil
}
