package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trend_backend/internal/feature/chart/adapters"
	"trend_backend/internal/feature/chart/adapters/yahoo/dto"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/usecase"
)

// YahooMarket はYahoo FinanceチャートAPIからローソク足を取得する
// MarketRepository実装です。
type YahooMarket struct {
	cfg    Config
	client *http.Client
}

var _ usecase.MarketRepository = (*YahooMarket)(nil)

// NewYahooMarket は指定された設定とHTTPクライアントでYahooMarketの新しい
// インスタンスを生成します。
func NewYahooMarket(cfg Config, client *http.Client) *YahooMarket {
	return &YahooMarket{cfg: cfg, client: client}
}

// intervalParam は内部の時間足をAPIのintervalパラメータに変換します。
func intervalParam(interval entity.Interval) string {
	switch interval {
	case entity.IntervalWeek:
		return "1wk"
	case entity.IntervalMonth:
		return "1mo"
	case entity.Interval60M:
		return "60m"
	default:
		return "1d"
	}
}

// translateSymbol は内部のインストゥルメント表記をYahooのティッカーに
// 変換します（HK.09988 -> 9988.HK、SH.600519 -> 600519.SS、US.SOHO -> SOHO）。
func translateSymbol(inst entity.Instrument) string {
	switch inst.Market {
	case entity.MarketHK:
		// 香港は4桁表記。内部の5桁ゼロ埋めから先頭ゼロを落とす。
		code := inst.Code
		for len(code) > 4 && strings.HasPrefix(code, "0") {
			code = code[1:]
		}
		return code + ".HK"
	case entity.MarketSH:
		return inst.Code + ".SS"
	case entity.MarketSZ:
		return inst.Code + ".SZ"
	default:
		return inst.Code
	}
}

// FetchCandles はチャートAPIから時系列を取得し、昇順・直近count本に
// 正規化して返します。休場スロット（null値）はスキップします。
func (y *YahooMarket) FetchCandles(ctx context.Context, inst entity.Instrument, interval entity.Interval, count int) ([]entity.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, y.cfg.Timeout)
	defer cancel()

	now := time.Now().UTC()
	q := url.Values{}
	q.Set("interval", intervalParam(interval))
	q.Set("period1", strconv.FormatInt(adapters.SpanStart(now, interval, count).Unix(), 10))
	q.Set("period2", strconv.FormatInt(now.Unix(), 10))

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.cfg.BaseURL, url.PathEscape(translateSymbol(inst)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	// 既定UAはボット扱いされることがある
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("yahoo http %d", res.StatusCode)
	}

	var body dto.ChartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := body.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	candles := make([]entity.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		// 休場・未約定スロットはnullで埋まる
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		var vol int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		candles = append(candles, entity.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: vol,
		})
	}
	return adapters.Normalize(candles, count), nil
}
