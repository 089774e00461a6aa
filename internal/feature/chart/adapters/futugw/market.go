package futugw

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"trend_backend/internal/feature/chart/adapters"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/usecase"
)

// dateLayout はゲートウェイとやり取りする日付の形式です。
const dateLayout = "2006-01-02"

// FutuGateway はローカルのストリーミングゲートウェイからローソク足を取得する
// MarketRepository実装です。接続は呼び出しごとに張り、応答を受けたら閉じます
// （ゲートウェイはローカルプロセスなのでダイヤルは安価で、接続を持ち続けると
// ゲートウェイ側の購読スロットを占有してしまう）。
type FutuGateway struct {
	cfg    Config
	dialer *websocket.Dialer
}

var _ usecase.MarketRepository = (*FutuGateway)(nil)

// NewFutuGateway は指定された設定でFutuGatewayの新しいインスタンスを生成します。
func NewFutuGateway(cfg Config) *FutuGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &FutuGateway{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.Timeout},
	}
}

// klineRequest はrequest_history_klineのリクエストフレームです。
type klineRequest struct {
	Proto    string `json:"proto"`
	Code     string `json:"code"`
	KType    string `json:"ktype"`
	Start    string `json:"start"`
	End      string `json:"end"`
	MaxCount int    `json:"max_count"`
}

// klineRow は応答の1行です。ゲートウェイの実装によって数値が文字列で
// 返ることがあるためjson.Numberで受けます。
type klineRow struct {
	TimeKey string      `json:"time_key"`
	Open    json.Number `json:"open"`
	High    json.Number `json:"high"`
	Low     json.Number `json:"low"`
	Close   json.Number `json:"close"`
	Volume  json.Number `json:"volume"`
}

// klineResponse はrequest_history_klineの応答フレームです。
type klineResponse struct {
	RetCode int    `json:"ret_code"`
	RetMsg  string `json:"ret_msg"`
	Data    struct {
		KLine []klineRow `json:"kline"`
	} `json:"data"`
}

// FetchCandles はゲートウェイへ履歴ローソク足を要求し、昇順・直近count本に
// 正規化して返します。
func (g *FutuGateway) FetchCandles(ctx context.Context, inst entity.Instrument, interval entity.Interval, count int) ([]entity.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	conn, _, err := g.dialer.DialContext(ctx, g.cfg.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("futugw dial %s: %w", g.cfg.URL(), err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Warn("failed to close gateway connection", "error", err)
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	now := time.Now().UTC()
	req := klineRequest{
		Proto:    "request_history_kline",
		Code:     inst.Key(),
		KType:    string(interval),
		Start:    adapters.SpanStart(now, interval, count).Format(dateLayout),
		End:      now.Format(dateLayout),
		MaxCount: count,
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("futugw write request: %w", err)
	}

	var res klineResponse
	if err := conn.ReadJSON(&res); err != nil {
		return nil, fmt.Errorf("futugw read response: %w", err)
	}
	if res.RetCode != 0 {
		return nil, fmt.Errorf("futugw ret_code %d: %s", res.RetCode, res.RetMsg)
	}

	candles := make([]entity.Candle, 0, len(res.Data.KLine))
	for _, row := range res.Data.KLine {
		c, err := row.toCandle()
		if err != nil {
			slog.Warn("skipping malformed kline row", "time_key", row.TimeKey, "error", err)
			continue
		}
		candles = append(candles, c)
	}
	return adapters.Normalize(candles, count), nil
}

// toCandle は応答行をドメインエンティティに変換します。
func (r klineRow) toCandle() (entity.Candle, error) {
	tm, err := time.Parse("2006-01-02 15:04:05", r.TimeKey)
	if err != nil {
		tm, err = time.Parse(dateLayout, r.TimeKey)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse time_key %q: %w", r.TimeKey, err)
		}
	}
	o, err := r.Open.Float64()
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse open %q: %w", r.Open, err)
	}
	h, err := r.High.Float64()
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse high %q: %w", r.High, err)
	}
	l, err := r.Low.Float64()
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse low %q: %w", r.Low, err)
	}
	c, err := r.Close.Float64()
	if err != nil {
		return entity.Candle{}, fmt.Errorf("parse close %q: %w", r.Close, err)
	}
	vol, err := r.Volume.Int64()
	if err != nil {
		// 出来高が小数で返るゲートウェイ実装があるためfloat経由も試す
		f, ferr := r.Volume.Float64()
		if ferr != nil {
			return entity.Candle{}, fmt.Errorf("parse volume %q: %w", r.Volume, err)
		}
		vol = int64(f)
	}
	return entity.Candle{Time: tm, Open: o, High: h, Low: l, Close: c, Volume: vol}, nil
}
