package futugw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trend_backend/internal/feature/chart/domain/entity"
)

// newGatewayServer は1リクエストを受けて固定のJSON応答を返すwebsocket
// テストサーバーを起動し、接続先Configを返します。
func newGatewayServer(t *testing.T, response string, capture *string) Config {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer func() { _ = conn.Close() }()

		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		if capture != nil {
			*capture = string(msg)
		}
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(response)))
	}))
	t.Cleanup(srv.Close)

	hostPort := strings.TrimPrefix(srv.URL, "http://")
	host, port, ok := strings.Cut(hostPort, ":")
	require.True(t, ok)
	return Config{Host: host, Port: port, Timeout: 5 * time.Second}
}

// TestFutuGateway_FetchCandles_Success は文字列・数値が混在する応答を
// パースし、不正行をスキップして昇順で返すことを検証します。
func TestFutuGateway_FetchCandles_Success(t *testing.T) {
	response := `{
		"ret_code": 0,
		"data": {"kline": [
			{"time_key": "2025-06-03 00:00:00", "open": "101", "high": "103", "low": "100", "close": "102", "volume": "1200"},
			{"time_key": "2025-06-02 00:00:00", "open": 100, "high": 102, "low": 99, "close": 101, "volume": 1000},
			{"time_key": "not-a-date", "open": 1, "high": 1, "low": 1, "close": 1, "volume": 1}
		]}
	}`
	var captured string
	cfg := newGatewayServer(t, response, &captured)

	gw := NewFutuGateway(cfg)
	got, err := gw.FetchCandles(context.Background(), entity.Instrument{Market: entity.MarketHK, Code: "00700"}, entity.IntervalDay, 100)

	require.NoError(t, err)
	require.Len(t, got, 2, "malformed row must be skipped")
	assert.True(t, got[0].Time.Before(got[1].Time), "candles must be ascending")
	assert.Equal(t, 101.0, got[0].Close)
	assert.Equal(t, 102.0, got[1].Close)
	assert.Equal(t, int64(1200), got[1].Volume)

	assert.Contains(t, captured, `"proto":"request_history_kline"`)
	assert.Contains(t, captured, `"code":"HK.00700"`)
	assert.Contains(t, captured, `"ktype":"K_DAY"`)
}

// TestFutuGateway_FetchCandles_GatewayError はret_code非0がエラーになることを検証します。
func TestFutuGateway_FetchCandles_GatewayError(t *testing.T) {
	cfg := newGatewayServer(t, `{"ret_code": -1, "ret_msg": "market closed"}`, nil)

	gw := NewFutuGateway(cfg)
	_, err := gw.FetchCandles(context.Background(), entity.Instrument{Market: entity.MarketHK, Code: "00700"}, entity.IntervalDay, 100)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "market closed")
}

// TestFutuGateway_FetchCandles_DialFailure は接続不能時にエラーを返すことを検証します。
func TestFutuGateway_FetchCandles_DialFailure(t *testing.T) {
	t.Parallel()

	gw := NewFutuGateway(Config{Host: "127.0.0.1", Port: "1", Timeout: time.Second})
	_, err := gw.FetchCandles(context.Background(), entity.Instrument{Market: entity.MarketHK, Code: "00700"}, entity.IntervalDay, 100)

	assert.Error(t, err)
}

// TestConfig_Validate はホスト・ポート未設定が設定エラーになることを検証します。
func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Host: "127.0.0.1"}.Validate())
	assert.NoError(t, Config{Host: "127.0.0.1", Port: "11111"}.Validate())
}
