package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trend_backend/internal/feature/chart/domain"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/transport/handler"
)

// mockChartUsecase はChartUsecaseインターフェースのモック実装です。
type mockChartUsecase struct {
	ListInstrumentsFunc func() []entity.Instrument
	GetCandlesFunc      func(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error)
	GetChartDataFunc    func(ctx context.Context, code string, interval entity.Interval, maxCount int) (*entity.ChartData, error)
}

func (m *mockChartUsecase) ListInstruments() []entity.Instrument {
	return m.ListInstrumentsFunc()
}

func (m *mockChartUsecase) GetCandles(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error) {
	return m.GetCandlesFunc(ctx, code, interval, maxCount)
}

func (m *mockChartUsecase) GetChartData(ctx context.Context, code string, interval entity.Interval, maxCount int) (*entity.ChartData, error) {
	return m.GetChartDataFunc(ctx, code, interval, maxCount)
}

func newRouter(uc handler.ChartUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewChartHandler(uc)
	router := gin.New()
	router.GET("/api/stocks/list", h.List)
	router.GET("/api/kline/:code", h.GetKline)
	router.GET("/api/indicators/:code", h.GetIndicators)
	router.GET("/api/chart/:code", h.GetChart)
	return router
}

// TestChartHandler_GetKline はklineエンドポイントのリクエスト/レスポンス処理をテストします。
func TestChartHandler_GetKline(t *testing.T) {
	testTime := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		url            string
		mockGetCandles func(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: all parameters specified",
			url:  "/api/kline/HK.00700?ktype=K_WEEK&max_count=10",
			mockGetCandles: func(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error) {
				assert.Equal(t, "HK.00700", code)
				assert.Equal(t, entity.IntervalWeek, interval)
				assert.Equal(t, 10, maxCount)
				return []entity.Candle{
					{Time: testTime, Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000},
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"time":"2025-06-02 00:00:00","open":100,"high":110,"low":90,"close":105,"volume":1000}]`,
		},
		{
			name: "success: default parameter values",
			url:  "/api/kline/HK.00700",
			mockGetCandles: func(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error) {
				assert.Equal(t, entity.IntervalDay, interval)
				assert.Equal(t, 1000, maxCount)
				return []entity.Candle{}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "error: unknown instrument maps to 404",
			url:  "/api/kline/HK.99999",
			mockGetCandles: func(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error) {
				return nil, fmt.Errorf("%w: HK.99999", domain.ErrInstrumentNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"instrument not found: HK.99999"}`,
		},
		{
			name: "error: no data maps to 404",
			url:  "/api/kline/HK.00700",
			mockGetCandles: func(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error) {
				return nil, fmt.Errorf("%w: HK.00700 K_DAY", domain.ErrNoData)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"no data available: HK.00700 K_DAY"}`,
		},
		{
			name: "error: other failures map to 502",
			url:  "/api/kline/HK.00700",
			mockGetCandles: func(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error) {
				return nil, errors.New("cache exploded")
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"cache exploded"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockChartUsecase{GetCandlesFunc: tt.mockGetCandles})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

// TestChartHandler_List は銘柄一覧エンドポイントをテストします。
func TestChartHandler_List(t *testing.T) {
	router := newRouter(&mockChartUsecase{
		ListInstrumentsFunc: func() []entity.Instrument {
			return []entity.Instrument{
				{Market: entity.MarketHK, Code: "00700"},
				{Market: entity.MarketUS, Code: "AAPL"},
			}
		},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stocks/list", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"code":"HK.00700","name":"HK.00700"},{"code":"US.AAPL","name":"US.AAPL"}]`, w.Body.String())
}

// TestChartHandler_GetChart はチャートエンドポイントがフラット配列と
// ネストしたグループの両方を返すことをテストします。
func TestChartHandler_GetChart(t *testing.T) {
	testTime := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	data := &entity.ChartData{
		Instrument:    entity.Instrument{Market: entity.MarketHK, Code: "00700"},
		Candles:       []entity.Candle{{Time: testTime, Open: 100, High: 110, Low: 90, Close: 105, Volume: 1000}},
		EMA:           []float64{105},
		EMAPeriod:     240,
		VMACD:         []float64{1.5},
		MACDSignal:    []float64{1.0},
		K:             []float64{50},
		D:             []float64{50},
		KDOversold:    20,
		KDOverbought:  80,
		RSI:           []float64{50},
		RSIOversold:   30,
		RSIOverbought: 70,
	}
	router := newRouter(&mockChartUsecase{
		GetChartDataFunc: func(ctx context.Context, code string, interval entity.Interval, maxCount int) (*entity.ChartData, error) {
			return data, nil
		},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/chart/HK.00700", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "instrument")
	assert.Contains(t, body, "candles")
	assert.Contains(t, body, "indicators")

	var indicators map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body["indicators"], &indicators))
	for _, key := range []string{"time", "ema", "k", "d", "macd", "signal", "rsi", "kd", "rsi_indicator", "macd_indicator"} {
		assert.Contains(t, indicators, key)
	}

	// ヒストグラムはvmacd-signalから導出される
	var macdInd struct {
		Hist []float64 `json:"hist"`
	}
	require.NoError(t, json.Unmarshal(indicators["macd_indicator"], &macdInd))
	require.Len(t, macdInd.Hist, 1)
	assert.InDelta(t, 0.5, macdInd.Hist[0], 1e-9)
}

// TestChartHandler_GetIndicators は指標エンドポイントがチャート全体では
// なく指標のみを返すことをテストします。
func TestChartHandler_GetIndicators(t *testing.T) {
	router := newRouter(&mockChartUsecase{
		GetChartDataFunc: func(ctx context.Context, code string, interval entity.Interval, maxCount int) (*entity.ChartData, error) {
			return &entity.ChartData{
				Instrument: entity.Instrument{Market: entity.MarketHK, Code: "00700"},
				Candles:    []entity.Candle{{Time: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Close: 105}},
				EMA:        []float64{105},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/indicators/HK.00700", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "time")
	assert.NotContains(t, body, "candles")
}
