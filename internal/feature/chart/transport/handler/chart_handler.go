// Package handler はチャートフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trend_backend/internal/feature/chart/domain"
	"trend_backend/internal/feature/chart/domain/entity"
	"trend_backend/internal/feature/chart/transport/http/dto"
)

// ChartUsecase はチャートデータ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ChartUsecase interface {
	ListInstruments() []entity.Instrument
	GetCandles(ctx context.Context, code string, interval entity.Interval, maxCount int) ([]entity.Candle, error)
	GetChartData(ctx context.Context, code string, interval entity.Interval, maxCount int) (*entity.ChartData, error)
}

// ChartHandler はチャートデータのHTTPリクエストを処理します。
type ChartHandler struct {
	uc ChartUsecase
}

// NewChartHandler は指定されたusecaseでChartHandlerの新しいインスタンスを生成します。
func NewChartHandler(uc ChartUsecase) *ChartHandler {
	return &ChartHandler{uc: uc}
}

// queryParams はkline/indicators/chart共通のクエリパラメータを取り出します。
func queryParams(c *gin.Context) (entity.Interval, int) {
	interval := entity.Interval(c.DefaultQuery("ktype", "K_DAY"))
	maxCount, _ := strconv.Atoi(c.DefaultQuery("max_count", "1000"))
	return interval, maxCount
}

// writeError はドメインエラーをHTTPステータスに対応付けます。
// 未知の銘柄・データなしは404、それ以外の失敗は上流起因として502です。
func writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, domain.ErrInstrumentNotFound) || errors.Is(err, domain.ErrNoData) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// List は設定済み銘柄の一覧を返すAPIです。
//
// エンドポイント例:
// GET /api/stocks/list
func (h *ChartHandler) List(c *gin.Context) {
	instruments := h.uc.ListInstruments()
	out := make([]dto.StockListItem, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, dto.StockListItem{Code: inst.Key(), Name: inst.Key()})
	}
	c.JSON(http.StatusOK, out)
}

// GetKline は銘柄コードと時間足を受け取り、ローソク足データをJSONで返します。
//
// エンドポイント例:
// GET /api/kline/HK.00700?ktype=K_DAY&max_count=1000
func (h *ChartHandler) GetKline(c *gin.Context) {
	interval, maxCount := queryParams(c)
	candles, err := h.uc.GetCandles(c.Request.Context(), c.Param("code"), interval, maxCount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCandleResponses(candles))
}

// GetIndicators は指標値のみをJSONで返します。
//
// エンドポイント例:
// GET /api/indicators/HK.00700?ktype=K_DAY&max_count=1000
func (h *ChartHandler) GetIndicators(c *gin.Context) {
	interval, maxCount := queryParams(c)
	data, err := h.uc.GetChartData(c.Request.Context(), c.Param("code"), interval, maxCount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewIndicatorsResponse(data))
}

// GetChart はローソク足と全指標をまとめたチャートデータをJSONで返します。
//
// エンドポイント例:
// GET /api/chart/HK.00700?ktype=K_DAY&max_count=1000
func (h *ChartHandler) GetChart(c *gin.Context) {
	interval, maxCount := queryParams(c)
	data, err := h.uc.GetChartData(c.Request.Context(), c.Param("code"), interval, maxCount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewChartResponse(data))
}
