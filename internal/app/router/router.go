// Package router はアプリケーションのHTTPルートを定義します。
package router

import (
	"github.com/gin-gonic/gin"

	charthandler "trend_backend/internal/feature/chart/transport/handler"
	"trend_backend/internal/platform/http/handler"
)

// NewRouter はすべてのルートを登録したGinエンジンを生成します。
func NewRouter(chart *charthandler.ChartHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", handler.Health)

	api := r.Group("/api")
	{
		api.GET("/stocks/list", chart.List)
		api.GET("/kline/:code", chart.GetKline)
		api.GET("/indicators/:code", chart.GetIndicators)
		api.GET("/chart/:code", chart.GetChart)
	}

	return r
}
