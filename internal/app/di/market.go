// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"

	"trend_backend/internal/app/config"
	"trend_backend/internal/feature/chart/adapters/eastmoney"
	"trend_backend/internal/feature/chart/adapters/futugw"
	"trend_backend/internal/feature/chart/adapters/yahoo"
	"trend_backend/internal/feature/chart/usecase"
	infrahttp "trend_backend/internal/platform/http"
)

// NewMarket はDATA_SOURCEタグから上流アダプタを1つ解決して生成します。
// 未知のタグ、およびタグが要求する設定の不足は起動時エラーです。
func NewMarket(cfg config.Config) (usecase.MarketRepository, error) {
	switch cfg.DataSource {
	case "futu":
		gwCfg := futugw.LoadConfig()
		if err := gwCfg.Validate(); err != nil {
			return nil, err
		}
		return futugw.NewFutuGateway(gwCfg), nil
	case "yahoo":
		yCfg := yahoo.LoadConfig()
		return yahoo.NewYahooMarket(yCfg, infrahttp.NewHTTPClient(yCfg.Timeout)), nil
	case "eastmoney":
		emCfg := eastmoney.LoadConfig()
		return eastmoney.NewEastmoneyMarket(emCfg, infrahttp.NewHTTPClient(emCfg.Timeout)), nil
	default:
		return nil, fmt.Errorf("unknown DATA_SOURCE %q (want futu / yahoo / eastmoney)", cfg.DataSource)
	}
}
