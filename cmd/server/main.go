package main

import (
	"context"
	"log"

	"trend_backend/internal/app/config"
	"trend_backend/internal/app/di"
	"trend_backend/internal/app/router"
	charthandler "trend_backend/internal/feature/chart/transport/handler"
	chartusecase "trend_backend/internal/feature/chart/usecase"
	"trend_backend/internal/feature/params"
)

func main() {
	cfg := config.Load()

	universe, err := di.NewUniverse(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if len(universe) == 0 {
		log.Println("[WARN] CODE_LIST is empty. All instrument requests will return 404.")
	}

	market, err := di.NewMarket(cfg)
	if err != nil {
		log.Fatal(err)
	}
	store, err := di.NewCandleStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	registry := params.NewRegistry()
	defer func() {
		if err := registry.Close(context.Background()); err != nil {
			log.Println("[ERROR] Failed to close params registry:", err)
		}
	}()

	chartUC := chartusecase.NewChartUsecase(universe, market, store, registry, chartusecase.Config{
		EMAPeriod:    cfg.EMAPeriod,
		MACDParamsDB: cfg.MACDParamsDB,
		KDParamsDB:   cfg.KDParamsDB,
		RSIParamsDB:  cfg.RSIParamsDB,
	})
	chartH := charthandler.NewChartHandler(chartUC)

	r := router.NewRouter(chartH)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
