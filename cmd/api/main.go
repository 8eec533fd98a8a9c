package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/foodbridge/foodbridge/internal/alerts"
	"github.com/foodbridge/foodbridge/internal/analytics"
	"github.com/foodbridge/foodbridge/internal/config"
	"github.com/foodbridge/foodbridge/internal/delivery"
	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/fulfillment"
	"github.com/foodbridge/foodbridge/internal/httpapi"
	"github.com/foodbridge/foodbridge/internal/inventory"
	"github.com/foodbridge/foodbridge/internal/rating"
	"github.com/foodbridge/foodbridge/internal/request"
	"github.com/foodbridge/foodbridge/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	st, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer st.Close()

	// Without Redis, notifications go to the process log instead of the
	// queue; the core behaves identically either way.
	var notifier domain.Notifier = alerts.LogNotifier{}
	if cfg.RedisAddr != "" {
		dispatcher := alerts.NewDispatcher(cfg.RedisAddr)
		defer dispatcher.Close()
		notifier = dispatcher

		worker := alerts.NewWorker(cfg.RedisAddr, st)
		worker.Run()
		defer worker.Shutdown()
		log.Printf("notification worker started (redis=%s)", cfg.RedisAddr)
	}

	ledger := inventory.NewLedger(st)
	h := &httpapi.Handler{
		Store:       st,
		Ledger:      ledger,
		Requests:    request.NewService(st, ledger, notifier),
		Fulfillment: fulfillment.NewService(st, notifier),
		Deliveries:  delivery.NewService(st, notifier),
		Ratings:     rating.NewService(st),
		Analytics:   analytics.NewService(st),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	h.Register(e, cfg.JWTSecret)

	log.Printf("API server listening on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
