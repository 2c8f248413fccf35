package main

import (
	"github.com/rs/zerolog"

	"github.com/damacus/iron-files/internal/browser"
	"github.com/damacus/iron-files/internal/config"
	"github.com/damacus/iron-files/internal/logger"
	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/session"
	"github.com/damacus/iron-files/internal/transfer"
)

// app holds the services shared by the server and the one-shot commands
type app struct {
	cfg          *config.Config
	gateway      *services.Gateway
	explorer     *browser.Explorer
	orchestrator *transfer.Orchestrator
	boards       *transfer.Boards
	holder       *session.Holder
	log          zerolog.Logger
}

func newApp(cfg *config.Config) *app {
	retry := services.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Store.RetryAttempts

	gateway := services.NewGateway(storeFactory(cfg), retry, logger.Component("gateway"))
	return &app{
		cfg:          cfg,
		gateway:      gateway,
		explorer:     browser.NewExplorer(gateway, logger.Component("explorer")),
		orchestrator: transfer.NewOrchestrator(gateway, cfg.Upload.Concurrency, logger.Component("uploads")),
		boards:       transfer.NewBoards(cfg.Upload.GracePeriod(), cfg.Session.TTL()),
		holder:       session.NewHolder(services.NewConfigCodec(cfg.Session.Key), cfg.Session.CookieName, cfg.Session.TTL()),
		log:          logger.Component("server"),
	}
}

func storeFactory(cfg *config.Config) services.StoreFactory {
	if cfg.Store.Backend == config.BackendMemory {
		return services.NewMemoryFactory(cfg.Store.MemoryBuckets...)
	}
	return &services.RealStoreFactory{
		Backend:        cfg.Store.Backend,
		Endpoint:       cfg.Store.Endpoint,
		ForcePathStyle: cfg.Store.ForcePathStyle,
	}
}
