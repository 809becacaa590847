package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sparhub/backend/internal/allocation"
	"github.com/sparhub/backend/internal/config"
	"github.com/sparhub/backend/internal/db"
	httpapi "github.com/sparhub/backend/internal/http"
	"github.com/sparhub/backend/internal/milp"
	"github.com/sparhub/backend/internal/notify"
	"github.com/sparhub/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "spar-backend").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.Bootstrap(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap schema")
	}

	var notifier notify.Notifier
	if cfg.NotifyURL == "" {
		notifier = &notify.MockNotifier{}
		logger.Info().Msg("using mock notifier")
	} else {
		notifier = notify.HTTPNotifier{BaseURL: cfg.NotifyURL}
	}

	weights := allocation.Weights{
		TeamBalance:   cfg.WeightTeamBalance,
		SpeakerSpread: cfg.WeightSpeakerSpread,
		JudgeLoad:     cfg.WeightJudgeLoad,
		RoomCount:     cfg.WeightRoomCount,
		PartnerBonus:  cfg.WeightPartnerBonus,
	}
	solver := milp.Options{MaxNodes: cfg.SolverMaxNodes, IntTol: milp.DefaultOptions().IntTol}

	draws := service.NewDrawService(store, notifier, logger, weights, solver, cfg.BallotLinkTTL)
	draws.Start(ctx, cfg.DrawWorkers)

	router := httpapi.Router(cfg, store, draws, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
