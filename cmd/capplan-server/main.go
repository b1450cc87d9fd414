package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/capplan/pkg/application/services"
	"github.com/vsinha/capplan/pkg/domain/services/allocation"
	"github.com/vsinha/capplan/pkg/infrastructure/config"
	"github.com/vsinha/capplan/pkg/infrastructure/logger"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/capplan/pkg/interfaces/api"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file (optional)")
	scenarioDir := flag.String("scenario", "", "Baseline scenario directory (overrides scenario.dir)")
	port := flag.Int("port", 0, "HTTP server port (overrides server.port)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(logger.Config{}).Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *scenarioDir != "" {
		cfg.Scenario.Dir = *scenarioDir
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	policy, err := allocation.ParsePolicy(cfg.Engine.Policy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid engine policy")
	}

	repo := memory.NewBaselineRepository()
	if cfg.Scenario.Dir != "" || cfg.Scenario.Demand != "" {
		scenario, err := csv.NewLoader().LoadScenario(cfg.Scenario.Dir, csv.Files{
			Demand:       cfg.Scenario.Demand,
			Rates:        cfg.Scenario.Rates,
			Calendar:     cfg.Scenario.Calendar,
			LineCalendar: cfg.Scenario.LineCalendar,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load baseline scenario")
		}
		if err := repo.LoadBaseline(scenario.Input); err != nil {
			log.Fatal().Err(err).Msg("Failed to store baseline")
		}
		log.Info().
			Str("scenario", scenario.Name).
			Int("lines", len(scenario.Input.Lines)).
			Int("months", len(scenario.Input.Calendar)).
			Msg("Baseline loaded")
	} else {
		log.Warn().Msg("No baseline scenario configured; plan endpoints will return 503")
	}

	server := api.New(api.Config{
		Addr:     cfg.Server.Address(),
		Log:      log,
		Baseline: repo,
		Planning: services.PlanningOptions{
			Policy:      policy,
			Parallel:    cfg.Engine.Parallel,
			LPTolerance: cfg.Engine.LPTolerance,
		},
		Precision:      cfg.Output.Precision,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
