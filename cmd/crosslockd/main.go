package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crosslock/config"
	"crosslock/native/escrow"
	"crosslock/native/factory"
	"crosslock/observability/logging"
	"crosslock/state/ledger"
	"crosslock/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the configuration file")
	metricsAddr := flag.String("metrics", ":9464", "listen address for the metrics endpoint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogService, cfg.LogEnv)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("open ledger database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	led := ledger.New(db)

	var factoryAddr, settlementAddr [20]byte
	if cfg.FactoryAddress != "" {
		if factoryAddr, err = config.ParseAddress(cfg.FactoryAddress); err != nil {
			logger.Error("parse factory address", "err", err)
			os.Exit(1)
		}
	}
	if cfg.SettlementAddress != "" {
		if settlementAddr, err = config.ParseAddress(cfg.SettlementAddress); err != nil {
			logger.Error("parse settlement address", "err", err)
			os.Exit(1)
		}
	}

	var codeHash [32]byte
	fac := factory.NewEngine(factory.Config{
		FactoryAddress:    factoryAddr,
		EscrowCodeHash:    codeHash,
		SettlementAddress: settlementAddr,
		CreationTolerance: cfg.CreationTolerance,
		ChainID:           cfg.ChainID,
	})
	fac.SetState(led)
	fac.SetLogger(logger)

	esc := escrow.NewEngine(factoryAddr, codeHash, cfg.RescueDelay)
	esc.SetState(led)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()

	logger.Info("crosslockd started",
		"chainId", cfg.ChainID,
		"dataDir", cfg.DataDir,
		"metrics", *metricsAddr,
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("metrics shutdown", "err", err)
	}
	logger.Info("crosslockd stopped")
}
