// Entry point of the cdrguard analysis server.
//
//   - Parse command-line flags.
//   - Initialise a temporary logger so config loading can log.
//   - Load configuration (YAML file plus CDRGUARD_* environment).
//   - Wire engine, report store, metrics and optional GeoIP enrichment.
//   - Serve HTTP until SIGINT/SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gokaycavdar/go-cdrguard/internal/api"
	"github.com/gokaycavdar/go-cdrguard/internal/config"
	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/internal/metrics"
	"github.com/gokaycavdar/go-cdrguard/pkg/engine"
	"github.com/gokaycavdar/go-cdrguard/pkg/geoip"
	"github.com/gokaycavdar/go-cdrguard/pkg/storage"
)

func main() {
	configPath := flag.String("c", "", "path to cdrguard config file (YAML)")
	flag.Parse()

	_ = logger.InitLog("info", false)

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			logger.CfgLog.Errorf("config: %v", err)
		}
		os.Exit(1)
	}
	if err := logger.InitLog(cfg.LogLevel, cfg.LogReportCaller); err != nil {
		logger.CfgLog.Warnf("%v", err)
	}
	for k, v := range cfg.LogSummary() {
		logger.CfgLog.Debugf("%s=%s", k, v)
	}

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		logger.MainLog.Errorf("register metrics: %v", err)
		os.Exit(1)
	}

	var opts []engine.Option
	if cfg.BonusEnabled {
		logger.MainLog.Infof("additional pattern bonus enabled, seed=%d", cfg.BonusSeed)
		opts = append(opts, engine.WithBonus(engine.NewSeededBonus(cfg.BonusSeed)))
	}

	serverOpts := api.Options{
		Addr:        cfg.ServerAddr,
		Engine:      engine.New(opts...),
		Store:       storage.NewMemoryStore(),
		Metrics:     m,
		Gatherer:    reg,
		MaxUsers:    cfg.GeneratorMaxUsers,
		DefaultSeed: cfg.GeneratorSeed,
	}

	var geoService *geoip.Service
	if cfg.GeoIPCountryDB != "" {
		var err error
		geoService, err = geoip.NewService(cfg.GeoIPCountryDB)
		if err != nil {
			logger.GeoLog.Errorf("%v", err)
			os.Exit(1)
		}
		serverOpts.Geo = geoService
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.MainLog.Infof("cdrguard starting on %s", cfg.ServerAddr)
	err := api.NewServer(serverOpts).Serve(ctx)
	stop()
	if geoService != nil {
		geoService.Close()
	}
	if err != nil {
		logger.MainLog.Errorf("server: %v", err)
		os.Exit(1)
	}
	logger.MainLog.Info("cdrguard stopped")
}
