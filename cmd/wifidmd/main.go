package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"wifidm/internal/chipstore"
	"wifidm/internal/config"
	"wifidm/internal/hal/sim"
	"wifidm/internal/httpapi"
	"wifidm/internal/manager"
	"wifidm/internal/priority"
	"wifidm/pkg/types"
)

func main() {
	// .env is optional; real environment wins over it.
	_ = godotenv.Load()

	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("WIFIDM_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	configPath := flag.String("config", os.Getenv("WIFIDM_CONFIG"), "Optional config file (.yaml/.json/.toml)")
	chipsFile := flag.String("chips-file", "", "Chip topology file for the simulated HAL (.json/.yaml)")
	storePath := flag.String("store-path", "", "Path for the persisted static chip info snapshot")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	p2pIdleSec := flag.Int("p2p-idle-timeout-sec", 0, "Disconnected-P2P idle window in seconds (0=default, <0 disables)")
	waitDestroyed := flag.Bool("wait-for-destroyed-listeners", false, "Block destruction until destroy callbacks complete")
	corsEnabled := flag.Bool("cors-enabled", false, "Enable CORS middleware")
	corsOrigins := flag.String("cors-origins", "*", "Comma-separated allowed CORS origins")
	flag.Parse()

	var cfg config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			l := zerolog.New(os.Stderr)
			l.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
	}
	// Flags beat the config file when set explicitly.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["addr"] || cfg.Addr == "" {
		cfg.Addr = *addr
	}
	if set["chips-file"] {
		cfg.ChipsFile = *chipsFile
	}
	if set["store-path"] {
		cfg.StorePath = *storePath
	}
	if set["log-level"] || cfg.LogLevel == "" {
		cfg.LogLevel = *logLevel
	}
	if set["p2p-idle-timeout-sec"] {
		cfg.P2PIdleTimeoutSec = *p2pIdleSec
	}
	if set["wait-for-destroyed-listeners"] {
		cfg.WaitForDestroyedListeners = *waitDestroyed
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	specs := sim.DefaultSpecs()
	if cfg.ChipsFile != "" {
		specs, err = sim.LoadSpecs(cfg.ChipsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ChipsFile).Msg("failed to load chip specs")
		}
	}
	wifi := sim.New(specs...)

	var store chipstore.Store = chipstore.NewMemStore()
	if cfg.StorePath != "" {
		fs, err := chipstore.NewFileStore(cfg.StorePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.StorePath).Msg("failed to open chip info store")
		}
		store = fs
	}

	mgr := manager.New(manager.Config{
		Hal:                       wifi,
		Store:                     store,
		Resolver:                  buildResolver(cfg, log),
		Logger:                    log.With().Str("component", "manager").Logger(),
		WaitForDestroyedListeners: cfg.WaitForDestroyedListeners,
		P2pIdleTimeout:            time.Duration(cfg.P2PIdleTimeoutSec) * time.Second,
	})
	mgr.Initialize()
	if !mgr.Start() {
		log.Error().Msg("wifi did not start; serving API anyway")
	}

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetCORSOptions(*corsEnabled, strings.Split(*corsOrigins, ","),
		[]string{"GET", "POST", "DELETE"}, []string{"Content-Type"})
	mux := httpapi.NewMux(mgr)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Int("chips", len(specs)).Msg("wifidmd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	mgr.Stop()
	mgr.Close()
}

// buildResolver maps the configured priority table onto a resolver. Unknown
// tier names are logged and skipped.
func buildResolver(cfg config.Config, log zerolog.Logger) priority.Resolver {
	tiers := make(map[string]types.Tier, len(cfg.Priorities))
	for holder, name := range cfg.Priorities {
		t, ok := priority.ParseTier(name)
		if !ok {
			log.Warn().Str("holder", holder).Str("tier", name).Msg("unknown priority tier in config")
			continue
		}
		tiers[holder] = t
	}
	r := priority.NewTableResolver(tiers)
	if cfg.DefaultPriority != "" {
		if t, ok := priority.ParseTier(cfg.DefaultPriority); ok {
			r.Default = t
		}
	}
	return r
}
