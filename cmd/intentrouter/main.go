// Command intentrouter runs the Intent Recognition & Meta-Routing
// service: it wires C1-C11, starts the background health-check and
// config-directory file-watch loops, serves the C11 HTTP surface, and
// shuts down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/internal/logging"
	"github.com/jordigilh/intentrouter/pkg/api"
	"github.com/jordigilh/intentrouter/pkg/apimetrics"
	"github.com/jordigilh/intentrouter/pkg/breaker"
	"github.com/jordigilh/intentrouter/pkg/cache"
	"github.com/jordigilh/intentrouter/pkg/classifier/llm"
	"github.com/jordigilh/intentrouter/pkg/intent"
	"github.com/jordigilh/intentrouter/pkg/manifest"
	"github.com/jordigilh/intentrouter/pkg/registry"
	metarouter "github.com/jordigilh/intentrouter/pkg/router"
	"github.com/jordigilh/intentrouter/pkg/telemetry"
	"github.com/jordigilh/intentrouter/pkg/types"
)

const healthCheckInterval = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic("config: load failed: " + err.Error())
	}

	log, err := logging.New(cfg.Logging.Level)
	if err != nil {
		panic("logging: build failed: " + err.Error())
	}
	defer log.Sync() //nolint:errcheck

	bundle, err := config.LoadConfigBundle(cfg.ConfigDir)
	if err != nil {
		log.Fatal("config: failed to load routing config bundle", zap.Error(err))
	}

	descriptors := descriptorsFromBundle(bundle)
	reg := registry.New(logging.AsLogr(log), descriptors)

	apiMetrics := apimetrics.New()

	c := cache.New(cfg.Cache, log)
	llmClassifier := llm.NewClassifier(cfg.LLM, log)
	engine := intent.NewEngine(bundle, c, reg, llmClassifier, apiMetrics, log)

	rtr := metarouter.New(engine, reg, cfg.Router, log)
	brk := breaker.New(rtr, breaker.DefaultConfig(), log)

	manifestRepo := manifest.NewRepository(cfg.Manifest.Dir, cfg.Manifest.HistoryDir, log)
	telemetryProvider := telemetry.NewSyntheticProvider(time.Duration(cfg.Telemetry.CacheTTLMillis) * time.Millisecond)
	refresher := manifest.NewRefresher(manifestRepo, telemetryProvider, cfg.Manifest, logging.AsLogr(log))

	server := api.NewServer(api.Deps{
		Log:       log,
		Registry:  reg,
		Engine:    engine,
		Router:    rtr,
		Breaker:   brk,
		Refresher: refresher,
		Manifests: manifestRepo,
		Metrics:   apiMetrics,
		ConfigDir: cfg.ConfigDir,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runHealthCheckLoop(ctx, reg, log)
	go watchConfigDir(ctx, cfg.ConfigDir, engine, log)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Handler(),
	}

	go func() {
		log.Info("intentrouter: listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("intentrouter: server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("intentrouter: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("intentrouter: graceful shutdown failed", zap.Error(err))
	}
	if err := c.Close(); err != nil {
		log.Warn("intentrouter: cache close failed", zap.Error(err))
	}
}

// descriptorsFromBundle derives the registry's startup descriptor set
// from the taxonomy's target services — every distinct targetService
// becomes a downstream descriptor reachable at http://<service>.
func descriptorsFromBundle(bundle *types.ConfigBundle) []types.ServiceDescriptor {
	seen := make(map[string]bool)
	var out []types.ServiceDescriptor
	for _, name := range bundle.CategoryOrder {
		cat := bundle.IntentCategories[name]
		if cat.TargetService == "" || seen[cat.TargetService] {
			continue
		}
		seen[cat.TargetService] = true
		out = append(out, types.ServiceDescriptor{
			Name:          cat.TargetService,
			URL:           "http://" + cat.TargetService,
			HealthPath:    "/health",
			TimeoutMillis: 5000,
		})
	}
	return out
}

func runHealthCheckLoop(ctx context.Context, reg *registry.Registry, log *zap.Logger) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	reg.RefreshAllHealth(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.RefreshAllHealth(ctx)
		}
	}
}

// watchConfigDir reloads the routing configuration whenever
// meta-routing.json or routing-rules.json changes on disk, the same
// reload path POST /config/reload drives.
func watchConfigDir(ctx context.Context, configDir string, engine *intent.Engine, log *zap.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("config watch: failed to start fsnotify watcher", zap.Error(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(configDir); err != nil {
		log.Warn("config watch: failed to watch configDir", zap.String("dir", configDir), zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			bundle, err := config.LoadConfigBundle(configDir)
			if err != nil {
				log.Warn("config watch: reload failed", zap.Error(err))
				continue
			}
			engine.UpdateBundle(bundle)
			log.Info("config watch: reloaded routing configuration", zap.String("trigger", event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watch: watcher error", zap.Error(err))
		}
	}
}
