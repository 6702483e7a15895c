package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"fulfilment/internal/app/config"
	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/pkg/idgen"
	"fulfilment/internal/app/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	zlog, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	idgen.SetNode(cfg.App.NodeID)

	// 2. 初始化应用
	app, cleanup, err := InitializeApp(cfg, zlog)
	if err != nil {
		cleanup()
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// 3. 后台任务：会话清理、产物热加载、缺货消费
	wg.Add(1)
	go func() {
		defer wg.Done()
		mdsession.RunSweeper(ctx, app.Sessions, cfg.Session.SweepInterval, zlog)
	}()

	if app.Watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.Watcher.Run(ctx); err != nil {
				zlog.Errorf(ctx, "ranker watcher stopped: %v", err)
			}
		}()
	}

	if app.ShortageConsumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			zlog.Infof(ctx, "Starting shortage consumer...")
			app.ShortageConsumer.Start(ctx)
		}()
	}

	// 4. 启动 HTTP Server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: app.Engine,
	}
	serverErrChan := make(chan error, 1)
	go func() {
		zlog.Infof(ctx, "Starting HTTP server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// 5. 优雅停机
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zlog.Infof(ctx, "Received shutdown signal, gracefully shutting down...")
	case err := <-serverErrChan:
		zlog.Errorf(ctx, "HTTP server error: %v", err)
	}

	gracefulShutdown(server, app, cfg, zlog)
	cancel()
	wg.Wait()
	zlog.Infof(context.Background(), "Application stopped")
}

// gracefulShutdown 先停消费者（处理完在途消息），再停 HTTP Server
func gracefulShutdown(server *http.Server, app *App, cfg *config.Config, zlog logger.Logger) {
	ctx := context.Background()

	if app.ShortageConsumer != nil {
		zlog.Infof(ctx, "Stopping shortage consumer...")
		app.ShortageConsumer.Shutdown()
	}

	zlog.Infof(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Errorf(ctx, "HTTP server shutdown error: %v", err)
		return
	}
	zlog.Infof(ctx, "HTTP server stopped gracefully")
}
