package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/skainet/concentration-map/internal/api"
	"github.com/skainet/concentration-map/internal/config"
	"github.com/skainet/concentration-map/internal/database"
	"github.com/skainet/concentration-map/internal/handler"
	"github.com/skainet/concentration-map/internal/logger"
	"github.com/skainet/concentration-map/internal/refresh"
	"github.com/skainet/concentration-map/internal/render"
	"github.com/skainet/concentration-map/internal/repository"
	"github.com/skainet/concentration-map/internal/service"
	"github.com/skainet/concentration-map/internal/upstream"
)

func main() {
	_ = godotenv.Load(".env")

	// 加载配置
	cfg := config.Load()
	log := logger.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	dbConfig := database.Config{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		DSN:    cfg.DBDSN,
	}
	if err := database.Init(dbConfig); err != nil {
		log.Error("database_init_failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	messages := service.NewMessageService(repository.NewMessageRepository(database.GetDB()), cfg.NetworkName)

	// 快照来源：默认本地消息库，配置 UPSTREAM_URL 时轮询远端
	var source refresh.Source = messages
	if cfg.UpstreamURL != "" {
		client, err := upstream.NewClient(upstream.Config{URL: cfg.UpstreamURL, Timeout: cfg.UpstreamTimeout})
		if err != nil {
			log.Error("upstream_config_invalid", "error", err)
			os.Exit(1)
		}
		source = client
		log.Info("upstream_enabled", "url", cfg.UpstreamURL)
	}

	surface := render.NewMemorySurface()
	loop := refresh.NewLoop(source, surface, cfg.PollInterval, log)
	messages.OnChange(loop.Trigger)
	surface.Attach(cfg.InitialZoom)

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	// 初始化路由
	router := api.SetupRouter(ctx, cfg, api.Handlers{
		Message: handler.NewMessageHandler(messages),
		Map:     handler.NewMapHandler(service.NewMapService(surface, loop)),
	}, log)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		log.Info("server_starting", "addr", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", "error", err)
	}
	<-loopDone
}
