// @title           SmartSort Document API
// @version         1.0
// @description     Ingests inbox documents and tracks the extract, chunk, embed and classify pipeline through review.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the API key.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/smartsort/internal/app"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/handlers"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/middleware"
	"github.com/akolanti/smartsort/internal/server"
	"github.com/akolanti/smartsort/internal/worker"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

var (
	listenAddr string
	configPath string
)

func main() {
	flag.StringVar(&configPath, "config", os.Getenv("SS_CONFIG"), "path to a yaml config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address, overrides the config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	logger_i.Init(cfg.LogLevel, cfg.IsProd())
	var logger = logger_i.NewLogger("main")
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if listenAddr == "" {
		listenAddr = cfg.Server.ListenAddr
	}

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	components, err := app.New(serviceContext, cfg)
	if err != nil {
		logger.Error("Could not start", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	handlers.InitJobHandler(components.Service)
	middleware.Init(cfg.Server)
	if cfg.Server.APIKey == "" && !cfg.Server.NoAuth {
		logger.Warn("No API key configured, every authenticated route will answer 401")
	}

	//init worker pool
	pool := worker.NewPool(components.Queue, components.Handlers(serviceContext), cfg.Worker)
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		if err := pool.Run(serviceContext); err != nil {
			logger.Error("Worker pool stopped", "error", err)
		}
	}()

	if cfg.Inbox.Watch {
		watcher := ingest.NewInboxWatcher(components.Ingest, components.Sandbox, cfg.Inbox.Debounce)
		go func() {
			if err := watcher.Run(serviceContext); err != nil {
				logger.Error("Inbox watcher stopped", "error", err)
			}
		}()
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		StopWorkers: func() {
			pool.Stop()
			<-workersDone
		},
		CloseServices: closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
