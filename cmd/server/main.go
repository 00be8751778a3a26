package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xenolabs/engage/internal/api"
	"github.com/xenolabs/engage/internal/audience"
	"github.com/xenolabs/engage/internal/config"
	"github.com/xenolabs/engage/internal/dispatch"
	"github.com/xenolabs/engage/internal/pkg/logger"
	"github.com/xenolabs/engage/internal/receipts"
	"github.com/xenolabs/engage/internal/repository/postgres"
	"github.com/xenolabs/engage/internal/rules"
	"github.com/xenolabs/engage/internal/vendor"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logger.DEBUG)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		log.Fatalf("Database unreachable: %v", err)
	}
	cancel()

	customerRepo := postgres.NewCustomerRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	logRepo := postgres.NewLogRepo(db)

	eval := rules.NewEvaluator()
	if cfg.Rules.StrictANDGroups {
		log.Println("[rules] strict AND-group combinator enabled")
		eval = rules.NewStrictEvaluator()
	}
	resolver := audience.NewResolver(customerRepo, eval)

	var previewer audience.Previewer = resolver
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		previewer = audience.NewCachedPreviewer(resolver, rdb, cfg.Redis.PreviewTTL())
		log.Printf("[api] preview cache enabled (redis %s)", cfg.Redis.Addr)
	}

	reconciler := receipts.NewReconciler(logRepo)

	var transport vendor.Transport
	if cfg.Vendor.BaseURL != "" {
		transport = vendor.NewHTTPTransport(cfg.Vendor.BaseURL, cfg.Vendor.Timeout())
		log.Printf("[vendor] using HTTP vendor at %s", cfg.Vendor.BaseURL)
	} else {
		transport = vendor.NewSimulated(cfg.Vendor.SuccessRate, cfg.Vendor.MaxLatency(), reconciler)
		log.Printf("[vendor] using in-process simulator (success_rate=%.2f)", cfg.Vendor.SuccessRate)
	}

	worker := dispatch.NewWorker(transport, dispatch.WorkerConfig{
		BatchSize: cfg.Dispatch.DeliveryBatchSize,
		Pause:     cfg.Dispatch.BatchPause(),
		QueueSize: cfg.Dispatch.QueueSize,
	})
	worker.Start()
	defer worker.Stop()

	dispatcher := dispatch.NewDispatcher(campaignRepo, logRepo, resolver, worker, dispatch.DispatcherConfig{
		InsertBatchSize: cfg.Dispatch.InsertBatchSize,
	})

	handlers := api.NewHandlers(campaignRepo, customerRepo, orderRepo, logRepo, previewer, dispatcher, reconciler)
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	go func() {
		log.Printf("[api] listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("[api] server stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
