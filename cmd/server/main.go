package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailorshop/internal/config"
	"tailorshop/internal/db"
	"tailorshop/internal/events"
	"tailorshop/internal/handlers"
	"tailorshop/internal/services"
	"tailorshop/internal/store"
	"tailorshop/internal/websocket"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	var limiter redis.Scripter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("redis unavailable at %s, login rate limiting disabled: %v", cfg.RedisAddr, err)
			_ = rdb.Close()
		} else {
			limiter = rdb
			defer rdb.Close()
		}
		cancel()
	}

	publisher := events.NewPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	defer publisher.Close()

	users := store.NewUserStore(database)
	customers := store.NewCustomerStore(database)
	orders := store.NewOrderStore(database)
	payments := store.NewPaymentStore(database)
	transactions := store.NewTransactionStore(database)
	swaps := store.NewSwapStore(database)
	banks := store.NewBankStore(database)
	inventory := store.NewInventoryStore(database)
	alerts := store.NewAlertStore(database)
	tasks := store.NewTaskStore(database)
	reports := store.NewReportStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	authService := services.NewAuthService(txRunner, users, audit, services.AuthSettingsFromConfig(cfg))
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	created, err := authService.EnsureAdmin(startCtx, cfg.BootstrapAdmin)
	cancel()
	if err != nil {
		log.Fatalf("failed to bootstrap admin: %v", err)
	}
	if created {
		log.Printf("created bootstrap admin %s; change its password", cfg.BootstrapAdmin.Email)
	}

	handler := handlers.New(handlers.Deps{
		Config:       cfg,
		TxRunner:     txRunner,
		Hub:          hub,
		Limiter:      limiter,
		Users:        users,
		Customers:    customers,
		Orders:       orders,
		Payments:     payments,
		Transactions: transactions,
		Swaps:        swaps,
		Banks:        banks,
		Inventory:    inventory,
		Audit:        audit,
		Auth:         authService,
		Ledger:       services.NewLedgerService(txRunner, orders, payments, transactions, swaps, audit, hub, publisher),
		Workflow:     services.NewWorkflowService(txRunner, orders, customers, users, tasks, audit, hub, publisher),
		Stock:        services.NewInventoryService(txRunner, inventory, alerts, audit, hub, publisher),
		BankAdmin:    services.NewBankService(txRunner, banks, users, audit),
		Reports:      services.NewReportService(reports),
	})
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("tailorshop API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
