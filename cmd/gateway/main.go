package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equipment-risk-gateway/internal/alerting"
	"equipment-risk-gateway/internal/api"
	"equipment-risk-gateway/internal/auth"
	"equipment-risk-gateway/internal/config"
	"equipment-risk-gateway/internal/engine"
	"equipment-risk-gateway/internal/maintenance"
	"equipment-risk-gateway/internal/storage"
	"equipment-risk-gateway/internal/websocket"
)

func main() {
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Explicit bootstrap: the stores own the live values from here on.
	policyStore := storage.NewPolicyStore(cfg.Thresholds)
	if err := policyStore.Get().Validate(); err != nil {
		log.Fatalf("Invalid threshold configuration: %v", err)
	}
	historyStore := storage.NewHistoryStore()
	seriesStore := storage.NewTimeSeriesStore()
	scheduler := maintenance.NewScheduler()
	settingsStore := alerting.NewSettingsStore(cfg.Alerts)

	hub := websocket.NewHub()
	go hub.Run()

	var mailer alerting.Mailer = alerting.LogMailer{}
	if cfg.SMTP.Addr != "" {
		mailer = &alerting.SMTPMailer{Addr: cfg.SMTP.Addr, From: cfg.SMTP.From}
	}
	alerter := alerting.NewAlerter(settingsStore, mailer, hub)

	eng := engine.New(policyStore, historyStore, seriesStore, scheduler, alerter, hub)

	authManager := auth.NewManager(cfg.Auth)
	handler := api.NewHandler(eng, scheduler, alerter, settingsStore, authManager, hub)

	dataServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.DataPort),
		Handler: api.NewDataRouter(handler, authManager),
	}
	mgmtServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.UIPort),
		Handler: api.NewManagementRouter(handler, authManager),
	}

	go func() {
		log.Printf("Starting batch ingestion server on port %d", cfg.Server.DataPort)
		if err := dataServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Data server error: %v", err)
		}
	}()
	go func() {
		log.Printf("Starting management server on port %d", cfg.Server.UIPort)
		if err := mgmtServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Management server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dataServer.Shutdown(ctx); err != nil {
		log.Printf("Data server shutdown: %v", err)
	}
	if err := mgmtServer.Shutdown(ctx); err != nil {
		log.Printf("Management server shutdown: %v", err)
	}
	log.Println("Servers stopped.")
}
