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

	"github.com/cato-helper/console/internal/config"
	"github.com/cato-helper/console/internal/helperd"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Daemon.Port = *port
	}

	broadcaster := helperd.NewBroadcaster()
	logf := func(level, format string, args ...interface{}) {
		message := fmt.Sprintf(format, args...)
		log.Printf("[%s] %s", level, message)
		broadcaster.Publish(level, message)
	}

	cma := helperd.NewCMA(cfg.Daemon.Profiles, cfg.Daemon.LoginDuration.Std(), cfg.Daemon.LoginFailure, logf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := helperd.NewServer(cma, broadcaster, &cfg.Daemon, cancel)

	addr := fmt.Sprintf("%s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Println("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	log.Printf("CMA helper daemon listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
