package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xinyang20/SDDB/internal/config"
	"github.com/xinyang20/SDDB/internal/feed"
	"github.com/xinyang20/SDDB/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	host := flag.String("host", "", "Override listen host")
	port := flag.Int("port", 0, "Override server port")
	token := flag.String("token", "", "Require this auth token")
	seed := flag.Int64("seed", 0, "Simulation seed (0 = time-based)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *host != "" {
		cfg.Mock.Host = *host
	}
	if *port > 0 {
		cfg.Mock.Port = *port
	}
	if *token != "" {
		cfg.Mock.Token = *token
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	alerts := feed.NewAlertStore()
	gen := feed.NewGenerator(*seed, alerts, nil)
	broadcaster := server.NewBroadcaster(gen)
	gen.SetBroadcaster(broadcaster)
	srv := server.NewServer(broadcaster, alerts, cfg.Mock.Token)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gen.Start(ctx, cfg.Mock.PushInterval, cfg.Mock.AlertInterval)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		broadcaster.Close()
	}()

	if err := server.ListenAndServe(ctx, cfg.Mock.Host, cfg.Mock.Port, srv.Handler()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
