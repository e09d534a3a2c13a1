package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"maintlog/internal/config"
	"maintlog/internal/listener"
	"maintlog/internal/logging"
	"maintlog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	log := logging.Setup(cfg)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := listener.NewService(db, cfg, log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithField("provider", cfg.MailListenerProvider).Info("mail listener started")
	must(svc.Run(ctx))
	log.Info("mail listener stopped")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
