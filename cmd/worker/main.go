package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/vlatan/anime-studio/internal/worker"
)

func main() {

	// Listen for interruption signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create and run the worker
	service := worker.New(ctx)
	defer service.Close()

	if err := service.Run(ctx); err != nil {
		log.Println(err)
	}
}
