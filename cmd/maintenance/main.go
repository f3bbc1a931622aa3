// Package main runs the QuestForge cleanup sweeper.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	maintenancecmd "github.com/questforge/questforge/internal/cmd/maintenance"
)

func main() {
	cfg, err := maintenancecmd.ParseConfig()
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := maintenancecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("maintenance: %v", err)
	}
}
