package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trader-gateway/src/logger"
	"trader-gateway/src/simulator"
)

// Standalone trading terminal for local runs of the gateway.
func main() {
	addr := flag.String("addr", "127.0.0.1:9000", "listen address")
	user := flag.String("user", "demo", "accepted username")
	password := flag.String("password", "demo", "accepted password")
	account := flag.String("account", "DEMO1", "accepted account")
	level := flag.String("log-level", "INFO", "log level")
	flag.Parse()

	if err := logger.Setup(*level); err != nil {
		fmt.Printf("Error setting up logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(nil, "Terminal")

	term, err := simulator.NewTerminal(*addr, log)
	if err != nil {
		log.Critical("Failed to start terminal: %v", err)
		os.Exit(1)
	}
	term.Username = *user
	term.Password = *password
	term.Account = *account
	log.Info("Terminal listening on %s (account %s)", term.Addr(), *account)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := term.Close(); err != nil {
		log.Warning("Close: %v", err)
	}
	log.Info("Terminal stopped after %d connections", term.Accepted())
}
