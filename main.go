package main

import (
	"context"
	_ "embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"weather/cli"
)

//go:embed config.yaml
var configRaw []byte

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := cli.New(configRaw, cli.Build)
	if err != nil {
		log.Fatalf("new cli: %s\n", err)
	}

	if err = cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
