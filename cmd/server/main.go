package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/avolkov/folio/internal/server"
	"github.com/avolkov/folio/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")

	// Load registers the config flags and performs the single flag.Parse.
	cfg, err := config.Load()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()

	app, err := server.NewApp(ctx, cfg, Version)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func printVersion() {
	fmt.Printf("Folio Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
