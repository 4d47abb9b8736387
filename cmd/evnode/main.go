// Command evnode is the process entrypoint for the account lifecycle
// engine. It loads configuration, wires the external collaborators, and
// runs the engine until interrupted. Process bootstrap (flag parsing,
// signal handling) is kept deliberately small — CLI ergonomics are out of
// scope (spec section 1 non-goals); this exists only so the engine has
// somewhere to run from.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"

	"evrollup/config"
	"evrollup/engine"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file")
	flag.Parse()

	cfg := config.DefaultConfig
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Crit("Failed to load configuration", "path", *configPath, "err", err)
		}
		cfg = loaded
	}

	deps, err := buildDependencies(cfg)
	if err != nil {
		log.Crit("Failed to build engine dependencies", "err", err)
	}

	eng, err := engine.New(cfg, deps)
	if err != nil {
		log.Crit("Failed to construct engine", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting account lifecycle engine", "lifecycle", cfg.Lifecycle)
	eng.Run(ctx)
	log.Info("Account lifecycle engine stopped")
}
