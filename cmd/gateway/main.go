package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/app"
	"github.com/smsgrid/sms-gateway/internal/config"
)

// main runs the gateway and exits on unrecoverable errors.
func main() {
	if errRun := run(os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("gateway failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and starts the server until a
// termination signal arrives.
func run(args []string) error {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 0, "server port (overrides config)")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	cfg, errLoad := config.Load(config.ResolveConfigPath(strings.TrimSpace(*cfgPath)))
	if errLoad != nil {
		return errLoad
	}
	if *port != 0 {
		if errValidate := validatePort(*port); errValidate != nil {
			return errValidate
		}
		cfg.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.RunServer(ctx, cfg)
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
