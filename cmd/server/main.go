// Command relaychat-server runs the chat relay.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/Tyrowin/relaychat/internal/server"
)

func main() {
	app := cli.NewApp()
	app.Name = "relaychat-server"
	app.Usage = "Relay chat lines between TCP clients"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "Load settings from a TOML `FILE`",
		},
		cli.StringFlag{
			Name:  "address,a",
			Usage: "IPv4 address to listen on",
			Value: server.DefaultAddress,
		},
		cli.IntFlag{
			Name:  "max-clients,n",
			Usage: "Maximum number of simultaneous clients",
			Value: server.DefaultMaxClients,
		},
		cli.StringFlag{
			Name:  "ws-address,w",
			Usage: "Serve the WebSocket gateway on this address",
		},
		cli.BoolFlag{
			Name:  "debug,d",
			Usage: "Enable debug output",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetFormatter(&lineFormatter{})
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting chat relay...")
	if err := server.New(cfg, log.NewEntry(log.StandardLogger())).Run(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}

// loadConfig layers defaults, the config file, the environment and flags, in
// that order.
func loadConfig(c *cli.Context) (server.Config, error) {
	cfg := server.DefaultConfig()

	if path := c.String("config"); path != "" {
		if err := server.LoadConfigFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if c.IsSet("address") {
		cfg.Address = c.String("address")
	}
	if c.IsSet("max-clients") {
		cfg.MaxClients = c.Int("max-clients")
	}
	if c.IsSet("ws-address") {
		cfg.WebSocket.Address = c.String("ws-address")
	}

	return cfg.Sanitize(), nil
}
