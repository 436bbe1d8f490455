// Command relaychat is a terminal client for the chat relay.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli"

	"github.com/Tyrowin/relaychat/internal/client"
)

func main() {
	app := cli.NewApp()
	app.Name = "relaychat"
	app.Usage = "Chat through a relaychat server"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "address,a",
			Usage: "Server address",
			Value: "127.0.0.1:2000",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	addr := c.String("address")
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	p := tea.NewProgram(client.New(conn), tea.WithAltScreen())
	go client.Listen(conn, p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run client: %w", err)
	}
	return nil
}
