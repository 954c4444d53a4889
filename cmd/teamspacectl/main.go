package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/teamspace/internal/client"
	"github.com/matheus3301/teamspace/internal/config"
	"github.com/matheus3301/teamspace/internal/profile"
	"github.com/spf13/cobra"
)

type globals struct {
	workspace string
	json      bool
	timeout   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errorf("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "teamspacectl",
		Short:         "Inspect and drive a running teamspace daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotEnv(profile.EnvPath())
		},
	}
	root.PersistentFlags().StringVar(&g.workspace, "workspace", "", "workspace name (overrides config default)")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "output in JSON format")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newStatusCmd(g),
		newListCmd(g),
		newUpsertCmd(g),
		newDeleteCmd(g),
		newSendCmd(g),
		newReadCmd(g),
		newJoinCmd(g),
		newCancelCmd(g),
		newResetCmd(g),
		newWatchCmd(g),
	)
	return root
}

// connect resolves the workspace and dials its daemon.
func (g *globals) connect() (*client.Client, string, error) {
	name := profile.Resolve(g.workspace)
	if err := profile.ValidateName(name); err != nil {
		return nil, "", err
	}
	c, err := client.New(profile.SocketPath(name))
	if err != nil {
		return nil, "", fmt.Errorf("cannot connect to daemon for workspace %q: %w", name, err)
	}
	return c, name, nil
}

// run dials the daemon and calls fn with a request-scoped context.
func (g *globals) run(fn func(ctx context.Context, c *client.Client) error) error {
	c, _, err := g.connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	return fn(ctx, c)
}
