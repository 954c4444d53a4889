package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/teamspace/internal/config"
	"github.com/matheus3301/teamspace/internal/daemon"
	"github.com/matheus3301/teamspace/internal/profile"
	"go.uber.org/fx"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace name (overrides config default)")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	workspaceName := profile.Resolve(*workspaceFlag)
	if err := profile.ValidateName(workspaceName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{WorkspaceName: workspaceName, Config: cfg}),
	)

	app.Run()
}

// loadConfig reads .env, then config.toml, then applies environment overrides.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(profile.EnvPath()); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
