package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	pkgconfig "github.com/starford/folio/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if configPath, err = pkgconfig.FindUp(wd, internal.ConfigFile); err != nil {
			return nil, fmt.Errorf("%w (run `folio init` to create one)", err)
		}
	}

	cfg := internal.NewDefaultConfig(filepath.Dir(configPath))
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runInit(_ context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = "."
	}
	cfgPath, err := internal.Init(dir)
	if err != nil {
		return err
	}
	printInit(os.Stdout, cfgPath)
	return nil
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := internal.Build(ctx,
		internal.WithConfig(cfg),
		internal.WithRelease(cmd.Bool("release")),
		internal.WithAllowFailedChecks(cmd.Bool("allow-failed-checks")),
	)
	printBuild(os.Stdout, cfg.Title, res)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
		if err := cfg.App.Validate(); err != nil {
			return err
		}
	}

	if err := internal.Serve(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.MCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:  "folio",
		Usage: "Build and preview Markdown documentation sites",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "folio.yaml in the working directory or a parent",
				Sources:     cli.EnvVars("FOLIO_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Create folio.yaml and a docs directory",
				ArgsUsage: "[dir]",
				Action:    runInit,
			},
			{
				Name:  "build",
				Usage: "Build the site into out_dir and check its links",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "release",
						Usage: "Leave out development hooks such as live reload",
					},
					&cli.BoolFlag{
						Name:  "allow-failed-checks",
						Usage: "Report broken links without failing the build",
					},
				},
				Action: runBuild,
			},
			{
				Name:  "serve",
				Usage: "Serve the site with live reload and rebuild on changes",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Preview server port (overrides app.http.port)",
					},
				},
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the site to MCP clients on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
