package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"gambit/internal/build"
	"gambit/internal/domain/config"
	domainerr "gambit/internal/domain/errors"
	"gambit/internal/serve"
)

const defaultIndexPath = ".gambit/index.db"

func runBuild(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Bool("drafts") {
		cfg.Build.IncludeDrafts = true
	}

	b := &build.Builder{Cfg: cfg, IndexPath: defaultIndexPath}
	res, err := b.Run(ctx)
	if err != nil {
		if errors.Is(err, domainerr.ErrDuplicatePermalink) {
			// 冲突必须中止：不报错的话会静默丢内容
			return cli.Exit(err.Error(), 1)
		}
		return err
	}

	for _, w := range res.Warnings {
		log.Printf("[warn] %s: %s", w.Path, w.Msg)
	}
	log.Printf("[build] %d posts -> %s (fingerprint %.12s)",
		res.Posts, cfg.Build.PublicDir, res.Fingerprint)
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Build.IncludeDrafts = true

	s, err := serve.New(cfg, defaultIndexPath)
	if err != nil {
		return fmt.Errorf("serve init: %w", err)
	}
	defer s.Close()

	return s.ListenAndServe(ctx, cmd.String("addr"))
}

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to site config",
		Value:   "site.yaml",
		Sources: cli.EnvVars("GAMBIT_CONFIG"),
	}

	cmd := &cli.Command{
		Name:  "gambit",
		Usage: "Markdown blog generator: ordered listings, category pages, feeds",
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the site into the public dir",
				Action: runBuild,
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "drafts",
						Usage: "include draft posts",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the site locally with live reload",
				Action: runServe,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "listen address",
						Value:   ":8080",
						Sources: cli.EnvVars("GAMBIT_ADDR"),
					},
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
