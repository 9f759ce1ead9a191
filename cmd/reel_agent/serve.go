package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonathan/reel-studio/internal/config"
	"github.com/jonathan/reel-studio/internal/logging"
	"github.com/jonathan/reel-studio/internal/server"
	"github.com/jonathan/reel-studio/internal/server/ratelimit"
	"github.com/jonathan/reel-studio/internal/styles"
	"github.com/jonathan/reel-studio/internal/tracker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	servePort    string
	serveWatch   bool
	serveOrigins string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for generating videos, tracking renders and
managing custom styles. With --watch, a background watcher also checks pending renders.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (defaults to PORT or 8080)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Run the render watcher alongside the server")
	serveCmd.Flags().StringVar(&serveOrigins, "allowed-origins", "", "Comma-separated CORS origins (defaults to CORS_ALLOWED_ORIGINS or *)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := a.openDB(ctx, true)
	if err != nil {
		return err
	}
	if applied, err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	} else if len(applied) > 0 {
		a.logger.Info().Strs("migrations", applied).Msg("schema migrated")
	}

	coordinator, err := a.coordinator(ctx, database)
	if err != nil {
		return err
	}
	checker, err := a.tracker(ctx, database)
	if err != nil {
		return err
	}
	client, err := a.llmClient(ctx)
	if err != nil {
		return err
	}

	cfg := server.Config{
		Port:           a.cfg.Port,
		RateLimit:      ratelimit.LoadConfig(),
		AllowedOrigins: splitList(firstNonEmpty(serveOrigins, os.Getenv("CORS_ALLOWED_ORIGINS"))),
		Logger:         logging.Component(a.logger, "server"),
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	if os.Getenv("JWT_SECRET") != "" {
		jwtCfg, err := config.NewJWTConfig()
		if err != nil {
			return fmt.Errorf("failed to create JWT config: %w", err)
		}
		cfg.JWT = jwtCfg
	} else {
		a.logger.Warn().Msg("JWT_SECRET not set: API is running without authentication")
	}

	deps := server.Deps{
		Runner:      coordinator,
		Checker:     checker,
		Generations: database,
		Styles:      database,
		Analyzer:    styles.NewAnalyzer(client),
		Ping:        database.Ping,
	}
	if a.cfg.Storage.Backend == "fs" {
		deps.AssetsDir = a.cfg.Storage.Dir
	}
	srv := server.New(cfg, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if serveWatch {
		watcher := tracker.NewWatcher(checker, database, a.cfg.Tracker.Interval, logging.Component(a.logger, "watcher"))
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
