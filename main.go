package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/forgekit/forge/config"
	"github.com/forgekit/forge/livereload"
	"github.com/forgekit/forge/server"
	"github.com/forgekit/forge/site"
	"github.com/forgekit/forge/watcher"
)

type cli struct {
	Root   string `help:"Project root directory." default:"." type:"existingdir"`
	Listen string `help:"Override the listen address from forge.yaml."`

	Dev   devCmd   `cmd:"" help:"Run the development server with live reload."`
	Build buildCmd `cmd:"" help:"Render the site into the output directory."`
	Serve serveCmd `cmd:"" help:"Serve a previously built output directory."`

	Version kong.VersionFlag `help:"Print version and exit."`
}

type devCmd struct{}
type buildCmd struct{}
type serveCmd struct{}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name(strings.ToLower(APP_NAME)),
		kong.Description("Static site generator with markdown content, templated collections and live reload."),
		kong.Vars{"version": SERVER_SIGNATURE},
	)

	cfg, err := config.Load(c.Root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch kctx.Command() {
	case "dev":
		runErr = runDev(ctx, cfg, logger)
	case "build":
		runErr = runBuild(ctx, cfg, logger)
	case "serve":
		runErr = runServe(ctx, cfg, logger)
	}
	if runErr != nil {
		logger.Error(kctx.Command(), "error", runErr)
		os.Exit(1)
	}
}

func runDev(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	builder := site.NewBuilder(cfg, logger)
	builder.SetDevMode(true)
	if err := builder.Discover(); err != nil {
		return err
	}
	builder.BumpVersion()
	logRoutes(builder, logger)

	hub := livereload.NewHub(logger)
	hub.Start()
	defer hub.Shutdown()

	w, err := watcher.New(cfg, builder, hub, logger)
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	srv := server.NewDev(cfg, builder, hub, logger, SERVER_SIGNATURE)
	return srv.Start(ctx)
}

func runBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	builder := site.NewBuilder(cfg, logger)
	if err := builder.Discover(); err != nil {
		return err
	}
	builder.BumpVersion()
	if err := builder.Export(ctx); err != nil {
		return err
	}
	logger.Info("build completed", "output", cfg.OutputRoot())
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv, err := server.NewPreview(cfg.Listen, cfg.OutputRoot(), logger, SERVER_SIGNATURE)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

func logRoutes(builder *site.Builder, logger *slog.Logger) {
	routes := builder.Routes()
	urls := make([]string, 0, len(routes))
	for url := range routes {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	for _, url := range urls {
		logger.Info("route", "url", url, "source", routes[url])
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
