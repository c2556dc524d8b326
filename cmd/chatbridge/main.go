// Command chatbridge runs the protocol translation gateway.
//
// Configuration is layered: built-in defaults, then a YAML config file
// (-config flag, CHATBRIDGE_CONFIG, ./config.yaml, /etc/chatbridge/config.yaml),
// then CHATBRIDGE_* environment variables. See pkg/config for the full list.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/chatbridge-dev/chatbridge/pkg/attach"
	"github.com/chatbridge-dev/chatbridge/pkg/auth"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
	"github.com/chatbridge-dev/chatbridge/pkg/config"
	"github.com/chatbridge-dev/chatbridge/pkg/debug"
	"github.com/chatbridge-dev/chatbridge/pkg/transport"
	"github.com/chatbridge-dev/chatbridge/pkg/translate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	fallback := slog.LevelInfo
	if *verbose {
		fallback = slog.LevelDebug
	}
	level := debug.Level(fallback)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout)
	defer client.Close()

	limits := attach.DefaultLimits()
	if cfg.Attachments.MaxAudioBytes > 0 {
		limits.MaxAudioBytes = cfg.Attachments.MaxAudioBytes
	}
	if cfg.Attachments.MaxImageBytes > 0 {
		limits.MaxImageBytes = cfg.Attachments.MaxImageBytes
	}
	if cfg.Attachments.MaxTextBytes > 0 {
		limits.MaxTextBytes = cfg.Attachments.MaxTextBytes
	}
	cache := attach.NewCache(cfg.Attachments.CacheSize, cfg.Attachments.CacheTTL)
	resolver := attach.NewResolver(client, cache, limits)

	gateway := transport.NewGateway(transport.Config{
		DefaultModel:    cfg.Backend.Model,
		EmbeddingsModel: cfg.Backend.EmbeddingsModel,
		PassToken:       cfg.Backend.PassToken,
		EnableCORS:      cfg.Server.CORS,
		MetricsEnabled:  cfg.Observability.Metrics.Enabled,
		MetricsPath:     cfg.Observability.Metrics.Path,
		Secret:          auth.NewSharedSecret(cfg.Auth.Secret),
		Logger:          logger,
	},
		client,
		translate.NewNormalizer(resolver, cfg.Attachments.EnableImages),
		translate.Transformer{PassModel: cfg.Backend.PassModel},
		&transport.TiktokenTokenizer{},
	)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := transport.NewServer(gateway.Handler(), transport.ServerConfig{
		Addr:         addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("gateway starting",
		"addr", addr,
		"backend", cfg.Backend.BaseURL,
		"model", cfg.Backend.Model,
		"pass_model", cfg.Backend.PassModel)

	return srv.Run(ctx)
}
