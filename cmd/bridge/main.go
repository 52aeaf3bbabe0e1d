package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"alexa-smart-home/config"
	"alexa-smart-home/internal/application"
	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/infra/alexa"
	"alexa-smart-home/internal/infra/homeassistant"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	stdin := flag.Bool("stdin", false, "answer one directive read from stdin and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	// The one-shot mode writes the response to stdout, so logs go to stderr.
	logOut := os.Stdout
	if *stdin {
		logOut = os.Stderr
	}
	logger := setupLogger(cfg.Log, logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	hub := homeassistant.NewClient(homeassistant.Config{
		BaseURL:   cfg.HomeAssistant.URL,
		Token:     cfg.HomeAssistant.Token,
		VerifySSL: cfg.HomeAssistant.SSLVerify,
		UserAgent: cfg.HomeAssistant.UserAgent,
	}, logger)

	discovery := application.NewDiscovery(hub, application.ExposurePolicy{
		Domains:         cfg.Exposure.Domains,
		EntitySuffixes:  cfg.Exposure.EntitySuffixes,
		ExposeByDefault: cfg.Exposure.ExposeByDefault,
	}, logger)
	dispatcher := application.NewDispatcher(hub, discovery, logger)

	if *stdin {
		if err := answerOnce(ctx, dispatcher, os.Stdin, os.Stdout); err != nil {
			logger.Error("answering directive", "error", err)
			os.Exit(1)
		}
		return
	}

	server := alexa.NewServer(cfg.HTTP.Addr, cfg.HTTP.AuthToken, cfg.HTTP.RateLimit, dispatcher, logger)

	logger.Info("starting alexa smart home bridge",
		"addr", cfg.HTTP.Addr,
		"hub", cfg.HomeAssistant.URL,
		"domains", len(cfg.Exposure.Domains),
	)

	if err := server.Start(ctx); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		logger.Error("stopping server", "error", err)
		os.Exit(1)
	}
}

// answerOnce reads a single directive document and writes its response.
func answerOnce(ctx context.Context, dispatcher *application.Dispatcher, in io.Reader, out io.Writer) error {
	var req domain.DirectiveRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decoding directive: %w", err)
	}

	resp := dispatcher.Dispatch(ctx, &req)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}
