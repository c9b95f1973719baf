// Package main is the entry point for reactived's demo host: it wires
// whichever source adapters are enabled in config into one Engine and
// logs every value each source's stream emits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/go-github/v69/github"
	"github.com/mattn/go-isatty"

	"github.com/nugget/reactived/internal/buildinfo"
	"github.com/nugget/reactived/internal/config"
	"github.com/nugget/reactived/internal/httpkit"
	"github.com/nugget/reactived/internal/reactive"
	"github.com/nugget/reactived/internal/sources/githubsource"
	"github.com/nugget/reactived/internal/sources/mqttsource"
	"github.com/nugget/reactived/internal/sources/tickersource"
	"github.com/nugget/reactived/internal/sources/wssource"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := newLogger(slog.LevelInfo, config.ReplaceLogLevelNames)

	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Println(buildinfo.String())
		return
	}

	logger.Info("starting reactived", "version", buildinfo.Version, "commit", buildinfo.GitCommit)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			logger.Error("invalid log_level in config", "error", err)
			os.Exit(1)
		}
		logger = newLogger(level, config.ReplaceLogLevelNames)
	}

	engine := reactive.NewEngine(
		reactive.WithLogger(logger),
		reactive.WithErrorSink(func(err error) {
			logger.Error("unhandled reactive error", "error", err)
		}),
	)

	subs := wireSources(engine, cfg, logger)
	defer func() {
		for _, s := range subs {
			s.Kill()
		}
	}()

	if len(subs) == 0 {
		logger.Warn("no sources enabled, exiting (see config.yaml: ticker/websocket/mqtt/github)")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("shutting down")
}

// newLogger builds a slog.Logger writing to stdout. It uses the
// human-readable text handler on an interactive terminal and switches
// to JSON otherwise, so piping output into a log collector doesn't need
// a separate parsing mode.
func newLogger(level slog.Level, replaceAttr func([]string, slog.Attr) slog.Attr) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// loadConfig finds and loads the config file, falling back to a
// dependency-free ticker-only default when none is found.
func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

// wireSources builds one Stream per enabled source adapter and
// subscribes a logger observer to each; the streams are not merged. It returns every subscription so the caller can
// tear them down on shutdown.
func wireSources(e *reactive.Engine, cfg *config.Config, logger *slog.Logger) []*reactive.Subscription {
	var subs []*reactive.Subscription

	if cfg.Ticker.Enabled {
		logger.Info("ticker source enabled", "every", cfg.Ticker.Interval)
		src := tickersource.New(cfg.Ticker.Interval)
		ticks := reactive.NewSourceStream[time.Time](e, src)
		subs = append(subs, ticks.Observe(reactive.Observer[time.Time]{
			OnNext: func(t time.Time) { logger.Info("tick", "at", humanize.Time(t)) },
		}))
	}

	if cfg.WebSocket.Enabled {
		src := wssource.New[map[string]any](cfg.WebSocket.URL, wssource.WithLogger[map[string]any](logger))
		msgs := reactive.NewSourceStream[map[string]any](e, src)
		subs = append(subs, msgs.Observe(reactive.Observer[map[string]any]{
			OnNext: func(m map[string]any) { logger.Info("websocket message", "payload", m) },
			OnError: func(err error) { logger.Warn("websocket error", "error", err) },
		}))
	}

	if cfg.MQTT.Configured() {
		src := mqttsource.New[map[string]any](cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topics)
		src.Username = cfg.MQTT.Username
		src.Password = cfg.MQTT.Password
		src.Logger = logger
		msgs := reactive.NewSourceStream[mqttsource.Message[map[string]any]](e, src)
		subs = append(subs, msgs.Observe(reactive.Observer[mqttsource.Message[map[string]any]]{
			OnNext: func(m mqttsource.Message[map[string]any]) {
				logger.Info("mqtt message", "topic", m.Topic, "payload", m.Payload)
			},
			OnError: func(err error) { logger.Warn("mqtt error", "error", err) },
		}))
	}

	if cfg.GitHub.Configured() {
		httpClient := httpkit.NewClient(
			httpkit.WithLogger(logger),
			httpkit.WithRetry(3, 2*time.Second),
		)
		client := github.NewClient(httpClient).WithAuthToken(cfg.GitHub.Token)
		src := githubsource.New(client, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Interval)
		src.Logger = logger
		issues := reactive.NewSourceStream[*github.Issue](e, src)
		subs = append(subs, issues.Observe(reactive.Observer[*github.Issue]{
			OnNext: func(i *github.Issue) {
				logger.Info("github issue updated", "number", i.GetNumber(), "title", i.GetTitle(), "updated", humanize.Time(i.GetUpdatedAt().Time))
			},
			OnError: func(err error) { logger.Warn("github poll error", "error", err) },
		}))
	}

	return subs
}
