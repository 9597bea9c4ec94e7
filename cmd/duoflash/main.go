// Command duoflash watches a Duolingo practice session and turns the
// mistakes into an Anki deck via Gemini.
//
// Usage:
//
//	duoflash -config duoflash.yaml              # watch + forge in one process
//	duoflash -config duoflash.yaml -serve       # forge only (bus server)
//	duoflash -forge-url http://127.0.0.1:8790   # watch only, flush over the bus
//	duoflash -set-key AIza...                   # store the Gemini API key
//	duoflash -show-key                          # print the stored key
//	duoflash -delete-key                        # remove the stored key
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/duoflash/bus"
	"github.com/hazyhaar/duoflash/deckforge"
	"github.com/hazyhaar/duoflash/lessonwatch"
)

// fileConfig is the on-disk layout: one file for both halves.
type fileConfig struct {
	Watch lessonwatch.Config `yaml:"watch"`
	Forge deckforge.Config   `yaml:"forge"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Watch.ApplyDefaults()
	cfg.Forge.ApplyDefaults()

	// The deck name must match on both sides; the watch section wins.
	cfg.Forge.FromLanguage = cfg.Watch.Page.FromLanguage
	cfg.Forge.ToLanguage = cfg.Watch.Page.ToLanguage
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to duoflash.yaml config file")
	serve := flag.Bool("serve", false, "run the synthesis service only (bus server)")
	forgeURL := flag.String("forge-url", "", "run the watcher only, flushing to this bus URL")
	setKey := flag.String("set-key", "", "store the Gemini API key and exit")
	showKey := flag.Bool("show-key", false, "print the stored Gemini API key and exit")
	deleteKey := flag.Bool("delete-key", false, "remove the stored Gemini API key and exit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, logger, options{
		configPath: *configPath,
		serve:      *serve,
		forgeURL:   *forgeURL,
		setKey:     *setKey,
		showKey:    *showKey,
		deleteKey:  *deleteKey,
	})
	if err != nil {
		logger.Error("duoflash: fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	serve      bool
	forgeURL   string
	setKey     string
	showKey    bool
	deleteKey  bool
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg, err := loadFileConfig(opts.configPath)
	if err != nil {
		return err
	}

	// Key management one-shots.
	if opts.setKey != "" || opts.showKey || opts.deleteKey {
		return runKeyCommand(ctx, logger, cfg, opts)
	}

	if opts.forgeURL != "" {
		return runWatchOnly(ctx, logger, cfg, opts.forgeURL)
	}
	if opts.serve {
		return runServe(ctx, logger, cfg)
	}
	return runAll(ctx, logger, cfg)
}

// runAll wires the watcher straight into the forge, single process.
func runAll(ctx context.Context, logger *slog.Logger, cfg fileConfig) error {
	forge, err := deckforge.New(ctx, cfg.Forge, logger)
	if err != nil {
		return err
	}
	defer forge.Close()

	w := lessonwatch.New(cfg.Watch, forge, logger)
	err = w.Run(ctx)

	// Let a batch flushed during shutdown finish synthesizing.
	forge.Drain()
	return err
}

// runServe runs only the privileged side: the bus server plus pipeline.
func runServe(ctx context.Context, logger *slog.Logger, cfg fileConfig) error {
	forge, err := deckforge.New(ctx, cfg.Forge, logger)
	if err != nil {
		return err
	}
	defer forge.Close()

	return forge.Serve(ctx)
}

// runWatchOnly runs only the capture side, delivering over the bus.
func runWatchOnly(ctx context.Context, logger *slog.Logger, cfg fileConfig, forgeURL string) error {
	sink := bus.NewClient(forgeURL)
	w := lessonwatch.New(cfg.Watch, sink, logger)
	return w.Run(ctx)
}

// runKeyCommand manages the credential, against the bus when a forge URL
// is given, otherwise directly against the local store.
func runKeyCommand(ctx context.Context, logger *slog.Logger, cfg fileConfig, opts options) error {
	if opts.forgeURL != "" {
		client := bus.NewClient(opts.forgeURL)
		switch {
		case opts.setKey != "":
			return client.StoreKey(ctx, opts.setKey)
		case opts.deleteKey:
			return client.RemoveKey(ctx)
		default:
			key, err := client.RequestKey(ctx)
			if err != nil {
				return err
			}
			printKey(key)
			return nil
		}
	}

	forge, err := deckforge.New(ctx, cfg.Forge, logger)
	if err != nil {
		return err
	}
	defer forge.Close()

	switch {
	case opts.setKey != "":
		return forge.SetAPIKey(ctx, opts.setKey)
	case opts.deleteKey:
		return forge.RemoveAPIKey(ctx)
	default:
		key, err := forge.APIKey(ctx)
		if err != nil {
			return err
		}
		printKey(key)
		return nil
	}
}

func printKey(key string) {
	if key == "" {
		fmt.Println("(no API key stored)")
		return
	}
	fmt.Println(key)
}
