// main.go
// Application entry point: loads configuration, initializes logging, connects and runs the responder bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erilali/showdown/internal/api"
	"github.com/erilali/showdown/internal/auth"
	"github.com/erilali/showdown/internal/bot"
	"github.com/erilali/showdown/internal/config"
	"github.com/erilali/showdown/internal/directory"
	"github.com/erilali/showdown/internal/logger"
	"github.com/erilali/showdown/internal/metrics"
	"github.com/erilali/showdown/internal/relay"
	"github.com/erilali/showdown/internal/stream"
)

type flags struct {
	configPath string
	server     string
	url        string
	user       string
	logLevel   string
	statusAddr string
	rooms      []string
}

func main() {
	var f flags
	rootCmd := &cobra.Command{
		Use:   "showdown-responder",
		Short: "A Pokémon Showdown bot that answers .yay",
		Long: `Connects to a Showdown server, logs in when the server sends a
challenge, joins the configured rooms and replies "YAY <USER>!" to .yay.

The password is read from the config file or SHOWDOWN_PASSWORD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	rootCmd.Flags().StringVarP(&f.configPath, "config", "c", "showdown.json", "config file (.json or .yaml)")
	rootCmd.Flags().StringVar(&f.server, "server", "", "server name to resolve through the directory")
	rootCmd.Flags().StringVar(&f.url, "url", "", "websocket URL, skips the directory")
	rootCmd.Flags().StringVarP(&f.user, "user", "u", "", "login name")
	rootCmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.Flags().StringVar(&f.statusAddr, "status-addr", "", "address for /health and /metrics")
	rootCmd.Flags().StringArrayVarP(&f.rooms, "room", "r", nil, "room to join once logged in (repeatable)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("server") {
		cfg.Server = f.server
	}
	if changed("url") {
		cfg.URL = f.url
	}
	if changed("user") {
		cfg.Username = f.user
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("status-addr") {
		cfg.StatusAddr = f.statusAddr
	}
	if changed("room") {
		cfg.Rooms = f.rooms
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config) error {
	logger.InitLogger(cfg.Log)
	log := logger.NewLogger("main")
	log.WithFields(map[string]interface{}{
		"server": cfg.Server,
		"user":   cfg.Username,
		"rooms":  cfg.Rooms,
	}).Info("Starting responder")

	m := metrics.New()
	opts := []bot.Option{bot.WithMetrics(m), bot.WithLogger(logger.NewLogger("bot"))}

	if cfg.NatsURL != "" {
		r, err := relay.Connect(cfg.NatsURL, cfg.SubjectPrefix, logger.NewLogger("relay"))
		if err != nil {
			log.Errorf("Error connecting relay: %v", err)
			log.Warn("Running without NATS relay.")
		} else {
			defer r.Close()
			opts = append(opts, bot.WithRelay(r))
		}
	}

	conn, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	authClient := &auth.Client{LoginURL: cfg.LoginURL, Logger: logger.NewLogger("auth")}
	b := bot.New(conn, authClient, bot.Settings{
		Username: cfg.Username,
		Password: cfg.Password,
		Rooms:    cfg.Rooms,
	}, opts...)

	if cfg.StatusAddr != "" {
		statusCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := api.StartServer(statusCtx, cfg.StatusAddr, api.NewRouter(b, m.Handler()), logger.NewLogger("api"))
			if err != nil {
				log.Errorf("Status server: %v", err)
			}
		}()
	}

	err = b.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("Shutting down")
		return nil
	}
	return err
}

func connect(ctx context.Context, cfg config.Config) (*stream.Conn, error) {
	opts := []stream.Option{stream.WithLogger(logger.NewLogger("stream"))}
	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		return stream.ConnectURL(ctx, u, opts...)
	}
	resolver := &directory.Resolver{BaseURL: cfg.DirectoryURL, Logger: logger.NewLogger("directory")}
	return stream.Connect(ctx, cfg.Server, append(opts, stream.WithResolver(resolver))...)
}
