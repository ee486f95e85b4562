package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ShelfStat/internal/api"
	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/observability"
	"github.com/IshaanNene/ShelfStat/internal/pipeline"
	"github.com/IshaanNene/ShelfStat/internal/session"
	"github.com/IshaanNene/ShelfStat/internal/storage"
	"github.com/IshaanNene/ShelfStat/internal/telegram"
)

var (
	cfgFile      string
	verbose      bool
	query        string
	exportFormat string
	exportDir    string
	plain        bool
	listenAddr   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shelfstat",
		Short: "ShelfStat — marketplace search page analytics",
		Long: `ShelfStat turns a saved Wildberries search results page into a market report.

Features:
  • Product card extraction with CSS or XPath rules
  • Price, rating and review statistics
  • Economy / Standard / Premium price segments with the most popular item
  • Telegram webhook bot: upload the page, then send the query
  • JSON, JSONL, CSV export of parsed products`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// analyzeCmd creates the "analyze" subcommand.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file.html]",
		Short: "Analyze a saved search results page",
		Long:  "Parse a saved search results page (or stdin with \"-\") and print the report for the query.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "search query the page was saved for")
	cmd.Flags().StringVarP(&exportFormat, "export-format", "f", "", "also export parsed products: json, jsonl, csv")
	cmd.Flags().StringVarP(&exportDir, "export-dir", "o", "", "export directory")
	cmd.Flags().BoolVar(&plain, "plain", false, "render the report without HTML markup")
	cmd.MarkFlagRequired("query")

	return cmd
}

// runAnalyze executes the analyze command.
func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if plain {
		cfg.Report.Markup = "plain"
	}
	if exportFormat != "" {
		cfg.Export.Format = strings.ToLower(exportFormat)
	}
	if exportDir != "" {
		cfg.Export.OutputPath = exportDir
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Errorf("--query must not be blank")
	}

	analyzer, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	var res *pipeline.Result
	if args[0] == "-" {
		res, err = analyzer.Analyze(os.Stdin, q)
	} else {
		res, err = analyzer.AnalyzeFile(args[0], q)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Report)

	if cfg.Export.Format != "" {
		store, err := storage.NewFileStorage(cfg.Export.Format, cfg.Export.OutputPath, storage.FileStem(q), logger)
		if err != nil {
			return fmt.Errorf("create storage: %w", err)
		}
		if err := store.Store(res.Products); err != nil {
			store.Close()
			return err
		}
		if err := store.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\n✅ Exported %d products (%s) to %s\n", len(res.Products), store.Name(), cfg.Export.OutputPath)
	}
	return nil
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram webhook bot and HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides bot.listen_addr)")
	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Bot.ListenAddr = listenAddr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.ValidateBot(cfg); err != nil {
		return fmt.Errorf("invalid bot config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics(logger)
	analyzer.SetMetrics(metrics)

	sessions, err := session.New(ctx, cfg.Session, logger)
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}
	defer sessions.Close()

	client := telegram.NewClient(cfg.Bot, logger)
	bot := telegram.NewBot(client, analyzer, sessions, cfg.Bot, logger)
	bot.SetMetrics(metrics)
	go bot.RunJanitor(ctx, cfg.Session.TTL/2)

	srv := api.NewServer(cfg.Bot.ListenAddr, analyzer, cfg.Bot.MaxFileSize, config.Version, logger)
	srv.MountWebhook(cfg.Bot.WebhookPath, telegram.NewWebhookHandler(bot, cfg.Bot.SecretToken, metrics, logger))
	if cfg.Metrics.Enabled {
		srv.MountMetrics(cfg.Metrics.Path, metrics)
	}

	logger.Info("serving",
		"addr", cfg.Bot.ListenAddr,
		"webhook", cfg.Bot.WebhookPath,
		"sessions", sessions.Name(),
		"metrics", cfg.Metrics.Enabled,
	)

	start := time.Now()
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	stats := metrics.Snapshot()
	logger.Info("server stopped",
		"uptime", time.Since(start).Round(time.Second),
		"updates", stats["updates_received"],
		"documents", stats["documents_analyzed"],
		"messages", stats["messages_sent"],
	)
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ShelfStat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Parser:\n")
			fmt.Fprintf(out, "  Locator:           %s\n", cfg.Parser.Locator)
			fmt.Fprintf(out, "  Card Selector:     %s\n", orDefault(cfg.Parser.CardSelector))
			fmt.Fprintf(out, "  Custom Rules:      %d\n", len(cfg.Parser.Rules))
			fmt.Fprintf(out, "\nReport:\n")
			fmt.Fprintf(out, "  Max Length:        %d\n", cfg.Report.MaxLength)
			fmt.Fprintf(out, "  Markup:            %s\n", cfg.Report.Markup)
			fmt.Fprintf(out, "\nBot:\n")
			fmt.Fprintf(out, "  Token:             %s\n", mask(cfg.Bot.Token))
			fmt.Fprintf(out, "  API URL:           %s\n", cfg.Bot.APIURL)
			fmt.Fprintf(out, "  Listen Addr:       %s\n", cfg.Bot.ListenAddr)
			fmt.Fprintf(out, "  Webhook Path:      %s\n", cfg.Bot.WebhookPath)
			fmt.Fprintf(out, "  Secret Token:      %s\n", mask(cfg.Bot.SecretToken))
			fmt.Fprintf(out, "  Temp Dir:          %s\n", cfg.Bot.TempDir)
			fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.Bot.RequestTimeout)
			fmt.Fprintf(out, "  Max File Size:     %d bytes\n", cfg.Bot.MaxFileSize)
			fmt.Fprintf(out, "\nSession:\n")
			fmt.Fprintf(out, "  Backend:           %s\n", cfg.Session.Backend)
			fmt.Fprintf(out, "  TTL:               %s\n", cfg.Session.TTL)
			fmt.Fprintf(out, "\nExport:\n")
			fmt.Fprintf(out, "  Format:            %s\n", orDefault(cfg.Export.Format))
			fmt.Fprintf(out, "  Output Path:       %s\n", cfg.Export.OutputPath)
			fmt.Fprintf(out, "\nMetrics:\n")
			fmt.Fprintf(out, "  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Fprintf(out, "  Path:              %s\n", cfg.Metrics.Path)
			return nil
		},
	}
}

// loadConfig reads configuration and builds the logger it describes.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "…" + s[len(s)-3:]
}
