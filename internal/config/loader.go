package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SHELFSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shelfstat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".shelfstat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is okay if not explicitly specified
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides bind.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("parser.locator", cfg.Parser.Locator)
	v.SetDefault("parser.card_selector", cfg.Parser.CardSelector)

	v.SetDefault("report.max_length", cfg.Report.MaxLength)
	v.SetDefault("report.markup", cfg.Report.Markup)

	v.SetDefault("bot.token", cfg.Bot.Token)
	v.SetDefault("bot.api_url", cfg.Bot.APIURL)
	v.SetDefault("bot.listen_addr", cfg.Bot.ListenAddr)
	v.SetDefault("bot.webhook_path", cfg.Bot.WebhookPath)
	v.SetDefault("bot.secret_token", cfg.Bot.SecretToken)
	v.SetDefault("bot.temp_dir", cfg.Bot.TempDir)
	v.SetDefault("bot.request_timeout", cfg.Bot.RequestTimeout)
	v.SetDefault("bot.max_file_size", cfg.Bot.MaxFileSize)

	v.SetDefault("session.backend", cfg.Session.Backend)
	v.SetDefault("session.ttl", cfg.Session.TTL)
	v.SetDefault("session.mongo_uri", cfg.Session.MongoURI)
	v.SetDefault("session.database", cfg.Session.Database)
	v.SetDefault("session.collection", cfg.Session.Collection)

	v.SetDefault("export.format", cfg.Export.Format)
	v.SetDefault("export.output_path", cfg.Export.OutputPath)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
