package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldNames lists the product fields a FieldRule may target.
var FieldNames = []string{"price", "old_price", "discount", "brand", "name", "rating", "reviews"}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Parser.Locator != "css" && cfg.Parser.Locator != "xpath" {
		return fmt.Errorf("parser.locator must be 'css' or 'xpath', got %q", cfg.Parser.Locator)
	}
	known := make(map[string]bool, len(FieldNames))
	for _, f := range FieldNames {
		known[f] = true
	}
	for i, rule := range cfg.Parser.Rules {
		if !known[rule.Field] {
			return fmt.Errorf("parser.rules[%d].field %q is not a product field (valid: %s)",
				i, rule.Field, strings.Join(FieldNames, ", "))
		}
		if rule.Type != "" && rule.Type != "css" && rule.Type != "xpath" {
			return fmt.Errorf("parser.rules[%d].type must be 'css' or 'xpath', got %q", i, rule.Type)
		}
		if strings.TrimSpace(rule.Selector) == "" {
			return fmt.Errorf("parser.rules[%d].selector must not be empty", i)
		}
	}

	if cfg.Report.MaxLength < 1 {
		return fmt.Errorf("report.max_length must be >= 1, got %d", cfg.Report.MaxLength)
	}
	if cfg.Report.Markup != "html" && cfg.Report.Markup != "plain" {
		return fmt.Errorf("report.markup must be 'html' or 'plain', got %q", cfg.Report.Markup)
	}

	validSessionBackends := map[string]bool{
		"memory": true, "mongodb": true,
	}
	if !validSessionBackends[cfg.Session.Backend] {
		return fmt.Errorf("session.backend %q is not supported (valid: memory, mongodb)", cfg.Session.Backend)
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}
	if cfg.Session.Backend == "mongodb" && cfg.Session.MongoURI == "" {
		return fmt.Errorf("session.mongo_uri is required for the mongodb backend")
	}

	if cfg.Export.Format != "" {
		validExportFormats := map[string]bool{
			"json": true, "jsonl": true, "csv": true,
		}
		if !validExportFormats[cfg.Export.Format] {
			return fmt.Errorf("export.format %q is not supported (valid: json, jsonl, csv)", cfg.Export.Format)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}

// ValidateBot checks the settings needed to run the webhook bot.
func ValidateBot(cfg *Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot.token is required (set SHELFSTAT_BOT_TOKEN)")
	}
	u, err := url.Parse(cfg.Bot.APIURL)
	if err != nil {
		return fmt.Errorf("invalid bot.api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("bot.api_url scheme must be http or https, got %q", u.Scheme)
	}
	if !strings.HasPrefix(cfg.Bot.WebhookPath, "/") {
		return fmt.Errorf("bot.webhook_path must start with '/', got %q", cfg.Bot.WebhookPath)
	}
	if cfg.Bot.ListenAddr == "" {
		return fmt.Errorf("bot.listen_addr must not be empty")
	}
	if cfg.Bot.RequestTimeout <= 0 {
		return fmt.Errorf("bot.request_timeout must be > 0")
	}
	if cfg.Bot.MaxFileSize <= 0 {
		return fmt.Errorf("bot.max_file_size must be > 0")
	}
	return nil
}
