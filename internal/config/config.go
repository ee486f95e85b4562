package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ShelfStat.
type Config struct {
	Parser  ParserConfig  `mapstructure:"parser"  yaml:"parser"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	Bot     BotConfig     `mapstructure:"bot"     yaml:"bot"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ParserConfig controls how product cards and their fields are located.
type ParserConfig struct {
	// Locator selects the rule dialect: css or xpath.
	Locator string `mapstructure:"locator" yaml:"locator"`
	// CardSelector is empty to use the dialect's default card selector.
	CardSelector string `mapstructure:"card_selector" yaml:"card_selector"`
	// Rules override DefaultRules per field; fields not listed keep the default.
	Rules []FieldRule `mapstructure:"rules" yaml:"rules"`
}

// FieldRule maps one product field to a selector inside a card.
// Several rules for the same field are tried in order.
type FieldRule struct {
	Field    string `mapstructure:"field"    yaml:"field"` // price, old_price, discount, brand, name, rating, reviews
	Selector string `mapstructure:"selector" yaml:"selector"`
	Type     string `mapstructure:"type"     yaml:"type"` // css, xpath; empty uses parser.locator
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	MaxLength int    `mapstructure:"max_length" yaml:"max_length"`
	Markup    string `mapstructure:"markup"     yaml:"markup"` // html or plain
}

// BotConfig controls the Telegram webhook bot.
type BotConfig struct {
	Token          string        `mapstructure:"token"           yaml:"token"`
	APIURL         string        `mapstructure:"api_url"         yaml:"api_url"`
	ListenAddr     string        `mapstructure:"listen_addr"     yaml:"listen_addr"`
	WebhookPath    string        `mapstructure:"webhook_path"    yaml:"webhook_path"`
	SecretToken    string        `mapstructure:"secret_token"    yaml:"secret_token"`
	TempDir        string        `mapstructure:"temp_dir"        yaml:"temp_dir"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxFileSize    int64         `mapstructure:"max_file_size"   yaml:"max_file_size"`
}

// SessionConfig controls where staged uploads are tracked.
type SessionConfig struct {
	Backend    string        `mapstructure:"backend"    yaml:"backend"` // memory or mongodb
	TTL        time.Duration `mapstructure:"ttl"        yaml:"ttl"`
	MongoURI   string        `mapstructure:"mongo_uri"  yaml:"mongo_uri"`
	Database   string        `mapstructure:"database"   yaml:"database"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
}

// ExportConfig controls record export from the CLI.
type ExportConfig struct {
	Format     string `mapstructure:"format"      yaml:"format"` // empty disables export
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultRules returns the CSS selectors for Wildberries search-results cards.
func DefaultRules() []FieldRule {
	return []FieldRule{
		{Field: "price", Selector: "ins.price__lower-price"},
		{Field: "old_price", Selector: "del"},
		{Field: "discount", Selector: "span.percentage-sale"},
		{Field: "brand", Selector: "span.product-card__brand"},
		{Field: "name", Selector: "span.product-card__name"},
		{Field: "rating", Selector: "span.address-rate-mini"},
		{Field: "reviews", Selector: "span.product-card__count"},
	}
}

// DefaultXPathRules mirrors DefaultRules for the xpath locator.
func DefaultXPathRules() []FieldRule {
	return []FieldRule{
		{Field: "price", Selector: ".//ins[contains(concat(' ', normalize-space(@class), ' '), ' price__lower-price ')]"},
		{Field: "old_price", Selector: ".//del"},
		{Field: "discount", Selector: ".//span[contains(concat(' ', normalize-space(@class), ' '), ' percentage-sale ')]"},
		{Field: "brand", Selector: ".//span[contains(concat(' ', normalize-space(@class), ' '), ' product-card__brand ')]"},
		{Field: "name", Selector: ".//span[contains(concat(' ', normalize-space(@class), ' '), ' product-card__name ')]"},
		{Field: "rating", Selector: ".//span[contains(concat(' ', normalize-space(@class), ' '), ' address-rate-mini ')]"},
		{Field: "reviews", Selector: ".//span[contains(concat(' ', normalize-space(@class), ' '), ' product-card__count ')]"},
	}
}

// Default card selectors per locator dialect.
const (
	DefaultCardSelector      = "article.product-card"
	DefaultXPathCardSelector = "//article[contains(concat(' ', normalize-space(@class), ' '), ' product-card ')]"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			Locator: "css",
		},
		Report: ReportConfig{
			MaxLength: 4096,
			Markup:    "html",
		},
		Bot: BotConfig{
			APIURL:         "https://api.telegram.org",
			ListenAddr:     ":8080",
			WebhookPath:    "/webhook",
			TempDir:        "./tmp",
			RequestTimeout: 30 * time.Second,
			MaxFileSize:    20 * 1024 * 1024, // Bot API download limit
		},
		Session: SessionConfig{
			Backend:    "memory",
			TTL:        30 * time.Minute,
			Database:   "shelfstat",
			Collection: "sessions",
		},
		Export: ExportConfig{
			OutputPath: "./output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
	}
}
