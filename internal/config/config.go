package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	SMTP struct {
		Host       string   `yaml:"host"`
		Port       int      `yaml:"port"`
		Sender     string   `yaml:"sender"`
		Password   string   `yaml:"password"`
		Recipients []string `yaml:"recipients"`
		CCSender   bool     `yaml:"cc_sender"`
		AdminBCC   []string `yaml:"admin_bcc"`
		DryRun     bool     `yaml:"dry_run"`
		Debug      bool     `yaml:"debug"`
	} `yaml:"smtp"`
	Providers struct {
		Order           []string `yaml:"order"`
		MinSamples      int      `yaml:"min_samples"`
		AlphaVantageKey string   `yaml:"alphavantage_key"`
		StooqPaceSec    int      `yaml:"stooq_pace_sec"`
		AlphaPaceSec    int      `yaml:"alphavantage_pace_sec"`
	} `yaml:"providers"`
	News struct {
		DumpPath string `yaml:"dump_path"`
	} `yaml:"news"`
	Universe struct {
		Path string `yaml:"path"`
	} `yaml:"universe"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_SENDER"); v != "" {
		cfg.SMTP.Sender = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("DIGEST_RECIPIENTS"); v != "" {
		cfg.SMTP.Recipients = splitList(v)
	}
	if v := os.Getenv("DIGEST_ADMIN_BCC"); v != "" {
		cfg.SMTP.AdminBCC = splitList(v)
	}
	if v := os.Getenv("DIGEST_DRY_RUN"); v != "" {
		cfg.SMTP.DryRun = isTruthy(v)
	}
	if v := os.Getenv("DIGEST_DEBUG"); v != "" {
		cfg.SMTP.Debug = isTruthy(v)
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantageKey = v
	}
	if v := os.Getenv("NEWS_DUMP_PATH"); v != "" {
		cfg.News.DumpPath = v
	}
	if v := os.Getenv("UNIVERSE_PATH"); v != "" {
		cfg.Universe.Path = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if len(cfg.Providers.Order) == 0 {
		cfg.Providers.Order = []string{"yahoo", "stooq", "alphavantage"}
	}
	if cfg.Providers.MinSamples == 0 {
		cfg.Providers.MinSamples = 30
	}
	if cfg.Providers.StooqPaceSec == 0 {
		cfg.Providers.StooqPaceSec = 1
	}
	if cfg.Providers.AlphaPaceSec == 0 {
		cfg.Providers.AlphaPaceSec = 12
	}
	if cfg.Universe.Path == "" {
		cfg.Universe.Path = "data/companies.yaml"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set. Delivery credentials are
// checked up front so a misconfigured run fails before any network work.
func (c *Config) Validate() error {
	if c.SMTP.Sender == "" {
		return fmt.Errorf("smtp.sender is required")
	}
	if len(c.SMTP.Recipients) == 0 {
		return fmt.Errorf("smtp.recipients is required")
	}
	if !c.SMTP.DryRun {
		if c.SMTP.Host == "" {
			return fmt.Errorf("smtp.host is required")
		}
		if c.SMTP.Password == "" {
			return fmt.Errorf("smtp.password is required")
		}
	}
	for _, name := range c.Providers.Order {
		switch name {
		case "yahoo", "stooq", "alphavantage":
		default:
			return fmt.Errorf("providers.order: unknown source %q", name)
		}
	}
	if c.Providers.MinSamples < 1 {
		return fmt.Errorf("providers.min_samples must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
