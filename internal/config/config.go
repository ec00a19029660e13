package config

import (
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
)

const (
	DefaultInterval   = 30
	DefaultStaleAfter = 90
	DefaultListen     = ":9500"
	DefaultLogLevel   = "info"
	DefaultSiteID     = "powerwall"
	DefaultHistoryDB  = "/var/lib/powerwall-exporter/history.db"
)

// Site describes one monitored Powerwall installation.
type Site struct {
	SiteID   string `mapstructure:"site_id"`
	Mode     string `mapstructure:"mode"`
	Host     string `mapstructure:"host"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

type Config struct {
	Listen     string `mapstructure:"listen"`
	Interval   int    `mapstructure:"interval"`
	StaleAfter int    `mapstructure:"stale_after"`

	// Single-site settings, used when no [[sites]] table is present.
	Mode     string `mapstructure:"mode"`
	Host     string `mapstructure:"host"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
	SiteID   string `mapstructure:"site_id"`

	// Additional sites, config file only.
	Sites []Site `mapstructure:"sites"`

	History   bool   `mapstructure:"history"`
	HistoryDB string `mapstructure:"history_db"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`

	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
	Verbose  bool   `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	flags := pflag.NewFlagSet("powerwall-exporter", pflag.ContinueOnError)

	flags.String("config", "", "Path to config file")
	flags.String("listen", DefaultListen, "Address for the metrics/health HTTP server")
	flags.Int("interval", DefaultInterval, "Seconds between polls")
	flags.Int("stale-after", DefaultStaleAfter, "Seconds without a successful poll before reporting unhealthy")
	flags.String("mode", "local", "Transport mode: local, fleet or cloud")
	flags.String("host", "", "Powerwall gateway host (local mode)")
	flags.String("email", "", "Customer email (local mode login)")
	flags.String("password", "", "Gateway password (local mode login)")
	flags.String("token", "", "API token (fleet and cloud modes)")
	flags.String("site-id", DefaultSiteID, "Site identifier used in metric labels")
	flags.Bool("history", false, "Record observed states to the history database")
	flags.String("history-db", DefaultHistoryDB, "Path to the history database")
	flags.String("otlp-endpoint", "", "OTLP gRPC endpoint for trace export")
	flags.Bool("otlp-insecure", false, "Disable TLS for the OTLP endpoint")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Flags use dashes, config keys use underscores.
	flagKeys := map[string]string{
		"listen":        "listen",
		"interval":      "interval",
		"stale_after":   "stale-after",
		"mode":          "mode",
		"host":          "host",
		"email":         "email",
		"password":      "password",
		"token":         "token",
		"site_id":       "site-id",
		"history":       "history",
		"history_db":    "history-db",
		"otlp_endpoint": "otlp-endpoint",
		"otlp_insecure": "otlp-insecure",
		"log_level":     "log-level",
		"debug":         "debug",
		"verbose":       "verbose",
	}
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix("POWERWALL")
	v.AutomaticEnv()

	configPath, _ := flags.GetString("config")
	if configPath == "" {
		configPath = os.Getenv("POWERWALL_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName("powerwall-exporter")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field values and the per-site transport requirements.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.StaleAfter <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "stale_after must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	sites := c.EffectiveSites()
	if len(sites) == 0 {
		return errFactory.WithData(errors.ErrMissingConfig, "no sites configured")
	}

	seen := make(map[string]bool, len(sites))
	for i := range sites {
		site := &sites[i]
		if site.SiteID == "" {
			return errFactory.WithData(errors.ErrInvalidConfig, "site_id must not be empty")
		}
		if seen[site.SiteID] {
			return errFactory.WithData(errors.ErrInvalidConfig, "duplicate site_id: "+site.SiteID)
		}
		seen[site.SiteID] = true

		switch site.Mode {
		case "local":
			if site.Host == "" || site.Password == "" {
				return errFactory.WithData(errors.ErrMissingConfig,
					"local mode requires host and password for site "+site.SiteID)
			}
		case "fleet", "cloud":
			if site.Token == "" {
				return errFactory.WithData(errors.ErrMissingConfig,
					site.Mode+" mode requires a token for site "+site.SiteID)
			}
		default:
			return errFactory.WithData(errors.ErrInvalidConfig, "unknown mode: "+site.Mode)
		}
	}

	return nil
}

// EffectiveSites returns the configured sites. When no [[sites]] table is
// present the single-site flag/file values form a one-element list.
func (c *Config) EffectiveSites() []Site {
	if len(c.Sites) > 0 {
		sites := make([]Site, len(c.Sites))
		copy(sites, c.Sites)
		for i := range sites {
			if sites[i].Mode == "" {
				sites[i].Mode = c.Mode
			}
		}
		return sites
	}

	return []Site{{
		SiteID:   c.SiteID,
		Mode:     c.Mode,
		Host:     c.Host,
		Email:    c.Email,
		Password: c.Password,
		Token:    c.Token,
	}}
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// StaleThreshold returns the staleness threshold as a duration.
func (c *Config) StaleThreshold() time.Duration {
	return time.Duration(c.StaleAfter) * time.Second
}
