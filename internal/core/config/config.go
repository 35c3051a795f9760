package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FIRETEAM_"

// Config represents the top-level application config.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Views     ViewsConfig     `koanf:"views"`
	Events    EventsConfig    `koanf:"events"`
	Guilds    GuildsConfig    `koanf:"guilds"`
	Discord   DiscordConfig   `koanf:"discord"`
	Notify    NotifyConfig    `koanf:"notify"`
	Debug     DebugConfig     `koanf:"debug"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeKB int    `koanf:"max_body_size_kb"`
	Mode          string `koanf:"mode"` // debug | release
}

// Addr is the listen address.
func (c ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

type StoreConfig struct {
	Type         string `koanf:"type"` // filesystem | postgres | memory
	Dir          string `koanf:"dir"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type SchedulerConfig struct {
	AlertLead    time.Duration `koanf:"alert_lead"`
	CleanupGrace time.Duration `koanf:"cleanup_grace"`
}

type ViewsConfig struct {
	QueueSize    int           `koanf:"queue_size"`
	RetryInitial time.Duration `koanf:"retry_initial"`
	RetryMax     time.Duration `koanf:"retry_max"`

	// ResyncSchedule is a cron spec for the periodic channel resync. Empty disables it.
	ResyncSchedule string `koanf:"resync_schedule"`
}

type EventsConfig struct {
	// CalendarDuration is the length of events in the iCalendar feed.
	CalendarDuration time.Duration `koanf:"calendar_duration"`
}

type GuildsConfig struct {
	// IDs are the guilds served at startup.
	IDs        []string `koanf:"ids"`
	LayoutFile string   `koanf:"layout_file"`
}

type DiscordConfig struct {
	Enabled    bool          `koanf:"enabled"`
	BaseURL    string        `koanf:"base_url"`
	Token      string        `koanf:"token"`
	BotUserID  string        `koanf:"bot_user_id"`
	Timeout    time.Duration `koanf:"timeout"`
	RetryCount int           `koanf:"retry_count"`
}

type NotifyConfig struct {
	// Target delivers alerts: "log" or "discord".
	Target string `koanf:"target"`

	// Transport queues alerts before delivery: "direct", "gochannel" or "redis".
	Transport     string        `koanf:"transport"`
	Topic         string        `koanf:"topic"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	ConsumerGroup string        `koanf:"consumer_group"`
	MaxRetries    int           `koanf:"max_retries"`
	RetryInitial  time.Duration `koanf:"retry_initial"`
	RetryMaxWait  time.Duration `koanf:"retry_max_wait"`
}

type DebugConfig struct {
	AllowDuplicateJoin bool `koanf:"allow_duplicate_join"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeKB <= 0 {
		return fmt.Errorf("server.max_body_size_kb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Store.Type {
	case "filesystem":
		if strings.TrimSpace(c.Store.Dir) == "" {
			return fmt.Errorf("store.dir is required for the filesystem store")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn is required for the postgres store")
		}
		if c.Store.MaxOpenConns <= 0 {
			return fmt.Errorf("store.max_open_conns must be > 0")
		}
		if c.Store.MaxIdleConns <= 0 {
			return fmt.Errorf("store.max_idle_conns must be > 0")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported store.type %q", c.Store.Type)
	}

	if c.Scheduler.AlertLead <= 0 {
		return fmt.Errorf("scheduler.alert_lead must be > 0")
	}
	if c.Scheduler.CleanupGrace <= 0 {
		return fmt.Errorf("scheduler.cleanup_grace must be > 0")
	}

	if c.Views.QueueSize <= 0 {
		return fmt.Errorf("views.queue_size must be > 0")
	}
	if c.Views.RetryInitial <= 0 || c.Views.RetryMax < c.Views.RetryInitial {
		return fmt.Errorf("views retry window must satisfy 0 < retry_initial <= retry_max")
	}

	if c.Events.CalendarDuration <= 0 {
		return fmt.Errorf("events.calendar_duration must be > 0")
	}

	if c.Discord.Enabled {
		if strings.TrimSpace(c.Discord.Token) == "" {
			return fmt.Errorf("discord.token is required when discord is enabled")
		}
		if strings.TrimSpace(c.Discord.BotUserID) == "" {
			return fmt.Errorf("discord.bot_user_id is required when discord is enabled")
		}
	}

	switch c.Notify.Target {
	case "log":
	case "discord":
		if !c.Discord.Enabled {
			return fmt.Errorf("notify.target discord requires discord.enabled")
		}
	default:
		return fmt.Errorf("unsupported notify.target %q", c.Notify.Target)
	}
	switch c.Notify.Transport {
	case "direct", "gochannel":
	case "redis":
		if strings.TrimSpace(c.Notify.RedisAddr) == "" {
			return fmt.Errorf("notify.redis_addr is required for the redis transport")
		}
	default:
		return fmt.Errorf("unsupported notify.transport %q", c.Notify.Transport)
	}
	if c.Notify.MaxRetries < 0 {
		return fmt.Errorf("notify.max_retries must be >= 0")
	}

	return nil
}

// Load parses config from defaults, file and env, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                8080,
		"server.host":                "0.0.0.0",
		"server.max_body_size_kb":    64,
		"server.mode":                "release",
		"store.type":                 "filesystem",
		"store.dir":                  "./data",
		"store.dsn":                  "",
		"store.max_open_conns":       10,
		"store.max_idle_conns":       5,
		"store.auto_migrate":         true,
		"scheduler.alert_lead":       "10m",
		"scheduler.cleanup_grace":    "30m",
		"views.queue_size":           10,
		"views.retry_initial":        "5s",
		"views.retry_max":            "1m",
		"views.resync_schedule":      "@every 6h",
		"events.calendar_duration":   "2h",
		"guilds.ids":                 []string{},
		"guilds.layout_file":         "",
		"discord.enabled":            false,
		"discord.base_url":           "https://discord.com/api/v10",
		"discord.timeout":            "10s",
		"discord.retry_count":        3,
		"notify.target":              "log",
		"notify.transport":           "direct",
		"notify.topic":               "fireteam.notifications",
		"notify.redis_db":            0,
		"notify.consumer_group":      "fireteam",
		"notify.max_retries":         3,
		"notify.retry_initial":       "500ms",
		"notify.retry_max_wait":      "10s",
		"debug.allow_duplicate_join": false,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(s, v string) (string, interface{}) {
		key := strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
		if key == "guilds.ids" {
			return key, strings.Split(v, ",")
		}
		return key, v
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
