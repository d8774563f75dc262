package config

import "time"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Source   SourceConfig   `mapstructure:"source"`
	Trends   TrendsConfig   `mapstructure:"trends"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	API      APIConfig      `mapstructure:"api"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Debug           bool          `mapstructure:"debug"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SourceConfig describes the page keywords are scraped from.
type SourceConfig struct {
	URL            string        `mapstructure:"url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	Selectors      []string      `mapstructure:"selectors"`
	JSONFields     []string      `mapstructure:"json_fields"`
}

type TrendsConfig struct {
	Size int `mapstructure:"size"`
	// Vocabulary replaces the built-in filler list when non-empty.
	Vocabulary  []string `mapstructure:"vocabulary"`
	FillerLabel string   `mapstructure:"filler_label"`
}

type ScheduleConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Hour           int    `mapstructure:"hour"`
	Minute         int    `mapstructure:"minute"`
	Timezone       string `mapstructure:"timezone"`
	RefreshOnStart bool   `mapstructure:"refresh_on_start"`
}

type APIConfig struct {
	CORSOrigins string `mapstructure:"cors_origins"`
	// RefreshPerMinute and RefreshBurst bound POST /api/refresh; zero
	// disables the limit.
	RefreshPerMinute float64 `mapstructure:"refresh_per_minute"`
	RefreshBurst     int     `mapstructure:"refresh_burst"`
	MetricsEnabled   bool    `mapstructure:"metrics_enabled"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmtAddr(s.Host, s.Port)
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}
