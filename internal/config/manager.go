package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"shoptrend-go/pkg/extractor"
	"shoptrend-go/pkg/fetcher"
	"shoptrend-go/pkg/trends"
)

const envPrefix = "TRENDS"

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	configPath string
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads configPath (optional; empty means defaults and environment
// only) and validates the result.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configPath = configPath
	if err := m.setupViper(configPath); err != nil {
		return nil, fmt.Errorf("failed to setup viper: %w", err)
	}

	config, err := m.read()
	if err != nil {
		return nil, err
	}
	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	config, err := m.read()
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func (m *manager) setupViper(configPath string) error {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)

	// Plain variables understood by earlier deployments of the service.
	for key, env := range map[string]string{
		"server.host":  "HOST",
		"server.port":  "PORT",
		"server.debug": "DEBUG",
	} {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := m.viper.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("source.url", extractor.DefaultSourceURL)
	v.SetDefault("source.timeout", fetcher.DefaultTimeout)
	v.SetDefault("source.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("source.accept_language", fetcher.DefaultAcceptLanguage)
	v.SetDefault("source.selectors", extractor.DefaultSelectors)
	v.SetDefault("source.json_fields", extractor.DefaultJSONFields)

	v.SetDefault("trends.size", trends.DefaultSize)
	v.SetDefault("trends.vocabulary", []string{})
	v.SetDefault("trends.filler_label", trends.DefaultFillerLabel)

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.hour", 12)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("schedule.timezone", trends.DefaultTimezone)
	v.SetDefault("schedule.refresh_on_start", true)

	v.SetDefault("api.cors_origins", "*")
	v.SetDefault("api.refresh_per_minute", 6)
	v.SetDefault("api.refresh_burst", 1)
	v.SetDefault("api.metrics_enabled", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "rfc3339")
}

func validateConfig(config *Config) error {
	var errs []error

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", config.Server.Port))
	}
	if config.Source.URL == "" {
		errs = append(errs, fmt.Errorf("source url cannot be empty"))
	}
	if config.Source.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("source timeout must be positive"))
	}
	if config.Trends.Size <= 0 {
		errs = append(errs, fmt.Errorf("trends size must be positive"))
	}
	if config.Schedule.Hour < 0 || config.Schedule.Hour > 23 {
		errs = append(errs, fmt.Errorf("invalid schedule hour: %d", config.Schedule.Hour))
	}
	if config.Schedule.Minute < 0 || config.Schedule.Minute > 59 {
		errs = append(errs, fmt.Errorf("invalid schedule minute: %d", config.Schedule.Minute))
	}
	if _, err := time.LoadLocation(config.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid schedule timezone %q: %w", config.Schedule.Timezone, err))
	}
	if config.API.RefreshPerMinute < 0 {
		errs = append(errs, fmt.Errorf("refresh_per_minute cannot be negative"))
	}

	return errors.Join(errs...)
}

func fmtAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
