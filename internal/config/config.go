package config

import (
	"errors"
	"fmt"
	"os"

	"playhub/internal/models"
	"playhub/internal/slots"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Slots      SlotsConfig      `yaml:"slots"`
	Booking    BookingConfig    `yaml:"booking"`
	Notify     NotifyConfig     `yaml:"notify"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SlotsConfig describes the day grid: opening hours, step and the
// blocked intervals carved out of every day.
type SlotsConfig struct {
	StartHour   float64           `yaml:"start_hour"`
	EndHour     float64           `yaml:"end_hour"`
	StepMinutes int               `yaml:"step_minutes"`
	Blocked     []BlockedInterval `yaml:"blocked"`
}

type BlockedInterval struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// ToSlots converts the YAML shape into the grid generator's config.
func (s SlotsConfig) ToSlots() slots.Config {
	blocked := make([]slots.Interval, 0, len(s.Blocked))
	for _, b := range s.Blocked {
		blocked = append(blocked, slots.Interval{Start: b.Start, End: b.End})
	}
	return slots.Config{
		StartHour:   s.StartHour,
		EndHour:     s.EndHour,
		StepMinutes: s.StepMinutes,
		Blocked:     blocked,
	}
}

type BookingConfig struct {
	MaxConsecutiveSlots  int `yaml:"max_consecutive_slots"`
	MaxAdvanceDays       int `yaml:"max_advance_days"`
	ScheduleCacheTTL     int `yaml:"schedule_cache_ttl"`
	OwnerRateLimit       int `yaml:"owner_rate_limit"`
	OwnerRateLimitWindow int `yaml:"owner_rate_limit_window"`
}

type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; env vars may come from the environment itself.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Substitute environment variables before parsing.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if err := c.Slots.ToSlots().Validate(); err != nil {
		return fmt.Errorf("slots: %w", err)
	}

	if c.Notify.Enabled && c.Notify.BotToken == "" {
		return errors.New("notify.bot_token is required when notifications are enabled")
	}

	return nil
}

// ValidateResources checks the resource catalog for duplicate or empty IDs.
func ValidateResources(resources []models.Resource) error {
	seen := make(map[string]bool)
	for _, r := range resources {
		if r.ID == "" {
			return fmt.Errorf("resource '%s' has an empty ID", r.Name)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate resource ID found: %s", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Slots.StartHour == 0 && c.Slots.EndHour == 0 {
		c.Slots.StartHour = 9
		c.Slots.EndHour = 17.5
	}
	if c.Slots.StepMinutes == 0 {
		c.Slots.StepMinutes = 30
	}

	if c.Booking.MaxConsecutiveSlots == 0 {
		c.Booking.MaxConsecutiveSlots = models.MaxConsecutiveSlots
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = 365
	}
	if c.Booking.ScheduleCacheTTL == 0 {
		c.Booking.ScheduleCacheTTL = models.DefaultScheduleCacheTTL
	}
	if c.Booking.OwnerRateLimit == 0 {
		c.Booking.OwnerRateLimit = 30
	}
	if c.Booking.OwnerRateLimitWindow == 0 {
		c.Booking.OwnerRateLimitWindow = 60
	}
}
