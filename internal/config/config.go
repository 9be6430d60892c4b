package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Email         EmailConfig        `yaml:"email"`
	Notifications NotificationConfig `yaml:"notifications"`
}

type ServerConfig struct {
	Port         string          `yaml:"port" env:"PORT"`
	Host         string          `yaml:"host" env:"HOST"`
	Debug        bool            `yaml:"debug" env:"DEBUG"`
	CORSOrigins  []string        `yaml:"cors_origins" env:"CORS_ORIGINS"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting"`
}

type RateLimitConfig struct {
	Enabled              bool   `yaml:"enabled"`
	WindowMinutes        int    `yaml:"window_minutes"`
	RequestsPerWindow    int    `yaml:"requests_per_window"`
	SubmissionsPerWindow int    `yaml:"submissions_per_window"`
	RedisAddr            string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword        string `yaml:"redis_password" env:"REDIS_PASSWORD"`
}

// Window returns the rate limiting window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(r.WindowMinutes) * time.Minute
}

type DatabaseConfig struct {
	Type     string `yaml:"type" env:"DB_TYPE"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     string `yaml:"port" env:"DB_PORT"`
	Database string `yaml:"database" env:"DB_NAME"`
	Username string `yaml:"username" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
}

type EmailConfig struct {
	Enabled  bool       `yaml:"enabled" env:"EMAIL_ENABLED"`
	NotifyTo string     `yaml:"notify_to" env:"EMAIL_NOTIFY_TO"`
	SMTP     SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

type NotificationConfig struct {
	Ntfy    NtfyConfig    `yaml:"ntfy"`
	Webhook WebhookConfig `yaml:"webhook"`
}

type NtfyConfig struct {
	Enabled bool   `yaml:"enabled" env:"NTFY_ENABLED"`
	URL     string `yaml:"url" env:"NTFY_URL"`
	Topic   string `yaml:"topic" env:"NTFY_TOPIC"`
	Token   string `yaml:"token" env:"NTFY_TOKEN"`
}

type WebhookConfig struct {
	Enabled bool   `yaml:"enabled" env:"WEBHOOK_ENABLED"`
	URL     string `yaml:"url" env:"WEBHOOK_URL"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.setDefaults()

	// Read from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

func (c *Config) setDefaults() {
	c.Server.Port = "8080"
	c.Server.Host = "0.0.0.0"
	c.Server.Debug = false
	c.Server.CORSOrigins = []string{"*"}
	c.Server.RateLimiting.Enabled = true
	c.Server.RateLimiting.WindowMinutes = 15
	c.Server.RateLimiting.RequestsPerWindow = 100
	c.Server.RateLimiting.SubmissionsPerWindow = 10

	c.Database.Type = "sqlite"
	c.Database.Database = "formhive.db"
	c.Database.SSLMode = "disable"

	c.Email.SMTP.Port = 587
}

func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		c.Server.Debug = true
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Server.RateLimiting.RedisAddr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		c.Server.RateLimiting.RedisPassword = pass
	}

	// Database env vars
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		c.Database.Type = dbType
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		c.Database.Port = dbPort
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		c.Database.Database = dbName
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		c.Database.Username = dbUser
	}
	if dbPass := os.Getenv("DB_PASSWORD"); dbPass != "" {
		c.Database.Password = dbPass
	}
	if sslMode := os.Getenv("DB_SSL_MODE"); sslMode != "" {
		c.Database.SSLMode = sslMode
	}

	// Email env vars
	if enabled := os.Getenv("EMAIL_ENABLED"); enabled == "true" {
		c.Email.Enabled = true
	}
	if notifyTo := os.Getenv("EMAIL_NOTIFY_TO"); notifyTo != "" {
		c.Email.NotifyTo = notifyTo
	}
	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		c.Email.SMTP.Host = smtpHost
	}
	if smtpPort := os.Getenv("SMTP_PORT"); smtpPort != "" {
		if port, err := strconv.Atoi(smtpPort); err == nil {
			c.Email.SMTP.Port = port
		}
	}
	if smtpUser := os.Getenv("SMTP_USERNAME"); smtpUser != "" {
		c.Email.SMTP.Username = smtpUser
	}
	if smtpPass := os.Getenv("SMTP_PASSWORD"); smtpPass != "" {
		c.Email.SMTP.Password = smtpPass
	}
	if smtpFrom := os.Getenv("SMTP_FROM"); smtpFrom != "" {
		c.Email.SMTP.From = smtpFrom
	}

	// Ntfy env vars
	if ntfyEnabled := os.Getenv("NTFY_ENABLED"); ntfyEnabled == "true" {
		c.Notifications.Ntfy.Enabled = true
	}
	if ntfyURL := os.Getenv("NTFY_URL"); ntfyURL != "" {
		c.Notifications.Ntfy.URL = ntfyURL
	}
	if ntfyTopic := os.Getenv("NTFY_TOPIC"); ntfyTopic != "" {
		c.Notifications.Ntfy.Topic = ntfyTopic
	}
	if ntfyToken := os.Getenv("NTFY_TOKEN"); ntfyToken != "" {
		c.Notifications.Ntfy.Token = ntfyToken
	}

	// Webhook env vars
	if webhookEnabled := os.Getenv("WEBHOOK_ENABLED"); webhookEnabled == "true" {
		c.Notifications.Webhook.Enabled = true
	}
	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		c.Notifications.Webhook.URL = webhookURL
	}
}
