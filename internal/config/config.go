package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	CORSAllowOrigins     string
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	JWTSecret            string
	JWTTTL               time.Duration
	QueuePrefix          string
	QueuePollInterval    time.Duration
	QueueDequeueWait     time.Duration
	DeliveryStatusTTL    time.Duration
	JobMaxAttempts       int
	OverdueInterval      time.Duration
	OverdueGrace         time.Duration
	DeadlineNoticeWindow time.Duration
	MailProvider         string
	MailFromAddress      string
	MailFromName         string
	SendgridAPIKey       string
	SendgridHost         string
	MailTimeout          time.Duration
	LoginRateLimit       int
	LoginRateWindow      time.Duration
	SeedEnabled          bool
	SeedToken            string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COURSETRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"jwt.ttl",
		"queue.poll_interval",
		"queue.dequeue_wait",
		"queue.status_ttl",
		"worker.overdue_interval",
		"worker.overdue_grace",
		"worker.deadline_notice_window",
		"mail.timeout",
		"ratelimit.login_window",
	} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		CORSAllowOrigins:     strings.TrimSpace(v.GetString("http.cors_origins")),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		JWTTTL:               durations["jwt.ttl"],
		QueuePrefix:          strings.TrimSpace(v.GetString("queue.prefix")),
		QueuePollInterval:    durations["queue.poll_interval"],
		QueueDequeueWait:     durations["queue.dequeue_wait"],
		DeliveryStatusTTL:    durations["queue.status_ttl"],
		JobMaxAttempts:       v.GetInt("queue.max_attempts"),
		OverdueInterval:      durations["worker.overdue_interval"],
		OverdueGrace:         durations["worker.overdue_grace"],
		DeadlineNoticeWindow: durations["worker.deadline_notice_window"],
		MailProvider:         strings.ToLower(strings.TrimSpace(v.GetString("mail.provider"))),
		MailFromAddress:      v.GetString("mail.from_address"),
		MailFromName:         v.GetString("mail.from_name"),
		SendgridAPIKey:       v.GetString("mail.sendgrid_api_key"),
		SendgridHost:         v.GetString("mail.sendgrid_host"),
		MailTimeout:          durations["mail.timeout"],
		LoginRateLimit:       v.GetInt("ratelimit.login_max"),
		LoginRateWindow:      durations["ratelimit.login_window"],
		SeedEnabled:          v.GetBool("seed.enabled"),
		SeedToken:            strings.TrimSpace(v.GetString("seed.token")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.QueuePrefix == "" {
		cfg.QueuePrefix = "notification"
	}

	if cfg.JobMaxAttempts <= 0 {
		cfg.JobMaxAttempts = 3
	}

	if cfg.QueuePollInterval < time.Second {
		return Config{}, fmt.Errorf("queue poll interval must be at least 1s")
	}

	if cfg.MailProvider == "sendgrid" && cfg.SendgridAPIKey == "" {
		return Config{}, fmt.Errorf("sendgrid api key must be provided when mail.provider=sendgrid")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "CourseTrack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("queue.prefix", "notification")
	v.SetDefault("queue.poll_interval", "5s")
	v.SetDefault("queue.dequeue_wait", "1s")
	v.SetDefault("queue.status_ttl", "168h")
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("worker.overdue_interval", "1h")
	v.SetDefault("worker.overdue_grace", "168h")
	v.SetDefault("worker.deadline_notice_window", "24h")
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.from_address", "no-reply@coursetrack.local")
	v.SetDefault("mail.from_name", "CourseTrack")
	v.SetDefault("mail.sendgrid_host", "https://api.sendgrid.com")
	v.SetDefault("mail.timeout", "10s")
	v.SetDefault("ratelimit.login_max", 10)
	v.SetDefault("ratelimit.login_window", "1m")
	v.SetDefault("seed.enabled", false)
}
