package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModeAPI    = "api"
	ModeWorker = "worker"
	ModeAll    = "all"
)

type Config struct {
	Port      string `mapstructure:"PORT"`
	Mode      string `mapstructure:"MODE"`
	DBURL     string `mapstructure:"DB_URL"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
	LogDir    string `mapstructure:"LOG_DIR"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	QueueKey      string `mapstructure:"QUEUE_KEY"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	CheckoutCurrency    string `mapstructure:"CHECKOUT_CURRENCY"`
	CheckoutSuccessURL  string `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL   string `mapstructure:"CHECKOUT_CANCEL_URL"`
	CheckoutRateLimit   int    `mapstructure:"CHECKOUT_RATE_LIMIT"`
	// Window of CHECKOUT_RATE_LIMIT, a Go duration such as 30s or 1m
	CheckoutRateWindow time.Duration `mapstructure:"CHECKOUT_RATE_WINDOW"`

	MailProvider   string `mapstructure:"MAIL_PROVIDER"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       string `mapstructure:"SMTP_PORT"`
	SMTPUser       string `mapstructure:"SMTP_USER"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	SendgridAPIKey string `mapstructure:"SENDGRID_API_KEY"`

	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	// Comma separated host substrings accepted in links
	AllowedVideoHosts string `mapstructure:"ALLOWED_VIDEO_HOSTS"`
}

var defaults = map[string]interface{}{
	"PORT":                  "8080",
	"MODE":                  ModeAll,
	"DB_URL":                "",
	"JWT_SECRET":            "",
	"LOG_DIR":               "",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"QUEUE_KEY":             "notifications",
	"STRIPE_SECRET_KEY":     "",
	"STRIPE_WEBHOOK_SECRET": "",
	"CHECKOUT_CURRENCY":     "usd",
	"CHECKOUT_SUCCESS_URL":  "http://localhost:8080/success",
	"CHECKOUT_CANCEL_URL":   "http://localhost:8080/cancel",
	"CHECKOUT_RATE_LIMIT":   10,
	"CHECKOUT_RATE_WINDOW":  "1m",
	"MAIL_PROVIDER":         "smtp",
	"MAIL_FROM":             "noreply@example.com",
	"SMTP_HOST":             "",
	"SMTP_PORT":             "587",
	"SMTP_USER":             "",
	"SMTP_PASSWORD":         "",
	"SENDGRID_API_KEY":      "",
	"CLOUDINARY_CLOUD_NAME": "",
	"CLOUDINARY_API_KEY":    "",
	"CLOUDINARY_API_SECRET": "",
	"ALLOWED_VIDEO_HOSTS":   "youtube.com",
}

// Load lit le fichier .env s'il existe puis l'environnement. envFile vide = ".env".
func Load(envFile string) (Config, error) {
	var cfg Config

	if envFile == "" {
		envFile = ".env"
	}
	// absent .env is fine, variables can come from the system environment
	_ = godotenv.Load(envFile)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Mode = strings.ToLower(cfg.Mode)
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Mode {
	case ModeAPI, ModeWorker, ModeAll:
	default:
		return fmt.Errorf("invalid MODE %q (expected api, worker or all)", c.Mode)
	}
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is not defined")
	}
	if c.Mode != ModeWorker && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not defined")
	}
	if c.CheckoutRateLimit > 0 && c.CheckoutRateWindow <= 0 {
		return fmt.Errorf("CHECKOUT_RATE_WINDOW must be positive when CHECKOUT_RATE_LIMIT is set")
	}
	return nil
}

func (c Config) RunsAPI() bool {
	return c.Mode == ModeAPI || c.Mode == ModeAll
}

func (c Config) RunsWorker() bool {
	return c.Mode == ModeWorker || c.Mode == ModeAll
}

func (c Config) VideoHosts() []string {
	var hosts []string
	for _, h := range strings.Split(c.AllowedVideoHosts, ",") {
		if h = strings.TrimSpace(strings.ToLower(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
