package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DatabaseURL      string // wins over the POSTGRES_* keys when set
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartTTL       time.Duration // 0 keeps snapshots forever
	SessionIdle   time.Duration // in-memory carts and checkouts idle this long are dropped

	JWTSecret     string
	AdminEmail    string
	AdminPassword string // seeded on boot, hashed with bcrypt
	AdminTokenTTL time.Duration

	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	SubmitTimeout         time.Duration
	NotifyTimeout         time.Duration

	SMTPHost     string // empty disables email
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailTo       string

	RabbitMQURL string // empty disables AMQP
	OrderQueue  string
}

// LoadDotEnv loads an optional .env file. A missing file is not an error.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}

// Load reads the environment.
func Load() (Config, error) {
	var err error
	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: getenv("GO_ENV", "dev"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),
		MailTo:       os.Getenv("NOTIFY_EMAIL_TO"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		OrderQueue:  getenv("ORDER_QUEUE", "order.placed"),
	}

	if cfg.PostgresPort, err = atoiDefault("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = atoiDefault("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = atoiDefault("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.CartTTL, err = durationDefault("CART_TTL", 0); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdle, err = durationDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdle < time.Second {
		return Config{}, fmt.Errorf("SESSION_IDLE_TIMEOUT must be at least 1s")
	}
	if cfg.AdminTokenTTL, err = durationDefault("ADMIN_TOKEN_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SubmitTimeout, err = durationDefault("SUBMIT_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.NotifyTimeout, err = durationDefault("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.FreeDeliveryThreshold, err = decimalDefault("FREE_DELIVERY_THRESHOLD", "500"); err != nil {
		return Config{}, err
	}
	if cfg.DeliveryFee, err = decimalDefault("DELIVERY_FEE", "50"); err != nil {
		return Config{}, err
	}

	// required
	//必須チェック
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL is required")
	}
	if cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if cfg.DeliveryFee.IsNegative() {
		return Config{}, fmt.Errorf("DELIVERY_FEE must be >= 0")
	}
	if cfg.FreeDeliveryThreshold.IsNegative() {
		return Config{}, fmt.Errorf("FREE_DELIVERY_THRESHOLD must be >= 0")
	}
	if cfg.SMTPHost != "" && cfg.MailTo == "" {
		return Config{}, fmt.Errorf("NOTIFY_EMAIL_TO is required when SMTP_HOST is set")
	}

	return cfg, nil
}

// PostgresDSN builds a libpq style dsn unless DATABASE_URL was given.
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}
	return d, nil
}

func decimalDefault(key string, def string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return d, nil
}
