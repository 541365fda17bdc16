package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	minSecretLength = 32
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	StoreDriver       string        `mapstructure:"STORE_DRIVER"`
	DBDSN             string        `mapstructure:"DB_DSN"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	RunMigrations     bool          `mapstructure:"RUN_MIGRATIONS"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFormat         string `mapstructure:"LOG_FORMAT"`
	AdminSignupKey    string `mapstructure:"ADMIN_SIGNUP_KEY"`

	UPIMerchantVPA  string `mapstructure:"UPI_MERCHANT_VPA"`
	UPIMerchantName string `mapstructure:"UPI_MERCHANT_NAME"`
	UPIMerchantCode string `mapstructure:"UPI_MERCHANT_CODE"`
	UPICurrency     string `mapstructure:"UPI_CURRENCY"`
	QRImageSize     int    `mapstructure:"QR_IMAGE_SIZE"`

	LoginRatePerMinute int `mapstructure:"LOGIN_RATE_PER_MINUTE"`
	LoginRateBurst     int `mapstructure:"LOGIN_RATE_BURST"`
}

var defaults = map[string]any{
	"APP_ENV":               "development",
	"SERVER_PORT":           "8080",
	"STORE_DRIVER":          StoreMySQL,
	"DB_DSN":                "root:root@tcp(127.0.0.1:3306)/fvcommerce?parseTime=true",
	"DB_MAX_OPEN_CONNS":     25,
	"DB_MAX_IDLE_CONNS":     25,
	"DB_CONN_MAX_LIFETIME":  5 * time.Minute,
	"RUN_MIGRATIONS":        true,
	"JWT_SECRET":            "",
	"JWT_TTL":               30 * time.Minute,
	"CORS_ALLOWED_ORIGIN":   "*",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"ADMIN_SIGNUP_KEY":      "",
	"UPI_MERCHANT_VPA":      "merchant@upi",
	"UPI_MERCHANT_NAME":     "FVCommerce",
	"UPI_MERCHANT_CODE":     "5411",
	"UPI_CURRENCY":          "INR",
	"QR_IMAGE_SIZE":         256,
	"LOGIN_RATE_PER_MINUTE": 10,
	"LOGIN_RATE_BURST":      5,
}

// Load reads .env (if present) into the process environment, then resolves
// every key from the environment with the defaults above.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromViper(viper.New())
}

// FromViper resolves a Config from v. Tests pass a viper with values already Set.
func FromViper(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreMySQL:
		if c.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required for the mysql store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMySQL, StoreMemory, c.StoreDriver))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < minSecretLength && !c.IsDevelopment() {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside development", minSecretLength))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.QRImageSize < 21 {
		errs = append(errs, errors.New("QR_IMAGE_SIZE must be at least 21 pixels"))
	}
	if c.LoginRatePerMinute <= 0 || c.LoginRateBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must be positive"))
	}

	return errors.Join(errs...)
}
