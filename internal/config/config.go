package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string        `env:"HOST,required"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER,required"`
	Password        string        `env:"PASSWORD,required"`
	Database        string        `env:"NAME,required"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// S3Config holds object storage settings
type S3Config struct {
	Endpoint        string        `env:"ENDPOINT"`
	Region          string        `env:"REGION,required"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	Bucket          string        `env:"BUCKET_NAME,required"`
	UsePathStyle    bool          `env:"USE_PATH_STYLE" envDefault:"false"`
	CreateBucket    bool          `env:"CREATE_BUCKET" envDefault:"false"`
	UploadURLExpiry time.Duration `env:"UPLOAD_URL_EXPIRY" envDefault:"60s"`
	ReadURLExpiry   time.Duration `env:"READ_URL_EXPIRY" envDefault:"15m"`
}

// ReplicateConfig holds image model settings
type ReplicateConfig struct {
	APIToken       string        `env:"API_TOKEN,required"`
	BaseURL        string        `env:"BASE_URL" envDefault:"https://api.replicate.com/v1"`
	ModelVersion   string        `env:"MODEL_VERSION" envDefault:"854e8727697a057c525cdb45ab037f64ecca770a1769cc52287c2e56472a247b"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"10"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"500ms"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxOutputBytes int64         `env:"MAX_OUTPUT_BYTES" envDefault:"20971520"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,required"`
	Issuer    string `env:"ISSUER"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `envPrefix:"SERVER_"`
	S3        S3Config        `envPrefix:"S3_"`
	Replicate ReplicateConfig `envPrefix:"REPLICATE_"`
	DB        DBConfig        `envPrefix:"DB_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	Log       LogConfig       `envPrefix:"LOG_"`
}

// Load reads .env files when present and parses the environment.
// With no filenames it looks for ".env" in the working directory.
func Load(filenames ...string) (*Config, error) {
	if err := godotenv.Load(filenames...); err != nil {
		// Only the implicit .env is optional.
		if len(filenames) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Replicate.MaxAttempts < 1 {
		return fmt.Errorf("REPLICATE_MAX_ATTEMPTS must be positive")
	}
	if c.Replicate.PollInterval <= 0 {
		return fmt.Errorf("REPLICATE_POLL_INTERVAL must be positive")
	}
	if c.S3.UploadURLExpiry <= 0 || c.S3.ReadURLExpiry <= 0 {
		return fmt.Errorf("S3 signed URL expiry must be positive")
	}
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return c.DB.DSN()
}

// DSN returns the lib/pq connection string for this database.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
