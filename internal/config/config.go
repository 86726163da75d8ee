package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
}

type ServerConfig struct {
	Port int       `mapstructure:"port"`
	Mode string    `mapstructure:"mode"`
	TLS  TLSConfig `mapstructure:"tls"`
}

// TLSConfig enables the HTTPS listener. When enabled, a second plain-HTTP
// listener on RedirectPort answers every request with a 301 to the HTTPS
// origin, preserving path and query.
type TLSConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CertFile     string `mapstructure:"cert_file"`
	KeyFile      string `mapstructure:"key_file"`
	RedirectPort int    `mapstructure:"redirect_port"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type S3Config struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Region        string        `mapstructure:"region"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// ProtocolConfig tunes the worker coordination protocol.
type ProtocolConfig struct {
	// ContentThreshold is the tolerated relative discrepancy between a
	// worker's reported archive size and the recorded authoritative size.
	// Must lie in (0,1); 0.05 means a ±5% window.
	ContentThreshold float64 `mapstructure:"content_threshold"`
	// MaxWorkersPerIP caps enrollment per remote address.
	MaxWorkersPerIP int `mapstructure:"max_workers_per_ip"`
	// SizeMismatchPenalty is subtracted from reputation on a failed
	// verification.
	SizeMismatchPenalty int `mapstructure:"size_mismatch_penalty"`
	// TrustedReputation is the reputation above which a disagreeing worker
	// is allowed a versioned overwrite instead of a penalty.
	TrustedReputation int `mapstructure:"trusted_reputation"`
	// ActiveWindow is the look-back window for the worker_active stat.
	ActiveWindow time.Duration `mapstructure:"active_window"`
	// BatchSize is the number of video IDs per seeded batch.
	BatchSize int `mapstructure:"batch_size"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.redirect_port", 80)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "coordinator")
	v.SetDefault("database.name", "coordinator")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "./data/coordinator.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("s3.endpoint", "localhost:9000")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "archives")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.presign_expiry", time.Hour)
	v.SetDefault("protocol.content_threshold", 0.05)
	v.SetDefault("protocol.max_workers_per_ip", 1000)
	v.SetDefault("protocol.size_mismatch_penalty", 10)
	v.SetDefault("protocol.trusted_reputation", 100)
	v.SetDefault("protocol.active_window", time.Hour)
	v.SetDefault("protocol.batch_size", 10000)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("s3.access_key", "S3_ACCESS_KEY")
	v.BindEnv("s3.secret_key", "S3_SECRET_KEY")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("protocol.content_threshold", "CONTENT_THRESHOLD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Protocol.ContentThreshold <= 0 || cfg.Protocol.ContentThreshold >= 1 {
		return nil, fmt.Errorf("protocol.content_threshold must be in (0,1), got %v", cfg.Protocol.ContentThreshold)
	}

	return &cfg, nil
}
