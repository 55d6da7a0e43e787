package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
	Client   ClientConfig   `mapstructure:"client"`

	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the lib/pq keyword/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Requests allowed per window on the auth endpoints.
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type UploadsConfig struct {
	Dir           string `mapstructure:"dir"`
	MaxFiles      int    `mapstructure:"max_files"`
	MaxTotalBytes int64  `mapstructure:"max_total_bytes"`
}

type OTPConfig struct {
	Length     int `mapstructure:"length"`
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

func (o OTPConfig) TTL() time.Duration {
	return time.Duration(o.TTLMinutes) * time.Minute
}

type AdminConfig struct {
	// Restricts an admin's complaint list to the admin's own department.
	DepartmentScoped       bool `mapstructure:"department_scoped"`
	MaxAdminsPerDepartment int  `mapstructure:"max_admins_per_department"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ClientConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// BootstrapConfig seeds the first super-admin at startup. Leave the password empty to skip.
type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether a super-admin should be seeded.
func (b BootstrapConfig) Enabled() bool {
	return b.Email != "" && b.Password != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "complaints")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", "5672")
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.rate_limit", 20)
	v.SetDefault("redis.rate_window", "1m")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@campus.local")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_files", 5)
	v.SetDefault("uploads.max_total_bytes", 10<<20)
	v.SetDefault("otp.length", 6)
	v.SetDefault("otp.ttl_minutes", 10)
	v.SetDefault("admin.department_scoped", true)
	v.SetDefault("admin.max_admins_per_department", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("client.base_url", "http://localhost:5173")
	v.SetDefault("bootstrap.username", "superadmin")
	v.SetDefault("bootstrap.email", "")
	v.SetDefault("bootstrap.password", "")
}

// LoadConfig reads the JSON config file at path, falling back to defaults when the file is
// missing. Environment variables prefixed COMPLAINTS_ override both (COMPLAINTS_JWT_SECRET).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
	v.SetEnvPrefix("complaints")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Admin.MaxAdminsPerDepartment < 1 {
		return errors.New("admin.max_admins_per_department must be at least 1")
	}
	if c.Uploads.MaxFiles < 0 || c.Uploads.MaxTotalBytes <= 0 {
		return errors.New("uploads limits must be positive")
	}
	if c.Bootstrap.Enabled() && len(c.Bootstrap.Password) < 6 {
		return errors.New("bootstrap.password must be at least 6 characters")
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return errors.New("otp.length must be between 4 and 10")
	}
	return nil
}
