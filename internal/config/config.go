package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location, relative to the working dir.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	JWTSecret       string `yaml:"jwtSecret"`
	SessionTTLHours int    `yaml:"sessionTTLHours"`

	SMSAPIKey     string `yaml:"smsApiKey"`
	AdminPhone    string `yaml:"adminPhone"`
	SMSTemplateID int64  `yaml:"smsTemplateId"`
	SMSLineNumber string `yaml:"smsLineNumber"`
	SMSStrategy   string `yaml:"smsStrategy"`

	LoginRateLimit         int `yaml:"loginRateLimit"`
	LoginRateWindowSeconds int `yaml:"loginRateWindowSeconds"`

	TrustedProxies []string `yaml:"trustedProxies"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioPublicURL string `yaml:"minioPublicURL"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SMSIR_API_KEY"); v != "" {
		cfg.SMSAPIKey = v
	}
	if v := os.Getenv("ADMIN_PHONE_NUMBER"); v != "" {
		cfg.AdminPhone = v
	}
	if v := os.Getenv("SMSIR_TEMPLATE_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SMSTemplateID = n
		}
	}
	if v := os.Getenv("SMSIR_LINE_NUMBER"); v != "" {
		cfg.SMSLineNumber = v
	}
	if v := os.Getenv("SMS_STRATEGY"); v != "" {
		cfg.SMSStrategy = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_PUBLIC_URL"); v != "" {
		cfg.MinioPublicURL = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if useSSL, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = useSSL
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if len(strings.TrimSpace(cfg.JWTSecret)) < 32 {
		return errors.New("config: jwtSecret must be at least 32 characters (set in config.yaml or JWT_SECRET)")
	}
	if cfg.SessionTTLHours < 0 {
		return errors.New("config: sessionTTLHours must be >= 0")
	}
	switch cfg.SMSStrategy {
	case "", "verify", "bulk":
	default:
		return errors.New(`config: smsStrategy must be "verify" or "bulk"`)
	}
	if cfg.SMSTemplateID < 0 {
		return errors.New("config: smsTemplateId must be >= 0")
	}
	if cfg.LoginRateLimit < 0 || cfg.LoginRateWindowSeconds < 0 {
		return errors.New("config: login rate limit settings must be >= 0")
	}
	return nil
}
