package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type TSMSConfig struct {
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SenderPrimary  string `yaml:"sender_primary"`
	SenderFallback string `yaml:"sender_fallback"`
	DryRun         bool   `yaml:"dry_run"`
}

type OTPConfig struct {
	TTLMinutes        int `yaml:"ttl_minutes"`
	MaxAttempts       int `yaml:"max_attempts"`
	CodeLength        int `yaml:"code_length"`
	MaxSendsPerWindow int `yaml:"max_sends_per_window"`
	SendWindowMinutes int `yaml:"send_window_minutes"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	AppEnv string `yaml:"app_env"`
	Addr   string `yaml:"addr"`
	Debug  bool   `yaml:"debug"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	SecretKey         string `yaml:"secret_key"`
	AccessTokenDays   int    `yaml:"access_token_days"`
	AllowedOriginsRaw string `yaml:"allowed_origins"`

	OTP   OTPConfig   `yaml:"otp"`
	TSMS  TSMSConfig  `yaml:"tsms"`
	Redis RedisConfig `yaml:"redis"`
}

// Load reads config/config.yaml when present, then lets environment
// variables (optionally from a .env file) override it. DB_DSN and
// SECRET_KEY have no safe defaults and must be set one way or another.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:          "local",
		Addr:            ":8080",
		Debug:           true,
		AccessTokenDays: 7,
		OTP: OTPConfig{
			TTLMinutes:        2,
			MaxAttempts:       5,
			CodeLength:        5,
			MaxSendsPerWindow: 3,
			SendWindowMinutes: 10,
		},
	}

	if f, err := os.Open("config/config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, errors.New("parse config.yaml: " + err.Error())
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.Addr = getEnv("APP_ADDR", cfg.Addr)
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.AccessTokenDays = getEnvInt("ACCESS_TOKEN_EXPIRE_DAYS", cfg.AccessTokenDays)
	cfg.AllowedOriginsRaw = getEnv("ALLOWED_ORIGINS", cfg.AllowedOriginsRaw)

	cfg.OTP.TTLMinutes = getEnvInt("OTP_TTL_MINUTES", cfg.OTP.TTLMinutes)
	cfg.OTP.MaxAttempts = getEnvInt("OTP_MAX_ATTEMPTS", cfg.OTP.MaxAttempts)
	cfg.OTP.CodeLength = getEnvInt("OTP_CODE_LENGTH", cfg.OTP.CodeLength)
	cfg.OTP.MaxSendsPerWindow = getEnvInt("OTP_MAX_SENDS_PER_WINDOW", cfg.OTP.MaxSendsPerWindow)
	cfg.OTP.SendWindowMinutes = getEnvInt("OTP_SEND_WINDOW_MINUTES", cfg.OTP.SendWindowMinutes)

	cfg.TSMS.Username = getEnv("TSMS_USERNAME", cfg.TSMS.Username)
	cfg.TSMS.Password = getEnv("TSMS_PASSWORD", cfg.TSMS.Password)
	cfg.TSMS.SenderPrimary = getEnv("TSMS_SENDER_PRIMARY", cfg.TSMS.SenderPrimary)
	cfg.TSMS.SenderFallback = getEnv("TSMS_SENDER_FALLBACK", cfg.TSMS.SenderFallback)
	cfg.TSMS.DryRun = getEnvBool("TSMS_DRY_RUN", cfg.TSMS.DryRun || cfg.Debug)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	missing := []string{}
	if cfg.Database.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if len(missing) > 0 {
		return nil, errors.New("missing env: " + strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (c *Config) AllowedOrigins() []string {
	if c.AllowedOriginsRaw == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOriginsRaw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
