package config

import (
	"sync"
)

var (
	globalConfig Config
	initOnce     sync.Once
)

type Config struct {
	Server   ServerConfig   `json:"server" envPrefix:"SERVER_" validate:"required"`
	Database DatabaseConfig `json:"database" envPrefix:"DB_" validate:"required"`
	Redis    RedisConfig    `json:"redis" envPrefix:"REDIS_"`
	Tokens   TokenConfig    `json:"tokens" envPrefix:"TOKEN_" validate:"required"`
	Cookies  CookieConfig   `json:"cookies" envPrefix:"COOKIE_" validate:"required"`
	Ledger   LedgerConfig   `json:"ledger" envPrefix:"LEDGER_" validate:"required"`
}

type ServerConfig struct {
	Port            string   `json:"port" env:"PORT" validate:"required,numeric"`
	Host            string   `json:"host" env:"HOST" validate:"required,hostname|ip"`
	ReadTimeout     Duration `json:"read_timeout" env:"READ_TIMEOUT" validate:"required,duration_gt0"`
	WriteTimeout    Duration `json:"write_timeout" env:"WRITE_TIMEOUT" validate:"required,duration_gt0"`
	ShutdownTimeout Duration `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"required,duration_gt0"`
	AllowedOrigins  []string `json:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type DatabaseConfig struct {
	DSN            string   `json:"dsn" env:"DSN" validate:"required"`
	ConnectTimeout Duration `json:"connect_timeout" env:"CONNECT_TIMEOUT" validate:"required,duration_gt0"`
	QueryTimeout   Duration `json:"query_timeout" env:"QUERY_TIMEOUT" validate:"required,duration_gt0"`
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"ADDR" validate:"omitempty,hostname_port"`
	Password string `json:"password" env:"PASSWORD" validate:"omitempty"`
	DB       int    `json:"db" env:"DB" validate:"gte=0"`
}

// TokenConfig holds the two independent signing secrets. The access and
// refresh secrets must never be derived from one another; validation rejects
// identical values.
type TokenConfig struct {
	AccessSecret  string   `json:"access_secret" env:"ACCESS_SECRET" validate:"required,min=16"`
	RefreshSecret string   `json:"refresh_secret" env:"REFRESH_SECRET" validate:"required,min=16,nefield=AccessSecret"`
	AccessTTL     Duration `json:"access_ttl" env:"ACCESS_TTL" validate:"required,duration_gt0"`
	RefreshTTL    Duration `json:"refresh_ttl" env:"REFRESH_TTL" validate:"required,duration_gt0"`
	Issuer        string   `json:"issuer" env:"ISSUER" validate:"required"`
}

type CookieConfig struct {
	AccessMaxAge Duration `json:"access_max_age" env:"ACCESS_MAX_AGE" validate:"required,duration_gt0"`
	Secure       bool     `json:"secure" env:"SECURE"`
	Domain       string   `json:"domain" env:"DOMAIN" validate:"omitempty,hostname"`
}

type LedgerConfig struct {
	Backend       string   `json:"backend" env:"BACKEND" validate:"required,oneof=postgres redis memory"`
	SweepInterval Duration `json:"sweep_interval" env:"SWEEP_INTERVAL" validate:"required,duration_gt0"`
}
