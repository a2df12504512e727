// Package config loads gateway configuration from a YAML file with
// environment overrides. A .env file next to the process is honored the same
// way the rest of the environment is.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vgw/internal/constants"
)

const (
	EnvListen          = "VGW_LISTEN"
	EnvCustodianSocket = "VGW_CUSTODIAN_SOCKET"
	EnvPriorities      = "VGW_TLS_PRIORITIES"
	EnvClientCompat    = "VGW_CLIENT_COMPAT"
	EnvCacheCapacity   = "VGW_CACHE_CAPACITY"
	EnvRedisHost       = "REDIS_HOST"
	EnvRedisPort       = "REDIS_PORT"
	EnvRedisUser       = "REDIS_USERNAME"
	EnvRedisPassword   = "REDIS_PASSWORD"
)

type Config struct {
	ListenAddr string `yaml:"listen"`

	// One certificate chain file per key; index i of these lists is the
	// key index used on the custodian channel.
	CertFiles []string `yaml:"certs"`

	CAFile   string `yaml:"ca"`
	CRLFile  string `yaml:"crl"`
	OCSPFile string `yaml:"ocsp"`

	// Priorities is the algorithm-priority negotiation string handed to
	// the TLS engine verbatim.
	Priorities string `yaml:"priorities"`

	// ClientCompat keeps the handshake alive when client certificate
	// verification fails, leaving the session marked unauthenticated.
	// Needed for clients that present a certificate the gateway cannot
	// validate but authenticate by other means.
	ClientCompat bool `yaml:"client_compat"`

	CustodianSocket string `yaml:"custodian_socket"`

	CacheCapacity int           `yaml:"cache_capacity"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisUser     string `yaml:"redis_username"`
	RedisPassword string `yaml:"redis_password"`

	Debug int `yaml:"debug"`
}

// GetEnv returns environment variable value or default if empty
func GetEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Load reads the YAML file at path (optional, "" skips it), then applies
// environment overrides and fills in defaults.
func Load(path string) (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		ListenAddr:      constants.DefaultListen,
		Priorities:      constants.DefaultPriorities,
		CustodianSocket: constants.DefaultCustodianSocket,
		CacheCapacity:   constants.DefaultCacheCapacity,
		CacheTTL:        constants.DefaultCacheTTL,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ListenAddr = GetEnv(EnvListen, cfg.ListenAddr)
	cfg.Priorities = GetEnv(EnvPriorities, cfg.Priorities)
	cfg.CustodianSocket = GetEnv(EnvCustodianSocket, cfg.CustodianSocket)
	cfg.RedisHost = GetEnv(EnvRedisHost, cfg.RedisHost)
	cfg.RedisPort = GetEnv(EnvRedisPort, cfg.RedisPort)
	cfg.RedisUser = GetEnv(EnvRedisUser, cfg.RedisUser)
	cfg.RedisPassword = GetEnv(EnvRedisPassword, cfg.RedisPassword)

	if v := os.Getenv(EnvClientCompat); v != "" {
		compat, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvClientCompat, v, err)
		}
		cfg.ClientCompat = compat
	}
	if v := os.Getenv(EnvCacheCapacity); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvCacheCapacity, v, err)
		}
		cfg.CacheCapacity = capacity
	}

	if cfg.RedisPort == "" {
		cfg.RedisPort = "6379"
	}

	return cfg, nil
}
