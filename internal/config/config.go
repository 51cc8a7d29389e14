package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store        string        // "redis" | "memory"
	StateTTL     time.Duration // expiry of persisted records, 0 = never
	LoadTimeout  time.Duration // bound on the first load of a user's state
	WriteTimeout time.Duration // bound on each background write

	SeedFile           string        // initial bookmarks for new users (optional, empty = none)
	SeedReloadInterval time.Duration // 0 = load once at startup
	DefaultGuildID     string        // location of the first tab of new users (optional)
	DefaultChannelID   string        // empty = new users start without tabs

	IdleTimeout  time.Duration // sessions unused for this long are dropped from memory
	ReapInterval time.Duration // how often idle sessions are looked for
	EventBuffer  int           // events a live stream may lag behind before drops

	RateLimit float64 // requests per second per client IP, 0 = unlimited
	RateBurst int

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict /reload to specific IPs or ranges
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("CHANTABS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("CHANTABS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("CHANTABS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CHANTABS_PRETTY_LOG", true),

		// State
		Store:        strings.ToLower(getenv("CHANTABS_STORE", StoreRedis)),
		StateTTL:     mustDuration("CHANTABS_STATE_TTL", 0),
		LoadTimeout:  mustDuration("CHANTABS_LOAD_TIMEOUT", 5*time.Second),
		WriteTimeout: mustDuration("CHANTABS_WRITE_TIMEOUT", 3*time.Second),

		// Defaults for new users
		SeedFile:           getenv("CHANTABS_SEED_FILE", ""),
		SeedReloadInterval: mustDuration("CHANTABS_SEED_RELOAD_INTERVAL", time.Hour),
		DefaultGuildID:     getenv("CHANTABS_DEFAULT_GUILD_ID", ""),
		DefaultChannelID:   getenv("CHANTABS_DEFAULT_CHANNEL_ID", ""),

		// Sessions
		IdleTimeout:  mustDuration("CHANTABS_IDLE_TIMEOUT", 30*time.Minute),
		ReapInterval: mustDuration("CHANTABS_REAP_INTERVAL", 5*time.Minute),
		EventBuffer:  getenvInt("CHANTABS_EVENT_BUFFER", 16),

		RateLimit: getenvFloat("CHANTABS_RATE_LIMIT", 20),
		RateBurst: getenvInt("CHANTABS_RATE_BURST", 40),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("CHANTABS_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("CHANTABS_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("CHANTABS_TRUST_PROXY", true),
	}

	switch cfg.Store {
	case StoreMemory:
	case StoreRedis:
		cfg.loadRedis()
	default:
		panic(fmt.Sprintf("❌ FATAL: CHANTABS_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.Store))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadRedis reads the connection settings, which are only required when
// state lives in Redis.
func (cfg *Config) loadRedis() {
	cfg.RedisAddr = requireEnv("CHANTABS_REDIS_ADDR")
	cfg.RedisUser = getenv("CHANTABS_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("CHANTABS_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("CHANTABS_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("CHANTABS_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: CHANTABS_REDIS_PASSWORD is required when CHANTABS_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
