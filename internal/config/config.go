package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced at startup; the
// allocation and upload settings fall back to defaults when unset.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign session tokens
	AccessTTLMin int    // session token time‑to‑live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	Allocation AllocationConfig
	UploadMaxBytes int64  // largest accepted CSV upload
	EventsEnabled  bool   // publish allocation.completed events to RabbitMQ
	SessionCleanup string // cron spec for purging expired sessions
	LogDir         string // where the event consumer writes allocation.log
}

// AllocationConfig tunes the seating engine.
type AllocationConfig struct {
	Strategy string        // "sequential" or "interleaved"
	Timeout  time.Duration // upper bound for a single run
	LockTTL  time.Duration // expiry of the distributed run lock
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),             // environment (dev/test/prod)
		Port:         must("APP_PORT"),            // port to bind the HTTP server
		DBUser:       must("DB_USER"),             // database user
		DBPass:       os.Getenv("DB_PASS"),        // database password (empty allowed)
		DBHost:       must("DB_HOST"),             // database host
		DBPort:       must("DB_PORT"),             // database port
		DBName:       must("DB_NAME"),             // database name
		JWTSecret:    must("JWT_SECRET"),          // secret used for signing JWTs
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for session tokens in minutes
		BcryptCost:   mustInt("BCRYPT_COST"),      // bcrypt cost factor

		Allocation:     LoadAllocationConfig(),
		UploadMaxBytes: int64(envInt("UPLOAD_MAX_BYTES", 5<<20)),
		EventsEnabled:  envBool("EVENTS_ENABLED", true),
		SessionCleanup: envStr("SESSION_CLEANUP_CRON", "@hourly"),
		LogDir:         envStr("LOG_DIR", "logs"),
	}
}

// LoadAllocationConfig reads the ALLOCATION_* variables.  An unknown strategy
// name is fatal so a typo never silently changes seat order.
func LoadAllocationConfig() AllocationConfig {
	cfg := AllocationConfig{
		Strategy: strings.ToLower(envStr("ALLOCATION_STRATEGY", "sequential")),
		Timeout:  envDur("ALLOCATION_TIMEOUT", 30*time.Second),
		LockTTL:  envDur("ALLOCATION_LOCK_TTL", 2*time.Minute),
	}
	switch cfg.Strategy {
	case "sequential", "interleaved":
	default:
		log.Fatalf("invalid ALLOCATION_STRATEGY: %q", cfg.Strategy)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	// the lock must outlive the run it guards
	if cfg.LockTTL < cfg.Timeout {
		cfg.LockTTL = cfg.Timeout + 10*time.Second
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
