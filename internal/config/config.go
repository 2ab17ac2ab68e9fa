package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	domain "portfolio/backend/internal/domain/auth"
)

// Environment names recognised by IsProduction.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config centralises runtime configuration. It is loaded once at startup
// and passed by value to the components that need it.
type Config struct {
	Environment     string
	HTTPPort        string
	DatabaseURL     string
	SQLitePath      string
	DenylistPath    string
	JWTSecret       string
	JWTIssuer       string
	JWTExpiry       time.Duration
	CookieName      string
	UploadDir       string
	UploadURLPrefix string
	UploadMaxBytes  int64
	AllowedOrigins  []string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	LogLevel        slog.Level
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

// IsProduction reports whether the process runs with production cookie
// and logging policy.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load reads configuration from environment variables providing sane
// defaults, and validates it.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return fromEnv()
}

// Read is Load without validation. Provisioning commands use it since they
// only touch the credential store.
func Read() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return parseEnv(), nil
}

func fromEnv() (Config, error) {
	cfg := parseEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseEnv() Config {
	httpPort := getEnv("HTTP_PORT", "")
	if httpPort == "" {
		httpPort = getEnv("PORT", "8080")
	}

	env := strings.ToLower(firstNonEmpty(os.Getenv("APP_ENV"), os.Getenv("NODE_ENV"), EnvDevelopment))

	return Config{
		Environment:     env,
		HTTPPort:        httpPort,
		DatabaseURL:     resolveDatabaseURL(),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/portfolio.db"),
		DenylistPath:    getEnv("DENYLIST_PATH", "./data/denylist.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTIssuer:       getEnv("JWT_ISSUER", "portfolio"),
		JWTExpiry:       getDurationEnv("JWT_EXPIRY", 7*24*time.Hour),
		CookieName:      getEnv("SESSION_COOKIE_NAME", "portfolio_session"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		UploadURLPrefix: getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		UploadMaxBytes:  getInt64Env("UPLOAD_MAX_BYTES", 5<<20),
		AllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LoginRateLimit:  int(getInt64Env("LOGIN_RATE_LIMIT", 10)),
		LoginRateWindow: getDurationEnv("LOGIN_RATE_WINDOW", time.Minute),
		LogLevel:        parseLevel(getEnv("LOG_LEVEL", "info")),
		ReadTimeoutSec:  int(getInt64Env("HTTP_READ_TIMEOUT", 15)),
		WriteTimeoutSec: int(getInt64Env("HTTP_WRITE_TIMEOUT", 15)),
		IdleTimeoutSec:  int(getInt64Env("HTTP_IDLE_TIMEOUT", 60)),
	}
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required: %w", domain.ErrMisconfiguration)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive: %w", domain.ErrMisconfiguration)
	}
	if c.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is empty: %w", domain.ErrMisconfiguration)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive: %w", domain.ErrMisconfiguration)
	}
	if c.IsProduction() {
		for _, origin := range c.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be * with credentialed cookies: %w", domain.ErrMisconfiguration)
			}
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := parseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// parseDuration accepts Go durations plus a whole-day form such as "7d".
func parseDuration(val string) (time.Duration, error) {
	val = strings.TrimSpace(val)
	if days, ok := strings.CutSuffix(val, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(val)
}

func getInt64Env(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func parseLevel(val string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(val)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// resolveDatabaseURL returns a postgres DSN, or "" to select the embedded
// sqlite store.
func resolveDatabaseURL() string {
	for _, key := range []string{"DATABASE_URL", "POSTGRES_URL", "PGURL"} {
		if coerced := coerceDatabaseURL(os.Getenv(key)); coerced != "" {
			return coerced
		}
	}
	if coerced := coerceDatabaseURL(readEnvFile("DATABASE_URL_FILE")); coerced != "" {
		return coerced
	}

	host := firstNonEmpty(os.Getenv("PGHOST"), os.Getenv("POSTGRES_HOST"))
	user := firstNonEmpty(os.Getenv("PGUSER"), os.Getenv("POSTGRES_USER"))
	if host == "" || user == "" {
		return ""
	}
	password := firstNonEmpty(os.Getenv("PGPASSWORD"), os.Getenv("POSTGRES_PASSWORD"))
	database := firstNonEmpty(os.Getenv("PGDATABASE"), os.Getenv("POSTGRES_DB"), user)
	port := firstNonEmpty(os.Getenv("PGPORT"), os.Getenv("POSTGRES_PORT"), "5432")
	sslMode := firstNonEmpty(os.Getenv("PGSSLMODE"), "require")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()

	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgresql://"):
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	case strings.HasPrefix(raw, "postgres://"):
		return raw
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func readEnvFile(key string) string {
	path := os.Getenv(key)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// loadDotEnv applies KEY=VALUE lines from path without overriding
// variables already present in the environment.
func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf(".env line %d: missing '='", lineNum)
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		if key == "" {
			return fmt.Errorf(".env line %d: empty key", lineNum)
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf(".env line %d: %w", lineNum, err)
		}
	}
	return scanner.Err()
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}
