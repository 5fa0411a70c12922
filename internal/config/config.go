package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application settings read from the environment
type Config struct {
	// Database backend, "sqlite" or "postgres"
	DBType string
	// Connection string; for SQLite a file path
	DatabaseURL string
	// Directory for the SQLite database when DatabaseURL is empty
	DataDir string
	// JSON file path or URL of the flashcard catalog
	CatalogSource string

	TelegramToken   string
	AdminUserIDs    map[int64]bool
	EnableScheduler bool

	// Reminder window, hours of the day (0-23)
	NotificationStartHour int
	NotificationEndHour   int

	// Lowest rating counted as a successful recall (0-3)
	PassThreshold int
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DBType:                "sqlite",
		DataDir:               "data",
		CatalogSource:         filepath.Join("data", "flashcards.json"),
		AdminUserIDs:          make(map[int64]bool),
		EnableScheduler:       true,
		NotificationStartHour: 8,
		NotificationEndHour:   22,
		PassThreshold:         1,
	}
}

// Load reads .env files (if present) and then the environment.
// Invalid values are logged and replaced by defaults.
func Load(envFiles ...string) *Config {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment
func FromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("DB_TYPE"); v != "" {
		cfg.DBType = strings.ToLower(v)
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.CatalogSource = filepath.Join(v, "flashcards.json")
	}
	if v := os.Getenv("CATALOG_SOURCE"); v != "" {
		cfg.CatalogSource = v
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.EnableScheduler = os.Getenv("ENABLE_SCHEDULER") != "false"

	if adminIDs := os.Getenv("ADMIN_USER_IDS"); adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	cfg.NotificationStartHour = intInRange("NOTIFICATION_START_HOUR", 0, 23, cfg.NotificationStartHour)
	cfg.NotificationEndHour = intInRange("NOTIFICATION_END_HOUR", 0, 23, cfg.NotificationEndHour)
	cfg.PassThreshold = intInRange("PASS_THRESHOLD", 0, 3, cfg.PassThreshold)

	return cfg
}

// DSN returns the connection string for the configured database
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return filepath.Join(c.DataDir, "psychstudy.db")
}

func intInRange(key string, min, max, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < min || v > max {
		log.Printf("Warning: Invalid %s=%q, using %d", key, s, def)
		return def
	}
	return v
}
