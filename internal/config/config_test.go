package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"DB_TYPE", "DATABASE_URL", "DATA_DIR", "CATALOG_SOURCE", "TELEGRAM_BOT_TOKEN",
		"ENABLE_SCHEDULER", "ADMIN_USER_IDS", "NOTIFICATION_START_HOUR", "NOTIFICATION_END_HOUR", "PASS_THRESHOLD"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	if cfg.DBType != "sqlite" || !cfg.EnableScheduler || cfg.PassThreshold != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DSN() != filepath.Join("data", "psychstudy.db") {
		t.Errorf("DSN = %s", cfg.DSN())
	}
	if cfg.CatalogSource != filepath.Join("data", "flashcards.json") {
		t.Errorf("CatalogSource = %s", cfg.CatalogSource)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://study@localhost/study?sslmode=disable")
	t.Setenv("CATALOG_SOURCE", "https://example.org/data/flashcards.json")
	t.Setenv("ENABLE_SCHEDULER", "false")
	t.Setenv("ADMIN_USER_IDS", "12, 34,abc")
	t.Setenv("NOTIFICATION_START_HOUR", "9")
	t.Setenv("NOTIFICATION_END_HOUR", "25")
	t.Setenv("PASS_THRESHOLD", "2")

	cfg := FromEnv()
	if cfg.DBType != "postgres" || cfg.DSN() != "postgres://study@localhost/study?sslmode=disable" {
		t.Errorf("database settings: %+v", cfg)
	}
	if cfg.EnableScheduler {
		t.Error("scheduler should be disabled")
	}
	if !cfg.AdminUserIDs[12] || !cfg.AdminUserIDs[34] || len(cfg.AdminUserIDs) != 2 {
		t.Errorf("AdminUserIDs = %v", cfg.AdminUserIDs)
	}
	if cfg.NotificationStartHour != 9 || cfg.NotificationEndHour != 22 {
		t.Errorf("notification window = %d-%d", cfg.NotificationStartHour, cfg.NotificationEndHour)
	}
	if cfg.PassThreshold != 2 {
		t.Errorf("PassThreshold = %d", cfg.PassThreshold)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("CATALOG_SOURCE", "")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("CATALOG_SOURCE")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DATA_DIR=/srv/study\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.DataDir != "/srv/study" || cfg.CatalogSource != filepath.Join("/srv/study", "flashcards.json") {
		t.Errorf("config from .env = %+v", cfg)
	}
}
