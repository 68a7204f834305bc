package database

import (
	"strings"
	"testing"

	"valuator/internal/models"
)

func TestConfigDSN(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		c := &Config{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
		want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
		if got := c.DSN(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("sqlite_uses_path", func(t *testing.T) {
		c := &Config{Driver: DriverSQLite, Path: "file::memory:"}
		if got := c.DSN(); got != "file::memory:" {
			t.Errorf("expected path DSN, got %q", got)
		}
	})

	t.Run("migrate_url_escapes_password", func(t *testing.T) {
		c := &Config{Host: "db", Port: "5432", User: "u", Password: "p@ss/word", DBName: "n", SSLMode: "require"}
		got := c.MigrateURL()
		if !strings.HasPrefix(got, "postgres://u:") || !strings.HasSuffix(got, "@db:5432/n?sslmode=require") {
			t.Errorf("unexpected migrate URL %q", got)
		}
		if strings.Contains(got, "p@ss/word") {
			t.Errorf("password was not escaped: %q", got)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("sqlite_auto_migrates", func(t *testing.T) {
		m, err := NewManager(&Config{Driver: DriverSQLite, Path: "file::memory:"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer m.Close()

		if err := m.RunMigrations(); err != nil {
			t.Fatalf("unexpected migration error: %v", err)
		}
		if !m.DB().Migrator().HasTable(&models.Transaction{}) {
			t.Error("expected transactions table to exist")
		}
	})

	t.Run("unknown_driver", func(t *testing.T) {
		if _, err := NewManager(&Config{Driver: "oracle"}); err == nil {
			t.Error("expected error for unsupported driver")
		}
	})
}
