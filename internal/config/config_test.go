package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SYNC_LOCK_BACKEND", "")
	t.Setenv("SCHEDULER_COURSE_DIRS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.LockBackend != LockBackendPostgres {
		t.Errorf("lock backend = %q, want %q", cfg.Sync.LockBackend, LockBackendPostgres)
	}
	if cfg.Sync.ParallelInstances {
		t.Error("parallel instances should be off by default")
	}
	if cfg.Sync.LockTTL != 600*time.Second {
		t.Errorf("lock ttl = %v", cfg.Sync.LockTTL)
	}
	if cfg.Scheduler.CourseDirs != nil {
		t.Errorf("course dirs = %v, want nil", cfg.Scheduler.CourseDirs)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SYNC_LOCK_BACKEND", "valkey")
	t.Setenv("SYNC_PARALLEL_INSTANCES", "true")
	t.Setenv("SCHEDULER_COURSE_DIRS", " /courses/a, ,/courses/b ")
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.LockBackend != LockBackendValkey {
		t.Errorf("lock backend = %q", cfg.Sync.LockBackend)
	}
	if !cfg.Sync.ParallelInstances {
		t.Error("parallel instances should be on")
	}
	if len(cfg.Scheduler.CourseDirs) != 2 || cfg.Scheduler.CourseDirs[0] != "/courses/a" || cfg.Scheduler.CourseDirs[1] != "/courses/b" {
		t.Errorf("course dirs = %v", cfg.Scheduler.CourseDirs)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("invalid DB_PORT should fall back to 5432, got %d", cfg.Database.Port)
	}
}

func TestLoad_UnknownLockBackend(t *testing.T) {
	t.Setenv("SYNC_LOCK_BACKEND", "zookeeper")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown lock backend")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "require"}
	want := "postgres://u:p@db:5433/n?sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
