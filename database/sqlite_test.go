package database

import (
	"context"
	"path/filepath"
	"testing"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path, false, &widget{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	if err := db.Create(&widget{Name: "a"}).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := Ping(context.Background(), db); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestPing_Nil(t *testing.T) {
	if err := Ping(context.Background(), nil); err == nil {
		t.Error("Ping(nil) error = nil, want error")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:"},
		{"file:x.db?mode=ro", "file:x.db?mode=ro"},
		{"tasks.db", "tasks.db?_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tt := range tests {
		if got := dsn(tt.in); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
