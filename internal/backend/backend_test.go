package backend

import (
	"context"
	"errors"
	"testing"

	"myfinance/internal/config"
	"myfinance/internal/storage"
)

func TestBuildMemoryBackend(t *testing.T) {
	res, err := Build(&config.Config{
		DataBackend: "memory",
		Timezone:    "UTC",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Errorf("Cleanup: %v", err)
		}
	}()

	if res.Store == nil || res.Transactions == nil || res.Dashboards == nil {
		t.Fatal("Build returned incomplete result")
	}
	if res.Events != nil {
		t.Error("Events should be nil without an AMQP URL")
	}

	// The store is live.
	if _, err := res.Store.GetUserByID(context.Background(), "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUserByID on empty store = %v, want ErrNotFound", err)
	}
}

func TestBuildSQLiteBackend(t *testing.T) {
	res, err := Build(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: t.TempDir() + "/app.db",
		Timezone:     "UTC",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	if _, err := Build(&config.Config{DataBackend: "cassandra"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestTypeIsValid(t *testing.T) {
	for _, tt := range []struct {
		typ  Type
		want bool
	}{
		{TypeSQLite, true},
		{TypeMemory, true},
		{Type("sheets"), false},
		{Type(""), false},
	} {
		if got := tt.typ.IsValid(); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
