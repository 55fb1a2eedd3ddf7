package server

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRequiresDBPath(t *testing.T) {
	_, err := New(Config{Logger: testLogger()})
	if err == nil {
		t.Fatal("expected error for missing db path")
	}
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{DBPath: "/tmp/snipd-test.db", Logger: testLogger()})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	if s.Addr() != "127.0.0.1:8585" {
		t.Errorf("expected default addr 127.0.0.1:8585, got %s", s.Addr())
	}
	if s.IsRunning() {
		t.Error("new server should not be running")
	}
	if s.Registry() == nil {
		t.Error("expected provider registry")
	}
}

func TestRequireInitBeforeStart(t *testing.T) {
	s, err := New(Config{DBPath: "/tmp/snipd-test.db", Logger: testLogger()})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	// The store and engine only exist after Start; API routes must refuse
	// requests until then.
	req := httptest.NewRequest("GET", "/api/snippets", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != 503 {
		t.Errorf("expected 503 before start, got %d", rec.Code)
	}

	// Health doesn't need the store.
	req = httptest.NewRequest("GET", "/health", nil)
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Errorf("expected 200 from health, got %d", rec.Code)
	}
}
