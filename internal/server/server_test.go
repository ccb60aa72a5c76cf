package server

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/ikitsuke/internal/config"
	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/kv"
	"github.com/HendryAvila/ikitsuke/internal/logging"
	"github.com/HendryAvila/ikitsuke/internal/providers"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:          dir,
		Storage:          kv.Config{Backend: backend, DataDir: dir},
		NearbyRadiusKm:   10,
		GateRadiusKm:     10,
		AllowRecommended: true,
		RefreshInterval:  5 * time.Second,
	}
}

func TestNewApp_WithoutProviders(t *testing.T) {
	a, cleanup, err := NewApp(context.Background(), testConfig(t, kv.BackendMemory), logging.Discard())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	s, err := a.Register(ctx, "aki", "Aki", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := a.UpdateLocation(s, geo.Point{Lat: 35, Lng: 139}); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	if _, err := a.StartRecommendation(ctx, s); !isNotConfigured(err) {
		t.Errorf("expected not-configured model, got %v", err)
	}
	if _, err := a.SearchPlace(ctx, s, "Tokyo Tower"); !isNotConfigured(err) {
		t.Errorf("expected not-configured geocoder, got %v", err)
	}
}

func isNotConfigured(err error) bool {
	return errors.Is(err, providers.ErrNotConfigured)
}

func TestNewApp_SQLitePersists(t *testing.T) {
	cfg := testConfig(t, kv.BackendSQLite)
	ctx := context.Background()

	a, cleanup, err := NewApp(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if _, err := a.Register(ctx, "aki", "Aki", "secret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	cleanup()

	a, cleanup, err = NewApp(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer cleanup()
	if _, err := a.Login(ctx, "aki", "secret"); err != nil {
		t.Errorf("Login after reopen: %v", err)
	}
}

func TestNewApp_UnknownBackend(t *testing.T) {
	if _, cleanup, err := NewApp(context.Background(), testConfig(t, "etcd"), logging.Discard()); err == nil {
		cleanup()
		t.Fatal("expected error for unknown backend")
	}
}

func TestNew_RegistersServer(t *testing.T) {
	a, cleanup, err := NewApp(context.Background(), testConfig(t, kv.BackendMemory), logging.Discard())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer cleanup()
	if New(a) == nil {
		t.Fatal("New returned nil")
	}
}

func TestServerInstructions_QuoteRadius(t *testing.T) {
	if got := serverInstructions(10); !strings.Contains(got, "within 10 km") {
		t.Errorf("instructions do not quote the radius:\n%s", got)
	}
	if got := serverInstructions(2.5); !strings.Contains(got, "within 2.5 km") {
		t.Errorf("instructions do not quote a fractional radius")
	}
}
