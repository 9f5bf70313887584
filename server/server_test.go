package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sernyl/doselog-api/catalog"
	"github.com/sernyl/doselog-api/doselog"
	"github.com/sernyl/doselog-api/logging"
)

func initTestLogging(t *testing.T) {
	t.Helper()
	logging.InitLogger(t.TempDir(), 1, 0, slog.LevelError)
}

func TestNewServer(t *testing.T) {
	initTestLogging(t)

	cfg := testConfig()
	container := catalog.NewContainer()
	doseStore := doselog.NewStore()

	server := NewServer(cfg, container, doseStore)

	if server == nil {
		t.Fatal("server should not be nil")
	}
	if server.server.Addr != cfg.Address+":"+cfg.Port {
		t.Errorf("addr = %s, want %s", server.server.Addr, cfg.Address+":"+cfg.Port)
	}
	if server.catalogStore != container {
		t.Error("catalog store should be set")
	}
	if server.doseStore != doseStore {
		t.Error("dose store should be set")
	}
	if server.config != cfg {
		t.Error("config should be set")
	}
	if server.router == nil {
		t.Error("router should not be nil")
	}
}

func TestServerConfiguration(t *testing.T) {
	initTestLogging(t)

	server := NewServer(testConfig(), catalog.NewContainer(), doselog.NewStore())

	if server.server.ReadTimeout != 15*time.Second {
		t.Errorf("read timeout = %v", server.server.ReadTimeout)
	}
	if server.server.WriteTimeout != 15*time.Second {
		t.Errorf("write timeout = %v", server.server.WriteTimeout)
	}
	if server.server.IdleTimeout != 60*time.Second {
		t.Errorf("idle timeout = %v", server.server.IdleTimeout)
	}
}

func TestSetupMiddleware(t *testing.T) {
	initTestLogging(t)

	server := NewServer(testConfig(), catalog.NewContainer(), doselog.NewStore())

	server.router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetReqID(r.Context()) == "" {
			t.Error("request ID should be available in request context")
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.0.2.78:1234"
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("rate limit headers should be set")
	}
}

func TestSetupRoutes(t *testing.T) {
	initTestLogging(t)

	server := NewServer(testConfig(), catalog.NewContainer(), doselog.NewStore())

	// Parameterized routes may 404 against an empty catalog; that still
	// proves they are registered, since chi would 404 unregistered paths
	// before reaching the handler anyway.
	routes := []struct {
		path     string
		allow404 bool
	}{
		{"/parse", false},
		{"/classify", false},
		{"/safety/test", true},
		{"/substances", false},
		{"/substances/page/1", true},
		{"/substances/search/test", true},
		{"/routes", false},
		{"/doses", false},
		{"/doses/stats", false},
		{"/health", false},
		{"/metrics", false},
	}

	for _, tt := range routes {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			req.RemoteAddr = "192.0.2.77:1234"
			rr := httptest.NewRecorder()
			server.router.ServeHTTP(rr, req)

			if rr.Code == http.StatusNotFound && !tt.allow404 {
				t.Errorf("route %s should be registered (got 404)", tt.path)
			}
		})
	}
}

func TestServerLifecycle(t *testing.T) {
	initTestLogging(t)

	cfg := testConfig()
	cfg.Port = "0" // let the OS pick a free port
	cfg.Address = "localhost"

	server := NewServer(cfg, catalog.NewContainer(), doselog.NewStore())

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	// Give the listener time to bind
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("shutdown should not error: %v", err)
	}

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start should return ErrServerClosed after shutdown, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Error("server should have shut down within 1 second")
	}
}

func TestRedirectSlashes(t *testing.T) {
	initTestLogging(t)

	server := NewServer(testConfig(), catalog.NewContainer(), doselog.NewStore())

	req := httptest.NewRequest("GET", "/routes/", nil)
	req.RemoteAddr = "192.0.2.79:1234"
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rr.Code)
	}
	if loc := rr.Header().Get("Location"); !strings.HasSuffix(loc, "/routes") {
		t.Errorf("Location = %q", loc)
	}
}
