package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})
}

func useMiniredis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Setenv("PROFILE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("STATS_SCHEDULE", "@every 1h")
}

func TestRunReturnsListenError(t *testing.T) {
	restoreGlobals(t)
	useMiniredis(t)
	t.Setenv("PORT", "9090")

	listenAndServe = func(srv *http.Server) error {
		if srv.Handler == nil {
			t.Fatalf("expected handler")
		}
		if srv.Addr != ":9090" {
			t.Fatalf("expected addr :9090, got %s", srv.Addr)
		}
		return errors.New("boom")
	}

	if err := run(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestMainCompletes(t *testing.T) {
	restoreGlobals(t)
	useMiniredis(t)

	listenAndServe = func(*http.Server) error { return http.ErrServerClosed }
	exitFunc = func(err error) { t.Fatalf("exitFunc should not be called: %v", err) }

	main()
}

func TestRunFailsWhenRedisUnreachable(t *testing.T) {
	restoreGlobals(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Setenv("PROFILE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", addr)

	listenAndServe = func(*http.Server) error {
		t.Fatalf("server should not start")
		return nil
	}

	if err := run(context.Background()); err == nil {
		t.Fatalf("expected redis connection error")
	}
}

func TestRunWithSQLiteBackend(t *testing.T) {
	restoreGlobals(t)
	t.Setenv("PROFILE_BACKEND", "sql")
	t.Setenv("SQL_DRIVER", "sqlite")
	t.Setenv("SQL_DSN", "file:main_test?mode=memory&cache=shared")
	t.Setenv("STATS_SCHEDULE", "@every 1h")

	called := false
	listenAndServe = func(*http.Server) error {
		called = true
		return nil
	}

	if err := run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected server to start")
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	restoreGlobals(t)
	useMiniredis(t)
	t.Setenv("PORT", "0")

	started := make(chan struct{})
	listenAndServe = func(srv *http.Server) error {
		close(started)
		return srv.ListenAndServe()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	<-started
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
