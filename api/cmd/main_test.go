package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeServer blocks in ListenAndServe until Shutdown or Close, like *http.Server.
// A non-nil crashErr makes ListenAndServe return immediately instead.
type fakeServer struct {
	addr  string
	grace time.Duration

	crashErr    error
	shutdownErr error

	started chan struct{}
	stopped chan struct{}

	mu               sync.Mutex
	listenCalled     bool
	shutdownCalled   bool
	closeCalled      bool
	shutdownDeadline time.Duration
	stopOnce         sync.Once
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		addr:    ":0",
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	f.mu.Lock()
	f.listenCalled = true
	f.mu.Unlock()
	close(f.started)

	if f.crashErr != nil {
		return f.crashErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	f.shutdownCalled = true
	if dl, ok := ctx.Deadline(); ok {
		f.shutdownDeadline = time.Until(dl)
	}
	f.mu.Unlock()

	if f.shutdownErr != nil {
		return f.shutdownErr
	}
	f.stop()
	return nil
}

func (f *fakeServer) Close() error {
	f.mu.Lock()
	f.closeCalled = true
	f.mu.Unlock()
	f.stop()
	return nil
}

func (f *fakeServer) Addr() string { return f.addr }

func (f *fakeServer) GracePeriod() time.Duration { return f.grace }

func (f *fakeServer) stop() { f.stopOnce.Do(func() { close(f.stopped) }) }

type fakeState struct {
	listen, shutdown, close bool
	deadline                time.Duration
}

func (f *fakeServer) state() fakeState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeState{f.listenCalled, f.shutdownCalled, f.closeCalled, f.shutdownDeadline}
}

// runUntilStarted runs Run in the background and delivers a signal once the server is listening.
func runUntilStarted(t *testing.T, fs *fakeServer, cleanup func()) int {
	t.Helper()

	sigCh := make(chan os.Signal, 1)
	build := func() (httpServer, func(), error) { return fs, cleanup, nil }

	done := make(chan int, 1)
	go func() { done <- Run(build, sigCh, zerolog.Nop()) }()

	select {
	case <-fs.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("server never started")
	}
	sigCh <- os.Interrupt

	select {
	case code := <-done:
		return code
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after signal")
		return -1
	}
}

func TestRun_BootstrapFail_Returns1(t *testing.T) {
	sigCh := make(chan os.Signal, 1)

	build := func() (httpServer, func(), error) {
		return nil, func() {}, errors.New("boom")
	}

	if got := Run(build, sigCh, zerolog.Nop()); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestRun_OnSignal_ShutdownAndReturn0(t *testing.T) {
	fs := newFakeServer()

	var mu sync.Mutex
	cleanupCalled := false
	cleanup := func() {
		mu.Lock()
		cleanupCalled = true
		mu.Unlock()
	}

	if got := runUntilStarted(t, fs, cleanup); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}

	st := fs.state()
	if !st.listen {
		t.Fatalf("expected ListenAndServe called")
	}
	if !st.shutdown {
		t.Fatalf("expected Shutdown called")
	}
	if st.close {
		t.Fatalf("did not expect Close called on graceful shutdown")
	}
	mu.Lock()
	defer mu.Unlock()
	if !cleanupCalled {
		t.Fatalf("expected cleanup called")
	}
}

func TestRun_OnServerCrash_Return1(t *testing.T) {
	fs := newFakeServer()
	fs.crashErr = errors.New("crash")

	cleanupCalled := false
	build := func() (httpServer, func(), error) {
		return fs, func() { cleanupCalled = true }, nil
	}

	if got := Run(build, make(chan os.Signal, 1), zerolog.Nop()); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	st := fs.state()
	if !st.listen {
		t.Fatalf("expected ListenAndServe called")
	}
	if st.shutdown {
		t.Fatalf("did not expect Shutdown called on crash path")
	}
	if !cleanupCalled {
		t.Fatalf("expected cleanup called")
	}
}

func TestRun_ShutdownFail_ForcesClose(t *testing.T) {
	fs := newFakeServer()
	fs.shutdownErr = errors.New("shutdown failed")

	_ = runUntilStarted(t, fs, func() {})

	st := fs.state()
	if !st.shutdown {
		t.Fatalf("expected Shutdown called")
	}
	if !st.close {
		t.Fatalf("expected Close called when Shutdown fails")
	}
}

func TestRun_ShutdownUsesConfiguredGracePeriod(t *testing.T) {
	cases := []struct {
		name  string
		grace time.Duration
		max   time.Duration
	}{
		{"configured", 2 * time.Second, 2 * time.Second},
		{"unset falls back", 0, defaultGracePeriod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newFakeServer()
			fs.grace = tc.grace

			if got := runUntilStarted(t, fs, func() {}); got != 0 {
				t.Fatalf("expected 0, got %d", got)
			}

			dl := fs.state().deadline
			if dl <= 0 || dl > tc.max {
				t.Fatalf("expected deadline within %s, got %s", tc.max, dl)
			}
			if dl < tc.max-time.Second {
				t.Fatalf("deadline %s much shorter than %s", dl, tc.max)
			}
		})
	}
}
