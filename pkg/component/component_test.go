package component

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

type fakeComponent struct {
	*Base
	log      *[]string
	startErr error
	stopErr  error
}

func newFake(name string, log *[]string) *fakeComponent {
	return &fakeComponent{Base: NewBase(name), log: log}
}

func (f *fakeComponent) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.StartContext(ctx)
	*f.log = append(*f.log, "start "+f.Name())
	return nil
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	if err := f.StopContext(ctx); err != nil {
		return err
	}
	*f.log = append(*f.log, "stop "+f.Name())
	return f.stopErr
}

func TestOrchestratorOrder(t *testing.T) {
	var log []string
	o := NewOrchestrator()
	o.Register(newFake("a", &log))
	o.Register(newFake("b", &log))

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	want := []string{"start a", "start b", "stop b", "stop a"}
	if len(log) != len(want) {
		t.Fatalf("got %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("step %d: got %q, want %q", i, log[i], want[i])
		}
	}
}

func TestOrchestratorStartFailureStopsStarted(t *testing.T) {
	var log []string
	boom := errors.New("boom")

	o := NewOrchestrator()
	o.Register(newFake("a", &log))
	failing := newFake("b", &log)
	failing.startErr = boom
	o.Register(failing)

	err := o.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(log) != 2 || log[1] != "stop a" {
		t.Fatalf("expected a to be stopped, got %v", log)
	}

	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}
}

func TestOrchestratorStopCollectsErrors(t *testing.T) {
	var log []string
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	o := NewOrchestrator()
	a := newFake("a", &log)
	a.stopErr = errA
	b := newFake("b", &log)
	b.stopErr = errB
	o.Register(a)
	o.Register(b)

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	err := o.Stop(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both stop errors, got %v", err)
	}
}

func TestLoadAllSkipsDisabled(t *testing.T) {
	var log []string
	Register("test.enabled", func(deps Dependencies) (Component, error) {
		return newFake("test.enabled", &log), nil
	})
	Register("test.disabled", func(deps Dependencies) (Component, error) {
		return nil, nil
	})
	t.Cleanup(func() {
		factories.mu.Lock()
		delete(factories.factories, "test.enabled")
		delete(factories.factories, "test.disabled")
		factories.mu.Unlock()
	})

	comps, err := LoadAll(Dependencies{})
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(comps) != 1 || comps[0].Name() != "test.enabled" {
		t.Fatalf("expected only test.enabled, got %v", comps)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("test.dup", func(deps Dependencies) (Component, error) { return nil, nil })
	t.Cleanup(func() {
		factories.mu.Lock()
		delete(factories.factories, "test.dup")
		factories.mu.Unlock()
	})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("test.dup", func(deps Dependencies) (Component, error) { return nil, nil })
}

func TestStopContextWaitsForGoroutines(t *testing.T) {
	b := NewBase("worker")
	b.StartContext(context.Background())

	exited := make(chan struct{})
	b.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(exited)
	})

	if err := b.StopContext(context.Background()); err != nil {
		t.Fatalf("StopContext failed: %v", err)
	}
	select {
	case <-exited:
	default:
		t.Fatal("goroutine still running after StopContext")
	}
}

func TestStopContextTimeout(t *testing.T) {
	b := NewBase("stuck")
	b.StartContext(context.Background())

	release := make(chan struct{})
	defer close(release)
	b.Go(func(ctx context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := b.StopContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHTTPServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	b := NewBase("http")
	b.StartContext(context.Background())
	s := NewHTTPServer("127.0.0.1:0", handler, log)
	if err := s.Start(b); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.Running() {
		t.Fatal("expected server to be running")
	}

	resp, err := http.Get("http://" + s.Addr() + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusTeapot)
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := b.StopContext(context.Background()); err != nil {
		t.Fatalf("StopContext failed: %v", err)
	}
	if s.Running() {
		t.Fatal("expected server to be stopped")
	}
}

func TestHTTPServerBadAddress(t *testing.T) {
	b := NewBase("http")
	b.StartContext(context.Background())
	s := NewHTTPServer("256.0.0.1:99999", http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.Start(b); err == nil {
		t.Fatal("expected listen error")
	}
	if s.Running() {
		t.Fatal("server should not be running")
	}
}
