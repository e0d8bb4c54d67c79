package render

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeBackend replays a scripted sequence of poll results. Once the
// script runs out it repeats the last entry.
type fakeBackend struct {
	mu       sync.Mutex
	script   []pollResult
	polls    int
	triggers int
}

type pollResult struct {
	progress Progress
	err      error
}

func (b *fakeBackend) Submit(ctx context.Context, tl Timeline) (string, error) {
	return tl.JobID, nil
}

func (b *fakeBackend) Poll(ctx context.Context, handle string) (Progress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.polls
	if idx >= len(b.script) {
		idx = len(b.script) - 1
	}
	b.polls++
	r := b.script[idx]
	return r.progress, r.err
}

func (b *fakeBackend) Trigger(ctx context.Context, handle string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.triggers++
	return nil
}

// fakeStore records every job-state write in order.
type fakeStore struct {
	mu            sync.Mutex
	progress      []int
	completedURL  string
	completedDur  float64
	failedKind    string
	failedMessage string
}

func (s *fakeStore) UpdateProgress(jobID string, progress int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, progress)
	return nil
}

func (s *fakeStore) MarkCompleted(jobID string, videoURL string, durationSeconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedURL = videoURL
	s.completedDur = durationSeconds
	return nil
}

func (s *fakeStore) MarkFailed(jobID string, kind, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedKind = kind
	s.failedMessage = message
	return nil
}

func fastConfig() Config {
	return Config{
		PollInterval:    time.Millisecond,
		TriggerInterval: time.Hour,
		CallTimeout:     100 * time.Millisecond,
		JobTimeout:      5 * time.Second,
		MaxCallRetries:  3,
		RetryBackoff:    time.Millisecond,
	}
}

func TestAwaitMonotonicProgress(t *testing.T) {
	// The backend reports non-monotonic fractions; displayed progress must
	// never move backwards.
	backend := &fakeBackend{script: []pollResult{
		{progress: Progress{Fraction: 0.1}},
		{progress: Progress{Fraction: 0.05}},
		{progress: Progress{Fraction: 0.4}},
		{progress: Progress{Fraction: 0.39}},
		{progress: Progress{Done: true, Fraction: 1, OutputURL: "https://cdn.example.com/out.mp4", DurationSeconds: 42}},
	}}
	store := &fakeStore{}

	o := NewOrchestrator(backend, store, fastConfig())
	if err := o.Await(context.Background(), "job-1", "job-1"); err != nil {
		t.Fatal(err)
	}

	want := []int{10, 19, 19, 44, 44}
	if len(store.progress) != len(want) {
		t.Fatalf("progress writes = %v, want %v", store.progress, want)
	}
	for i := range want {
		if store.progress[i] != want[i] {
			t.Fatalf("progress writes = %v, want %v", store.progress, want)
		}
	}
	for i := 1; i < len(store.progress); i++ {
		if store.progress[i] < store.progress[i-1] {
			t.Fatalf("progress moved backwards: %v", store.progress)
		}
	}
	if store.completedURL != "https://cdn.example.com/out.mp4" || store.completedDur != 42 {
		t.Fatalf("completion not recorded: url=%q dur=%f", store.completedURL, store.completedDur)
	}
	if store.failedKind != "" {
		t.Fatalf("unexpected failure recorded: %s", store.failedKind)
	}
}

func TestAwaitPreservesBackendErrorVerbatim(t *testing.T) {
	backendMsg := "ffmpeg exited with code 1: scene 2 input unreadable"
	backend := &fakeBackend{script: []pollResult{
		{progress: Progress{Fraction: 0.2}},
		{progress: Progress{FatalError: backendMsg}},
	}}
	store := &fakeStore{}

	err := NewOrchestrator(backend, store, fastConfig()).Await(context.Background(), "job-1", "job-1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if store.failedKind != FailureBackend {
		t.Fatalf("failure kind = %q, want %q", store.failedKind, FailureBackend)
	}
	if store.failedMessage != backendMsg {
		t.Fatalf("backend error not preserved verbatim: %q", store.failedMessage)
	}
}

func TestAwaitTimeoutIsDistinctFromBackendFailure(t *testing.T) {
	backend := &fakeBackend{script: []pollResult{
		{progress: Progress{Fraction: 0.5}},
	}}
	store := &fakeStore{}

	cfg := fastConfig()
	cfg.JobTimeout = time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond

	err := NewOrchestrator(backend, store, cfg).Await(context.Background(), "job-1", "job-1")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if store.failedKind != FailureTimeout {
		t.Fatalf("failure kind = %q, want %q", store.failedKind, FailureTimeout)
	}
	if !strings.Contains(store.failedMessage, "did not finish") {
		t.Fatalf("timeout message not descriptive: %q", store.failedMessage)
	}
}

func TestAwaitRetriesTransientPollFailures(t *testing.T) {
	backend := &fakeBackend{script: []pollResult{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{progress: Progress{Done: true, Fraction: 1, OutputURL: "https://cdn.example.com/out.mp4"}},
	}}
	store := &fakeStore{}

	if err := NewOrchestrator(backend, store, fastConfig()).Await(context.Background(), "job-1", "job-1"); err != nil {
		t.Fatal(err)
	}
	if store.completedURL == "" {
		t.Fatal("job did not complete after transient poll failures")
	}
	if backend.polls < 3 {
		t.Fatalf("expected at least 3 polls, got %d", backend.polls)
	}
}

func TestAwaitExhaustedRetriesFailTheJob(t *testing.T) {
	backend := &fakeBackend{script: []pollResult{
		{err: errors.New("connection refused")},
	}}
	store := &fakeStore{}

	err := NewOrchestrator(backend, store, fastConfig()).Await(context.Background(), "job-1", "job-1")
	if err == nil {
		t.Fatal("expected an error after exhausted retries")
	}
	if store.failedKind != FailureBackend {
		t.Fatalf("failure kind = %q, want %q", store.failedKind, FailureBackend)
	}
	if backend.polls != 3 {
		t.Fatalf("expected 3 poll attempts, got %d", backend.polls)
	}
}

func TestAwaitDoneWithoutOutputFails(t *testing.T) {
	backend := &fakeBackend{script: []pollResult{
		{progress: Progress{Done: true, Fraction: 1}},
	}}
	store := &fakeStore{}

	err := NewOrchestrator(backend, store, fastConfig()).Await(context.Background(), "job-1", "job-1")
	if err == nil {
		t.Fatal("expected an error when done carries no output URL")
	}
	if store.failedKind != FailureBackend {
		t.Fatalf("failure kind = %q, want %q", store.failedKind, FailureBackend)
	}
}

func TestAwaitTriggersOnItsOwnInterval(t *testing.T) {
	backend := &fakeBackend{script: []pollResult{
		{progress: Progress{Fraction: 0.5}},
		{progress: Progress{Done: true, Fraction: 1, OutputURL: "https://cdn.example.com/out.mp4"}},
	}}
	store := &fakeStore{}

	cfg := fastConfig()
	cfg.PollInterval = 20 * time.Millisecond
	cfg.TriggerInterval = 2 * time.Millisecond

	if err := NewOrchestrator(backend, store, cfg).Await(context.Background(), "job-1", "job-1"); err != nil {
		t.Fatal(err)
	}
	if backend.triggers < 2 {
		t.Fatalf("expected multiple triggers between polls, got %d", backend.triggers)
	}
}

func TestDisplayProgressRemap(t *testing.T) {
	cases := []struct {
		fraction float64
		want     int
	}{
		{0, 10},
		{0.1, 19},
		{0.4, 44},
		{1, 95},
		{-0.5, 10},
		{2, 95},
	}
	for _, tc := range cases {
		if got := DisplayProgress(tc.fraction); got != tc.want {
			t.Errorf("DisplayProgress(%f) = %d, want %d", tc.fraction, got, tc.want)
		}
	}
}
