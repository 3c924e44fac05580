package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

type stubLock struct {
	granted bool
}

func (l *stubLock) Acquire(context.Context) (bool, error) { return l.granted, nil }
func (l *stubLock) Release(context.Context) error         { return nil }

func grantingLocks(string) (Lock, error) { return &stubLock{granted: true}, nil }
func denyingLocks(string) (Lock, error)  { return &stubLock{granted: false}, nil }

func TestRegistryIgnoresInvalidEntries(t *testing.T) {
	registry := NewRegistry()
	registry.Register(nil, time.Minute)
	registry.Register(&countingJob{name: "a"}, 0)
	registry.Register(&countingJob{name: "b"}, time.Minute)

	if entries := registry.Entries(); len(entries) != 1 || entries[0].Job.Name() != "b" {
		t.Fatalf("expected single valid entry, got %d", len(entries))
	}
}

func TestServiceRunsJobsImmediately(t *testing.T) {
	job := &countingJob{name: "immediate"}
	registry := NewRegistry()
	registry.Register(job, time.Hour)

	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Locks: grantingLocks})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for job.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("job never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if job.runs.Load() != 1 {
		t.Fatalf("expected exactly one run before the first tick, got %d", job.runs.Load())
	}
}

func TestServiceSkipsWhenLockDenied(t *testing.T) {
	job := &countingJob{name: "locked-out"}
	registry := NewRegistry()
	registry.Register(job, time.Hour)

	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Locks: denyingLocks})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = svc.Run(ctx)

	if job.runs.Load() != 0 {
		t.Fatalf("denied lock must skip the job, ran %d times", job.runs.Load())
	}
}

func TestServiceSurvivesFailingJobs(t *testing.T) {
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	healthy := &countingJob{name: "healthy"}
	registry := NewRegistry()
	registry.Register(failing, time.Hour)
	registry.Register(healthy, time.Hour)

	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Locks: grantingLocks})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for failing.runs.Load() == 0 || healthy.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("jobs did not run: failing=%d healthy=%d", failing.runs.Load(), healthy.runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestServiceRequiresLockFactory(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected error without lock factory")
	}
}
