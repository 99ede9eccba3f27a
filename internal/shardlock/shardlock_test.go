package shardlock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLock_SerializesSameShard(t *testing.T) {
	l := New(t.TempDir())
	ctx := context.Background()

	var mu sync.Mutex
	active, maxActive := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "03.csv")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			if err := unlock(); err != nil {
				t.Errorf("unlock() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxActive)
	}
}

func TestLock_DistinctShardsIndependent(t *testing.T) {
	l := New(t.TempDir())
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "00.csv")
	if err != nil {
		t.Fatalf("Lock(00) error = %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "01.csv")
	if err != nil {
		t.Fatalf("Lock(01) error = %v while 00 is held", err)
	}
	unlockB()
}

func TestLock_ContextCancelled(t *testing.T) {
	l := New(t.TempDir())

	unlock, err := l.Lock(context.Background(), "00.csv")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "00.csv")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock() error = %v, want DeadlineExceeded", err)
	}
}
