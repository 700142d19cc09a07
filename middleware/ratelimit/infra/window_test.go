package infra

import (
	"sync"
	"testing"
	"time"

	"github.com/isaacronan/poorbox-service/middleware/ratelimit/domain"
)

func TestWindowStore_RejectsAfterLimit(t *testing.T) {
	s := NewWindowStore(10, time.Minute)
	defer s.Close()

	for i := 0; i < 10; i++ {
		if ok, _ := s.Admit("k"); !ok {
			t.Fatalf("expected call %d to be admitted", i+1)
		}
	}
	ok, resetIn := s.Admit("k")
	if ok {
		t.Fatalf("expected 11th call to be rejected")
	}
	if resetIn <= 0 || resetIn > time.Minute {
		t.Fatalf("expected resetIn within window, got %s", resetIn)
	}
	if got := s.Count("k"); got != 10 {
		t.Fatalf("rejected calls must not increment, got count %d", got)
	}
}

func TestWindowStore_ResetsAfterWindow(t *testing.T) {
	resets := make(chan int, 1)
	s := NewWindowStore(2, 20*time.Millisecond, WithOnReset(func(_ domain.Key, n int) { resets <- n }))
	defer s.Close()

	s.Admit("k")
	s.Admit("k")
	if ok, _ := s.Admit("k"); ok {
		t.Fatalf("expected third call to be rejected")
	}

	select {
	case n := <-resets:
		if n != 2 {
			t.Fatalf("expected window to close with count 2, got %d", n)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting window reset")
	}

	if ok, _ := s.Admit("k"); !ok {
		t.Fatalf("expected call after window to be admitted")
	}
	if got := s.Count("k"); got != 1 {
		t.Fatalf("expected count reset to 1, got %d", got)
	}
}

func TestWindowStore_KeysAreIndependent(t *testing.T) {
	s := NewWindowStore(1, time.Minute)
	defer s.Close()

	if ok, _ := s.Admit("a"); !ok {
		t.Fatalf("expected a admitted")
	}
	if ok, _ := s.Admit("b"); !ok {
		t.Fatalf("expected b admitted")
	}
	if ok, _ := s.Admit("a"); ok {
		t.Fatalf("expected second a rejected")
	}
}

func TestWindowStore_ConcurrentAdmitNeverExceedsLimit(t *testing.T) {
	s := NewWindowStore(25, time.Minute)
	defer s.Close()

	var mu sync.Mutex
	admitted := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Admit("k"); ok {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 25 {
		t.Fatalf("expected exactly 25 admitted, got %d", admitted)
	}
}
