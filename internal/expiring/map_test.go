package expiring

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_InsertOnlyWhenAbsent(t *testing.T) {
	m := New[string, int]()
	defer m.Close()

	if _, ok := m.Insert("k", 1, time.Minute); !ok {
		t.Fatalf("expected first insert to succeed")
	}
	if _, ok := m.Insert("k", 2, time.Minute); ok {
		t.Fatalf("expected second insert to fail")
	}
	v, _, ok := m.Get("k")
	if !ok || v != 1 {
		t.Fatalf("expected original value 1, got %d (ok=%v)", v, ok)
	}
}

func TestMap_ExpiresAutonomously(t *testing.T) {
	var expired atomic.Int32
	m := New(WithOnExpire(func(string, int) { expired.Add(1) }))
	defer m.Close()

	m.Insert("k", 1, 10*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	if _, _, ok := m.Get("k"); ok {
		t.Fatalf("expected key to expire")
	}
	if expired.Load() != 1 {
		t.Fatalf("expected onExpire once, got %d", expired.Load())
	}
}

func TestMap_TouchExtendsLifetime(t *testing.T) {
	m := New[string, int]()
	defer m.Close()

	m.Insert("k", 1, 30*time.Millisecond)
	for i := 0; i < 4; i++ {
		time.Sleep(15 * time.Millisecond)
		if _, _, ok := m.Touch("k", 30*time.Millisecond); !ok {
			t.Fatalf("expected key alive on touch %d", i)
		}
	}
	time.Sleep(60 * time.Millisecond)
	if _, _, ok := m.Get("k"); ok {
		t.Fatalf("expected key to expire after touches stop")
	}
}

func TestMap_GetDoesNotRefresh(t *testing.T) {
	m := New[string, int]()
	defer m.Close()

	exp, _ := m.Insert("k", 1, time.Minute)
	time.Sleep(5 * time.Millisecond)
	_, got, ok := m.Get("k")
	if !ok || !got.Equal(exp) {
		t.Fatalf("expected expiry unchanged, got %v want %v", got, exp)
	}
}

func TestMap_UpdateKeepsOriginalExpiry(t *testing.T) {
	m := New[string, int]()
	defer m.Close()

	inc := func(n int, _ bool) int { return n + 1 }
	v, exp := m.Update("k", 25*time.Millisecond, inc)
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	time.Sleep(5 * time.Millisecond)
	v, exp2 := m.Update("k", 25*time.Millisecond, inc)
	if v != 2 || !exp2.Equal(exp) {
		t.Fatalf("expected 2 with same expiry, got %d %v/%v", v, exp2, exp)
	}

	time.Sleep(50 * time.Millisecond)
	if v, _ := m.Update("k", 25*time.Millisecond, inc); v != 1 {
		t.Fatalf("expected counter to restart at 1 after expiry, got %d", v)
	}
}

func TestMap_DeleteCancelsExpiry(t *testing.T) {
	var expired atomic.Int32
	m := New(WithOnExpire(func(string, int) { expired.Add(1) }))
	defer m.Close()

	m.Insert("k", 1, 10*time.Millisecond)
	if !m.Delete("k") {
		t.Fatalf("expected delete to report true")
	}
	if m.Delete("k") {
		t.Fatalf("expected second delete to report false")
	}
	time.Sleep(30 * time.Millisecond)
	if expired.Load() != 0 {
		t.Fatalf("expected no expiry callback after delete")
	}

	// reinserção não pode ser derrubada por timer antigo
	m.Insert("k", 2, time.Minute)
	time.Sleep(20 * time.Millisecond)
	if _, _, ok := m.Get("k"); !ok {
		t.Fatalf("expected reinserted key to survive")
	}
}

func TestMap_ConcurrentInsertIsExclusive(t *testing.T) {
	m := New[string, int]()
	defer m.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, ok := m.Insert("same", i, time.Minute); ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestMap_Close(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1, time.Minute)
	m.Insert("b", 2, time.Minute)
	m.Close()
	if m.Len() != 0 {
		t.Fatalf("expected empty map after Close, got %d", m.Len())
	}
}
