package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStore_WindowEviction(t *testing.T) {
	store := NewStore(Config{WindowSize: 3})
	serviceID := uuid.Must(uuid.NewV7())
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		store.Record(serviceID, "cpu_percent", float64(i), base.Add(time.Duration(i)*time.Second))
	}

	samples := store.Samples(serviceID, "cpu_percent", base)
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want window of 3", len(samples))
	}
	for i, sample := range samples {
		if want := float64(i + 2); sample.Value != want {
			t.Errorf("samples[%d].Value = %v, want %v", i, sample.Value, want)
		}
	}
}

func TestStore_SinceFilter(t *testing.T) {
	store := NewStore(Config{WindowSize: 10})
	serviceID := uuid.Must(uuid.NewV7())
	base := time.Now().UTC()

	store.Record(serviceID, "cpu_percent", 10, base.Add(-2*time.Minute))
	store.Record(serviceID, "cpu_percent", 20, base.Add(-time.Minute))
	store.Record(serviceID, "cpu_percent", 30, base)

	samples := store.Samples(serviceID, "cpu_percent", base.Add(-time.Minute))
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Value != 20 || samples[1].Value != 30 {
		t.Errorf("samples = %+v, want oldest first", samples)
	}
}

func TestStore_SeriesAreIndependent(t *testing.T) {
	store := NewStore(Config{WindowSize: 10})
	first := uuid.Must(uuid.NewV7())
	second := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	store.Record(first, "cpu_percent", 90, now)
	store.Record(first, "memory_percent", 40, now)
	store.Record(second, "cpu_percent", 10, now)

	since := now.Add(-time.Minute)
	if got := store.Samples(first, "cpu_percent", since); len(got) != 1 || got[0].Value != 90 {
		t.Errorf("first cpu samples = %+v", got)
	}
	if got := store.Samples(first, "memory_percent", since); len(got) != 1 || got[0].Value != 40 {
		t.Errorf("first memory samples = %+v", got)
	}
	if got := store.Samples(second, "cpu_percent", since); len(got) != 1 || got[0].Value != 10 {
		t.Errorf("second cpu samples = %+v", got)
	}
}

func TestStore_MinimumWindow(t *testing.T) {
	store := NewStore(Config{WindowSize: 0})
	serviceID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	store.Record(serviceID, "cpu_percent", 1, now)
	store.Record(serviceID, "cpu_percent", 2, now.Add(time.Second))

	samples := store.Samples(serviceID, "cpu_percent", now)
	if len(samples) != 1 || samples[0].Value != 2 {
		t.Errorf("samples = %+v, want only the newest", samples)
	}
}

func TestStore_ConcurrentRecord(t *testing.T) {
	store := NewStore(Config{WindowSize: 64})
	serviceID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Record(serviceID, "request_count", float64(i), now)
			store.Samples(serviceID, "request_count", now.Add(-time.Minute))
		}(i)
	}
	wg.Wait()

	if got := len(store.Samples(serviceID, "request_count", now.Add(-time.Minute))); got != 16 {
		t.Errorf("got %d samples, want 16", got)
	}
}
