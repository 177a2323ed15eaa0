package ident

import (
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestRequestIDsAreMonotonicWithinMillisecond(t *testing.T) {
	generator := NewRequestIDGenerator()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	generator.now = func() time.Time { return fixed }

	var previous string
	for i := 0; i < 64; i++ {
		id, err := generator.NewRequestID()
		if err != nil {
			t.Fatalf("NewRequestID returned error: %v", err)
		}
		parsed, err := ulid.ParseStrict(id)
		if err != nil {
			t.Fatalf("invalid ulid %q: %v", id, err)
		}
		if parsed.Time() != ulid.Timestamp(fixed) {
			t.Fatalf("unexpected timestamp %d", parsed.Time())
		}
		if previous != "" && id <= previous {
			t.Fatalf("ids not increasing: %s then %s", previous, id)
		}
		previous = id
	}
}

func TestRequestIDsAreUniqueAcrossGoroutines(t *testing.T) {
	generator := NewRequestIDGenerator()
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 32; j++ {
				id, err := generator.NewRequestID()
				if err != nil {
					t.Errorf("NewRequestID returned error: %v", err)
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 8*32 {
		t.Fatalf("expected %d unique ids, got %d", 8*32, len(seen))
	}
}
