package lock

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemoryLock()

	locked, err := m.Lock(ctx, "teacher:1", time.Minute)
	if err != nil || !locked {
		t.Fatalf("first Lock = (%v, %v), want (true, nil)", locked, err)
	}

	locked, err = m.Lock(ctx, "teacher:1", time.Minute)
	if err != nil || locked {
		t.Errorf("second Lock = (%v, %v), want (false, nil)", locked, err)
	}

	locked, err = m.Lock(ctx, "teacher:2", time.Minute)
	if err != nil || !locked {
		t.Errorf("other key Lock = (%v, %v), want (true, nil)", locked, err)
	}

	if err := m.Unlock(ctx, "teacher:1"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	locked, err = m.Lock(ctx, "teacher:1", time.Minute)
	if err != nil || !locked {
		t.Errorf("Lock after Unlock = (%v, %v), want (true, nil)", locked, err)
	}
}

func TestMemoryLockTTLExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemoryLock()

	if locked, _ := m.Lock(ctx, "teacher:1", 10*time.Millisecond); !locked {
		t.Fatal("initial Lock failed")
	}

	time.Sleep(20 * time.Millisecond)

	if locked, _ := m.Lock(ctx, "teacher:1", time.Minute); !locked {
		t.Error("expired lock was not reclaimable")
	}
}
