package adapter

import (
	"errors"
	"sync"
	"testing"

	"github.com/vietddude/orb/internal/core/domain"
)

func TestDeferredBinding_GetBeforeBind(t *testing.T) {
	var b DeferredBinding
	if _, err := b.Get(); !errors.Is(err, ErrUnbound) {
		t.Errorf("Expected ErrUnbound, got %v", err)
	}
	if b.IsBound() {
		t.Error("IsBound() = true before Bind")
	}
}

func TestDeferredBinding_BindOnce(t *testing.T) {
	var b DeferredBinding
	first := newTestAdapter(t, "employees", domain.TransientRetain)
	second := newTestAdapter(t, "employees-2", domain.TransientRetain)

	if err := b.Bind(first); err != nil {
		t.Fatalf("First Bind failed: %v", err)
	}
	got, err := b.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != first {
		t.Error("Get returned a different adapter")
	}

	if err := b.Bind(second); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("Expected ErrAlreadyBound, got %v", err)
	}
	if err := b.Bind(first); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("Expected ErrAlreadyBound when rebinding same adapter, got %v", err)
	}
	if got, _ := b.Get(); got != first {
		t.Error("Failed Bind replaced the first adapter")
	}
}

func TestDeferredBinding_NilAdapter(t *testing.T) {
	var b DeferredBinding
	if err := b.Bind(nil); !errors.Is(err, ErrNilAdapter) {
		t.Errorf("Expected ErrNilAdapter, got %v", err)
	}
	if b.IsBound() {
		t.Error("Bind(nil) must leave the binding unset")
	}
}

func TestDeferredBinding_ConcurrentBind(t *testing.T) {
	for _, n := range []int{1, 2, 8, 64} {
		var b DeferredBinding
		adapters := make([]*Adapter, n)
		for i := range adapters {
			adapters[i] = newTestAdapter(t, "child", domain.TransientRetain)
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			already   int
			winner    *Adapter
		)
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(a *Adapter) {
				defer wg.Done()
				<-start
				err := b.Bind(a)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
					winner = a
				case errors.Is(err, ErrAlreadyBound):
					already++
				default:
					t.Errorf("Unexpected error: %v", err)
				}
			}(adapters[i])
		}
		close(start)
		wg.Wait()

		if successes != 1 || already != n-1 {
			t.Errorf("n=%d: successes=%d already=%d, want 1 and %d", n, successes, already, n-1)
		}
		if got, _ := b.Get(); got != winner {
			t.Errorf("n=%d: bound adapter is not the winner", n)
		}
	}
}
