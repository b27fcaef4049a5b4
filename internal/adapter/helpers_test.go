package adapter

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/vietddude/orb/internal/core/domain"
)

type echoServant struct {
	ServantBase
	name  string
	calls atomic.Int32
}

func (s *echoServant) Dispatch(ctx context.Context, req *Request) (any, error) {
	s.calls.Add(1)
	return s.name + ":" + req.Operation, nil
}

func newTestAdapter(t *testing.T, name string, policy domain.Policy, opts ...Option) *Adapter {
	t.Helper()
	a, err := NewAdapter(name, policy, opts...)
	if err != nil {
		t.Fatalf("NewAdapter(%s) failed: %v", name, err)
	}
	return a
}

var allPolicies = []domain.Policy{
	domain.PersistentRetain,
	domain.PersistentNonRetain,
	domain.TransientRetain,
	domain.TransientNonRetain,
}
