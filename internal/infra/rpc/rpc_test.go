package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vietddude/orb/internal/adapter"
	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/fault"
	"github.com/vietddude/orb/internal/invoke"
)

const bufEndpoint = "passthrough:///bufnet"

type greeter struct {
	adapter.ServantBase
}

func (g *greeter) Dispatch(ctx context.Context, req *adapter.Request) (any, error) {
	switch req.Operation {
	case "greet":
		name, _ := req.Args["name"].(string)
		return "hello " + name, nil
	case "self":
		return req.Adapter.Reference(req.ObjectID, "localhost:7700"), nil
	case "nothing":
		return nil, nil
	case "busy":
		return nil, fault.NewCause(fault.CategoryTransient, "queue full")
	case "broken":
		return nil, errors.New("division by zero")
	default:
		return nil, adapter.ErrUnknownOperation
	}
}

type harness struct {
	manager *adapter.Manager
	client  *Client
	ref     domain.Ref
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	manager := adapter.NewManager(nil)
	a, err := manager.Create("greeters", domain.PersistentRetain)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := a.ActivateWithID("greeter", &greeter{}); err != nil {
		t.Fatalf("ActivateWithID failed: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(manager, nil)
	go func() { _ = srv.Serve(lis) }()

	client := NewClient(
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)

	t.Cleanup(func() {
		_ = client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
		manager.Shutdown()
	})

	return &harness{
		manager: manager,
		client:  client,
		ref:     a.Reference("greeter", bufEndpoint),
	}
}

func TestCall_Success(t *testing.T) {
	h := newHarness(t)
	if err := h.manager.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	ctx := context.Background()

	got, err := h.client.Call(ctx, h.ref, "greet", map[string]any{"name": "orb"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got != "hello orb" {
		t.Errorf("Expected 'hello orb', got %v", got)
	}

	ref, err := h.client.Call(ctx, h.ref, "self", nil)
	if err != nil {
		t.Fatalf("Call self failed: %v", err)
	}
	want := domain.Ref{Endpoint: "localhost:7700", Adapter: "greeters", ObjectID: "greeter", Lifespan: domain.LifespanPersistent}
	if ref != want {
		t.Errorf("Expected ref %v, got %v", want, ref)
	}

	nothing, err := h.client.Call(ctx, h.ref, "nothing", nil)
	if err != nil || nothing != nil {
		t.Errorf("Expected (nil, nil), got (%v, %v)", nothing, err)
	}
}

func TestCall_ErrorMapping(t *testing.T) {
	h := newHarness(t)
	if err := h.manager.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	missing := h.ref
	missing.ObjectID = "nobody"
	noAdapter := h.ref
	noAdapter.Adapter = "nowhere"

	tests := []struct {
		name     string
		ref      domain.Ref
		op       string
		wantCode codes.Code
		wantKind fault.Kind
	}{
		{"unknown object", missing, "greet", codes.NotFound, fault.Generic},
		{"unknown adapter", noAdapter, "greet", codes.NotFound, fault.Generic},
		{"unknown operation", h.ref, "dance", codes.Unimplemented, fault.Generic},
		{"servant transient cause", h.ref, "busy", codes.Unavailable, fault.Transient},
		{"servant plain error", h.ref, "broken", codes.Unknown, fault.Generic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.Call(context.Background(), tt.ref, tt.op, nil)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if code := status.Code(err); code != tt.wantCode {
				t.Errorf("Expected code %v, got %v", tt.wantCode, code)
			}
			if kind := fault.Classify(err).Kind; kind != tt.wantKind {
				t.Errorf("Expected kind %v, got %v", tt.wantKind, kind)
			}
		})
	}
}

func TestCall_HoldingIsTransient(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Call(context.Background(), h.ref, "greet", nil)
	rec := fault.Classify(err)
	if rec.Kind != fault.Transient {
		t.Fatalf("Expected Transient while holding, got %v (%v)", rec.Kind, err)
	}
	if rec.Hint != fault.HintTransient {
		t.Errorf("Expected transient hint, got %q", rec.Hint)
	}
}

func TestCall_RetriesUntilActive(t *testing.T) {
	h := newHarness(t)

	retries := 0
	inv := invoke.New(invoke.RetryConfig{
		MaxAttempts:     5,
		InitialDelay:    time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		BackoffMultiple: 2,
	}, invoke.WithRetryCallback(func(op string, attempt int, rec *fault.Record) {
		retries++
		if attempt == 2 {
			_ = h.manager.Activate()
		}
	}))

	got, err := inv.Invoke(context.Background(), h.client.Operation(h.ref, "greet", map[string]any{"name": "again"}))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != "hello again" {
		t.Errorf("Expected 'hello again', got %v", got)
	}
	if retries != 2 {
		t.Errorf("Expected 2 retries, got %d", retries)
	}
}

func TestCall_DiscardingIsTransient(t *testing.T) {
	h := newHarness(t)
	if err := h.manager.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	_, err := h.client.Call(context.Background(), h.ref, "greet", nil)
	if kind := fault.Classify(err).Kind; kind != fault.Transient {
		t.Errorf("Expected Transient while discarding, got %v", kind)
	}
}

func TestCall_ShutdownIsNotRetried(t *testing.T) {
	h := newHarness(t)
	h.manager.Shutdown()

	calls := 0
	inv := invoke.New(invoke.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, BackoffMultiple: 2})
	_, err := inv.Invoke(context.Background(), invoke.Operation{
		Name: "greet",
		Invoke: func(ctx context.Context) (any, error) {
			calls++
			return h.client.Call(ctx, h.ref, "greet", nil)
		},
	})
	if code := status.Code(errors.Unwrap(err)); code != codes.FailedPrecondition {
		t.Errorf("Expected FailedPrecondition, got %v", code)
	}
	if kind := fault.Classify(err).Kind; kind != fault.Generic {
		t.Errorf("Expected Generic after shutdown, got %v", kind)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

type owner struct {
	adapter.ServantBase
	child adapter.DeferredBinding
}

func (o *owner) Dispatch(ctx context.Context, req *adapter.Request) (any, error) {
	a, err := o.child.Get()
	if err != nil {
		return nil, err
	}
	id, err := a.Activate(&greeter{})
	if err != nil {
		return nil, err
	}
	return a.Reference(id, "localhost:7700"), nil
}

func TestCall_DestroyedChildAdapterIsNotRetried(t *testing.T) {
	h := newHarness(t)
	if err := h.manager.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	children, err := h.manager.Create("children", domain.TransientRetain)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	parents, err := h.manager.Lookup("greeters")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	o := &owner{}
	if err := o.child.Bind(children); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := parents.ActivateWithID("owner", o); err != nil {
		t.Fatalf("ActivateWithID failed: %v", err)
	}
	if err := h.manager.Destroy("children"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	ref := parents.Reference("owner", bufEndpoint)
	retries := 0
	inv := invoke.New(invoke.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, BackoffMultiple: 2},
		invoke.WithRetryCallback(func(op string, attempt int, rec *fault.Record) { retries++ }))

	_, err = inv.Invoke(context.Background(), h.client.Operation(ref, "spawn", nil))
	if kind := fault.Classify(err).Kind; kind != fault.Generic {
		t.Errorf("Expected Generic for destroyed child adapter, got %v (%v)", kind, err)
	}
	if retries != 0 {
		t.Errorf("Expected no retries, got %d", retries)
	}
}

func TestCall_ConnectionRefused(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	client := NewClient()
	defer client.Close()

	ref := domain.Ref{Endpoint: addr, Adapter: "station", ObjectID: "station", Lifespan: domain.LifespanPersistent}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.Call(ctx, ref, "reading", nil)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	rec := fault.ClassifyWithHint(err, "while fetching weather reading")
	if rec.Kind != fault.CommunicationFailure {
		t.Fatalf("Expected CommunicationFailure, got %v (%v)", rec.Kind, err)
	}
	if rec.Hint != fault.HintCommunication {
		t.Errorf("Expected communication hint, got %q", rec.Hint)
	}
}

func TestCall_RequiresEndpoint(t *testing.T) {
	client := NewClient()
	defer client.Close()

	_, err := client.Call(context.Background(), domain.Ref{Adapter: "a", ObjectID: "b"}, "op", nil)
	if !errors.Is(err, domain.ErrInvalidRef) {
		t.Errorf("Expected ErrInvalidRef, got %v", err)
	}
}

func TestDecodeRequest_MissingFields(t *testing.T) {
	in, err := structpb.NewStruct(map[string]any{"adapter": "a", "operation": "op"})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	if _, _, err := decodeRequest(in); err == nil {
		t.Error("Expected error for missing object_id")
	}
}

func TestEncodeResult_Unsupported(t *testing.T) {
	if _, err := encodeResult(struct{}{}); err == nil {
		t.Error("Expected error for unsupported result type")
	}
}
