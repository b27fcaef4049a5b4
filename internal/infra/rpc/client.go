package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/invoke"
)

// Client calls remote objects. It keeps one connection per endpoint.
// Errors are returned as raw gRPC statuses; wrap calls with invoke.Invoker
// to get classified faults.
type Client struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
	opts  []grpc.DialOption
}

// NewClient creates a client. Without options connections are plaintext.
func NewClient(opts ...grpc.DialOption) *Client {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &Client{
		conns: make(map[string]*grpc.ClientConn),
		opts:  opts,
	}
}

func (c *Client) conn(endpoint string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[endpoint]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(endpoint, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", endpoint, err)
	}
	c.conns[endpoint] = conn
	return conn, nil
}

// Call invokes op on the object behind ref.
func (c *Client) Call(ctx context.Context, ref domain.Ref, op string, args map[string]any) (any, error) {
	if ref.Endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint in %s", domain.ErrInvalidRef, ref)
	}
	conn, err := c.conn(ref.Endpoint)
	if err != nil {
		return nil, err
	}

	in, err := encodeRequest(ref, op, args)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, FullMethodInvoke, in, out); err != nil {
		return nil, err
	}
	return decodeResult(out)
}

// Operation wraps a call as an invoke.Operation.
func (c *Client) Operation(ref domain.Ref, op string, args map[string]any) invoke.Operation {
	return invoke.Operation{
		Name: op,
		Invoke: func(ctx context.Context) (any, error) {
			return c.Call(ctx, ref, op, args)
		},
	}
}

// Close closes every cached connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for endpoint, conn := range c.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", endpoint, err))
		}
		delete(c.conns, endpoint)
	}
	return errors.Join(errs...)
}
