package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vietddude/orb/internal/adapter"
	"github.com/vietddude/orb/internal/fault"
)

// Dispatcher routes a decoded request to a named adapter.
// *adapter.Manager implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, adapterName string, req *adapter.Request) (any, error)
}

// Server serves the Invocation service on top of a Dispatcher.
type Server struct {
	grpc       *grpc.Server
	dispatcher Dispatcher
	log        *slog.Logger
}

// NewServer creates a gRPC server dispatching into d.
func NewServer(d Dispatcher, log *slog.Logger, opts ...grpc.ServerOption) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		grpc:       grpc.NewServer(opts...),
		dispatcher: d,
		log:        log,
	}
	s.grpc.RegisterService(&ServiceDesc, s)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("Transport listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop drains in-flight calls, or aborts them when ctx expires first.
func (s *Server) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}

// Invoke implements the Invocation service.
func (s *Server) Invoke(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	adapterName, req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.dispatcher.Dispatch(ctx, adapterName, req)
	if err != nil {
		s.log.Debug("Dispatch failed",
			"adapter", adapterName,
			"object_id", req.ObjectID,
			"operation", req.Operation,
			"error", err,
		)
		return nil, toStatus(err)
	}

	out, err := encodeResult(result)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps dispatch errors to gRPC statuses the fault classifier understands.
func toStatus(err error) error {
	var cause *fault.Cause
	switch {
	case adapter.IsTransient(err):
		return withReason(codes.Unavailable, err.Error(), fault.ReasonTransient)
	case errors.Is(err, adapter.ErrAdapterDestroyed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, adapter.ErrNotFound), errors.Is(err, adapter.ErrAdapterNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, adapter.ErrUnknownOperation):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.As(err, &cause):
		switch cause.Category {
		case fault.CategoryTransient:
			return withReason(codes.Unavailable, err.Error(), fault.ReasonTransient)
		case fault.CategoryConnect, fault.CategoryCommunication:
			return withReason(codes.Unavailable, err.Error(), fault.ReasonCommunication)
		}
		return status.Error(codes.Unknown, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}

func withReason(code codes.Code, msg, reason string) error {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: fault.ErrorDomain,
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
