package fault

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorInfo reasons attached to gRPC statuses by the transport.
const (
	ErrorDomain         = "orb.vietddude.dev"
	ReasonTransient     = "TRANSIENT"
	ReasonCommunication = "COMM_FAILURE"
)

// Classify maps a failed call to a Record. It never panics; unknown shapes are Generic.
func Classify(err error) *Record {
	if err == nil {
		return unknownFailure()
	}

	// A typed nil *Record or *Cause carries no information.
	var classified *Record
	if errors.As(err, &classified) {
		if classified == nil {
			return unknownFailure()
		}
		rec := *classified
		return &rec
	}
	var cause *Cause
	if errors.As(err, &cause) && cause == nil {
		return unknownFailure()
	}

	kind := kindOf(err)
	rec := &Record{Kind: kind, Cause: describe(err), err: err}
	switch kind {
	case CommunicationFailure:
		rec.Hint = HintCommunication
	case Transient:
		rec.Hint = HintTransient
	}
	return rec
}

func unknownFailure() *Record {
	return &Record{Kind: Generic, Cause: "unknown failure"}
}

// ClassifyWithHint classifies err and prefixes the rendered message with hint.
// An empty hint leaves the record unchanged.
func ClassifyWithHint(err error, hint string) *Record {
	rec := Classify(err)
	switch {
	case hint == "":
	case rec.Context == "":
		rec.Context = hint
	default:
		rec.Context = hint + ": " + rec.Context
	}
	return rec
}

// kindOf evaluates the most specific evidence first.
func kindOf(err error) Kind {
	var cause *Cause
	if errors.As(err, &cause) && cause != nil {
		return cause.Category.kind()
	}

	st, isStatus := status.FromError(err)
	if isStatus {
		if kind, ok := kindFromDetails(st); ok {
			return kind
		}
	}

	if isConnectionError(err) {
		return CommunicationFailure
	}

	if isStatus {
		return kindFromCode(st.Code())
	}
	return Generic
}

func (c Category) kind() Kind {
	switch c {
	case CategoryConnect, CategoryCommunication:
		return CommunicationFailure
	case CategoryTransient:
		return Transient
	default:
		return Generic
	}
}

func kindFromDetails(st *status.Status) (Kind, bool) {
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok {
			continue
		}
		switch info.GetReason() {
		case ReasonTransient:
			return Transient, true
		case ReasonCommunication:
			return CommunicationFailure, true
		}
	}
	return Generic, false
}

// kindFromCode maps bare gRPC codes. Unavailable without a server supplied
// reason comes from the client side channel and is a communication failure.
func kindFromCode(code codes.Code) Kind {
	switch code {
	case codes.Unavailable:
		return CommunicationFailure
	case codes.ResourceExhausted, codes.Aborted:
		return Transient
	default:
		return Generic
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func describe(err error) string {
	var cause *Cause
	if errors.As(err, &cause) && cause != nil {
		return cause.Error()
	}
	if st, ok := status.FromError(err); ok {
		if st.Message() == "" {
			return st.Code().String()
		}
		return fmt.Sprintf("%s: %s", st.Code(), st.Message())
	}
	return err.Error()
}
