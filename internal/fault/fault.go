// Package fault classifies remote invocation failures.
//
// Every failure leaving the invocation layer is a *Record carrying a Kind,
// a description of the underlying cause and, where one exists, a remediation
// hint an operator can act on from a single printed line.
package fault

import (
	"log/slog"
	"strings"
)

// Kind is the classification bucket of a failed remote call.
type Kind int

const (
	// Generic covers any failure not known to be transport related or transient.
	Generic Kind = iota
	// CommunicationFailure is a broken or unreachable channel.
	CommunicationFailure
	// Transient means the server could not accept the call right now.
	Transient
)

func (k Kind) String() string {
	switch k {
	case CommunicationFailure:
		return "communication failure"
	case Transient:
		return "transient failure"
	default:
		return "remote failure"
	}
}

// Retryable reports whether calls failing with k may be retried automatically.
func (k Kind) Retryable() bool {
	return k == Transient
}

const (
	HintCommunication = "verify server process and directory-service reachability/configuration"
	HintTransient     = "retry after backoff; condition may self-resolve"
)

// Record is the uniform failure shape returned to callers of remote operations.
type Record struct {
	Kind Kind
	// Cause describes the underlying failure.
	Cause string
	// Hint is the remediation hint for Kind; empty for Generic.
	Hint string
	// Context is the caller supplied hint, e.g. "while fetching weather reading".
	Context string

	err error
}

// Message renders the record as one standalone line.
func (r *Record) Message() string {
	if r == nil {
		return Generic.String() + ": unknown failure"
	}
	var b strings.Builder
	if r.Context != "" {
		b.WriteString(r.Context)
		b.WriteString(": ")
	}
	b.WriteString(r.Kind.String())
	if r.Cause != "" {
		b.WriteString(": ")
		b.WriteString(r.Cause)
	}
	if r.Hint != "" {
		b.WriteString(" (hint: ")
		b.WriteString(r.Hint)
		b.WriteString(")")
	}
	return b.String()
}

func (r *Record) Error() string {
	return r.Message()
}

// Unwrap exposes the classified error.
func (r *Record) Unwrap() error {
	if r == nil {
		return nil
	}
	return r.err
}

// LogAttrs returns the record as slog attributes.
func (r *Record) LogAttrs() []any {
	attrs := []any{
		slog.String("fault_kind", r.Kind.String()),
		slog.String("cause", r.Cause),
	}
	if r.Hint != "" {
		attrs = append(attrs, slog.String("hint", r.Hint))
	}
	if r.Context != "" {
		attrs = append(attrs, slog.String("context", r.Context))
	}
	return attrs
}
