package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// RefScheme is the URL scheme of stringified object references.
const RefScheme = "orb"

// ErrInvalidRef is returned when a stringified reference cannot be parsed.
var ErrInvalidRef = errors.New("invalid object reference")

// ObjectID identifies a servant within its owning adapter.
type ObjectID string

// Ref is an externally usable object reference.
type Ref struct {
	Endpoint string   `json:"endpoint"`
	Adapter  string   `json:"adapter"`
	ObjectID ObjectID `json:"object_id"`
	Lifespan Lifespan `json:"lifespan"`
}

// IsZero reports whether r is the zero reference.
func (r Ref) IsZero() bool {
	return r == (Ref{})
}

// String renders r as orb://endpoint/adapter/object_id?lifespan=...
func (r Ref) String() string {
	s := fmt.Sprintf("%s://%s/%s/%s",
		RefScheme, r.Endpoint, url.PathEscape(r.Adapter), url.PathEscape(string(r.ObjectID)))
	if r.Lifespan != "" {
		s += "?" + url.Values{"lifespan": {string(r.Lifespan)}}.Encode()
	}
	return s
}

// ParseRef parses the output of Ref.String.
func ParseRef(s string) (Ref, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	if u.Scheme != RefScheme {
		return Ref{}, fmt.Errorf("%w: scheme %q", ErrInvalidRef, u.Scheme)
	}

	parts := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("%w: path %q", ErrInvalidRef, u.Path)
	}
	adapterName, err := url.PathUnescape(parts[0])
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	oid, err := url.PathUnescape(parts[1])
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}

	ref := Ref{
		Endpoint: u.Host,
		Adapter:  adapterName,
		ObjectID: ObjectID(oid),
		Lifespan: Lifespan(u.Query().Get("lifespan")),
	}
	switch ref.Lifespan {
	case "", LifespanPersistent, LifespanTransient:
	default:
		return Ref{}, fmt.Errorf("%w: lifespan %q", ErrInvalidRef, ref.Lifespan)
	}
	return ref, nil
}
