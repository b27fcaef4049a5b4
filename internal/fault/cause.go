package fault

import "fmt"

// Category is the closed set of failure shapes a transport reports.
type Category int

const (
	CategoryOther Category = iota
	// CategoryConnect is a failure to establish the connection.
	CategoryConnect
	// CategoryCommunication is a breakdown in the middle of a call.
	CategoryCommunication
	// CategoryTransient is a server that is starting, shutting down or overloaded.
	CategoryTransient
)

func (c Category) String() string {
	switch c {
	case CategoryConnect:
		return "connect"
	case CategoryCommunication:
		return "communication"
	case CategoryTransient:
		return "transient"
	default:
		return "other"
	}
}

// Cause is a typed failure reported by a transport or a servant.
type Cause struct {
	Category Category
	Reason   string
	Err      error
}

// NewCause builds a Cause with a formatted reason.
func NewCause(category Category, format string, args ...any) *Cause {
	return &Cause{Category: category, Reason: fmt.Sprintf(format, args...)}
}

// WrapCause tags err with category.
func WrapCause(category Category, err error) *Cause {
	return &Cause{Category: category, Err: err}
}

func (c *Cause) Error() string {
	if c == nil {
		return "unknown failure"
	}
	switch {
	case c.Reason != "" && c.Err != nil:
		return c.Reason + ": " + c.Err.Error()
	case c.Reason != "":
		return c.Reason
	case c.Err != nil:
		return c.Err.Error()
	default:
		return c.Category.String() + " failure"
	}
}

func (c *Cause) Unwrap() error {
	if c == nil {
		return nil
	}
	return c.Err
}
