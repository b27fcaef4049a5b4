package domain

import "fmt"

// Lifespan says whether object references outlive the adapter instance that issued them.
type Lifespan string

const (
	// LifespanPersistent references stay resolvable for the adapter's operational
	// lifetime and may be published through the naming service.
	LifespanPersistent Lifespan = "persistent"
	// LifespanTransient references are handed out dynamically and die with the
	// adapter instance.
	LifespanTransient Lifespan = "transient"
)

// Retention says whether an adapter keeps an identity -> servant table.
type Retention string

const (
	RetentionRetain    Retention = "retain"
	RetentionNonRetain Retention = "non_retain"
)

// Policy is the fixed policy pair of an object adapter.
type Policy struct {
	Lifespan  Lifespan  `yaml:"lifespan"  json:"lifespan"`
	Retention Retention `yaml:"retention" json:"retention"`
}

var (
	PersistentRetain    = Policy{Lifespan: LifespanPersistent, Retention: RetentionRetain}
	PersistentNonRetain = Policy{Lifespan: LifespanPersistent, Retention: RetentionNonRetain}
	TransientRetain     = Policy{Lifespan: LifespanTransient, Retention: RetentionRetain}
	TransientNonRetain  = Policy{Lifespan: LifespanTransient, Retention: RetentionNonRetain}
)

// Validate rejects unknown lifespan or retention values.
func (p Policy) Validate() error {
	switch p.Lifespan {
	case LifespanPersistent, LifespanTransient:
	default:
		return fmt.Errorf("unknown lifespan policy %q", p.Lifespan)
	}
	switch p.Retention {
	case RetentionRetain, RetentionNonRetain:
	default:
		return fmt.Errorf("unknown retention policy %q", p.Retention)
	}
	return nil
}

// IsPersistent reports whether the policy has a persistent lifespan.
func (p Policy) IsPersistent() bool {
	return p.Lifespan == LifespanPersistent
}

// Retains reports whether the adapter keeps an active object map.
func (p Policy) Retains() bool {
	return p.Retention == RetentionRetain
}

func (p Policy) String() string {
	return string(p.Lifespan) + "/" + string(p.Retention)
}
