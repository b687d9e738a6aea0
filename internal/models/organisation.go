package models

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleStatus is the operator-controlled state of an organisation.
type LifecycleStatus string

const (
	LifecycleActive  LifecycleStatus = "active"
	LifecycleBlocked LifecycleStatus = "blocked"
)

// Valid reports whether s is a known lifecycle status.
func (s LifecycleStatus) Valid() bool {
	return s == LifecycleActive || s == LifecycleBlocked
}

// BillingStatus is driven by the external billing provider.
type BillingStatus string

const (
	BillingOK             BillingStatus = "ok"
	BillingPendingPayment BillingStatus = "pending_payment"
	BillingRestricted     BillingStatus = "restricted"
)

// Valid reports whether s is a known billing status.
func (s BillingStatus) Valid() bool {
	switch s {
	case BillingOK, BillingPendingPayment, BillingRestricted:
		return true
	}
	return false
}

// Restricts reports whether mutating requests are blocked for an organisation in this
// billing status. Unknown statuses restrict.
func (s BillingStatus) Restricts() bool {
	return s != BillingOK
}

// Organisation represents a tenant: an onboarded customer organisation
// addressed by its subdomain slug.
type Organisation struct {
	ID            uuid.UUID // UUIDv7
	Slug          string    // unique, lowercase subdomain label
	Name          string
	Status        LifecycleStatus
	BillingStatus BillingStatus
	BillingNote   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsBlocked returns true if platform operators blocked the organisation.
func (o *Organisation) IsBlocked() bool {
	return o.Status == LifecycleBlocked
}
