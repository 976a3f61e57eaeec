package authkit

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus is the lifecycle state of a user account
type AccountStatus int

const (
	// StatusInactive has not completed verification
	StatusInactive AccountStatus = iota
	// StatusActive can authenticate
	StatusActive
	// StatusDeleted is retired
	StatusDeleted
	// StatusBlocked is locked out by an operator
	StatusBlocked
)

// Label returns the display name for a status
func (s AccountStatus) Label() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	case StatusDeleted:
		return "Deleted"
	case StatusBlocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// User is the credential record this subsystem reads. The token logic
// only depends on ID, Email, and PasswordHash; the rest belongs to the
// surrounding application.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string        `bun:"name,notnull" json:"name,omitempty"`
	Email         string        `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string        `bun:"password_hash,notnull" json:"-"`
	Status        AccountStatus `bun:"status" json:"status,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
