// AngelaMos | 2026
// entity.go

package invitation

import (
	"time"

	"github.com/brightclass/backend/internal/user"
)

// Status is the invitation lifecycle state. The only legal transitions
// are pending -> accepted and pending -> rejected; accepted and rejected
// are terminal. Expiry is not a stored state: an expired invitation stays
// pending in storage and is refused lazily at accept time.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

func (s Status) String() string {
	return string(s)
}

type Invitation struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      user.Role `db:"role"`
	Message   *string   `db:"message"`
	Token     string    `db:"token"`
	Status    Status    `db:"status"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

func (i *Invitation) IsPending() bool {
	return i.Status == StatusPending
}

// Live reports whether the invitation still blocks a re-invite of the
// same email: pending and not yet expired.
func (i *Invitation) Live(now time.Time) bool {
	return i.IsPending() && !i.IsExpired(now)
}
