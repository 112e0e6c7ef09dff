// AngelaMos | 2026
// email.go

package email

import (
	"context"
	"fmt"
)

// Invite carries everything the dispatch needs to build the invitation
// email. The token is a bearer capability; it only ever travels inside
// the acceptance link.
type Invite struct {
	Email   string
	Name    string
	Role    string
	Message string
	Token   string
}

// Dispatcher delivers transactional mail. Implementations must return a
// non-nil error on any failure (including non-2xx provider responses) so
// callers can run their compensating actions.
type Dispatcher interface {
	SendInvitation(ctx context.Context, inv Invite) error
}

func acceptURL(baseURL, token string) string {
	return fmt.Sprintf("%s/invitations/%s", baseURL, token)
}
