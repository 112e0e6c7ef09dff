// AngelaMos | 2026
// dto.go

package invitation

import (
	"time"
)

type CreateInvitationRequest struct {
	Name    string  `json:"name"    validate:"required,min=1,max=100"`
	Email   string  `json:"email"   validate:"required,email,max=255"`
	Role    string  `json:"role"    validate:"required,oneof=admin teacher student user"`
	Message *string `json:"message,omitempty" validate:"omitempty,max=500"`
}

type AcceptInvitationRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type AcceptInvitationResponse struct {
	UserID string `json:"user_id"`
}

type InvitationResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Message   *string   `json:"message,omitempty"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatedInvitationResponse is the admin-facing create payload; it is the
// only place the bearer token leaves the server outside the email itself.
type CreatedInvitationResponse struct {
	InvitationResponse
	Token string `json:"token"`
}

type ListInvitationsParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Status   string `json:"status"`
}

func (p *ListInvitationsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListInvitationsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Default reports whether the params match the admin UI's initial view,
// the only variant worth caching.
func (p *ListInvitationsParams) Default() bool {
	return p.Page == 1 && p.PageSize == 20 && p.Status == ""
}

func ToInvitationResponse(inv *Invitation) InvitationResponse {
	return InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Name:      inv.Name,
		Role:      inv.Role.String(),
		Message:   inv.Message,
		Status:    inv.Status.String(),
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

func ToInvitationResponseList(invs []Invitation) []InvitationResponse {
	responses := make([]InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		responses = append(responses, ToInvitationResponse(&inv))
	}
	return responses
}
