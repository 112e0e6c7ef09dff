// AngelaMos | 2026
// sendgrid.go

package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/brightclass/backend/internal/config"
)

type SendgridDispatcher struct {
	client  *sendgrid.Client
	from    *sgmail.Email
	baseURL string
}

var _ Dispatcher = (*SendgridDispatcher)(nil)

func NewSendgridDispatcher(cfg config.EmailConfig) *SendgridDispatcher {
	return &SendgridDispatcher{
		client:  sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:    sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		baseURL: cfg.FrontendBaseURL,
	}
}

func (d *SendgridDispatcher) SendInvitation(
	ctx context.Context,
	inv Invite,
) error {
	to := sgmail.NewEmail(inv.Name, inv.Email)
	subject := "You have been invited to BrightClass"

	link := acceptURL(d.baseURL, inv.Token)

	plain := fmt.Sprintf(
		"Hi %s,\n\nYou have been invited to join BrightClass as a %s.\n\n"+
			"Accept your invitation here: %s\n\n"+
			"This link expires in 7 days.\n",
		inv.Name, inv.Role, link,
	)
	if inv.Message != "" {
		plain += "\nA note from your inviter:\n" + inv.Message + "\n"
	}

	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>You have been invited to join BrightClass as a <strong>%s</strong>.</p>`+
			`<p><a href="%s">Accept your invitation</a></p>`+
			`<p>This link expires in 7 days.</p>`,
		inv.Name, inv.Role, link,
	)
	if inv.Message != "" {
		html += fmt.Sprintf(`<p>A note from your inviter:</p><blockquote>%s</blockquote>`, inv.Message)
	}

	message := sgmail.NewSingleEmail(d.from, subject, to, plain, html)

	resp, err := d.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid dispatch: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf(
			"sendgrid dispatch: status %d: %s",
			resp.StatusCode,
			resp.Body,
		)
	}

	return nil
}
