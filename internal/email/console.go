// AngelaMos | 2026
// console.go

package email

import (
	"context"
	"log/slog"
)

// ConsoleDispatcher logs instead of sending. Development only; config
// validation rejects it in production.
type ConsoleDispatcher struct {
	baseURL string
	logger  *slog.Logger
}

var _ Dispatcher = (*ConsoleDispatcher)(nil)

func NewConsoleDispatcher(baseURL string, logger *slog.Logger) *ConsoleDispatcher {
	return &ConsoleDispatcher{baseURL: baseURL, logger: logger}
}

func (d *ConsoleDispatcher) SendInvitation(
	ctx context.Context,
	inv Invite,
) error {
	d.logger.Info("invitation email (console dispatcher)",
		"to", inv.Email,
		"name", inv.Name,
		"role", inv.Role,
		"accept_url", acceptURL(d.baseURL, inv.Token),
	)
	return nil
}
