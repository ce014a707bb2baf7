package ticketapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/atu_queue/kiosk/internal/models"
)

// Client mirrors tickets to the remote ticket API.
type Client interface {
	Submit(ctx context.Context, t models.TicketRecord) (models.TicketRecord, error)
}

// SubmitError carries a non-2xx answer from the remote API.
type SubmitError struct {
	Status int
	Body   string
}

func (e *SubmitError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "API error"
	}
	return fmt.Sprintf("ticket api %d: %s", e.Status, body)
}

// NopClient is used when no remote API is configured. It echoes the ticket.
type NopClient struct{}

func (NopClient) Submit(_ context.Context, t models.TicketRecord) (models.TicketRecord, error) {
	return t, nil
}
