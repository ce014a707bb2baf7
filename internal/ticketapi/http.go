package ticketapi

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/atu_queue/kiosk/internal/models"
)

type HTTPClient struct {
	client *resty.Client
}

type requestBody struct {
	Number    string `json:"number"`
	Service   string `json:"service"`
	Category  string `json:"category"`
	Track     string `json:"track,omitempty"`
	PayType   string `json:"pay_type,omitempty"`
	Profile   string `json:"profile,omitempty"`
	Desk      *int   `json:"desk"`
	FIO       string `json:"fio"`
	Phone     string `json:"phone"`
	IsOnline  bool   `json:"is_online"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type responseBody struct {
	Number    string    `json:"number"`
	Desk      *int      `json:"desk"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &HTTPClient{client: client}
}

// Submit posts t to the ticket collection. Fields the server fills in are
// merged over the local record in the returned value; the local copy is not
// touched.
func (h *HTTPClient) Submit(ctx context.Context, t models.TicketRecord) (models.TicketRecord, error) {
	payload := requestBody{
		Number:    t.Number,
		Service:   t.Service,
		Category:  t.Category,
		Track:     t.Direction,
		PayType:   t.PayType,
		Profile:   t.Profile,
		Desk:      t.Desk,
		FIO:       t.FIO,
		Phone:     t.Phone,
		IsOnline:  t.Service == models.ServiceOnline,
		Status:    t.Status,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}

	var r responseBody
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&r).
		Post("/api/tickets/")
	if err != nil {
		return models.TicketRecord{}, err
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return models.TicketRecord{}, &SubmitError{Status: resp.StatusCode(), Body: resp.String()}
	}

	out := t
	if r.Number != "" {
		out.Number = r.Number
	}
	if r.Desk != nil {
		out.Desk = r.Desk
	}
	if r.Status != "" {
		out.Status = r.Status
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt
	}
	return out, nil
}
