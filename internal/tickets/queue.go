package tickets

import (
	"context"
	"errors"
	"slices"

	"github.com/atu_queue/kiosk/internal/models"
)

var (
	ErrQueueEmpty = errors.New("no pending tickets")
	ErrDeskBusy   = errors.New("desk already has a called ticket")
)

// PendingForDesk lists PENDING tickets routed to desk, oldest first.
// A desk of 0 or less lists pending tickets for every desk.
func (s *Store) PendingForDesk(ctx context.Context, desk int) ([]models.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	out := pending(list, desk)
	if out == nil {
		out = []models.TicketRecord{}
	}
	return out, nil
}

// CallNext moves the oldest PENDING ticket of desk to ACCEPTED. A desk that
// still has an ACCEPTED ticket must finish or cancel it first.
func (s *Store) CallNext(ctx context.Context, desk int) (models.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.list(ctx)
	if err != nil {
		return models.TicketRecord{}, err
	}
	for _, t := range list {
		if t.Status == models.StatusAccepted && onDesk(t, desk) {
			return models.TicketRecord{}, ErrDeskBusy
		}
	}
	queue := pending(list, desk)
	if len(queue) == 0 {
		return models.TicketRecord{}, ErrQueueEmpty
	}
	return s.setStatus(ctx, queue[0], models.StatusAccepted)
}

// Board returns the called ticket of every desk. When a desk has several
// ACCEPTED tickets the newest one is shown.
func (s *Store) Board(ctx context.Context) (map[int]models.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	board := make(map[int]models.TicketRecord)
	for _, t := range list {
		if t.Status != models.StatusAccepted || t.Desk == nil {
			continue
		}
		if cur, ok := board[*t.Desk]; ok && cur.CreatedAt.After(t.CreatedAt) {
			continue
		}
		board[*t.Desk] = t
	}
	return board, nil
}

func pending(list []models.TicketRecord, desk int) []models.TicketRecord {
	var out []models.TicketRecord
	for _, t := range list {
		if t.Status != models.StatusPending {
			continue
		}
		if desk > 0 && !onDesk(t, desk) {
			continue
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b models.TicketRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func onDesk(t models.TicketRecord, desk int) bool {
	return t.Desk != nil && *t.Desk == desk
}
