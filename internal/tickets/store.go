package tickets

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/atu_queue/kiosk/internal/db"
	"github.com/atu_queue/kiosk/internal/models"
)

const (
	KeySession    = "session"
	KeyLastTicket = "last_ticket"
	KeyTickets    = "tickets"
)

var ErrTicketNotFound = errors.New("ticket not found")

// Store owns the session, the last-ticket pointer and the ticket history on
// the device. Sequence counters live elsewhere and are never touched here.
type Store struct {
	KV        db.KV
	OnCorrupt db.RecoveryFunc

	mu sync.Mutex
}

func NewStore(kv db.KV, onCorrupt db.RecoveryFunc) *Store {
	return &Store{KV: kv, OnCorrupt: onCorrupt}
}

// Save makes t the active and last ticket and upserts it into the history by
// number. A nil ticket or one without a number is ignored.
func (s *Store) Save(ctx context.Context, t *models.TicketRecord) error {
	if t == nil || t.Number == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *t
	session, err := s.loadSession(ctx)
	if err != nil {
		return err
	}
	session.Ticket = &rec
	if err := db.SetJSON(ctx, s.KV, KeySession, session); err != nil {
		return err
	}
	if err := db.SetJSON(ctx, s.KV, KeyLastTicket, rec); err != nil {
		return err
	}
	return s.upsert(ctx, rec)
}

// GetLast returns the session's active ticket, falling back to the last
// ticket pointer. It returns nil when neither is set.
func (s *Store) GetLast(ctx context.Context) (*models.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	if session.Ticket != nil {
		return session.Ticket, nil
	}
	return s.lastTicket(ctx)
}

// List returns the whole history in insertion order. It is never nil.
func (s *Store) List(ctx context.Context) ([]models.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ctx)
}

func (s *Store) Find(ctx context.Context, number string) (models.TicketRecord, error) {
	list, err := s.List(ctx)
	if err != nil {
		return models.TicketRecord{}, err
	}
	for _, t := range list {
		if t.Number == number {
			return t, nil
		}
	}
	return models.TicketRecord{}, ErrTicketNotFound
}

// SetStatus updates the status of a stored ticket in place. The active and
// last ticket copies follow when they refer to the same number. A desk holds
// at most one ACCEPTED ticket; a second one is refused with ErrDeskBusy.
func (s *Store) SetStatus(ctx context.Context, number, status string) (models.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.list(ctx)
	if err != nil {
		return models.TicketRecord{}, err
	}
	idx := indexOf(list, number)
	if idx < 0 {
		return models.TicketRecord{}, ErrTicketNotFound
	}
	rec := list[idx]
	if status == models.StatusAccepted && rec.Desk != nil {
		for _, t := range list {
			if t.Number != number && t.Status == models.StatusAccepted && onDesk(t, *rec.Desk) {
				return models.TicketRecord{}, ErrDeskBusy
			}
		}
	}
	return s.setStatus(ctx, rec, status)
}

// HighestNumber returns the largest N among history entries numbered
// PREFIX-N, or 0 when the history holds none for prefix.
func (s *Store) HighestNumber(ctx context.Context, prefix string) (int, error) {
	list, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	head := prefix + "-"
	highest := 0
	for _, t := range list {
		suffix, ok := strings.CutPrefix(t.Number, head)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// setStatus writes rec with the new status to the history, the session and
// the last-ticket pointer. Callers hold s.mu.
func (s *Store) setStatus(ctx context.Context, rec models.TicketRecord, status string) (models.TicketRecord, error) {
	rec.Status = status
	if err := s.upsert(ctx, rec); err != nil {
		return models.TicketRecord{}, err
	}

	session, err := s.loadSession(ctx)
	if err != nil {
		return models.TicketRecord{}, err
	}
	if session.Ticket != nil && session.Ticket.Number == rec.Number {
		session.Ticket = &rec
		if err := db.SetJSON(ctx, s.KV, KeySession, session); err != nil {
			return models.TicketRecord{}, err
		}
	}
	last, err := s.lastTicket(ctx)
	if err != nil {
		return models.TicketRecord{}, err
	}
	if last != nil && last.Number == rec.Number {
		if err := db.SetJSON(ctx, s.KV, KeyLastTicket, rec); err != nil {
			return models.TicketRecord{}, err
		}
	}
	return rec, nil
}

// Clear resets the session and drops the last-ticket pointer. The history
// and the sequence counters survive.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.KV.Delete(ctx, KeySession); err != nil {
		return err
	}
	return s.KV.Delete(ctx, KeyLastTicket)
}

func (s *Store) list(ctx context.Context) ([]models.TicketRecord, error) {
	var list []models.TicketRecord
	found, err := s.read(ctx, KeyTickets, &list)
	if err != nil {
		return nil, err
	}
	if !found || list == nil {
		return []models.TicketRecord{}, nil
	}
	return list, nil
}

func (s *Store) lastTicket(ctx context.Context) (*models.TicketRecord, error) {
	var last models.TicketRecord
	found, err := s.read(ctx, KeyLastTicket, &last)
	if err != nil || !found || last.Number == "" {
		return nil, err
	}
	return &last, nil
}

func (s *Store) upsert(ctx context.Context, rec models.TicketRecord) error {
	list, err := s.list(ctx)
	if err != nil {
		return err
	}
	if i := indexOf(list, rec.Number); i >= 0 {
		list[i] = rec
	} else {
		list = append(list, rec)
	}
	return db.SetJSON(ctx, s.KV, KeyTickets, list)
}

// read decodes key into dst. Corrupt values are reported through OnCorrupt
// and leave dst at its zero value.
func (s *Store) read(ctx context.Context, key string, dst any) (bool, error) {
	found, err := db.GetJSON(ctx, s.KV, key, dst)
	var corrupt *db.CorruptStateError
	if errors.As(err, &corrupt) {
		if s.OnCorrupt != nil {
			s.OnCorrupt(corrupt)
		}
		return false, nil
	}
	return found, err
}

func indexOf(list []models.TicketRecord, number string) int {
	for i := range list {
		if list[i].Number == number {
			return i
		}
	}
	return -1
}
