package tickets

import (
	"context"

	"github.com/atu_queue/kiosk/internal/db"
	"github.com/atu_queue/kiosk/internal/models"
)

// LoadSession returns the persisted session, or the defaults when nothing
// usable is stored.
func (s *Store) LoadSession(ctx context.Context) (models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSession(ctx)
}

// UpdateSession loads the session, applies fn to a copy and persists the
// result. fn must not keep the pointer.
func (s *Store) UpdateSession(ctx context.Context, fn func(*models.SessionState)) (models.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadSession(ctx)
	if err != nil {
		return models.SessionState{}, err
	}
	next := session
	fn(&next)
	if err := db.SetJSON(ctx, s.KV, KeySession, next); err != nil {
		return session, err
	}
	return next, nil
}

func (s *Store) loadSession(ctx context.Context) (models.SessionState, error) {
	session := models.DefaultSession()
	var stored models.SessionState
	found, err := s.read(ctx, KeySession, &stored)
	if err != nil {
		return models.SessionState{}, err
	}
	if !found {
		return session, nil
	}
	if stored.Lang == "" {
		stored.Lang = session.Lang
	}
	return stored, nil
}
