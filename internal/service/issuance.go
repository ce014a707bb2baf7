package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/atu_queue/kiosk/internal/events"
	"github.com/atu_queue/kiosk/internal/metrics"
	"github.com/atu_queue/kiosk/internal/models"
	"github.com/atu_queue/kiosk/internal/routing"
	"github.com/atu_queue/kiosk/internal/sequence"
	"github.com/atu_queue/kiosk/internal/ticketapi"
	"github.com/atu_queue/kiosk/internal/tickets"
)

var ErrServiceDisabled = errors.New("service disabled")

type ConfigLoader interface {
	Load(ctx context.Context) models.RoutingConfig
}

type Request struct {
	Service   string
	Category  string
	Direction string
	PayType   string
	Profile   string
	// Forward mirrors the ticket to the remote API after it is stored.
	Forward bool
}

type IssuingService struct {
	Config   ConfigLoader
	Router   *routing.Router
	Sequence *sequence.Generator
	Store    *tickets.Store
	API      ticketapi.Client
	Events   events.Publisher
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics

	RemoteTimeout time.Duration
	Now           func() time.Time

	mu sync.Mutex
	wg sync.WaitGroup
}

func PrefixFor(service string) string {
	switch service {
	case models.ServiceConsultation:
		return "C"
	case models.ServiceAdmission:
		return "A"
	case models.ServiceContest:
		return "G"
	case models.ServiceOnline:
		return "O"
	}
	return sequence.DefaultPrefix
}

func (s *IssuingService) IssueConsultation(ctx context.Context, category, direction string, forward bool) (models.TicketRecord, error) {
	return s.Issue(ctx, Request{
		Service:   models.ServiceConsultation,
		Category:  category,
		Direction: direction,
		Forward:   forward,
	})
}

func (s *IssuingService) IssueAdmission(ctx context.Context, payType, category, profile string, forward bool) (models.TicketRecord, error) {
	return s.Issue(ctx, Request{
		Service:  models.ServiceAdmission,
		PayType:  payType,
		Category: category,
		Profile:  profile,
		Forward:  forward,
	})
}

// Issue routes, numbers and stores a ticket. The returned record is already
// persisted and its sequence number durably consumed. Remote mirroring runs
// afterwards and never fails the call.
func (s *IssuingService) Issue(ctx context.Context, req Request) (models.TicketRecord, error) {
	service := strings.ToLower(strings.TrimSpace(req.Service))
	cfg := s.Config.Load(ctx)
	if !cfg.Flag("service."+service, true) {
		return models.TicketRecord{}, fmt.Errorf("%s: %w", service, ErrServiceDisabled)
	}

	decision := s.Router.Route(service, routing.Attributes{
		Category:  req.Category,
		Direction: req.Direction,
		PayType:   req.PayType,
		Profile:   req.Profile,
	}, cfg)
	if decision.NeedsDesk && !decision.OK() {
		s.Metrics.NoDesk(service)
		s.Logger.Warn().Str("service", service).Str("group", decision.Group).Msg("no desk available")
		return models.TicketRecord{}, fmt.Errorf("%s/%s: %w", service, decision.Group, routing.ErrNoDeskAvailable)
	}

	rec, err := s.commit(ctx, service, req, decision)
	if err != nil {
		return models.TicketRecord{}, err
	}

	s.Metrics.TicketIssued(rec.Prefix)
	s.Logger.Info().
		Str("number", rec.Number).
		Str("service", service).
		Str("group", decision.ResolvedTo).
		Str("reason_code", decision.ReasonCode).
		Msg("ticket issued")

	s.publishAsync(rec)
	if req.Forward {
		s.forwardAsync(rec)
	}
	return rec, nil
}

func (s *IssuingService) commit(ctx context.Context, service string, req Request, decision routing.Decision) (models.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.Store.UpdateSession(ctx, func(st *models.SessionState) {
		st.Service = service
		st.Category = req.Category
	})
	if err != nil {
		return models.TicketRecord{}, fmt.Errorf("update session: %w", err)
	}

	prefix := PrefixFor(service)
	number, err := s.Sequence.NextID(ctx, prefix)
	if err != nil {
		return models.TicketRecord{}, fmt.Errorf("next ticket number: %w", err)
	}

	rec := models.TicketRecord{
		Number:    number,
		Prefix:    prefix,
		Service:   service,
		Category:  req.Category,
		Direction: req.Direction,
		PayType:   req.PayType,
		Profile:   req.Profile,
		FIO:       session.FIO,
		Phone:     session.Phone,
		Status:    models.StatusPending,
		CreatedAt: s.now(),
	}
	if decision.NeedsDesk {
		rec.Desk = models.IntPtr(decision.Desk)
	}
	if err := s.Store.Save(ctx, &rec); err != nil {
		return models.TicketRecord{}, fmt.Errorf("save ticket %s: %w", number, err)
	}
	return rec, nil
}

// Forward submits a stored ticket to the remote API and returns the remote
// representation. Failures leave the local record untouched.
func (s *IssuingService) Forward(ctx context.Context, number string) (models.TicketRecord, error) {
	rec, err := s.Store.Find(ctx, number)
	if err != nil {
		return models.TicketRecord{}, err
	}
	stored, err := s.api().Submit(ctx, rec)
	if err != nil {
		s.Metrics.RemoteFailure("ticket_api")
		return models.TicketRecord{}, err
	}
	return stored, nil
}

// Wait blocks until background mirroring started by Issue has finished.
func (s *IssuingService) Wait() {
	s.wg.Wait()
}

func (s *IssuingService) forwardAsync(rec models.TicketRecord) {
	s.background(func(ctx context.Context) {
		if _, err := s.api().Submit(ctx, rec); err != nil {
			s.Metrics.RemoteFailure("ticket_api")
			s.Logger.Warn().Err(err).Str("number", rec.Number).Msg("ticket forward failed")
		}
	})
}

func (s *IssuingService) publishAsync(rec models.TicketRecord) {
	if s.Events == nil {
		return
	}
	s.background(func(ctx context.Context) {
		if err := s.Events.PublishIssued(ctx, rec); err != nil {
			s.Metrics.RemoteFailure("events")
			s.Logger.Warn().Err(err).Str("number", rec.Number).Msg("ticket event publish failed")
		}
	})
}

func (s *IssuingService) background(fn func(ctx context.Context)) {
	timeout := s.RemoteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *IssuingService) api() ticketapi.Client {
	if s.API == nil {
		return ticketapi.NopClient{}
	}
	return s.API
}

func (s *IssuingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
