package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/atu_queue/kiosk/internal/config"
	"github.com/atu_queue/kiosk/internal/db"
	"github.com/atu_queue/kiosk/internal/metrics"
	"github.com/atu_queue/kiosk/internal/models"
	"github.com/atu_queue/kiosk/internal/routing"
	"github.com/atu_queue/kiosk/internal/sequence"
	"github.com/atu_queue/kiosk/internal/service"
	"github.com/atu_queue/kiosk/internal/ticketapi"
	"github.com/atu_queue/kiosk/internal/tickets"
)

type fixedConfig models.RoutingConfig

func (c fixedConfig) Load(context.Context) models.RoutingConfig {
	return models.RoutingConfig(c).Clone()
}

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

type failingAPI struct{}

func (failingAPI) Submit(context.Context, models.TicketRecord) (models.TicketRecord, error) {
	return models.TicketRecord{}, &ticketapi.SubmitError{Status: 400, Body: "phone required"}
}

type testServer struct {
	engine *gin.Engine
	svc    *service.IssuingService
	reg    *prometheus.Registry
}

func newTestServer(t *testing.T, cfg models.RoutingConfig) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kv := db.NewMemory()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := tickets.NewStore(kv, nil)
	seq := sequence.New(kv, 100, nil)
	seq.Floor = store.HighestNumber
	svc := &service.IssuingService{
		Config:   fixedConfig(cfg),
		Router:   routing.New(firstRand{}),
		Sequence: seq,
		Store:    store,
		Logger:   zerolog.Nop(),
		Metrics:  m,
		Now:      func() time.Time { return time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC) },
	}
	appCfg := config.Config{AdminKey: "secret", CORSAllowed: "*", RequestTimeout: 5 * time.Second}
	return testServer{engine: Router(appCfg, kv, svc, reg, zerolog.Nop()), svc: svc, reg: reg}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func masterDesks() models.RoutingConfig {
	return models.RoutingConfig{Desks: models.Desks{"master": {15}, "default": {3}, "design": {1}}}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, masterDesks())
	w := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestIssueConsultationFlow(t *testing.T) {
	s := newTestServer(t, masterDesks())

	w := s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{"category": "master", "direction": "it"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[models.TicketRecord](t, w)
	assert.Equal(t, "C-101", rec.Number)
	require.NotNil(t, rec.Desk)
	assert.Equal(t, 15, *rec.Desk)

	w = s.do(t, http.MethodGet, "/api/tickets", nil)
	list := decode[[]models.TicketRecord](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "C-101", list[0].Number)

	w = s.do(t, http.MethodGet, "/api/tickets/last", nil)
	last := decode[struct {
		Ticket *models.TicketRecord `json:"ticket"`
	}](t, w)
	require.NotNil(t, last.Ticket)
	assert.Equal(t, "C-101", last.Ticket.Number)

	w = s.do(t, http.MethodGet, "/api/tickets/C-101", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/tickets/C-999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueAdmissionAndGeneric(t *testing.T) {
	s := newTestServer(t, masterDesks())

	w := s.do(t, http.MethodPost, "/api/tickets/admission", gin.H{"payType": "grant", "profile": "creative"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[models.TicketRecord](t, w)
	assert.Equal(t, "A-101", rec.Number)
	assert.Equal(t, 1, *rec.Desk)

	w = s.do(t, http.MethodPost, "/api/tickets", gin.H{"service": "online"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec = decode[models.TicketRecord](t, w)
	assert.Equal(t, "O-101", rec.Number)
	assert.Nil(t, rec.Desk)

	w = s.do(t, http.MethodPost, "/api/tickets", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)
}

func TestIssueErrors(t *testing.T) {
	s := newTestServer(t, models.RoutingConfig{
		Flags: map[string]any{"service.contest": false},
		Desks: models.Desks{},
	})

	w := s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{"category": "foreign"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_DESK_AVAILABLE", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPost, "/api/tickets", gin.H{"service": "contest"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "SERVICE_DISABLED", decode[errorBody](t, w).Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/tickets/consultation", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rw := httptest.NewRecorder()
	s.engine.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusBadRequest, rw.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[errorBody](t, rw).Error.Code)
}

func TestForwardFailureReturnsBadGateway(t *testing.T) {
	s := newTestServer(t, masterDesks())
	s.svc.API = failingAPI{}

	w := s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/tickets/C-101/forward", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Error.Message, "phone required")

	w = s.do(t, http.MethodPost, "/api/tickets/C-555/forward", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, masterDesks())

	w := s.do(t, http.MethodGet, "/api/session", nil)
	assert.Equal(t, "kz", decode[models.SessionState](t, w).Lang)

	w = s.do(t, http.MethodPatch, "/api/session", gin.H{"lang": "ru", "fio": "Askar Nurlanov", "phone": "+77001112233", "verified": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decode[models.SessionState](t, w)
	assert.Equal(t, "ru", st.Lang)
	assert.True(t, st.Verified)

	w = s.do(t, http.MethodPatch, "/api/session", gin.H{"lang": "de"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{"category": "master"})
	rec := decode[models.TicketRecord](t, w)
	assert.Equal(t, "Askar Nurlanov", rec.FIO)

	w = s.do(t, http.MethodGet, "/api/session", nil)
	st = decode[models.SessionState](t, w)
	require.NotNil(t, st.Ticket)
	assert.Equal(t, rec.Number, st.Ticket.Number)

	w = s.do(t, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/session", nil)
	st = decode[models.SessionState](t, w)
	assert.Nil(t, st.Ticket)
	assert.Empty(t, st.FIO)

	w = s.do(t, http.MethodGet, "/api/tickets", nil)
	assert.Len(t, decode[[]models.TicketRecord](t, w), 1)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t, masterDesks())
	s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{"category": "master"})

	w := s.do(t, http.MethodPost, "/api/tickets/C-101/status", gin.H{"status": "DONE"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/tickets/C-101/status", gin.H{"status": "DONE"}, "X-Admin-Key", "secret")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusDone, decode[models.TicketRecord](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/tickets/C-101/status", gin.H{"status": "LOST"}, "X-Admin-Key", "secret")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/sequences/C", nil, "X-Admin-Key", "secret")
	seq := decode[struct {
		Prefix string `json:"prefix"`
		Last   int    `json:"last"`
	}](t, w)
	assert.Equal(t, "C", seq.Prefix)
	assert.Equal(t, 101, seq.Last)

	w = s.do(t, http.MethodGet, "/api/tickets/export", nil, "X-Admin-Key", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Tickets")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C-101", rows[1][0])
}

func TestConfigAndMetrics(t *testing.T) {
	s := newTestServer(t, masterDesks())

	w := s.do(t, http.MethodGet, "/api/config", nil)
	cfg := decode[models.RoutingConfig](t, w)
	assert.Equal(t, []int{15}, cfg.Desks["master"])

	s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{"category": "master"})
	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `kiosk_tickets_issued_total{prefix="C"} 1`)
}

func TestOperatorQueue(t *testing.T) {
	s := newTestServer(t, models.RoutingConfig{Desks: models.Desks{"master": {15}, "default": {3}}})
	admin := []string{"X-Admin-Key", "secret"}

	for _, category := range []string{"master", "master", ""} {
		w := s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{"category": category})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/api/queue/pending?desk=15", nil, admin...)
	require.Equal(t, http.StatusOK, w.Code)
	queue := decode[[]models.TicketRecord](t, w)
	require.Len(t, queue, 2)
	assert.Equal(t, "C-101", queue[0].Number)

	w = s.do(t, http.MethodGet, "/api/queue/pending?desk=x", nil, admin...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/queue/next", gin.H{"desk": 15})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/queue/next", gin.H{"desk": 15}, admin...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	called := decode[models.TicketRecord](t, w)
	assert.Equal(t, "C-101", called.Number)
	assert.Equal(t, models.StatusAccepted, called.Status)

	w = s.do(t, http.MethodPost, "/api/queue/next", gin.H{"desk": 15}, admin...)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DESK_BUSY", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodGet, "/api/queue/board", nil)
	board := decode[map[string]models.TicketRecord](t, w)
	assert.Equal(t, "C-101", board["15"].Number)

	w = s.do(t, http.MethodPost, "/api/tickets/C-101/done", nil, admin...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusDone, decode[models.TicketRecord](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/queue/next", gin.H{"desk": 15}, admin...)
	assert.Equal(t, "C-102", decode[models.TicketRecord](t, w).Number)
	w = s.do(t, http.MethodPost, "/api/tickets/C-102/cancel", nil, admin...)
	assert.Equal(t, models.StatusCancelled, decode[models.TicketRecord](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/queue/next", gin.H{"desk": 15}, admin...)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "QUEUE_EMPTY", decode[errorBody](t, w).Error.Code)
}

func TestOperatorActionsRespectFlags(t *testing.T) {
	s := newTestServer(t, models.RoutingConfig{
		Flags: map[string]any{"operator.call_next": false, "operator.set_status": false},
		Desks: models.Desks{"default": {3}},
	})
	s.do(t, http.MethodPost, "/api/tickets/consultation", gin.H{})

	w := s.do(t, http.MethodPost, "/api/queue/next", gin.H{"desk": 3}, "X-Admin-Key", "secret")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "OPERATOR_ACTION_DISABLED", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPost, "/api/tickets/C-101/done", nil, "X-Admin-Key", "secret")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
