package ticketapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atu_queue/kiosk/internal/models"
)

func sampleTicket() models.TicketRecord {
	return models.TicketRecord{
		Number:    "C-101",
		Prefix:    "C",
		Desk:      models.IntPtr(15),
		Service:   models.ServiceConsultation,
		Category:  "master",
		Direction: "it",
		Status:    models.StatusPending,
		CreatedAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSubmitPostsTicketAndMergesServerFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tickets/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(b, &body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if body["track"] != "it" || body["number"] != "C-101" {
			t.Errorf("unexpected payload %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7, "number": "C-101", "desk": 15, "status": "PENDING", "created_at": "2026-07-01T10:00:01Z"}`))
	}))
	defer srv.Close()

	got, err := NewHTTPClient(srv.URL+"/", time.Second).Submit(context.Background(), sampleTicket())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Number != "C-101" || got.Desk == nil || *got.Desk != 15 {
		t.Fatalf("unexpected stored ticket %+v", got)
	}
	if got.CreatedAt.Second() != 1 {
		t.Fatalf("expected server timestamp, got %s", got.CreatedAt)
	}
}

func TestSubmitSurfacesResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"phone":["This field is required."]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).Submit(context.Background(), sampleTicket())
	var se *SubmitError
	if !errors.As(err, &se) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if se.Status != http.StatusBadRequest || se.Body != `{"phone":["This field is required."]}` {
		t.Fatalf("unexpected error detail %+v", se)
	}
}

func TestSubmitErrorDefaultMessage(t *testing.T) {
	err := &SubmitError{Status: 502}
	if err.Error() != "ticket api 502: API error" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNopClientEchoes(t *testing.T) {
	in := sampleTicket()
	out, err := NopClient{}.Submit(context.Background(), in)
	if err != nil || out.Number != in.Number {
		t.Fatalf("unexpected nop result %+v %v", out, err)
	}
}
