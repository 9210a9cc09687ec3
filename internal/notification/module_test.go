package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/config"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	to      string
	subject string
	body    string
}

func (f *fakeSender) Send(_ context.Context, toEmail, subject, textBody string) error {
	f.to = toEmail
	f.subject = subject
	f.body = textBody
	return nil
}

func TestAppointmentScheduledDeliversCalendarAndEmail(t *testing.T) {
	var received CalendarEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("decode webhook payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{
		EmailEnabled:     true,
		EmailFromName:    "Summit Roofing",
		EmailFromAddress: "office@summitroofing.test",
		CalendarWebhook:  server.URL,
	}

	sender := &fakeSender{}
	module := NewModule(cfg, cfg, logger.New("test")).WithSender(sender)

	bus := events.NewInMemoryBus(logger.New("test"))
	module.RegisterHandlers(bus)

	email := "dana@example.com"
	start := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	err := bus.PublishSync(context.Background(), events.AppointmentScheduled{
		BaseEvent:      events.NewBaseEvent(),
		ContactID:      uuid.New(),
		OrganizationID: uuid.New(),
		ContactName:    "Dana Miller",
		Title:          "Roof inspection: Dana Miller",
		Location:       "12 Elm St",
		StartTime:      start,
		ContactEmail:   &email,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if received.Title != "Roof inspection: Dana Miller" {
		t.Errorf("calendar title = %q", received.Title)
	}
	if !received.StartTime.Equal(start) {
		t.Errorf("calendar start = %v, want %v", received.StartTime, start)
	}

	if sender.to != email {
		t.Errorf("email to = %q, want %q", sender.to, email)
	}
	if !strings.Contains(sender.body, "Dana") {
		t.Errorf("email body missing first name: %q", sender.body)
	}
	if !strings.Contains(sender.body, "12 Elm St") {
		t.Errorf("email body missing address: %q", sender.body)
	}
}

func TestAppointmentScheduledWithoutEmailStillSyncsCalendar(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.Config{CalendarWebhook: server.URL}
	module := NewModule(cfg, cfg, logger.New("test"))

	err := module.handleAppointmentScheduled(context.Background(), events.AppointmentScheduled{
		BaseEvent:   events.NewBaseEvent(),
		ContactID:   uuid.New(),
		ContactName: "Sam Ortiz",
		Title:       "Roof inspection: Sam Ortiz",
		StartTime:   time.Now(),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if calls != 1 {
		t.Errorf("webhook calls = %d, want 1", calls)
	}
}

func TestCalendarWebhookFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := &config.Config{CalendarWebhook: server.URL}
	module := NewModule(cfg, cfg, logger.New("test"))

	err := module.handleAppointmentScheduled(context.Background(), events.AppointmentScheduled{
		BaseEvent: events.NewBaseEvent(),
		ContactID: uuid.New(),
		StartTime: time.Now(),
	})
	if err == nil {
		t.Fatal("expected error from failing webhook")
	}
}
