package compose

import (
	"strings"
	"testing"
	"time"

	"rooftrack_backend/internal/contacts/domain"
)

func TestContextForSplitsFirstName(t *testing.T) {
	appt := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	contact := domain.Contact{
		Name:            "Dana Miller",
		Address:         "12 Elm St",
		AppointmentTime: &appt,
	}

	ctx := ContextFor(&contact, "Summit Roofing")
	if ctx.FirstName != "Dana" {
		t.Errorf("first name = %q", ctx.FirstName)
	}
	if ctx.AppointmentTime != "Tuesday, Jun 10 at 2:00 PM" {
		t.Errorf("appointment = %q", ctx.AppointmentTime)
	}
}

func TestContextForSingleWordName(t *testing.T) {
	ctx := ContextFor(&domain.Contact{Name: "Cher"}, "Summit Roofing")
	if ctx.FirstName != "Cher" {
		t.Errorf("first name = %q", ctx.FirstName)
	}
}

func TestRenderMessageAllCategories(t *testing.T) {
	ctx := Context{
		FirstName:       "Dana",
		FullName:        "Dana Miller",
		Address:         "12 Elm St",
		CompanyName:     "Summit Roofing",
		AppointmentTime: "Tuesday, Jun 10 at 2:00 PM",
	}

	for _, category := range []Category{CategoryFirstMessage, CategoryFollowUp, CategoryAppointment, CategorySeasonal} {
		msg, err := RenderMessage(category, ctx)
		if err != nil {
			t.Fatalf("%s: %v", category, err)
		}
		if !strings.Contains(msg, "Dana") {
			t.Errorf("%s missing first name: %q", category, msg)
		}
		if !strings.Contains(msg, "Summit Roofing") {
			t.Errorf("%s missing company: %q", category, msg)
		}
	}
}

func TestRenderMessageAppointmentIncludesTimeAndAddress(t *testing.T) {
	msg, err := RenderMessage(CategoryAppointment, Context{
		FirstName:       "Dana",
		CompanyName:     "Summit Roofing",
		Address:         "12 Elm St",
		AppointmentTime: "Tuesday, Jun 10 at 2:00 PM",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(msg, "Tuesday, Jun 10 at 2:00 PM") || !strings.Contains(msg, "12 Elm St") {
		t.Errorf("message = %q", msg)
	}
}

func TestRenderMessageUnknownCategory(t *testing.T) {
	if _, err := RenderMessage(Category("carrier_pigeon"), Context{}); err == nil {
		t.Fatal("unknown category rendered without error")
	}
}
