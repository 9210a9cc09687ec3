// Package compose renders outreach message text from per-category templates.
package compose

import (
	"fmt"
	"strings"
	"text/template"

	"rooftrack_backend/internal/contacts/domain"
)

// Category selects which message template to render.
type Category string

const (
	CategoryFirstMessage Category = "first_message"
	CategoryFollowUp     Category = "follow_up"
	CategoryAppointment  Category = "appointment_confirmation"
	CategorySeasonal     Category = "seasonal_reach_out"
)

var templates = template.Must(template.New("messages").Parse(`
{{define "first_message" -}}
Hi {{.FirstName}}, this is {{.CompanyName}}. We noticed recent storm activity near {{.Address}} and would love to take a look at your roof, free of charge. When would be a good time?
{{- end}}

{{define "follow_up" -}}
Hi {{.FirstName}}, just following up on our last message from {{.CompanyName}}. Let us know if you have any questions, we're happy to help.
{{- end}}

{{define "appointment_confirmation" -}}
Hi {{.FirstName}}, your roof inspection with {{.CompanyName}} is confirmed for {{.AppointmentTime}} at {{.Address}}. See you then!
{{- end}}

{{define "seasonal_reach_out" -}}
Hi {{.FirstName}}, it's {{.CompanyName}}. With the season changing, now is a great time for a roof check-up. Want us to swing by?
{{- end}}
`))

// Context is the data available to message templates.
type Context struct {
	FirstName       string
	FullName        string
	Address         string
	CompanyName     string
	AppointmentTime string
}

// ContextFor builds a template context from a contact.
func ContextFor(contact *domain.Contact, companyName string) Context {
	ctx := Context{
		FullName:    contact.Name,
		FirstName:   firstName(contact.Name),
		Address:     contact.Address,
		CompanyName: companyName,
	}
	if contact.AppointmentTime != nil {
		ctx.AppointmentTime = contact.AppointmentTime.Format("Monday, Jan 2 at 3:04 PM")
	}
	return ctx
}

// RenderMessage produces the message text for a category. Unknown categories
// are an error so callers notice template drift immediately.
func RenderMessage(category Category, ctx Context) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, string(category), ctx); err != nil {
		return "", fmt.Errorf("render %s: %w", category, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
