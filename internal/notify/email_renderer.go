package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shanehull/racealert/internal/types"
)

const (
	subjectPrefix   = "Race Alert"
	fallbackSubject = "Race Alert (SMS fallback)"
	smsFooter       = "Reply STOP to unsubscribe."
)

// NotificationData is the input to message rendering.
type NotificationData struct {
	Alert types.Alert
	Brief string
}

// DisplayName turns a stored lowercase name back into title case for humans.
func DisplayName(name types.TrackedName) string {
	return cases.Title(language.English).String(string(name))
}

// Headline is the one-line description of an alert, used for SMS and as the email lead.
func Headline(a types.Alert) string {
	name := DisplayName(a.Name)
	switch a.Kind {
	case types.AlertRemoved:
		return fmt.Sprintf("❌ %s no longer listed: %s", name, a.Raw)
	case types.AlertEntry:
		return fmt.Sprintf("📋 %s entered: %s", name, a.Raw)
	default:
		return fmt.Sprintf("🏇 %s upcoming: %s", name, a.Raw)
	}
}

func subjectFor(a types.Alert) string {
	name := DisplayName(a.Name)
	switch a.Kind {
	case types.AlertRemoved:
		return fmt.Sprintf("%s: %s removed", subjectPrefix, name)
	case types.AlertEntry:
		return fmt.Sprintf("%s: %s entered", subjectPrefix, name)
	default:
		return fmt.Sprintf("%s: %s upcoming", subjectPrefix, name)
	}
}

// HTMLEmailRenderer renders notifications as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default email template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Funcs(template.FuncMap{
		"displayName": DisplayName,
		"headline":    Headline,
	}).Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

// Render produces the SMS body, the email subject, and an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(data NotificationData) (*RenderedMessage, error) {
	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subjectFor(data.Alert),
		SMS:     Headline(data.Alert) + " " + smsFooter,
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

func renderPlainText(data NotificationData) string {
	a := data.Alert
	var sb strings.Builder

	sb.WriteString(Headline(a) + "\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString(fmt.Sprintf("Horse:    %s\n", DisplayName(a.Name)))
	sb.WriteString(fmt.Sprintf("Listing:  %s\n", a.Raw))
	sb.WriteString(fmt.Sprintf("Source:   %s\n", a.Source))
	if a.Page > 0 {
		sb.WriteString(fmt.Sprintf("Page:     %d\n", a.Page))
	}
	if !a.DetectedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Detected: %s\n", a.DetectedAt.Format("02 Jan 2006 3:04 PM")))
	}

	if data.Brief != "" {
		sb.WriteString("\nSUMMARY\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		sb.WriteString(data.Brief + "\n")
	}

	return sb.String()
}
