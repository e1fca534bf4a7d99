/*
Package notify renders alerts and delivers them by SMS, email, or SMS with email fallback.
*/
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shanehull/racealert/internal/types"
)

var (
	// ErrNotConfigured is returned by a sender whose credentials are missing.
	ErrNotConfigured = errors.New("channel not configured")
	// ErrChannelFailed wraps every delivery failure returned by Dispatcher.Notify.
	ErrChannelFailed = errors.New("notification delivery failed")
)

// SampleMessage is sent by the manual test mode.
const SampleMessage = "✅ Manual test: Velocity enters Del Mar. Race # 2, Post # 6. Reply STOP to unsubscribe."

// RenderedMessage is one alert in every output format.
type RenderedMessage struct {
	Subject string
	SMS     string
	Text    string
	HTML    string
}

// Sender delivers a rendered message over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *RenderedMessage) error
}

// Briefer produces an optional human-readable summary of an alert.
type Briefer interface {
	Brief(ctx context.Context, alert types.Alert) (string, error)
}

// Recorder observes per-channel delivery outcomes.
type Recorder interface {
	RecordNotification(channel string, err error)
}

type ChannelMode string

const (
	ModeSMSOnly      ChannelMode = "sms_only"
	ModeEmailOnly    ChannelMode = "email_only"
	ModeSMSThenEmail ChannelMode = "sms_then_email"
)

func ParseChannelMode(s string) (ChannelMode, error) {
	switch m := ChannelMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSMSOnly, ModeEmailOnly, ModeSMSThenEmail:
		return m, nil
	case "sms_then_email_fallback", "fallback":
		return ModeSMSThenEmail, nil
	default:
		return "", fmt.Errorf("unknown channel mode %q (want %s, %s or %s)", s, ModeSMSOnly, ModeEmailOnly, ModeSMSThenEmail)
	}
}

// Dispatcher sends each alert over the channels selected by its mode.
type Dispatcher struct {
	mode     ChannelMode
	sms      Sender
	email    Sender
	renderer *HTMLEmailRenderer

	Briefer  Briefer
	Recorder Recorder
}

func NewDispatcher(mode ChannelMode, sms, email Sender) *Dispatcher {
	return &Dispatcher{
		mode:     mode,
		sms:      sms,
		email:    email,
		renderer: NewHTMLEmailRenderer(),
	}
}

func (d *Dispatcher) Mode() ChannelMode {
	return d.mode
}

// Notify renders and delivers one alert. A failed SMS in fallback mode is logged and the
// same body goes out by email under a fallback subject. The returned error wraps
// ErrChannelFailed only when no channel delivered.
func (d *Dispatcher) Notify(ctx context.Context, alert types.Alert) error {
	data := NotificationData{Alert: alert}
	if d.Briefer != nil {
		brief, err := d.Briefer.Brief(ctx, alert)
		if err != nil {
			slog.Warn("brief generation failed", "name", alert.Name, "error", err)
		} else {
			data.Brief = brief
		}
	}

	msg, err := d.renderer.Render(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChannelFailed, err)
	}
	return d.Deliver(ctx, msg)
}

// Deliver sends an already rendered message according to the channel mode.
func (d *Dispatcher) Deliver(ctx context.Context, msg *RenderedMessage) error {
	switch d.mode {
	case ModeSMSOnly:
		return d.send(ctx, d.sms, msg)
	case ModeEmailOnly:
		return d.send(ctx, d.email, msg)
	case ModeSMSThenEmail:
		smsErr := d.send(ctx, d.sms, msg)
		if smsErr == nil {
			return nil
		}
		slog.Warn("sms failed, falling back to email", "subject", msg.Subject, "error", smsErr)

		fallback := *msg
		fallback.Subject = fallbackSubject + strings.TrimPrefix(msg.Subject, subjectPrefix)
		if fallback.Text == "" {
			fallback.Text = msg.SMS
		}
		emailErr := d.send(ctx, d.email, &fallback)
		if emailErr == nil {
			return nil
		}
		return errors.Join(smsErr, emailErr)
	default:
		return fmt.Errorf("%w: unknown channel mode %q", ErrChannelFailed, d.mode)
	}
}

func (d *Dispatcher) send(ctx context.Context, s Sender, msg *RenderedMessage) error {
	if s == nil {
		return fmt.Errorf("%w: %w", ErrChannelFailed, ErrNotConfigured)
	}
	err := s.Send(ctx, msg)
	if d.Recorder != nil {
		d.Recorder.RecordNotification(s.Name(), err)
	}
	if err != nil {
		return fmt.Errorf("%w via %s: %w", ErrChannelFailed, s.Name(), err)
	}
	return nil
}

// SampleMessageRendered is the manual test message in every format.
func SampleMessageRendered() *RenderedMessage {
	return &RenderedMessage{
		Subject: subjectPrefix + ": manual test",
		SMS:     SampleMessage,
		Text:    SampleMessage + "\n",
	}
}

// ReportAlerts prints a console summary of a cycle's alerts.
func ReportAlerts(w io.Writer, alerts []types.Alert, historyFilePath string) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "\n-------------------------------------------")
		fmt.Fprintln(w, "No new or removed listings for tracked horses.")
		fmt.Fprintln(w, "-------------------------------------------")
		return
	}

	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "✅ %d ALERTS\n", len(alerts))
	fmt.Fprintln(w, "===========================================")

	for i, a := range alerts {
		out := fmt.Sprintf("\n--- ALERT #%d (%s) ---\n", i+1, a.Kind) +
			fmt.Sprintf("Horse:   %s\n", DisplayName(a.Name)) +
			fmt.Sprintf("Source:  %s\n", a.Source) +
			fmt.Sprintf("Listing: %s\n", a.Raw)
		fmt.Fprint(w, out)
	}

	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "Cycle complete. Seen keys saved to %s.\n", historyFilePath)
	fmt.Fprintln(w, "===========================================")
}
