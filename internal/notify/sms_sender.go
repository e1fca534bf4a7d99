package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const messagingServicePrefix = "MG"

// SMSConfig holds the Twilio credentials. From is either a messaging service SID or a
// sender phone number.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         []string
}

func (c SMSConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != "" && len(c.To) > 0
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSSender delivers the SMS body of a message to every configured recipient.
type SMSSender struct {
	cfg SMSConfig
	api messageCreator
}

func NewSMSSender(cfg SMSConfig) *SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{cfg: cfg, api: client.Api}
}

func (s *SMSSender) Name() string { return "sms" }

func (s *SMSSender) Send(ctx context.Context, msg *RenderedMessage) error {
	if !s.cfg.Enabled() {
		return ErrNotConfigured
	}

	body := msg.SMS
	if body == "" {
		body = msg.Text
	}

	var errs []error
	for _, to := range s.cfg.To {
		if err := ctx.Err(); err != nil {
			return err
		}

		params := &twilioApi.CreateMessageParams{}
		params.SetTo(to)
		params.SetBody(body)
		if strings.HasPrefix(s.cfg.From, messagingServicePrefix) {
			params.SetMessagingServiceSid(s.cfg.From)
		} else {
			params.SetFrom(s.cfg.From)
		}

		resp, err := s.api.CreateMessage(params)
		if err != nil {
			slog.Error("sms send failed", "to", to, "error", err)
			errs = append(errs, fmt.Errorf("failed to send SMS to %s: %w", to, err))
			continue
		}

		sid := ""
		if resp != nil && resp.Sid != nil {
			sid = *resp.Sid
		}
		slog.Info("sms sent", "to", to, "sid", sid)
	}

	return errors.Join(errs...)
}
