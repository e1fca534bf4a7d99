package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/racealert/internal/types"
)

var velocityAlert = types.Alert{
	Kind:       types.AlertNew,
	Source:     types.SourceUpcoming,
	Name:       "velocity",
	Raw:        "Del Mar | Velocity | Race 2 | Post 6",
	Key:        "velocity::del mar | velocity | race 2 | post 6",
	Page:       1,
	DetectedAt: time.Date(2025, 7, 19, 14, 0, 0, 0, time.UTC),
}

type fakeSender struct {
	name string
	err  error
	sent []*RenderedMessage
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(_ context.Context, msg *RenderedMessage) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeRecorder struct {
	results map[string][]error
}

func (r *fakeRecorder) RecordNotification(channel string, err error) {
	if r.results == nil {
		r.results = map[string][]error{}
	}
	r.results[channel] = append(r.results[channel], err)
}

type fakeBriefer struct {
	brief string
	err   error
}

func (b fakeBriefer) Brief(context.Context, types.Alert) (string, error) { return b.brief, b.err }

func TestParseChannelMode(t *testing.T) {
	testCases := []struct {
		in       string
		expected ChannelMode
		wantErr  bool
	}{
		{in: "sms_only", expected: ModeSMSOnly},
		{in: " EMAIL_ONLY ", expected: ModeEmailOnly},
		{in: "sms_then_email", expected: ModeSMSThenEmail},
		{in: "sms_then_email_fallback", expected: ModeSMSThenEmail},
		{in: "pigeon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, test := range testCases {
		mode, err := ParseChannelMode(test.in)
		if test.wantErr {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.expected, mode)
	}
}

func TestRender(t *testing.T) {
	r := NewHTMLEmailRenderer()

	msg, err := r.Render(NotificationData{Alert: velocityAlert, Brief: "Velocity runs in race 2 from post 6."})
	require.NoError(t, err)

	require.Equal(t, "Race Alert: Velocity upcoming", msg.Subject)
	require.Equal(t, "🏇 Velocity upcoming: Del Mar | Velocity | Race 2 | Post 6 Reply STOP to unsubscribe.", msg.SMS)
	require.Contains(t, msg.Text, "Listing:  Del Mar | Velocity | Race 2 | Post 6")
	require.Contains(t, msg.Text, "Page:     1")
	require.Contains(t, msg.Text, "Velocity runs in race 2 from post 6.")
	require.Contains(t, msg.HTML, "Del Mar | Velocity | Race 2 | Post 6")
	require.Contains(t, msg.HTML, "Velocity runs in race 2 from post 6.")
}

func TestRenderKinds(t *testing.T) {
	r := NewHTMLEmailRenderer()

	removed := velocityAlert
	removed.Kind = types.AlertRemoved
	removed.Key = ""
	msg, err := r.Render(NotificationData{Alert: removed})
	require.NoError(t, err)
	require.Equal(t, "Race Alert: Velocity removed", msg.Subject)
	require.True(t, strings.HasPrefix(msg.SMS, "❌ Velocity no longer listed"))
	require.NotContains(t, msg.Text, "SUMMARY")

	entry := velocityAlert
	entry.Kind = types.AlertEntry
	entry.Source = types.SourceEntries
	entry.Page = 0
	entry.Name = "air force red"
	msg, err = r.Render(NotificationData{Alert: entry})
	require.NoError(t, err)
	require.Equal(t, "Race Alert: Air Force Red entered", msg.Subject)
	require.NotContains(t, msg.Text, "Page:")
}

func TestDispatcherSMSOnly(t *testing.T) {
	sms := &fakeSender{name: "sms"}
	email := &fakeSender{name: "email"}
	rec := &fakeRecorder{}

	d := NewDispatcher(ModeSMSOnly, sms, email)
	d.Recorder = rec

	require.NoError(t, d.Notify(context.Background(), velocityAlert))
	require.Len(t, sms.sent, 1)
	require.Empty(t, email.sent)
	require.Equal(t, []error{nil}, rec.results["sms"])
}

func TestDispatcherEmailOnly(t *testing.T) {
	sms := &fakeSender{name: "sms"}
	email := &fakeSender{name: "email", err: errors.New("auth failed")}

	d := NewDispatcher(ModeEmailOnly, sms, email)
	err := d.Notify(context.Background(), velocityAlert)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrChannelFailed))
	require.Empty(t, sms.sent)
	require.Len(t, email.sent, 1)
}

func TestDispatcherFallback(t *testing.T) {
	sms := &fakeSender{name: "sms", err: errors.New("invalid credentials")}
	email := &fakeSender{name: "email"}
	rec := &fakeRecorder{}

	d := NewDispatcher(ModeSMSThenEmail, sms, email)
	d.Recorder = rec

	require.NoError(t, d.Notify(context.Background(), velocityAlert))
	require.Len(t, sms.sent, 1)
	require.Len(t, email.sent, 1)

	// same body, reconstructed subject
	require.Equal(t, "Race Alert (SMS fallback): Velocity upcoming", email.sent[0].Subject)
	require.Equal(t, sms.sent[0].SMS, email.sent[0].SMS)
	require.Equal(t, sms.sent[0].Text, email.sent[0].Text)
	require.Equal(t, "Race Alert: Velocity upcoming", sms.sent[0].Subject)

	require.Len(t, rec.results["sms"], 1)
	require.Error(t, rec.results["sms"][0])
	require.Equal(t, []error{nil}, rec.results["email"])
}

func TestDispatcherFallbackNotUsedOnSuccess(t *testing.T) {
	sms := &fakeSender{name: "sms"}
	email := &fakeSender{name: "email"}

	d := NewDispatcher(ModeSMSThenEmail, sms, email)
	require.NoError(t, d.Notify(context.Background(), velocityAlert))
	require.Empty(t, email.sent)
}

func TestDispatcherBothChannelsFail(t *testing.T) {
	smsErr := errors.New("twilio down")
	emailErr := errors.New("smtp down")
	d := NewDispatcher(ModeSMSThenEmail, &fakeSender{name: "sms", err: smsErr}, &fakeSender{name: "email", err: emailErr})

	err := d.Notify(context.Background(), velocityAlert)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrChannelFailed))
	require.True(t, errors.Is(err, smsErr))
	require.True(t, errors.Is(err, emailErr))
}

func TestDispatcherMissingSender(t *testing.T) {
	d := NewDispatcher(ModeSMSOnly, nil, nil)
	err := d.Notify(context.Background(), velocityAlert)
	require.True(t, errors.Is(err, ErrNotConfigured))
}

func TestDispatcherBriefer(t *testing.T) {
	email := &fakeSender{name: "email"}
	d := NewDispatcher(ModeEmailOnly, nil, email)

	d.Briefer = fakeBriefer{brief: "Post 6 in race 2."}
	require.NoError(t, d.Notify(context.Background(), velocityAlert))
	require.Contains(t, email.sent[0].Text, "Post 6 in race 2.")

	d.Briefer = fakeBriefer{err: errors.New("quota")}
	require.NoError(t, d.Notify(context.Background(), velocityAlert))
	require.NotContains(t, email.sent[1].Text, "SUMMARY")
}

func TestDeliverSampleMessage(t *testing.T) {
	sms := &fakeSender{name: "sms"}
	d := NewDispatcher(ModeSMSOnly, sms, nil)

	require.NoError(t, d.Deliver(context.Background(), SampleMessageRendered()))
	require.Equal(t, SampleMessage, sms.sent[0].SMS)
}

func TestReportAlerts(t *testing.T) {
	var buf bytes.Buffer
	ReportAlerts(&buf, nil, "/tmp/seen.txt")
	require.Contains(t, buf.String(), "No new or removed listings")

	buf.Reset()
	ReportAlerts(&buf, []types.Alert{velocityAlert}, "/tmp/seen.txt")
	out := buf.String()
	require.Contains(t, out, "1 ALERTS")
	require.Contains(t, out, "Horse:   Velocity")
	require.Contains(t, out, "/tmp/seen.txt")
}

type fakeCreator struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestSMSSender(t *testing.T) {
	api := &fakeCreator{}
	s := &SMSSender{
		cfg: SMSConfig{AccountSID: "AC1", AuthToken: "secret", From: "MG42", To: []string{"+15550001", "+15550002"}},
		api: api,
	}

	require.NoError(t, s.Send(context.Background(), &RenderedMessage{SMS: "hello"}))
	require.Len(t, api.params, 2)
	require.Equal(t, "+15550001", *api.params[0].To)
	require.Equal(t, "hello", *api.params[0].Body)
	require.Equal(t, "MG42", *api.params[0].MessagingServiceSid)
	require.Nil(t, api.params[0].From)

	s.cfg.From = "+15559999"
	api.params = nil
	require.NoError(t, s.Send(context.Background(), &RenderedMessage{Text: "fallback text"}))
	require.Equal(t, "+15559999", *api.params[0].From)
	require.Equal(t, "fallback text", *api.params[0].Body)
}

func TestSMSSenderErrors(t *testing.T) {
	s := &SMSSender{cfg: SMSConfig{}, api: &fakeCreator{}}
	require.True(t, errors.Is(s.Send(context.Background(), &RenderedMessage{SMS: "x"}), ErrNotConfigured))

	api := &fakeCreator{err: errors.New("20003 authenticate")}
	s = &SMSSender{
		cfg: SMSConfig{AccountSID: "AC1", AuthToken: "secret", From: "MG42", To: []string{"+15550001"}},
		api: api,
	}
	require.Error(t, s.Send(context.Background(), &RenderedMessage{SMS: "x"}))
}

type fakeDialer struct {
	messages []*gomail.Message
	err      error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return f.err
}

func TestEmailSender(t *testing.T) {
	cfg := EmailConfig{
		SMTPServer: DefaultSMTPServer,
		SMTPPort:   DefaultSMTPPort,
		SMTPUser:   "alerts@example.com",
		SMTPPass:   "app-password",
		ToEmails:   []string{"a@example.com", "b@example.com"},
	}
	s := NewEmailSender(cfg)
	dialer := &fakeDialer{}
	s.dialer = dialer

	msg, err := NewHTMLEmailRenderer().Render(NotificationData{Alert: velocityAlert})
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), msg))

	require.Len(t, dialer.messages, 1)
	m := dialer.messages[0]
	require.Equal(t, []string{"alerts@example.com"}, m.GetHeader("From"))
	require.Equal(t, []string{"a@example.com", "b@example.com"}, m.GetHeader("To"))
	require.Equal(t, []string{"Race Alert: Velocity upcoming"}, m.GetHeader("Subject"))

	dialer.err = errors.New("535 bad credentials")
	require.Error(t, s.Send(context.Background(), msg))
}

func TestEmailSenderDisabled(t *testing.T) {
	s := NewEmailSender(EmailConfig{SMTPServer: DefaultSMTPServer})
	require.True(t, errors.Is(s.Send(context.Background(), &RenderedMessage{Text: "x"}), ErrNotConfigured))
}
