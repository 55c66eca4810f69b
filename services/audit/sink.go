package auditsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/asprotests/hums-sub000/core"
)

var mailTmpl = texttmpl.Must(texttmpl.New("audit").Parse(`{{.Action}} on {{.Entity}} {{.EntityID}}
Actor: {{.ActorID}}
At: {{.At.Format "2006-01-02 15:04:05 MST"}}
{{- if .Reason}}
Reason: {{.Reason}}
{{- end}}
{{- if .Before}}

Before:
{{.Before}}
{{- end}}
{{- if .After}}

After:
{{.After}}
{{- end}}
`))

// LoggerSink writes audit events to a logger, at info level.
type LoggerSink struct {
	logger core.Logger
}

var _ core.AuditSink = (*LoggerSink)(nil) // interface compliance check

func NewLoggerSink(logger core.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

func (s *LoggerSink) Record(_ context.Context, ev core.AuditEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshalling audit event")
	}
	s.logger.Info(fmt.Sprintf("audit: %s", data), core.Actor{ID: ev.ActorID})
	return nil
}

// MailSink notifies the registrar of grade and grade scale changes.
type MailSink struct {
	email core.EmailService
	to    mail.Address
}

var _ core.AuditSink = (*MailSink)(nil) // interface compliance check

func NewMailSink(email core.EmailService, conf *core.Config) *MailSink {
	return &MailSink{
		email: email,
		to:    mail.Address{Name: "Registrar", Address: conf.RegistrarEmail},
	}
}

type mailData struct {
	core.AuditEvent
	Before, After string
}

func indent(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *MailSink) Record(_ context.Context, ev core.AuditEvent) error {
	if s.to.Address == "" {
		return nil
	}
	data := mailData{AuditEvent: ev}
	var err error
	if data.Before, err = indent(ev.Before); err != nil {
		return errors.Wrap(err, "marshalling audit event")
	}
	if data.After, err = indent(ev.After); err != nil {
		return errors.Wrap(err, "marshalling audit event")
	}

	s.email.SendMessages(&core.EmailMessage{
		To:       []mail.Address{s.to},
		Subject:  fmt.Sprintf("%s %s", ev.Action, ev.EntityID),
		Template: mailTmpl,
		Data:     data,
	})
	return nil
}

// MultiSink records events to every sink, in order.
type MultiSink []core.AuditSink

var _ core.AuditSink = (MultiSink)(nil) // interface compliance check

func (ms MultiSink) Record(ctx context.Context, ev core.AuditEvent) error {
	var msgs []string
	for _, s := range ms {
		if err := s.Record(ctx, ev); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) > 0 {
		return errors.Errorf("audit sinks failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}
