// Package mail implements the out-of-band email transport on SMTP.
package mail

import (
	"bytes"
	"context"
	"text/template"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/devspacehq/pulse"
)

// Template holds the text templates of one mail type. Both parts are
// rendered with the dispatch request's field map.
type Template struct {
	Subject string
	Body    string
}

// Config configures the SMTP transport and the known templates, keyed by
// the dispatcher's template identifiers.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Templates map[string]Template
}

type parsedTemplate struct {
	subject *template.Template
	body    *template.Template
}

// Mailer implements pulse.EmailSender via SMTP. Sends are synchronous but
// honor the passed context so a hung SMTP dialog cannot stall a run beyond
// its per-subject deadline.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	templates map[string]parsedTemplate
}

// NewMailer parses the configured templates and prepares the SMTP dialer.
func NewMailer(conf Config) (*Mailer, error) {
	if conf.Host == "" || conf.From == "" {
		return nil, errors.New("mail transport needs at least a host and a from address")
	}
	if conf.Port == 0 {
		conf.Port = 587
	}
	templates := make(map[string]parsedTemplate, len(conf.Templates))
	for name, t := range conf.Templates {
		subject, err := template.New(name + ".subject").Parse(t.Subject)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid subject template '%s'", name)
		}
		body, err := template.New(name + ".body").Parse(t.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid body template '%s'", name)
		}
		templates[name] = parsedTemplate{subject: subject, body: body}
	}
	return &Mailer{
		dialer:    gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password),
		from:      conf.From,
		templates: templates,
	}, nil
}

// Send implements pulse.EmailSender
func (m *Mailer) Send(ctx context.Context, req pulse.EmailRequest) error {
	tmpl, ok := m.templates[req.Template]
	if !ok {
		return errors.Errorf("unknown email template '%s'", req.Template)
	}
	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, req.Fields); err != nil {
		return errors.Wrap(err, "failed to render subject")
	}
	if err := tmpl.body.Execute(&body, req.Fields); err != nil {
		return errors.Wrap(err, "failed to render body")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", req.To)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", body.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.dialer.DialAndSend(msg)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
