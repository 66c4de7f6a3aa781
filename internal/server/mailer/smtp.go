package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/wneessen/go-mail"
)

// SMTPConfig mirrors the SMTP block of the server config.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLSPolicy is "mandatory", "opportunistic" or "none".
	TLSPolicy string
	Timeout   time.Duration
}

// SMTPDispatcher sends messages through go-mail.
type SMTPDispatcher struct {
	from   string
	client *mail.Client
	log    logging.Logger
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch strings.ToLower(name) {
	case "", "mandatory":
		return mail.TLSMandatory, nil
	case "opportunistic":
		return mail.TLSOpportunistic, nil
	case "none":
		return mail.NoTLS, nil
	}
	return mail.NoTLS, fmt.Errorf("unknown smtp tls policy %q", name)
}

func NewSMTPDispatcher(cfg SMTPConfig, log logging.Logger) (*SMTPDispatcher, error) {
	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(policy),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPDispatcher{from: cfg.From, client: client, log: log}, nil
}

func (d *SMTPDispatcher) Send(ctx context.Context, m Message) error {
	msg := mail.NewMsg()
	if err := msg.From(d.from); err != nil {
		return deliveryError(err)
	}
	if err := msg.To(m.To); err != nil {
		return deliveryError(err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)

	if err := d.client.DialAndSendWithContext(ctx, msg); err != nil {
		d.log.Error(ctx, "email delivery failed", "to", m.To, "subject", m.Subject, "error", err)
		return deliveryError(err)
	}

	d.log.Info(ctx, "email sent", "to", m.To, "subject", m.Subject)
	return nil
}
