package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

var ErrNotConfigured = errors.New("mailer is not configured")

type Config struct {
	Host       string        `envconfig:"HOST" split_words:"true" default:"smtp.gmail.com"`
	Port       int           `envconfig:"PORT" split_words:"true" default:"587"`
	Username   string        `envconfig:"USERNAME" split_words:"true"`
	Password   string        `envconfig:"PASSWORD" split_words:"true"`
	SenderName string        `envconfig:"SENDER_NAME" split_words:"true" default:"Personal Assistant"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

// SMTP sends mail through an authenticated SMTP relay. A zero-credential
// SMTP value is valid and reports itself as unconfigured.
type SMTP struct {
	cfg Config
}

var _ contractx.Mailer = (*SMTP)(nil)

func New(cfg Config) *SMTP {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Configured() bool {
	return s != nil && s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != ""
}

func (s *SMTP) Send(ctx context.Context, m contractx.Mail) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	msg, err := s.buildMessage(m)
	if err != nil {
		return "", err
	}

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return "", fmt.Errorf("create smtp client: %w", err)
	}

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}

	id := messageID(msg)
	log.Info().Str("message_id", id).Dur("duration", time.Since(start)).Msg("mail sent")
	return id, nil
}

func (s *SMTP) buildMessage(m contractx.Mail) (*gomail.Msg, error) {
	fromName := strings.TrimSpace(m.FromName)
	if fromName == "" {
		fromName = s.cfg.SenderName
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, s.cfg.Username); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(strings.TrimSpace(m.To)); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetMessageID()
	msg.SetDate()
	msg.SetBodyString(gomail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, m.HTML)
	}
	return msg, nil
}

func messageID(msg *gomail.Msg) string {
	if ids := msg.GetGenHeader(gomail.HeaderMessageID); len(ids) > 0 {
		return ids[0]
	}
	return ""
}
