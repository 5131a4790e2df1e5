package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"

	"github.com/example/visa-scheduler/internal/logging"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	// Timeout bounds one send; zero leaves it to the caller's ctx.
	Timeout time.Duration
}

type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPSender{cfg: cfg, logger: logging.OrDefault(logger)}
}

func (s *SMTPSender) build(msg EmailMessage) *email.Email {
	e := email.NewEmail()
	if s.cfg.FromName != "" {
		e.From = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	} else {
		e.From = s.cfg.From
	}
	if msg.ToName != "" {
		e.To = []string{fmt.Sprintf("%s <%s>", msg.ToName, msg.To)}
	} else {
		e.To = []string{msg.To}
	}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}
	return e
}

// Send delivers msg. Dialing and every SMTP exchange are bounded by ctx
// and, when set, the configured timeout.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return fmt.Errorf("notify: smtp host and sender are required")
	}
	e := s.build(msg)
	raw, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("notify: smtp build: %w", err)
	}
	from, err := mail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("notify: smtp sender: %w", err)
	}
	to, err := mail.ParseAddress(e.To[0])
	if err != nil {
		return fmt.Errorf("notify: smtp recipient: %w", err)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if err := s.deliver(ctx, from.Address, to.Address, raw); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("notify: smtp send: %w: %w", ctx.Err(), err)
		}
		return fmt.Errorf("notify: smtp send: %w", err)
	}
	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, from, to string, raw []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// unblocks any pending read or write once ctx ends
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if s.cfg.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
				return err
			}
		} else {
			s.logger.Debug("smtp server does not offer AUTH; sending unauthenticated", "host", s.cfg.Host)
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
