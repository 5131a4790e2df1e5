package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/visa-scheduler/internal/logging"
)

const twilioBaseURL = "https://api.twilio.com"

// Message is the subset of a Twilio message resource we read.
type Message struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

func (m Message) Delivered() bool { return m.Status == "delivered" || m.Status == "read" }

// Final reports whether the status can no longer change.
func (m Message) Final() bool {
	switch m.Status {
	case "delivered", "read", "failed", "undelivered", "canceled":
		return true
	}
	return false
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	From       string // E.164, without the whatsapp: prefix
	To         string
}

type WhatsAppOption func(*WhatsAppSender)

func WithBaseURL(u string) WhatsAppOption {
	return func(s *WhatsAppSender) { s.client.SetBaseURL(u) }
}

// WithDeliveryPoll sets how often and how long SendAndAwait polls.
func WithDeliveryPoll(every, max time.Duration) WhatsAppOption {
	return func(s *WhatsAppSender) { s.pollEvery, s.pollFor = every, max }
}

func WithWhatsAppLogger(l *slog.Logger) WhatsAppOption {
	return func(s *WhatsAppSender) { s.logger = l }
}

// WhatsAppSender posts WhatsApp messages through Twilio's REST API.
type WhatsAppSender struct {
	client     *resty.Client
	accountSID string
	from, to   string
	pollEvery  time.Duration
	pollFor    time.Duration
	logger     *slog.Logger
}

func NewWhatsAppSender(cfg WhatsAppConfig, opts ...WhatsAppOption) *WhatsAppSender {
	s := &WhatsAppSender{
		client: resty.New().
			SetBaseURL(twilioBaseURL).
			SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
			SetTimeout(10 * time.Second),
		accountSID: cfg.AccountSID,
		from:       whatsappAddr(cfg.From),
		to:         whatsappAddr(cfg.To),
		pollEvery:  time.Second,
		pollFor:    10 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.OrDefault(s.logger)
	return s
}

func whatsappAddr(n string) string {
	if n == "" || strings.HasPrefix(n, "whatsapp:") {
		return n
	}
	return "whatsapp:" + n
}

func (s *WhatsAppSender) Send(ctx context.Context, body string) (Message, error) {
	var (
		out    Message
		apiErr twilioError
	)
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"To": s.to, "From": s.from, "Body": body}).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", s.accountSID))
	if err != nil {
		return Message{}, fmt.Errorf("notify: whatsapp send: %w", err)
	}
	if resp.IsError() {
		return Message{}, fmt.Errorf("notify: whatsapp send: status %d: %s (code %d)", resp.StatusCode(), apiErr.Message, apiErr.Code)
	}
	return out, nil
}

func (s *WhatsAppSender) Fetch(ctx context.Context, sid string) (Message, error) {
	var out Message
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages/%s.json", s.accountSID, sid))
	if err != nil {
		return Message{}, fmt.Errorf("notify: whatsapp fetch: %w", err)
	}
	if resp.IsError() {
		return Message{}, fmt.Errorf("notify: whatsapp fetch: status %d", resp.StatusCode())
	}
	return out, nil
}

// SendAndAwait sends body and polls its status until it is final or the
// poll window closes. Only the send itself can fail; the returned message
// carries the last status seen.
func (s *WhatsAppSender) SendAndAwait(ctx context.Context, body string) (Message, error) {
	msg, err := s.Send(ctx, body)
	if err != nil {
		return Message{}, err
	}

	pctx, cancel := context.WithTimeout(ctx, s.pollFor)
	defer cancel()
	t := time.NewTicker(s.pollEvery)
	defer t.Stop()

	for !msg.Final() {
		select {
		case <-pctx.Done():
			return msg, nil
		case <-t.C:
		}
		cur, err := s.Fetch(pctx, msg.SID)
		if err != nil {
			s.logger.Warn("whatsapp status check failed", "sid", msg.SID, "err", err)
			continue
		}
		msg = cur
	}
	return msg, nil
}
