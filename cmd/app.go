package cmd

import (
	"context"
	"log/slog"

	"github.com/example/visa-scheduler/internal/application/usecases"
	"github.com/example/visa-scheduler/internal/audit"
	"github.com/example/visa-scheduler/internal/config"
	"github.com/example/visa-scheduler/internal/logging"
	"github.com/example/visa-scheduler/internal/metrics"
	"github.com/example/visa-scheduler/internal/notify"
	"github.com/example/visa-scheduler/internal/retry"
	"github.com/example/visa-scheduler/internal/session"
	"github.com/example/visa-scheduler/internal/visa"
)

// app is the wiring shared by check and watch.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	check usecases.CheckAppointments
}

func newApp(f *checkFlags) (*app, usecases.CheckRequest, error) {
	// flags first: bad input must fail before any I/O
	req, err := f.request()
	if err != nil {
		return nil, req, err
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, req, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat).With("process_id", cfg.ProcessID)

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, req, err
	}
	site, err := visa.NewSite(profile, cfg.ProcessID)
	if err != nil {
		return nil, req, err
	}

	req.Credentials = cfg.Credentials
	req.HeartbeatInterval = cfg.HeartbeatInterval

	opts := visa.Options{
		Wait:         cfg.WaitTimeout,
		SlotTimeout:  cfg.SlotTimeout,
		MaxFormSteps: cfg.MaxFormSteps,
		Retry:        retry.DefaultPolicy(),
		Logger:       log,
	}
	gw := newGateway(cfg, site.LinkURL(), log)

	var m *metrics.RunMetrics
	if cfg.PushgatewayURL != "" {
		m = metrics.NewRunMetrics()
	}

	a := &app{cfg: cfg, log: log}
	a.check = usecases.CheckAppointments{
		ProcessID: cfg.ProcessID,
		OpenAudit: func(ctx context.Context) (audit.Log, error) {
			return audit.Open(ctx, cfg.DatabaseURL, log)
		},
		OpenSession: func(ctx context.Context) (session.Session, error) {
			return session.NewChrome(ctx, session.ChromeOptions{
				Headless: f.headless,
				ExecPath: cfg.ChromePath,
				Logger:   log,
			})
		},
		NewPortal: func(t session.Transport) usecases.Portal {
			return visa.NewPortal(t, site, opts)
		},
		Notifier:       gw,
		Heartbeat:      gw,
		Metrics:        m,
		PushgatewayURL: cfg.PushgatewayURL,
		Logger:         log,
	}
	return a, req, nil
}

func newGateway(cfg config.Config, link string, log *slog.Logger) *notify.Gateway {
	gw := &notify.Gateway{
		EmailTo:     cfg.Email.Destination,
		HeartbeatTo: cfg.Email.HeartbeatDestination,
		LinkURL:     link,
		Logger:      log,
	}

	switch cfg.Email.Provider {
	case "sendgrid":
		// a nil *SendGridSender must not end up in the interface
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.Email.SendGridAPIKey,
			FromEmail: cfg.Email.From,
			FromName:  cfg.Email.FromName,
		}, log); s != nil {
			gw.Email = s
		}
	default:
		gw.Email = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			User:     cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
			Timeout:  cfg.WaitTimeout,
		}, log)
	}

	if cfg.Twilio.Enabled() {
		gw.WhatsApp = notify.NewWhatsAppSender(notify.WhatsAppConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.From,
			To:         cfg.Twilio.To,
		}, notify.WithWhatsAppLogger(log))
	}
	return gw
}
