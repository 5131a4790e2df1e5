package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/visa-scheduler/internal/crypto"
	"github.com/example/visa-scheduler/internal/domain/appointment"
)

const DefaultDatabaseURL = "sqlite:db.sqlite"

type Config struct {
	Credentials appointment.Credentials
	ProcessID   string

	DatabaseURL string
	LogLevel    string
	LogFormat   string

	// browser
	ProfilePath  string
	ChromePath   string
	WaitTimeout  time.Duration
	SlotTimeout  time.Duration
	MaxFormSteps int

	Email             EmailConfig
	Twilio            TwilioConfig
	HeartbeatInterval time.Duration

	PushgatewayURL string
}

type EmailConfig struct {
	Provider       string // smtp | sendgrid
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SendGridAPIKey string
	From           string
	FromName       string

	Destination          string
	HeartbeatDestination string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != "" && t.To != ""
}

// LoadDotenv loads .env style files into the environment. Missing files are ignored.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func FromEnv() (Config, error) {
	cfg := Config{
		ProcessID:   os.Getenv("VISA_PROCESS_ID"),
		DatabaseURL: getenv("DATABASE_URL", DefaultDatabaseURL),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
		ProfilePath: os.Getenv("VISA_PROFILE"),
		ChromePath:  os.Getenv("CHROME_PATH"),
		Credentials: appointment.Credentials{
			Identity: os.Getenv("VISA_USER_EMAIL"),
			Secret:   os.Getenv("VISA_USER_PASSWORD"),
		},
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}
	if cfg.ProcessID == "" {
		return Config{}, fmt.Errorf("VISA_PROCESS_ID is required")
	}

	if cfg.Credentials.Secret == "" {
		if sealed := os.Getenv("VISA_USER_PASSWORD_SEALED"); sealed != "" {
			secret, err := openSealed(sealed)
			if err != nil {
				return Config{}, fmt.Errorf("VISA_USER_PASSWORD_SEALED: %w", err)
			}
			cfg.Credentials.Secret = secret
		}
	}

	var err error
	if cfg.WaitTimeout, err = seconds("WAIT_TIMEOUT_SECONDS", 30); err != nil {
		return Config{}, err
	}
	if cfg.SlotTimeout, err = seconds("SLOT_TIMEOUT_SECONDS", 30); err != nil {
		return Config{}, err
	}
	if cfg.MaxFormSteps, err = positiveInt("MAX_FORM_STEPS", 5); err != nil {
		return Config{}, err
	}

	cfg.Email = EmailConfig{
		Provider:             strings.ToLower(getenv("EMAIL_PROVIDER", "smtp")),
		SMTPHost:             getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPUser:             getenv("SMTP_USER", os.Getenv("GMAIL_APP_USER")),
		SMTPPassword:         getenv("SMTP_PASSWORD", os.Getenv("GMAIL_APP_PASSWORD")),
		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		FromName:             getenv("EMAIL_FROM_NAME", "Visa Appointment Scheduler"),
		Destination:          os.Getenv("EMAIL_DESTINATION"),
		HeartbeatDestination: os.Getenv("HEARTBEAT_DESTINATION"),
	}
	cfg.Email.From = getenv("EMAIL_FROM", cfg.Email.SMTPUser)
	if cfg.Email.SMTPPort, err = positiveInt("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	switch cfg.Email.Provider {
	case "smtp", "sendgrid":
	default:
		return Config{}, fmt.Errorf("invalid EMAIL_PROVIDER %q (want smtp or sendgrid)", cfg.Email.Provider)
	}

	if v := os.Getenv("HEARTBEAT_TIME"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins < 1 {
			return Config{}, fmt.Errorf("invalid HEARTBEAT_TIME (minutes)")
		}
		cfg.HeartbeatInterval = time.Duration(mins) * time.Minute
	}

	cfg.Twilio = TwilioConfig{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		From:       os.Getenv("TWILIO_WHATSAPP_PHONE_NUMBER"),
		To:         os.Getenv("NOTIFICATION_PHONE_NUMBER"),
	}

	return cfg, nil
}

func openSealed(sealed string) (string, error) {
	key := os.Getenv("CRED_ENC_KEY")
	if key == "" {
		return "", fmt.Errorf("CRED_ENC_KEY is required to open a sealed password")
	}
	s, err := crypto.NewFromBase64(readMaybeFile(key))
	if err != nil {
		return "", err
	}
	return s.OpenString(sealed)
}

// readMaybeFile allows pointing a secret at a file path for mounted secrets.
func readMaybeFile(s string) string {
	if b, err := os.ReadFile(s); err == nil {
		return strings.TrimSpace(string(b))
	}
	return s
}

func seconds(k string, def int) (time.Duration, error) {
	n, err := positiveInt(k, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func positiveInt(k string, def int) (int, error) {
	n, err := strconv.Atoi(getenv(k, strconv.Itoa(def)))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s", k)
	}
	return n, nil
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
