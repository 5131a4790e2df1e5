package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Profile describes the portal: where it lives and how its pages are marked up.
type Profile struct {
	BaseURL string `json:"baseUrl"`
	Locale  string `json:"locale"`
	// SlotResponsePattern is a regexp matched against background response URLs.
	SlotResponsePattern string    `json:"slotResponsePattern"`
	Selectors           Selectors `json:"selectors"`
}

type Selectors struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	PolicyCheckbox string `json:"policyCheckbox"`
	SignInSubmit   string `json:"signInSubmit"`
	FormError      string `json:"formError"`
	BlockedPopup   string `json:"blockedPopup"`

	CurrentAppointment string `json:"currentAppointment"`
	StepSubmit         string `json:"stepSubmit"`

	DateInput        string `json:"dateInput"`
	ActiveDay        string `json:"activeDay"`
	TimeSelect       string `json:"timeSelect"`
	RescheduleSubmit string `json:"rescheduleSubmit"`
	ConfirmText      string `json:"confirmText"`
}

func DefaultProfile() Profile {
	return Profile{
		BaseURL:             "https://ais.usvisa-info.com",
		Locale:              "en-cl",
		SlotResponsePattern: `appointment/days`,
		Selectors: Selectors{
			Email:              "#user_email",
			Password:           "#user_password",
			PolicyCheckbox:     "#policy_confirmed",
			SignInSubmit:       ".button[type='submit']",
			FormError:          "form .error",
			BlockedPopup:       ".infoPopUp",
			CurrentAppointment: ".consular-appt",
			StepSubmit:         "input[type='submit']",
			DateInput:          "#appointments_consulate_appointment_date",
			ActiveDay:          "a.ui-state-default.ui-state-active",
			TimeSelect:         "#appointments_consulate_appointment_time",
			RescheduleSubmit:   "#appointments_submit",
			ConfirmText:        "Confirm",
		},
	}
}

// LoadProfile merges, in increasing priority, the defaults, path and
// <name>.local.<ext> next to it. An empty path yields the defaults.
func LoadProfile(path string) (Profile, error) {
	out := DefaultProfile()
	if path == "" {
		return out, nil
	}

	found := false
	for _, p := range []string{path, localPath(path)} {
		b, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Profile{}, err
		}
		var override Profile
		if err := json5.Unmarshal(b, &override); err != nil {
			return Profile{}, fmt.Errorf("profile %s: %w", p, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return Profile{}, fmt.Errorf("profile %s: %w", p, err)
		}
		slog.Debug("merged site profile", "path", p)
		found = true
	}
	if !found {
		return Profile{}, fmt.Errorf("profile %s: %w", path, os.ErrNotExist)
	}
	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	return out, nil
}

func localPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+".local"+ext)
}
