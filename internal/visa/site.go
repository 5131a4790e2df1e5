// Package visa drives the consular scheduling portal: sign-in, reading the
// booked date, listing open days and moving the appointment.
package visa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/visa-scheduler/internal/config"
)

// Site resolves portal URLs and selectors for one applicant schedule.
type Site struct {
	profile     config.Profile
	processID   string
	slotPattern *regexp.Regexp
	groups      *regexp.Regexp
}

func NewSite(p config.Profile, processID string) (Site, error) {
	if processID == "" {
		return Site{}, fmt.Errorf("visa: process id is required")
	}
	slots, err := regexp.Compile(p.SlotResponsePattern)
	if err != nil {
		return Site{}, fmt.Errorf("visa: slot response pattern: %w", err)
	}
	return Site{
		profile:     p,
		processID:   processID,
		slotPattern: slots,
		groups:      regexp.MustCompile(regexp.QuoteMeta(fmt.Sprintf("/%s/niv/groups/", p.Locale))),
	}, nil
}

func (s Site) Selectors() config.Selectors { return s.profile.Selectors }

func (s Site) path(format string, args ...any) string {
	return fmt.Sprintf("/%s/niv/", s.profile.Locale) + fmt.Sprintf(format, args...)
}

func (s Site) SignInURL() string { return s.profile.BaseURL + s.path("users/sign_in") }

func (s Site) SignOutSelector() string {
	return fmt.Sprintf(`a[href='%s']`, s.path("users/sign_out"))
}

// GroupsPattern matches the dashboard reached after a successful sign-in.
func (s Site) GroupsPattern() *regexp.Regexp { return s.groups }

func (s Site) ConsulateHref() string {
	return s.path("schedule/%s/addresses/consulate", s.processID)
}

func (s Site) AppointmentURL() string {
	return s.profile.BaseURL + s.path("schedule/%s/appointment", s.processID)
}

// LinkURL is the page an operator opens to act on a notification.
func (s Site) LinkURL() string { return s.AppointmentURL() }

func (s Site) SlotPattern() *regexp.Regexp { return s.slotPattern }

// cssString quotes s as a CSS string literal for attribute selectors.
// Control characters use CSS hex escapes.
func cssString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
