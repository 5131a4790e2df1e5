package visa

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/visa-scheduler/internal/domain/appointment"
	"github.com/example/visa-scheduler/internal/internaltypes"
)

// ExtractAppointmentDate reads the booked date out of the current-appointment
// text, e.g. "Consular Appointment: June 1, 2024, at the Consulate". The
// date sits between the first colon and the last comma.
func ExtractAppointmentDate(text string) (appointment.Date, error) {
	i := strings.Index(text, ":")
	j := strings.LastIndex(text, ",")
	if i < 0 || j <= i {
		return appointment.Date{}, fmt.Errorf("%w: unexpected text %q", internaltypes.ErrCurrentAppointmentNotFound, text)
	}
	d, err := appointment.ParseLong(text[i+1 : j])
	if err != nil {
		return appointment.Date{}, fmt.Errorf("%w: %w", internaltypes.ErrCurrentAppointmentNotFound, err)
	}
	return d, nil
}

type slotRecord struct {
	Date        string `json:"date"`
	BusinessDay bool   `json:"business_day"`
}

// ParseSlots decodes the slot-list payload, [{"date":"2024-05-10",...}].
// Order is kept as received.
func ParseSlots(body []byte) ([]appointment.Date, error) {
	var recs []slotRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("visa: decode slot list: %w", err)
	}
	out := make([]appointment.Date, 0, len(recs))
	for _, r := range recs {
		d, err := appointment.ParseISO(r.Date)
		if err != nil {
			return nil, fmt.Errorf("visa: slot list: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}
