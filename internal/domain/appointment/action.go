package appointment

import (
	"fmt"
	"strings"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

type Action string

const (
	ActionNotify     Action = "notify"
	ActionReschedule Action = "reschedule"
)

// Actions is an ordered set of requested actions. Empty means observe only.
type Actions []Action

func ParseActions(raw []string) (Actions, error) {
	var out Actions
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			a := Action(strings.ToLower(strings.TrimSpace(part)))
			if a == "" {
				continue
			}
			switch a {
			case ActionNotify, ActionReschedule:
			default:
				return nil, fmt.Errorf("%w: unknown action %q (want notify or reschedule)", internaltypes.ErrInvalidDateInput, part)
			}
			if !out.Has(a) {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (as Actions) Has(a Action) bool {
	for _, x := range as {
		if x == a {
			return true
		}
	}
	return false
}
