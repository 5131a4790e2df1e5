package appointment

import (
	"log/slog"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

// Credentials for the scheduling portal. Secret is never rendered.
type Credentials struct {
	Identity string
	Secret   string
}

func (c Credentials) Validate() error {
	if c.Identity == "" || c.Secret == "" {
		return internaltypes.ErrMissingCredentials
	}
	return nil
}

func (c Credentials) String() string { return c.Identity + ":[redacted]" }

func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("identity", c.Identity),
		slog.String("secret", "[redacted]"),
	)
}
