package internaltypes

import "errors"

var (
	ErrNotFound = errors.New("not found")

	ErrMissingCredentials         = errors.New("missing portal credentials")
	ErrLoginFailed                = errors.New("login failed")
	ErrCurrentAppointmentNotFound = errors.New("current appointment not found")
	ErrNoAppointmentsAvailable    = errors.New("no appointments available")
	// ErrTransactionFailed means a reschedule step failed; the remote state may be partially changed.
	ErrTransactionFailed         = errors.New("reschedule transaction failed")
	ErrNotificationConfigMissing = errors.New("notification config missing")
	ErrInvalidDateInput          = errors.New("invalid date input")
	ErrRemoteTimeout             = errors.New("remote timeout")
)
