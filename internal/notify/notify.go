// Package notify defines the crash-notification hook the scheduler calls
// when its main loop hits a fatal, unrecoverable error. A logging-only
// implementation is the only one provided; it does not read
// email_config.json.
package notify

import (
	"context"

	"tourney/pkg/logging"
)

// Notifier is told about fatal scheduler failures. Implementations must not
// block the caller for long: the scheduler calls NotifyCrash on its way out
// the door.
type Notifier interface {
	NotifyCrash(ctx context.Context, subject, body string) error
}

// LoggingNotifier logs the crash report instead of sending it anywhere.
// This is the default Notifier and the only one this module ships, since
// outbound email delivery is out of scope.
type LoggingNotifier struct{}

// NotifyCrash logs subject and body at error level and returns nil: a
// logging notifier cannot itself fail.
func (LoggingNotifier) NotifyCrash(_ context.Context, subject, body string) error {
	logging.Error("notify", nil, "%s: %s", subject, body)
	return nil
}

var _ Notifier = LoggingNotifier{}
