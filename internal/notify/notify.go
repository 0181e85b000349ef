package notify

import "github.com/sirupsen/logrus"

// Notifier delivers a human-readable alert out of band. Delivery failures are
// the notifier's problem: they get logged and never bubble into the HTTP
// response of the signal that triggered them.
type Notifier interface {
	Send(subject, body string) error
}

// Multi fans one alert out to several sinks, continuing past failures.
type Multi []Notifier

func (m Multi) Send(subject, body string) error {
	var firstErr error
	for _, n := range m {
		if err := n.Send(subject, body); err != nil {
			logrus.WithError(err).Warn("notifier delivery failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Nop discards alerts; used when no sink is configured.
type Nop struct{}

func (Nop) Send(subject, body string) error { return nil }
