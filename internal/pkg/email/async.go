package email

import (
	"time"

	"github.com/rs/zerolog"
)

// SendTimeout bounds a single background delivery.
const SendTimeout = 30 * time.Second

// asyncEmailService delivers mail on a goroutine so request handlers never
// wait on SMTP. Failures are logged only.
type asyncEmailService struct {
	next    EmailService
	logger  zerolog.Logger
	timeout time.Duration
}

// NewAsyncEmailService wraps next so every send returns immediately.
func NewAsyncEmailService(next EmailService, logger zerolog.Logger) EmailService {
	return &asyncEmailService{next: next, logger: logger, timeout: SendTimeout}
}

func (a *asyncEmailService) SendContentApproved(toEmail, toName, title string) error {
	a.dispatch("content_approved", toEmail, func() error {
		return a.next.SendContentApproved(toEmail, toName, title)
	})
	return nil
}

func (a *asyncEmailService) SendContentRejected(toEmail, toName, title, reason string) error {
	a.dispatch("content_rejected", toEmail, func() error {
		return a.next.SendContentRejected(toEmail, toName, title, reason)
	})
	return nil
}

func (a *asyncEmailService) SendComplaintAssigned(toEmail, toName, subject string) error {
	a.dispatch("complaint_assigned", toEmail, func() error {
		return a.next.SendComplaintAssigned(toEmail, toName, subject)
	})
	return nil
}

func (a *asyncEmailService) SendComplaintStatusChanged(toEmail, toName, subject, status string) error {
	a.dispatch("complaint_status", toEmail, func() error {
		return a.next.SendComplaintStatusChanged(toEmail, toName, subject, status)
	})
	return nil
}

func (a *asyncEmailService) dispatch(kind, toEmail string, send func() error) {
	go func() {
		done := make(chan error, 1)
		go func() { done <- send() }()

		timer := time.NewTimer(a.timeout)
		defer timer.Stop()

		select {
		case err := <-done:
			if err != nil {
				a.logger.Error().Err(err).Str("kind", kind).Str("toEmail", toEmail).Msg("Notification email failed")
			}
		case <-timer.C:
			a.logger.Warn().Str("kind", kind).Str("toEmail", toEmail).Dur("timeout", a.timeout).Msg("Notification email timed out")
		}
	}()
}
