package email

import (
	"fmt"
	"html"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// EmailService defines the notification emails the portal sends
type EmailService interface {
	SendContentApproved(toEmail, toName, title string) error
	SendContentRejected(toEmail, toName, title, reason string) error
	SendComplaintAssigned(toEmail, toName, subject string) error
	SendComplaintStatusChanged(toEmail, toName, subject, status string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	BaseURL   string // Base URL for links in emails
}

// Configured reports whether enough settings are present to deliver mail.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.FromEmail != ""
}

// EmailServiceImpl implements EmailService over gomail
type EmailServiceImpl struct {
	config SMTPConfig
	dialer *gomail.Dialer
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		logger: logger,
	}
}

// SendContentApproved tells an uploader their content is live
func (s *EmailServiceImpl) SendContentApproved(toEmail, toName, title string) error {
	body := fmt.Sprintf(`<p>Your upload <strong>%s</strong> has been approved and is now visible on the portal.</p>
<p><a href="%s/content">View content</a></p>`, html.EscapeString(title), s.config.BaseURL)

	return s.send(toEmail, toName, "Your content was approved", body)
}

// SendContentRejected tells an uploader why their content was rejected
func (s *EmailServiceImpl) SendContentRejected(toEmail, toName, title, reason string) error {
	body := fmt.Sprintf(`<p>Your upload <strong>%s</strong> was not approved.</p>
<p>Reason: %s</p>
<p>You can edit the content and it will be reviewed again.</p>`, html.EscapeString(title), html.EscapeString(reason))

	return s.send(toEmail, toName, "Your content was rejected", body)
}

// SendComplaintAssigned tells a submitter their complaint has an owner
func (s *EmailServiceImpl) SendComplaintAssigned(toEmail, toName, subject string) error {
	body := fmt.Sprintf(`<p>Your complaint <strong>%s</strong> has been assigned to a staff member.</p>`, html.EscapeString(subject))

	return s.send(toEmail, toName, "Your complaint was assigned", body)
}

// SendComplaintStatusChanged tells a submitter about a status transition
func (s *EmailServiceImpl) SendComplaintStatusChanged(toEmail, toName, subject, status string) error {
	body := fmt.Sprintf(`<p>The status of your complaint <strong>%s</strong> is now <strong>%s</strong>.</p>`,
		html.EscapeString(subject), html.EscapeString(status))

	return s.send(toEmail, toName, "Complaint status updated", body)
}

func (s *EmailServiceImpl) send(toEmail, toName, subject, content string) error {
	if !s.config.Configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP not configured - email not sent")
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	m.SetAddressHeader("To", toEmail, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", wrapHTML(toName, content, s.config.FromName))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Str("server", s.config.Host).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func wrapHTML(toName, content, signature string) string {
	return fmt.Sprintf(`<html>
<body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<p>Hello %s,</p>
%s
<p>Best regards,<br>%s</p>
</div>
</body>
</html>`, html.EscapeString(toName), content, html.EscapeString(signature))
}
