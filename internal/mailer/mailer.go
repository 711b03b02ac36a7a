package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"confreg/internal/dto"
)

type Config struct {
	From     string
	Password string
	Host     string
	Port     string
	Enabled  bool
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// Send delivers the notification email for a consumed event. When disabled it
// only logs the message, which matches the upstream behavior of never wiring
// a real transport.
func (m *Mailer) Send(msg dto.NotificationMessage) error {
	var subject, body string
	switch msg.Type {
	case dto.NotifyRegistrationCreated:
		subject = "AusIMM Conference Registration Confirmation"
		body = fmt.Sprintf(
			"Dear %s,\n\nThank you for registering for the AusIMM Conference.\nYour registration ID is: %s\n\nConference Details:\nAttendance Type: %s\nMember Type: %s\n\nBest regards,\nAusIMM Team",
			msg.FirstName, msg.RegistrationID, msg.AttendanceType, msg.MemberType,
		)
	case dto.NotifyPaymentCompleted:
		subject = "AusIMM Conference Payment Received"
		body = fmt.Sprintf(
			"Dear %s,\n\nWe have received your payment for registration %s.\n\nBest regards,\nAusIMM Team",
			msg.FirstName, msg.RegistrationID,
		)
	case dto.NotifyCertificateIssued:
		subject = "Your AusIMM Conference Certificate"
		body = fmt.Sprintf(
			"Dear %s,\n\nYour conference certificate has been issued.\nCertificate code: %s\n\nBest regards,\nAusIMM Team",
			msg.FirstName, msg.CertificateCode,
		)
	default:
		return fmt.Errorf("unknown notification type %q", msg.Type)
	}

	if !m.cfg.Enabled {
		m.log.Info().
			Str("type", msg.Type).
			Str("email", msg.Email).
			Str("subject", subject).
			Msg("mailer disabled, skipping delivery")
		return nil
	}

	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, msg.Email, subject, body,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.Email}, []byte(raw)); err != nil {
		m.log.Warn().Err(err).Str("email", msg.Email).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", msg.Email).Str("type", msg.Type).Msg("email sent")
	return nil
}
