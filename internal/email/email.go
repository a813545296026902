package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/mitoc/trips-api/internal/config"
)

// Service sends club email over plain SMTP.
type Service struct {
	conf *config.SMTPConfig
}

func NewService(conf *config.SMTPConfig) *Service {
	return &Service{
		conf: conf,
	}
}

func (s *Service) SendRenewalReminder(to, name string, expires time.Time) error {
	subject := "Your club membership is expiring"
	body := fmt.Sprintf(`Hello %v,

Your club membership expires on %v. Renew before then to keep
signing up for trips and renting gear.

See you outside,
The Trips Team
`, name, expires.Format("January 2, 2006"))

	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	if s.conf.Username == "" || s.conf.Password == "" {
		return fmt.Errorf("email credentials not configured")
	}

	auth := smtp.PlainAuth("", s.conf.Username, s.conf.Password, s.conf.Host)

	fromEmail := s.conf.FromEmail
	if fromEmail == "" {
		fromEmail = s.conf.Username
	}

	message := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"\r\n"+
			"%s\r\n",
		s.conf.FromName, fromEmail, to, subject, body))

	addr := fmt.Sprintf("%v:%v", s.conf.Host, s.conf.Port)

	return smtp.SendMail(addr, auth, fromEmail, []string{to}, message)
}
