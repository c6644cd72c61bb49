package notify

import (
	"bytes"
	"fmt"
	"io"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/phuslu/log"

	"bewerbungsagent/internal/config"
	"bewerbungsagent/internal/jobstate"
)

// Mailer sends the HTML digest over SMTP.
type Mailer struct {
	cfg config.EmailConfig
	// send lets tests intercept the SMTP call.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	// MaxJobs caps the rows rendered into one mail.
	MaxJobs int
}

func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail, MaxJobs: 200}
}

// SendJobAlert mails the digest. Returns false without error when the
// channel is disabled or there is nothing to send; delivery failures are
// returned so the caller keeps the records unnotified.
func (m *Mailer) SendJobAlert(newJobs, reminders []*jobstate.Record) (bool, error) {
	if !m.cfg.Enabled {
		log.Info().Msg("email disabled, skipping alert")
		return false, nil
	}
	if len(newJobs) == 0 && len(reminders) == 0 {
		return false, nil
	}
	if len(m.cfg.Recipients) == 0 {
		return false, fmt.Errorf("email enabled but no recipients configured")
	}

	subject := Subject(len(newJobs), len(reminders))
	body := HTMLBody(newJobs, reminders, m.MaxJobs)

	msg, err := buildMessage(m.cfg.Sender, m.cfg.Recipients, subject, body)
	if err != nil {
		return false, fmt.Errorf("building alert mail: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPServer, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.SMTPServer)
	if err := m.send(addr, auth, m.cfg.Sender, m.cfg.Recipients, msg); err != nil {
		return false, fmt.Errorf("sending alert mail: %w", err)
	}

	log.Info().Str("subject", subject).Int("recipients", len(m.cfg.Recipients)).Msg("alert mail sent")
	return true, nil
}

// buildMessage assembles a single-part HTML MIME message.
func buildMessage(sender string, recipients []string, subject, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer

	from := []*mail.Address{{Address: sender}}
	to := make([]*mail.Address, len(recipients))
	for i, r := range recipients {
		to[i] = &mail.Address{Address: r}
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", from)
	h.SetAddressList("To", to)
	h.SetSubject(subject)

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	var inline mail.InlineHeader
	inline.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	iw, err := mw.CreateSingleInline(inline)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(iw, htmlBody); err != nil {
		return nil, err
	}
	if err := iw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
