package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/airhop/airhop/pkg/util"
	"github.com/rs/zerolog/log"
)

// Mailer sends scan reports over SMTP. An unconfigured mailer is valid
// and just logs instead of sending, local runs don't need a mail server.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewMailer() *Mailer {
	env := util.GetEnvironmentVariables()

	mailer := &Mailer{
		Host:     env["AIRHOP_SMTP_HOST"],
		Port:     env["AIRHOP_SMTP_PORT"],
		Username: env["AIRHOP_SMTP_USERNAME"],
		Password: env["AIRHOP_SMTP_PASSWORD"],
		From:     env["AIRHOP_SMTP_FROM"],
	}

	if mailer.Port == "" {
		mailer.Port = "587"
	}
	if mailer.From == "" {
		mailer.From = mailer.Username
	}

	return mailer
}

func (mailer *Mailer) Configured() bool {
	return mailer.Host != "" && mailer.From != ""
}

// Send delivers one HTML message. Without SMTP configuration it logs the
// recipient and subject and reports success.
func (mailer *Mailer) Send(recipient string, subject string, htmlBody []byte) error {
	if !mailer.Configured() {
		log.Info().Str("recipient", recipient).Str("subject", subject).Msg("SMTP not configured, skipping email delivery")
		return nil
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", mailer.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", recipient))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.Write(htmlBody)

	var auth smtp.Auth
	if mailer.Username != "" {
		auth = smtp.PlainAuth("", mailer.Username, mailer.Password, mailer.Host)
	}

	address := fmt.Sprintf("%s:%s", mailer.Host, mailer.Port)
	if err := smtp.SendMail(address, auth, mailer.From, []string{recipient}, []byte(message.String())); err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}

	log.Info().Str("recipient", recipient).Msg("Sent scan report email")

	return nil
}
