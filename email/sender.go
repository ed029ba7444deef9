package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Config holds the SMTP settings read from the environment. Notifications are
// silently disabled when no host is configured.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	TLSEnabled bool
}

func LoadConfig() Config {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return Config{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       port,
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		FromEmail:  os.Getenv("SMTP_FROM"),
		FromName:   os.Getenv("SMTP_FROM_NAME"),
		TLSEnabled: os.Getenv("SMTP_TLS") == "true",
	}
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.FromEmail != ""
}

// Send delivers a plain-text message to the given recipients.
func Send(config Config, to []string, subject, body string) error {
	var message strings.Builder
	fmt.Fprintf(&message, "From: %s <%s>\r\n", config.FromName, config.FromEmail)
	fmt.Fprintf(&message, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&message, "Subject: %s\r\n", subject)
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	message.WriteString(body)

	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
	serverAddr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	if !config.TLSEnabled {
		return smtp.SendMail(serverAddr, auth, config.FromEmail, to, []byte(message.String()))
	}

	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{ServerName: config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %v", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %v", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %v", err)
	}
	if err = client.Mail(config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %v", err)
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %v", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %v", err)
	}
	if _, err = w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %v", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %v", err)
	}
	return client.Quit()
}

// NotifyRejection tells an employee their submitted work was sent back.
// Best effort: failures are logged, never surfaced to the caller.
func NotifyRejection(recipient, taskTitle, reason string) {
	config := LoadConfig()
	if !config.Enabled() || recipient == "" {
		return
	}
	subject := fmt.Sprintf("Task returned: %s", taskTitle)
	body := fmt.Sprintf(
		"Your submission for %q was sent back for rework.\r\n\r\nReason: %s\r\n",
		taskTitle, reason,
	)
	go func() {
		if err := Send(config, []string{recipient}, subject, body); err != nil {
			log.Warn().Err(err).Str("recipient", recipient).Msg("Failed to send rejection notice")
		}
	}()
}
