package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"

	mail "gopkg.in/mail.v2"
)

// MailConfig holds the SMTP settings. It is read when mail is sent so that
// values loaded from .env after package init still apply.
type MailConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string // e.g. "Ethics Committee <no-reply@your.org>"
	SkipTLSVerify bool
}

func MailConfigFromEnv() MailConfig {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return MailConfig{
		Host:          os.Getenv("SMTP_HOST"),
		Port:          port,
		User:          os.Getenv("SMTP_USER"),
		Pass:          os.Getenv("SMTP_PASS"),
		From:          os.Getenv("SMTP_FROM"),
		SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
	}
}

// Configured reports whether enough is set to attempt delivery.
func (c MailConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

func (c MailConfig) Send(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if !c.Configured() {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	m := mail.NewMessage()
	m.SetHeader("From", c.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := mail.NewDialer(c.Host, c.Port, c.User, c.Pass)

	// STARTTLS is mandatory on 587 (Gmail/Office365).
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         c.Host,
		InsecureSkipVerify: c.SkipTLSVerify, // dev only
	}

	return d.DialAndSend(m)
}
