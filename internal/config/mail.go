package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leslieo2/tioga-health/internal/constants"
)

// MailConfig configures the subscriber announcement mailer
type MailConfig struct {
	Region        string   `json:"region" yaml:"region"`
	Sender        string   `json:"sender" yaml:"sender"`
	SenderName    string   `json:"sender_name" yaml:"sender_name"`
	ReplyTo       []string `json:"reply_to" yaml:"reply_to"`
	Subject       string   `json:"subject" yaml:"subject"`
	BodyFile      string   `json:"body_file" yaml:"body_file"`
	HTMLBodyFile  string   `json:"html_body_file" yaml:"html_body_file"`
	ToSendFile    string   `json:"to_send_file" yaml:"to_send_file"`
	DoneFile      string   `json:"done_file" yaml:"done_file"`
	RatePerSecond int      `json:"rate_per_second" yaml:"rate_per_second"`
}

// DefaultMailConfig returns default mail configuration
func DefaultMailConfig() MailConfig {
	return MailConfig{
		Region:        "us-west-2",
		Sender:        "noreply@email.istiogaopen.com",
		SenderName:    "Tioga Updates",
		ReplyTo:       []string{"istiogaopen@gmail.com"},
		ToSendFile:    "to_send.txt",
		DoneFile:      "done_sending.txt",
		RatePerSecond: constants.MailRatePerSecond,
	}
}

// Validate validates the mail configuration. It is only called by the mail tool.
func (m *MailConfig) Validate() error {
	var errs []error

	if m.Region == "" {
		errs = append(errs, errors.New("region cannot be empty"))
	}
	if !strings.Contains(m.Sender, "@") {
		errs = append(errs, fmt.Errorf("invalid sender address: %q", m.Sender))
	}
	if m.Subject == "" {
		errs = append(errs, errors.New("subject cannot be empty"))
	}
	if m.BodyFile == "" {
		errs = append(errs, errors.New("body_file cannot be empty"))
	}
	if m.ToSendFile == "" || m.DoneFile == "" {
		errs = append(errs, errors.New("to_send_file and done_file are required"))
	}
	if m.RatePerSecond <= 0 {
		errs = append(errs, errors.New("rate_per_second must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Source returns the SES source header, e.g. "Tioga Updates <noreply@...>"
func (m *MailConfig) Source() string {
	if m.SenderName == "" {
		return m.Sender
	}
	return fmt.Sprintf("%s <%s>", m.SenderName, m.Sender)
}
