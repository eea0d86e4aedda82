// Package mailer sends the subscriber announcement through AWS SES.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/constants"
)

// Message is the announcement content. HTML is optional.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// LoadMessage reads the subject and body files named in cfg
func LoadMessage(cfg config.MailConfig) (Message, error) {
	text, err := os.ReadFile(filepath.Clean(cfg.BodyFile))
	if err != nil {
		return Message{}, fmt.Errorf("read body file: %w", err)
	}

	msg := Message{Subject: cfg.Subject, Text: string(text)}
	if cfg.HTMLBodyFile != "" {
		html, err := os.ReadFile(filepath.Clean(cfg.HTMLBodyFile))
		if err != nil {
			return Message{}, fmt.Errorf("read html body file: %w", err)
		}
		msg.HTML = string(html)
	}
	return msg, nil
}

// Summary counts the outcome of a SendAll run
type Summary struct {
	Sent    int
	Skipped int
	Failed  int
}

type Mailer struct {
	client  SESClient
	config  config.MailConfig
	message Message
	limiter *rate.Limiter
	logger  *zap.Logger
}

func New(client SESClient, cfg config.MailConfig, msg Message, logger *zap.Logger) *Mailer {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = constants.MailRatePerSecond
	}

	return &Mailer{
		client:  client,
		config:  cfg,
		message: msg,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		logger:  logger,
	}
}

// Send delivers the message to one recipient and returns the SES message ID
func (m *Mailer) Send(ctx context.Context, recipient string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", err
	}

	out, err := m.client.SendEmail(ctx, m.input(recipient))
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("send to %s: %s: %s: %w", recipient, apiErr.ErrorCode(), apiErr.ErrorMessage(), err)
		}
		return "", fmt.Errorf("send to %s: %w", recipient, err)
	}

	id := aws.ToString(out.MessageId)
	m.logger.Info("Email sent", zap.String("recipient", recipient), zap.String("message_id", id))
	return id, nil
}

// SendAll mails every address in the to-send list that is not in the done
// file, appending each delivered address to the done file. Failed sends are
// logged and left for the next run.
func (m *Mailer) SendAll(ctx context.Context) (Summary, error) {
	var summary Summary

	recipients, err := ReadRecipients(m.config.ToSendFile)
	if err != nil {
		return summary, err
	}
	done, err := readDone(m.config.DoneFile)
	if err != nil {
		return summary, err
	}

	doneLog, err := openDoneLog(m.config.DoneFile)
	if err != nil {
		return summary, err
	}
	defer doneLog.Close()

	for _, recipient := range recipients {
		if _, ok := done[recipient]; ok {
			m.logger.Info("Skipping recipient", zap.String("recipient", recipient))
			summary.Skipped++
			continue
		}

		if _, err := m.Send(ctx, recipient); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			m.logger.Error("Failed to send email", zap.String("recipient", recipient), zap.Error(err))
			summary.Failed++
			continue
		}

		if err := doneLog.mark(recipient); err != nil {
			return summary, err
		}
		done[recipient] = struct{}{}
		summary.Sent++
	}

	m.logger.Info("Mailing finished",
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (m *Mailer) input(recipient string) *sesv2.SendEmailInput {
	body := &types.Body{Text: content(m.message.Text)}
	if m.message.HTML != "" {
		body.Html = content(m.message.HTML)
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.config.Source()),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		ReplyToAddresses: m.config.ReplyTo,
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: content(m.message.Subject),
				Body:    body,
			},
		},
	}
}

func content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String(constants.MailCharset)}
}
