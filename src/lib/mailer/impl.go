package mailer

import (
	"fmt"
	"os"
	"tourops/src/lib"
	"tourops/src/types"
)

// NewMailerMessage hands the email off to the notification queue; the
// consumer in src/common delivers it. Fire-and-forget for callers.
func NewMailerMessage(input *lib.SendMailInput) error {
	emailQueue := os.Getenv("EMAIL_QUEUE")
	if emailQueue == "" {
		emailQueue = "emails-to-send"
	}
	emailBody := types.JSONB{
		"from":      input.From,
		"from-name": input.FromName,
		"to":        input.To,
		"bcc":       input.Bcc,
		"body":      input.Body,
		"html":      input.Html,
		"subject":   input.Subject,
	}
	if err := lib.KafkaProduceMessage("emails", emailQueue, emailBody); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}
