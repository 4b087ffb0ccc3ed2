package common

import (
	"log"
	"os"

	"tourops/src/lib"

	"github.com/tidwall/gjson"
)

// EmailQueueConsumer drains the email queue and hands each message to the
// SMTP client.
func EmailQueueConsumer() {
	emailQueue := os.Getenv("EMAIL_QUEUE")
	if emailQueue == "" {
		emailQueue = "emails-to-send"
	}
	lib.KafkaConsume("email-sender", []string{emailQueue}, func(topic string, body string) {
		var to, bcc []string
		for _, v := range gjson.Get(body, "to").Array() {
			to = append(to, v.String())
		}
		for _, v := range gjson.Get(body, "bcc").Array() {
			bcc = append(bcc, v.String())
		}
		input := &lib.SendMailInput{
			From:     gjson.Get(body, "from").String(),
			FromName: gjson.Get(body, "from-name").String(),
			To:       to,
			Bcc:      bcc,
			Subject:  gjson.Get(body, "subject").String(),
			Body:     gjson.Get(body, "body").String(),
			Html:     gjson.Get(body, "html").Bool(),
		}
		if err := lib.SendMail(input); err != nil {
			log.Printf("[EmailQueueConsumer] Could not send email: %s\n", err.Error())
		}
	})
}
