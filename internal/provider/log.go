package provider

import (
	"context"

	"github.com/driveshare/marketing-dispatch/internal/logger"
	"github.com/golang/glog"
)

// LogTransport only logs messages. Meant for local development.
type LogTransport struct{}

func (l *LogTransport) Deliver(ctx context.Context, msg *Message) error {
	glog.Infof("LogTransport.Deliver called with: to: %s, subject: '%s', recipient: '%s', from: '%s'",
		logger.RedactEmail(msg.To), msg.Subject, msg.RecipientID, msg.From.Address)
	return nil
}
