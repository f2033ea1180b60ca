// Package provider delivers campaign emails through the configured email
// service. The runner only sees Gateway; the transport behind it is picked
// once from configuration.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/config"
	"github.com/driveshare/marketing-dispatch/internal/content"
	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/logger"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// Transport performs exactly one delivery attempt. Implementations must not
// retry.
type Transport interface {
	Deliver(ctx context.Context, msg *Message) error
}

// StatusError is a non-success response from an HTTP email API.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider responded %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

type Gateway struct {
	provider  domain.Provider
	transport Transport
	renderer  *content.Renderer
	sender    Sender
	timeout   time.Duration
}

func NewGateway(provider domain.Provider, transport Transport, renderer *content.Renderer, sender Sender, timeout time.Duration) *Gateway {
	return &Gateway{
		provider:  provider,
		transport: transport,
		renderer:  renderer,
		sender:    sender,
		timeout:   timeout,
	}
}

// New builds the gateway for cfg.EmailProvider.
func New(ctx context.Context, cfg *config.Config, renderer *content.Renderer) (*Gateway, error) {
	var transport Transport
	switch p := cfg.Provider(); p {
	case domain.ProviderSMTP:
		transport = NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailSendTimeout)
	case domain.ProviderSendGrid:
		transport = NewSendGridTransport(cfg.SendGridAPIKey, cfg.SendGridBaseURL, cfg.EmailSendTimeout)
	case domain.ProviderSES:
		ses, err := NewSESTransport(ctx, cfg.SESRegion, cfg.SESAccessKey, cfg.SESSecretKey)
		if err != nil {
			return nil, &domain.ConfigurationError{Err: err}
		}
		transport = ses
	case domain.ProviderLog:
		transport = &LogTransport{}
	default:
		return nil, &domain.ConfigurationError{Err: fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.EmailProvider)}
	}

	sender := Sender{
		Address: cfg.EmailFromAddress,
		Name:    cfg.EmailFromName,
		ReplyTo: cfg.EmailReplyTo,
	}
	glog.Infof("Email provider %s selected, sending as %s", cfg.Provider(), logger.RedactEmail(sender.Address))
	return NewGateway(cfg.Provider(), transport, renderer, sender, cfg.EmailSendTimeout), nil
}

func (g *Gateway) Provider() domain.Provider {
	return g.provider
}

// Send renders the campaign email for r and hands it to the transport once.
// Every failure is returned as a *domain.ProviderSendError.
func (g *Gateway) Send(ctx context.Context, r domain.Recipient, tc domain.TemplateContext) error {
	if strings.TrimSpace(r.Email) == "" {
		return g.sendError(r, errors.New("recipient has no email address"))
	}

	rendered, err := g.renderer.Render(tc)
	if err != nil {
		return g.sendError(r, err)
	}

	msg := &Message{
		ID:          uuid.NewString(),
		RecipientID: r.ID,
		To:          r.Email,
		ToName:      r.FullName,
		From:        g.sender,
		Subject:     rendered.Subject,
		HTML:        rendered.HTML,
		Text:        rendered.Text,
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.transport.Deliver(ctx, msg); err != nil {
		return g.sendError(r, err)
	}

	glog.V(1).Infof("[%s] Sent to %s (id: %s)", g.provider, logger.RedactEmail(r.Email), msg.ID)
	return nil
}

func (g *Gateway) sendError(r domain.Recipient, err error) *domain.ProviderSendError {
	pse := &domain.ProviderSendError{
		Provider:    g.provider,
		RecipientID: r.ID,
		Err:         err,
	}
	var se *StatusError
	if errors.As(err, &se) {
		pse.StatusCode = se.StatusCode
	}
	return pse
}
