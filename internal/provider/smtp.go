package provider

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
)

const implicitTLSPort = 465

// SMTPTransport relays each message through an SMTP server in a fresh
// connection. STARTTLS is used whenever the server offers it.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	dialer   *net.Dialer
}

func NewSMTPTransport(host string, port int, username, password string, timeout time.Duration) *SMTPTransport {
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		dialer:   &net.Dialer{Timeout: timeout},
	}
}

func (t *SMTPTransport) Deliver(ctx context.Context, msg *Message) error {
	raw, err := msg.Raw(t.messageIDDomain(msg.From.Address))
	if err != nil {
		return err
	}

	client, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(msg.From.Address); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("DATA close: %w", err)
	}
	// The relay has accepted the message once DATA is closed.
	if err := client.Quit(); err != nil {
		glog.Warningf("SMTP QUIT to %s failed after message %s was accepted: %v", t.host, msg.ID, err)
	}
	return nil
}

func (t *SMTPTransport) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))

	var (
		conn net.Conn
		err  error
	)
	if t.port == implicitTLSPort {
		d := &tls.Dialer{NetDialer: t.dialer, Config: &tls.Config{ServerName: t.host}}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = t.dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("SMTP connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, t.host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP client: %w", err)
	}

	if t.port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
				c.Close()
				return nil, fmt.Errorf("STARTTLS: %w", err)
			}
		}
	}

	if t.username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			c.Close()
			return nil, errors.New("SMTP server does not support AUTH")
		}
		if err := c.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
			c.Close()
			return nil, fmt.Errorf("AUTH: %w", err)
		}
	}
	return c, nil
}

func (t *SMTPTransport) messageIDDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return t.host
}
