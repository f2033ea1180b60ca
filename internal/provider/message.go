package provider

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"time"
)

// Sender is the From identity of every campaign email.
type Sender struct {
	Address string
	Name    string
	ReplyTo string
}

// Message is a fully rendered email addressed to one recipient.
type Message struct {
	ID          string
	RecipientID string
	To          string
	ToName      string
	From        Sender
	Subject     string
	HTML        string
	Text        string
}

func (m *Message) fromHeader() string {
	return (&mail.Address{Name: m.From.Name, Address: m.From.Address}).String()
}

func (m *Message) toHeader() string {
	return (&mail.Address{Name: m.ToName, Address: m.To}).String()
}

// Raw encodes the message as RFC 5322 with a multipart/alternative body when a
// text part is present.
func (m *Message) Raw(domain string) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	header("From", m.fromHeader())
	header("To", m.toHeader())
	if m.From.ReplyTo != "" {
		header("Reply-To", m.From.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", m.ID, domain))
	header("MIME-Version", "1.0")

	if m.Text == "" {
		header("Content-Type", `text/html; charset="utf-8"`)
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, m.HTML); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ contentType, content string }{
		{`text/plain; charset="utf-8"`, m.Text},
		{`text/html; charset="utf-8"`, m.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		if err := writeQuotedPrintable(w, part.content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}

	header("Content-Type", fmt.Sprintf(`multipart/alternative; boundary="%s"`, mw.Boundary()))
	buf.WriteString("\r\n")
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

// writeQuotedPrintable keeps body lines under the SMTP line length limit.
func writeQuotedPrintable(w io.Writer, content string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(content)); err != nil {
		return fmt.Errorf("encode mime part: %w", err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("encode mime part: %w", err)
	}
	return nil
}
