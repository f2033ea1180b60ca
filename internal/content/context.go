package content

import (
	"net/url"
	"strings"

	"github.com/driveshare/marketing-dispatch/internal/domain"
)

const (
	TrackOpenPath  = "/api/marketing/track/open"
	TrackClickPath = "/api/marketing/track/click"

	// RecipientParam carries the recipient ID on tracking URLs.
	RecipientParam = "rid"
)

// ContextBuilder produces the per-recipient template context.
type ContextBuilder struct {
	publicBaseURL string
	siteURL       string
	senderName    string
}

func NewContextBuilder(publicBaseURL, siteURL, senderName string) *ContextBuilder {
	return &ContextBuilder{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		siteURL:       siteURL,
		senderName:    senderName,
	}
}

func (b *ContextBuilder) Build(r domain.Recipient) domain.TemplateContext {
	return domain.TemplateContext{
		"recipient_id": r.ID,
		"email":        r.Email,
		"full_name":    r.FullName,
		"first_name":   FirstName(r.FullName),
		"site_url":     b.siteURL,
		"open_url":     b.trackingURL(TrackOpenPath, r.ID),
		"click_url":    b.trackingURL(TrackClickPath, r.ID),
		"sender_name":  b.senderName,
	}
}

func (b *ContextBuilder) trackingURL(path, recipientID string) string {
	q := url.Values{}
	q.Set(RecipientParam, recipientID)
	return b.publicBaseURL + path + "?" + q.Encode()
}

func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
