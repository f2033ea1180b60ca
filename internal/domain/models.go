package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoEligibleRecipient = errors.New("no eligible recipient")
	ErrUnknownProvider     = errors.New("unknown email provider")
	ErrInvalidLimit        = errors.New("limit must be positive")
)

type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendGrid Provider = "sendgrid"
	ProviderSES      Provider = "ses"
	ProviderLog      Provider = "log"
)

func (p Provider) String() string {
	return string(p)
}

func (p Provider) IsValid() bool {
	switch p {
	case ProviderSMTP, ProviderSendGrid, ProviderSES, ProviderLog:
		return true
	}
	return false
}

// Recipient is the slice of a user the campaign engine reads and writes.
// LastMarketingEmailDate is nil while the user is still eligible.
type Recipient struct {
	ID                     string
	Email                  string
	FullName               string
	LastMarketingEmailDate *time.Time
}

// DailyStat is the per-day aggregate for the campaign. Date is the calendar
// day in the campaign time zone, stored as midnight UTC of that date.
type DailyStat struct {
	Date       time.Time `json:"date"`
	SentCount  int       `json:"sent_count"`
	OpenCount  int       `json:"open_count"`
	ClickCount int       `json:"click_count"`
}

type StatField string

const (
	StatSent  StatField = "sent_count"
	StatOpen  StatField = "open_count"
	StatClick StatField = "click_count"
)

type TrackingEventType string

const (
	TrackingOpen  TrackingEventType = "open"
	TrackingClick TrackingEventType = "click"
)

func (t TrackingEventType) IsValid() bool {
	return t == TrackingOpen || t == TrackingClick
}

func (t TrackingEventType) StatField() StatField {
	if t == TrackingClick {
		return StatClick
	}
	return StatOpen
}

// TrackingEvent is an open or click reported by a recipient's mail client.
type TrackingEvent struct {
	ID          string
	Type        TrackingEventType
	RecipientID string
	OccurredAt  time.Time
}

// TemplateContext holds the per-recipient values exposed to message templates.
type TemplateContext map[string]any

// RunResult summarises one campaign run. Sent counts only this run's sends.
type RunResult struct {
	RunID          string     `json:"run_id"`
	Sent           int        `json:"sent"`
	Failed         int        `json:"failed"`
	QuotaRemaining int        `json:"quota_remaining"`
	StopReason     StopReason `json:"stop_reason"`
}

type StopReason string

const (
	StopQuotaExhausted StopReason = "quota_exhausted"
	StopPoolExhausted  StopReason = "pool_exhausted"
	StopCanceled       StopReason = "canceled"
)

// ConfigurationError reports invalid or missing settings at start-up.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ProviderSendError is a failed delivery attempt for a single recipient.
type ProviderSendError struct {
	Provider    Provider
	RecipientID string
	StatusCode  int
	Err         error
}

func (e *ProviderSendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s send to recipient %s failed with status %d: %v", e.Provider, e.RecipientID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s send to recipient %s failed: %v", e.Provider, e.RecipientID, e.Err)
}

func (e *ProviderSendError) Unwrap() error {
	return e.Err
}

// PersistenceError means the store could not be reached or rejected an
// operation. It aborts a campaign run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
