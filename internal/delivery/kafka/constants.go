package kafka

import "time"

const (
	TopicTrackingEvents = "marketing.tracking.events"
	TopicDLQSuffix      = ".dlq"

	PublishTimeout = 3 * time.Second

	ErrorHeaderKey = "x-error"
)
