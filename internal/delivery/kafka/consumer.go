package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/golang/glog"
	"github.com/twmb/franz-go/pkg/kgo"
)

type eventApplier interface {
	ApplyEvents(ctx context.Context, events []domain.TrackingEvent) error
}

// Consumer applies tracking events to the daily stats. Records that cannot be
// decoded or applied are copied to the dead-letter topic.
type Consumer struct {
	client   *kgo.Client
	producer producer
	stats    eventApplier
	ready    chan struct{}
}

func NewConsumer(client *kgo.Client, stats eventApplier) *Consumer {
	return &Consumer{
		client:   client,
		producer: client,
		stats:    stats,
		ready:    make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	close(c.ready)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			glog.Warningf("Consumer poll errors: %v", errs)
		}

		commit := c.processRecords(ctx, fetches.Records())
		if len(commit) == 0 {
			continue
		}
		if err := c.client.CommitRecords(ctx, commit...); err != nil {
			glog.Errorf("Failed to commit records: %v", err)
		}
	}
}

func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

type partitionKey struct {
	topic     string
	partition int32
}

// processRecords applies a batch and returns the records that may be
// committed. A record that could be neither applied nor dead-lettered holds
// back the commit of its partition from that offset on.
func (c *Consumer) processRecords(ctx context.Context, records []*kgo.Record) []*kgo.Record {
	var (
		events []domain.TrackingEvent
		valid  []*kgo.Record
	)
	lost := make(map[partitionKey]int64)
	deadLetter := func(record *kgo.Record, reason string) {
		if err := c.sendToDLQ(ctx, record, reason); err != nil {
			glog.Errorf("Tracking record %s/%d@%d left uncommitted: %v", record.Topic, record.Partition, record.Offset, err)
			key := partitionKey{record.Topic, record.Partition}
			if off, ok := lost[key]; !ok || record.Offset < off {
				lost[key] = record.Offset
			}
		}
	}

	for _, record := range records {
		event, err := decodeRecord(record)
		if err != nil {
			glog.Warningf("Dropping tracking record at %s/%d@%d: %v", record.Topic, record.Partition, record.Offset, err)
			deadLetter(record, err.Error())
			continue
		}
		events = append(events, event)
		valid = append(valid, record)
	}

	if len(events) > 0 {
		if err := c.stats.ApplyEvents(ctx, events); err != nil {
			glog.Errorf("Failed to apply %d tracking events: %v", len(events), err)
			for _, record := range valid {
				deadLetter(record, err.Error())
			}
		}
	}

	if len(lost) == 0 {
		return records
	}
	commit := make([]*kgo.Record, 0, len(records))
	for _, record := range records {
		if off, ok := lost[partitionKey{record.Topic, record.Partition}]; ok && record.Offset >= off {
			continue
		}
		commit = append(commit, record)
	}
	return commit
}

func decodeRecord(record *kgo.Record) (domain.TrackingEvent, error) {
	var payload TrackingEventPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		return domain.TrackingEvent{}, fmt.Errorf("invalid payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return domain.TrackingEvent{}, err
	}
	return payload.Event(), nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, record *kgo.Record, message string) error {
	dlqRecord := &kgo.Record{
		Topic: record.Topic + TopicDLQSuffix,
		Key:   record.Key,
		Value: record.Value,
		Headers: []kgo.RecordHeader{
			{Key: ErrorHeaderKey, Value: []byte(message)},
		},
	}
	if err := c.producer.ProduceSync(ctx, dlqRecord).FirstErr(); err != nil {
		return fmt.Errorf("publish to %s: %w", dlqRecord.Topic, err)
	}
	return nil
}
