package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/driveshare/marketing-dispatch/internal/config"
	"github.com/golang/glog"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

func EnsureTopics(ctx context.Context, client *kgo.Client, cfg *config.Config) error {
	adm := kadm.NewClient(client)

	topics := map[string]int{
		TopicTrackingEvents:                  cfg.TopicPartitions(),
		TopicTrackingEvents + TopicDLQSuffix: 1,
	}
	replicationFactor := cfg.ReplicationFactor()

	for topic, partitions := range topics {
		resp, err := adm.CreateTopics(ctx, int32(partitions), replicationFactor, nil, topic)
		if err != nil {
			return fmt.Errorf("failed to create topic %s: %w", topic, err)
		}
		for _, detail := range resp {
			if detail.Err != nil && !strings.Contains(detail.Err.Error(), "already exists") {
				return fmt.Errorf("failed to create topic %s: %w", detail.Topic, detail.Err)
			}
		}
	}

	glog.Info("All tracking topics ensured")
	return nil
}
