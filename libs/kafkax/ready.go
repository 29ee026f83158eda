package kafkax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReadyCheck passes when any broker accepts a connection and, if topics are
// given, the cluster knows all of them.
func ReadyCheck(brokers string, topics ...string) func(context.Context) error {
	return func(ctx context.Context) error {
		list := SplitBrokers(brokers)
		if len(list) == 0 {
			return errors.New("kafka brokers not configured")
		}

		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		var lastErr error
		for _, broker := range list {
			conn, err := dialer.DialContext(ctx, "tcp", broker)
			if err != nil {
				lastErr = err
				continue
			}
			err = checkTopics(ctx, conn, topics)
			_ = conn.Close()
			return err
		}
		return fmt.Errorf("no kafka broker reachable: %w", lastErr)
	}
}

func checkTopics(ctx context.Context, conn *kafka.Conn, topics []string) error {
	if len(topics) == 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	partitions, err := conn.ReadPartitions(topics...)
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}
	seen := make(map[string]bool, len(partitions))
	for _, p := range partitions {
		seen[p.Topic] = true
	}
	for _, topic := range topics {
		if !seen[topic] {
			return fmt.Errorf("topic %s not found", topic)
		}
	}
	return nil
}
