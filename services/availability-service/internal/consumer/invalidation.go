package consumer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// DefaultTopics carry the events that change a provider's free time.
var DefaultTopics = []string{
	"booking.appointment.booked.v1",
	"booking.appointment.cancelled.v1",
	"availability.rules.changed.v1",
}

// Invalidator drops cached slots for one provider.
type Invalidator interface {
	Invalidate(ctx context.Context, providerID string) error
}

// providerEvent accepts the provider reference under any of the names used by
// the booking tables over time.
type providerEvent struct {
	ServiceAgentID string `json:"service_agent_id"`
	ContractorID   string `json:"contractor_id"`
	ProviderID     string `json:"provider_id"`
}

func (e providerEvent) provider() string {
	for _, id := range []string{e.ServiceAgentID, e.ContractorID, e.ProviderID} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

// InvalidationHandler bumps the slot cache of the provider named in the
// event. Payloads without a provider are logged and dropped.
func InvalidationHandler(inv Invalidator, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt providerEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Warn("undecodable event dropped", "topic", msg.Topic, "offset", msg.Offset, "err", err)
			return nil
		}
		providerID := evt.provider()
		if providerID == "" {
			logger.Warn("event without provider dropped", "topic", msg.Topic, "offset", msg.Offset)
			return nil
		}
		if err := inv.Invalidate(ctx, providerID); err != nil {
			return err
		}
		logger.Debug("slot cache invalidated", "provider_id", providerID, "topic", msg.Topic)
		return nil
	}
}
