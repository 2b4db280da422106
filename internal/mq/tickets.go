package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"table-service-go/internal/domain"
)

// Sender is the publishing half of Client.
type Sender interface {
	Publish(ctx context.Context, exchange, key string, body []byte) error
}

// RoutingKey is kitchen.<station>.<event>, e.g. kitchen.hot.queued.
func RoutingKey(ev domain.Event) string {
	name := ev.Type
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return "kitchen." + string(ev.Station) + "." + name
}

// Publisher forwards station events to the ticket exchange. Other events are
// ignored.
type Publisher struct {
	out      Sender
	exchange string
	log      *slog.Logger
	timeout  time.Duration
}

func NewPublisher(out Sender, exchange string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{out: out, exchange: exchange, log: logger, timeout: 3 * time.Second}
}

func (p *Publisher) Notify(ctx context.Context, ev domain.Event) {
	if !ev.Kitchen() {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("encode kitchen ticket", "type", ev.Type, "item_id", ev.ItemID, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	key := RoutingKey(ev)
	if err := p.out.Publish(ctx, p.exchange, key, body); err != nil {
		p.log.Error("publish kitchen ticket", "key", key, "item_id", ev.ItemID, "err", err)
		return
	}
	p.log.Debug("kitchen ticket published", "key", key, "item_id", ev.ItemID)
}

// Deliveries is the consuming half of Client.
type Deliveries interface {
	Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error)
}

// ConsumeTickets hands every ticket on queue to handle until ctx ends.
// Undecodable messages are dropped; handler failures are requeued.
func ConsumeTickets(ctx context.Context, src Deliveries, queue, consumer string, logger *slog.Logger, handle func(domain.Event) error) error {
	msgs, err := src.Consume(queue, consumer, 8)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consume %s: channel closed", queue)
			}
			var ev domain.Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				logger.Warn("dropping undecodable ticket", "routing_key", d.RoutingKey, "err", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := handle(ev); err != nil {
				logger.Warn("ticket handler failed", "routing_key", d.RoutingKey, "err", err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
