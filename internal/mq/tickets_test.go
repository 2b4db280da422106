package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"table-service-go/internal/domain"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type sent struct {
	exchange, key string
	body          []byte
	hasDeadline   bool
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (f *fakeSender) Publish(ctx context.Context, exchange, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := ctx.Deadline()
	f.msgs = append(f.msgs, sent{exchange: exchange, key: key, body: body, hasDeadline: ok})
	return f.err
}

func TestRoutingKey(t *testing.T) {
	cases := map[string]domain.Event{
		"kitchen.hot.queued":    {Type: domain.EventItemQueued, Station: domain.StationHot},
		"kitchen.cold.rushed":   {Type: domain.EventItemRushed, Station: domain.StationCold},
		"kitchen.hot.refunded":  {Type: domain.EventItemRefunded, Station: domain.StationHot},
		"kitchen.cold.status":   {Type: domain.EventItemStatus, Station: domain.StationCold},
		"kitchen.cold.untagged": {Type: "untagged", Station: domain.StationCold},
	}
	for want, ev := range cases {
		if got := RoutingKey(ev); got != want {
			t.Errorf("%s: got %s, want %s", ev.Type, got, want)
		}
	}
	if got := StationQueue(domain.StationHot); got != "kitchen.hot.q" {
		t.Fatalf("queue name %s", got)
	}
}

func TestPublisherForwardsKitchenEventsOnly(t *testing.T) {
	out := &fakeSender{}
	p := NewPublisher(out, "kitchen_topic", quiet)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // request already gone; the ticket must still go out
	p.Notify(ctx, domain.Event{Type: domain.EventTableStatus, TableID: 4})
	p.Notify(ctx, domain.Event{Type: domain.EventBillSettled, TableID: 4})
	p.Notify(ctx, domain.Event{Type: domain.EventItemQueued, TableID: 4, ItemID: 17, Station: domain.StationCold})

	if len(out.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(out.msgs))
	}
	m := out.msgs[0]
	if m.exchange != "kitchen_topic" || m.key != "kitchen.cold.queued" || !m.hasDeadline {
		t.Fatalf("message: %+v", m)
	}
	var ev domain.Event
	if err := json.Unmarshal(m.body, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.ItemID != 17 || ev.Station != domain.StationCold {
		t.Fatalf("body: %+v", ev)
	}

	out.err = errors.New("broker down")
	p.Notify(context.Background(), domain.Event{Type: domain.EventItemRushed, ItemID: 17, Station: domain.StationCold})
	if len(out.msgs) != 2 {
		t.Fatal("publish failure was not attempted")
	}
}

type ackLog struct {
	mu    sync.Mutex
	acks  []uint64
	nacks map[uint64]bool // tag -> requeue
}

func (a *ackLog) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *ackLog) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks[tag] = requeue
	return nil
}

func (a *ackLog) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

type fakeDeliveries struct {
	ch       chan amqp.Delivery
	prefetch int
}

func (f *fakeDeliveries) Consume(_, _ string, prefetch int) (<-chan amqp.Delivery, error) {
	f.prefetch = prefetch
	return f.ch, nil
}

func TestConsumeTickets(t *testing.T) {
	acks := &ackLog{nacks: map[uint64]bool{}}
	src := &fakeDeliveries{ch: make(chan amqp.Delivery, 4)}

	good, _ := json.Marshal(domain.Event{Type: domain.EventItemQueued, ItemID: 1, Station: domain.StationHot})
	poison, _ := json.Marshal(domain.Event{Type: domain.EventItemQueued, ItemID: 2, Station: domain.StationHot})
	src.ch <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: good}
	src.ch <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("{not json")}
	src.ch <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: poison}
	close(src.ch)

	var handled []int64
	err := ConsumeTickets(context.Background(), src, "kitchen.hot.q", "test", quiet, func(ev domain.Event) error {
		handled = append(handled, ev.ItemID)
		if ev.ItemID == 2 {
			return errors.New("printer jammed")
		}
		return nil
	})
	if err == nil {
		t.Fatal("closed delivery channel did not end the loop with an error")
	}
	if len(handled) != 2 || handled[0] != 1 || handled[1] != 2 {
		t.Fatalf("handled %v", handled)
	}
	if len(acks.acks) != 1 || acks.acks[0] != 1 {
		t.Fatalf("acks %v", acks.acks)
	}
	if requeue, ok := acks.nacks[2]; !ok || requeue {
		t.Fatalf("undecodable ticket: nacked=%v requeue=%v", ok, requeue)
	}
	if requeue, ok := acks.nacks[3]; !ok || !requeue {
		t.Fatalf("failed ticket: nacked=%v requeue=%v", ok, requeue)
	}
	if src.prefetch <= 0 {
		t.Fatalf("prefetch %d", src.prefetch)
	}
}

func TestConsumeTicketsStopsOnCancel(t *testing.T) {
	src := &fakeDeliveries{ch: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ConsumeTickets(ctx, src, "kitchen.cold.q", "test", quiet, func(domain.Event) error { return nil })
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled consumer returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("consumer ignored cancellation")
	}
}
