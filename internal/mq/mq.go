// Package mq carries kitchen tickets over RabbitMQ: the API publishes item
// events to a topic exchange and station printers consume their own queue.
package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"table-service-go/internal/domain"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	mu sync.Mutex // channels are not safe for concurrent publishing
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) DeclareExchange(name string) error {
	return c.ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

func (c *Client) Publish(ctx context.Context, exchange, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

// StationQueue is the durable queue a station's ticket printer reads.
func StationQueue(st domain.Station) string { return "kitchen." + string(st) + ".q" }

// BindStation declares the station queue and binds it to every ticket for
// that station.
func (c *Client) BindStation(exchange string, st domain.Station) (string, error) {
	q := StationQueue(st)
	if _, err := c.ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("queue declare %s: %w", q, err)
	}
	if err := c.ch.QueueBind(q, "kitchen."+string(st)+".*", exchange, false, nil); err != nil {
		return "", fmt.Errorf("queue bind %s: %w", q, err)
	}
	return q, nil
}

func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}
