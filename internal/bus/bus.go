package bus

import (
	"context"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler receives every frame published to a room, on every process
// bound to the exchange, including the publishing process itself.
type Handler func(roomKey string, payload []byte)

// Bus carries room broadcasts between server processes. A publish on one
// process must reach members connected to another, so the hub never
// fans out directly: it publishes here and delivers on the way back.
type Bus interface {
	Publish(ctx context.Context, roomKey string, payload []byte) error
	Close() error
}

// New builds a RabbitMQ bus, or a local in-process bus when AMQP is not
// configured or unreachable.
func New(amqpURL, exchange string, handler Handler) Bus {
	if amqpURL == "" {
		log.Printf("broadcast bus in local mode: empty amqp url")
		return &localBus{handler: handler}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("broadcast bus in local mode: %v", err)
		return &localBus{handler: handler}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("broadcast bus in local mode: %v", err)
		_ = conn.Close()
		return &localBus{handler: handler}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", false, false, false, false, nil); err != nil {
		log.Printf("broadcast bus in local mode: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return &localBus{handler: handler}
	}

	// Exclusive auto-deleted queue per process, bound to every room.
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err == nil {
		err = ch.QueueBind(queue.Name, "#", exchange, false, nil)
	}
	if err != nil {
		log.Printf("broadcast bus in local mode: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return &localBus{handler: handler}
	}

	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		log.Printf("broadcast bus in local mode: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return &localBus{handler: handler}
	}

	b := &amqpBus{conn: conn, ch: ch, exchange: exchange, handler: handler}
	go b.consume(deliveries)

	log.Printf("broadcast bus connected exchange=%s queue=%s", exchange, queue.Name)
	return b
}

type amqpBus struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	handler  Handler
}

func (b *amqpBus) Publish(ctx context.Context, roomKey string, payload []byte) error {
	err := b.ch.PublishWithContext(ctx, b.exchange, roomKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
		Timestamp:   time.Now(),
	})
	if err != nil {
		log.Printf("broadcast publish failed room=%s: %v", roomKey, err)
	}
	return err
}

func (b *amqpBus) consume(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		b.handler(d.RoutingKey, d.Body)
	}
}

func (b *amqpBus) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// localBus hands frames straight back to the handler. Publishes to the
// same room serialize on the hub's per-room lock during delivery, which
// preserves the per-room total order.
type localBus struct {
	handler Handler
}

func (b *localBus) Publish(_ context.Context, roomKey string, payload []byte) error {
	b.handler(roomKey, payload)
	return nil
}

func (b *localBus) Close() error {
	return nil
}

// Mode reports the bus mode for startup logging.
func Mode(b Bus) string {
	switch b.(type) {
	case *amqpBus:
		return "amqp"
	case *localBus:
		return "local"
	default:
		return "unknown"
	}
}
