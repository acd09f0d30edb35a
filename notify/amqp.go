package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fymoney/ledger/client"
	"github.com/fymoney/ledger/errors"
	"github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the durable topic exchange the notifier declares
// and publishes to.
const DefaultExchange = "escrow_events"

const (
	routeCreated   = "escrow.created"
	routeClaimed   = "escrow.claimed"
	routeReclaimed = "escrow.reclaimed"
)

const dialTimeout = 10 * time.Second

// payload is the JSON body of one notification.
type payload struct {
	EscrowAddress string    `json:"escrow_address"`
	Sender        string    `json:"sender"`
	RecipientID   string    `json:"recipient_id,omitempty"`
	Recipient     string    `json:"recipient,omitempty"`
	Amount        int64     `json:"amount"`
	Ticker        string    `json:"ticker"`
	ExpiresAt     int64     `json:"expires_at"`
	Nonce         uint64    `json:"nonce"`
	Timestamp     time.Time `json:"timestamp"`
}

func newPayload(ev client.Event) payload {
	p := payload{
		EscrowAddress: ev.EscrowAddress.String(),
		Sender:        ev.Sender.String(),
		RecipientID:   ev.RecipientID,
		Amount:        ev.Amount.Amount,
		Ticker:        ev.Amount.Ticker,
		ExpiresAt:     int64(ev.ExpiresAt),
		Nonce:         ev.Nonce,
		Timestamp:     time.Now().UTC(),
	}
	if ev.Recipient != nil {
		p.Recipient = ev.Recipient.String()
	}
	return p
}

// AMQPNotifier publishes transfer events to a RabbitMQ topic exchange.
// It implements client.Observer.
type AMQPNotifier struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

var _ client.Observer = (*AMQPNotifier)(nil)

// DialAMQP connects to the broker and declares the exchange. An empty
// exchange name selects DefaultExchange.
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.DialConfig(url, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, errors.Wrap(err, "dial broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	return &AMQPNotifier{conn: conn, channel: ch, exchange: exchange}, nil
}

// Close releases the channel and the connection.
func (n *AMQPNotifier) Close() error {
	n.channel.Close()
	return n.conn.Close()
}

func (n *AMQPNotifier) EscrowCreated(ctx context.Context, ev client.Event) error {
	return n.publish(ctx, routeCreated, ev)
}

func (n *AMQPNotifier) EscrowClaimed(ctx context.Context, ev client.Event) error {
	return n.publish(ctx, routeClaimed, ev)
}

func (n *AMQPNotifier) EscrowReclaimed(ctx context.Context, ev client.Event) error {
	return n.publish(ctx, routeReclaimed, ev)
}

func (n *AMQPNotifier) publish(ctx context.Context, routingKey string, ev client.Event) error {
	body, err := json.Marshal(newPayload(ev))
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	err = n.channel.PublishWithContext(ctx, n.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	return errors.Wrapf(err, "publish %s", routingKey)
}
