package amqp091core

import (
	"github.com/amqp091core/amqp091core/internal/debug"
	"github.com/amqp091core/amqp091core/internal/encoding"
)

// Table and Properties are re-exported from internal/encoding so callers
// never need to import the internal package directly.
type Table = encoding.Table
type Properties = encoding.Properties

// QueueDeclareOptions mirrors queue.declare's argument list, minus the
// queue name and reserved ticket field.
type QueueDeclareOptions struct {
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  Table
}

// QueueInfo is the resolved value of a QueueDeclare confirmation.
type QueueInfo struct {
	Name          string
	MessageCount  uint32
	ConsumerCount uint32
}

// ConsumeOptions mirrors basic.consume's argument list.
type ConsumeOptions struct {
	NoLocal   bool
	NoAck     bool
	Exclusive bool
	NoWait    bool
	Arguments Table
}

// PublishOptions mirrors basic.publish's mandatory/immediate flags.
type PublishOptions struct {
	Mandatory bool
	Immediate bool
}

// Delivery is one fully-assembled message, produced when the channel
// status machine reaches Connected again after a deliver/get-ok + header +
// body sequence.
type Delivery struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
	Properties  Properties
	Body        []byte
}

// GetResult is the resolved value of a BasicGet confirmation. A nil
// *GetResult (the Confirmation's value itself, not this struct) represents
// get-empty; see Channel.BasicGet.
type GetResult struct {
	Delivery     Delivery
	MessageCount uint32
}

// DeliveryState is how the broker settled a publisher-confirmed delivery.
type DeliveryState int

const (
	DeliveryStateAcked DeliveryState = iota
	DeliveryStateNacked
)

func (s DeliveryState) String() string {
	if s == DeliveryStateAcked {
		return "acked"
	}
	return "nacked"
}

// pendingAssembly accumulates the body fragments of a delivery in
// progress, between the content header and the final body frame. It is
// cleared every time ChannelStatus returns to Connected.
type pendingAssembly struct {
	consumerTag string
	deliveryTag uint64
	redelivered bool
	exchange    string
	routingKey  string
	properties  Properties
	body        []byte
	forGet      bool
	getMsgCount uint32
}

// Consumer is a registered basic.consume subscription. Deliveries for its
// tag are pushed to Deliveries() as content assembly completes.
type Consumer struct {
	Tag   string
	Queue string

	deliveries chan Delivery
}

func newConsumer(queue, tag string) *Consumer {
	return &Consumer{Tag: tag, Queue: queue, deliveries: make(chan Delivery, 256)}
}

// Deliveries returns the channel deliveries for this consumer arrive on.
// It is closed when the consumer is cancelled.
func (c *Consumer) Deliveries() <-chan Delivery {
	return c.deliveries
}

// deliver pushes d to the consumer's channel without blocking the
// connection's single-threaded frame-handling path. A full buffer drops
// the delivery and logs; a well-behaved caller drains Deliveries promptly
// or sets a prefetch count with BasicQos.
func (c *Consumer) deliver(d Delivery) {
	select {
	case c.deliveries <- d:
	default:
		debug.Log(1, "amqp091core: consumer %q delivery buffer full, dropping delivery tag %d", c.Tag, d.DeliveryTag)
	}
}

func (c *Consumer) close() {
	close(c.deliveries)
}

// Queue is the channel-local record of a declared queue: its name and the
// consumers BasicConsume registered on it. Cancelling a consumer does not
// remove it from this record, and deliveries are routed by consumer tag,
// not through this record.
type Queue struct {
	Name      string
	consumers map[string]*Consumer
}

func newQueueRecord(name string) *Queue {
	return &Queue{Name: name, consumers: make(map[string]*Consumer)}
}
