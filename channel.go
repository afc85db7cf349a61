package amqp091core

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/amqp091core/amqp091core/internal/encoding"
	"github.com/amqp091core/amqp091core/internal/frame"
	"github.com/amqp091core/amqp091core/internal/outbound"
	"github.com/amqp091core/amqp091core/internal/wireconst"
)

// frameOverhead is the non-payload byte count of a frame: type + channel +
// size + the trailing frame-end octet.
const frameOverhead = 1 + 2 + 4 + 1

// pendingReply is one outstanding synchronous RPC on a channel: resolve is
// invoked with the broker's reply method, fail when the channel is torn
// down before a reply arrives. AMQP 0-9-1 channels process RPCs one at a
// time in the order issued, so a FIFO of pending replies is sufficient.
type pendingReply struct {
	resolve func(encoding.Method) error
	fail    func(error)
}

// Channel is a multiplexed AMQP 0-9-1 channel, owning its queues,
// consumers and in-flight confirmations. Every RPC-shaped operation
// enqueues a method frame and returns a Confirmation resolved when (or if)
// the broker replies;
// BasicConsume returns a live Consumer immediately instead, since its
// deliveries are a stream rather than a single reply.
type Channel struct {
	mu sync.Mutex

	id     uint16
	status ChannelStatus

	sender   outbound.Sender
	frameMax uint32

	queues         map[string]*Queue
	consumersByTag map[string]*Consumer
	returns        chan Delivery

	pending []*pendingReply

	confirmMode     bool
	nextPublishSeq  uint64
	pendingConfirms map[uint64]*Confirmation[DeliveryState]

	pendingGet      *Confirmation[*GetResult]
	pendingGetQueue string

	assembly *pendingAssembly
}

func newChannel(id uint16, sender outbound.Sender, frameMax uint32) *Channel {
	return &Channel{
		id:              id,
		status:          NewChannelStatus(),
		sender:          sender,
		frameMax:        frameMax,
		queues:          make(map[string]*Queue),
		consumersByTag:  make(map[string]*Consumer),
		pendingConfirms: make(map[uint64]*Confirmation[DeliveryState]),
	}
}

// ID returns the channel's wire id.
func (ch *Channel) ID() uint16 { return ch.id }

// Status returns a snapshot of the channel's content-assembly state.
func (ch *Channel) Status() ChannelStatus {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.status
}

// NotifyReturn registers c to receive basic.return deliveries (published
// messages the broker could not route). The same channel is returned for
// chaining.
func (ch *Channel) NotifyReturn(c chan Delivery) chan Delivery {
	ch.mu.Lock()
	ch.returns = c
	ch.mu.Unlock()
	return c
}

func (ch *Channel) sendMethod(m encoding.Method) {
	ch.sender.Send(frame.Method{Channel: ch.id, Method: m})
}

func (ch *Channel) enqueueRPC(m encoding.Method, resolve func(encoding.Method) error, fail func(error)) {
	ch.mu.Lock()
	ch.pending = append(ch.pending, &pendingReply{resolve: resolve, fail: fail})
	ch.mu.Unlock()
	ch.sendMethod(m)
}

func (ch *Channel) popPending() *pendingReply {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.pending) == 0 {
		return nil
	}
	p := ch.pending[0]
	ch.pending = ch.pending[1:]
	return p
}

// Open emits channel.open and resolves once channel.open-ok arrives.
func (ch *Channel) Open() (*Confirmation[struct{}], error) {
	c := NewConfirmation[struct{}]()
	ch.mu.Lock()
	ch.status = ChannelStatus{Kind: ChannelStateConnecting}
	ch.mu.Unlock()
	ch.enqueueRPC(&encoding.ChannelOpen{}, func(reply encoding.Method) error {
		if _, ok := reply.(*encoding.ChannelOpenOk); !ok {
			err := errors.Errorf("unexpected reply to channel.open: %T", reply)
			c.Resolve(struct{}{}, err)
			return err
		}
		ch.mu.Lock()
		ch.status = ChannelStatus{Kind: ChannelStateConnected}
		ch.mu.Unlock()
		return c.Resolve(struct{}{}, nil)
	}, func(err error) { c.Resolve(struct{}{}, err) })
	return c, nil
}

// Close emits channel.close and resolves once channel.close-ok arrives.
func (ch *Channel) Close(code uint16, text string) (*Confirmation[struct{}], error) {
	c := NewConfirmation[struct{}]()
	ch.mu.Lock()
	ch.status = ChannelStatus{Kind: ChannelStateClosing}
	ch.mu.Unlock()
	ch.enqueueRPC(&encoding.ChannelClose{ReplyCode: code, ReplyText: text}, func(reply encoding.Method) error {
		if _, ok := reply.(*encoding.ChannelCloseOk); !ok {
			err := errors.Errorf("unexpected reply to channel.close: %T", reply)
			c.Resolve(struct{}{}, err)
			return err
		}
		ch.mu.Lock()
		ch.status = ChannelStatus{Kind: ChannelStateClosed}
		ch.mu.Unlock()
		return c.Resolve(struct{}{}, nil)
	}, func(err error) { c.Resolve(struct{}{}, err) })
	return c, nil
}

func (ch *Channel) QueueDeclare(name string, opts QueueDeclareOptions) (*Confirmation[QueueInfo], error) {
	c := NewConfirmation[QueueInfo]()
	m := &encoding.QueueDeclare{
		Queue: name, Passive: opts.Passive, Durable: opts.Durable,
		Exclusive: opts.Exclusive, AutoDelete: opts.AutoDelete,
		NoWait: opts.NoWait, Arguments: opts.Arguments,
	}
	if opts.NoWait {
		ch.sendMethod(m)
		ch.registerQueue(name)
		c.Resolve(QueueInfo{Name: name}, nil)
		return c, nil
	}
	ch.enqueueRPC(m, func(reply encoding.Method) error {
		ok, isOk := reply.(*encoding.QueueDeclareOk)
		if !isOk {
			err := errors.Errorf("unexpected reply to queue.declare: %T", reply)
			c.Resolve(QueueInfo{}, err)
			return err
		}
		ch.registerQueue(ok.Queue)
		return c.Resolve(QueueInfo{Name: ok.Queue, MessageCount: ok.MessageCount, ConsumerCount: ok.ConsumerCount}, nil)
	}, func(err error) { c.Resolve(QueueInfo{}, err) })
	return c, nil
}

func (ch *Channel) registerQueue(name string) {
	ch.mu.Lock()
	if _, ok := ch.queues[name]; !ok {
		ch.queues[name] = newQueueRecord(name)
	}
	ch.mu.Unlock()
}

func (ch *Channel) QueueBind(queue, exchange, routingKey string, noWait bool, args Table) (*Confirmation[struct{}], error) {
	return ch.simpleRPC(
		&encoding.QueueBind{Queue: queue, Exchange: exchange, RoutingKey: routingKey, NoWait: noWait, Arguments: args},
		noWait,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.QueueBindOk); return ok },
	)
}

func (ch *Channel) QueueUnbind(queue, exchange, routingKey string, args Table) (*Confirmation[struct{}], error) {
	return ch.simpleRPC(
		&encoding.QueueUnbind{Queue: queue, Exchange: exchange, RoutingKey: routingKey, Arguments: args},
		false,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.QueueUnbindOk); return ok },
	)
}

func (ch *Channel) QueuePurge(queue string, noWait bool) (*Confirmation[uint32], error) {
	c := NewConfirmation[uint32]()
	m := &encoding.QueuePurge{Queue: queue, NoWait: noWait}
	if noWait {
		ch.sendMethod(m)
		c.Resolve(0, nil)
		return c, nil
	}
	ch.enqueueRPC(m, func(reply encoding.Method) error {
		ok, isOk := reply.(*encoding.QueuePurgeOk)
		if !isOk {
			err := errors.Errorf("unexpected reply to queue.purge: %T", reply)
			c.Resolve(0, err)
			return err
		}
		return c.Resolve(ok.MessageCount, nil)
	}, func(err error) { c.Resolve(0, err) })
	return c, nil
}

func (ch *Channel) QueueDelete(queue string, ifUnused, ifEmpty, noWait bool) (*Confirmation[uint32], error) {
	c := NewConfirmation[uint32]()
	m := &encoding.QueueDelete{Queue: queue, IfUnused: ifUnused, IfEmpty: ifEmpty, NoWait: noWait}
	if noWait {
		ch.sendMethod(m)
		ch.forgetQueue(queue)
		c.Resolve(0, nil)
		return c, nil
	}
	ch.enqueueRPC(m, func(reply encoding.Method) error {
		ok, isOk := reply.(*encoding.QueueDeleteOk)
		if !isOk {
			err := errors.Errorf("unexpected reply to queue.delete: %T", reply)
			c.Resolve(0, err)
			return err
		}
		ch.forgetQueue(queue)
		return c.Resolve(ok.MessageCount, nil)
	}, func(err error) { c.Resolve(0, err) })
	return c, nil
}

func (ch *Channel) forgetQueue(name string) {
	ch.mu.Lock()
	delete(ch.queues, name)
	ch.mu.Unlock()
}

func (ch *Channel) ExchangeDeclare(name, kind string, passive, durable, autoDelete, internal, noWait bool, args Table) (*Confirmation[struct{}], error) {
	return ch.simpleRPC(
		&encoding.ExchangeDeclare{Exchange: name, Type: kind, Passive: passive, Durable: durable, AutoDelete: autoDelete, Internal: internal, NoWait: noWait, Arguments: args},
		noWait,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.ExchangeDeclareOk); return ok },
	)
}

func (ch *Channel) ExchangeDelete(name string, ifUnused, noWait bool) (*Confirmation[struct{}], error) {
	return ch.simpleRPC(
		&encoding.ExchangeDelete{Exchange: name, IfUnused: ifUnused, NoWait: noWait},
		noWait,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.ExchangeDeleteOk); return ok },
	)
}

func (ch *Channel) ExchangeBind(destination, source, routingKey string, noWait bool, args Table) (*Confirmation[struct{}], error) {
	return ch.simpleRPC(
		&encoding.ExchangeBind{Destination: destination, Source: source, RoutingKey: routingKey, NoWait: noWait, Arguments: args},
		noWait,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.ExchangeBindOk); return ok },
	)
}

func (ch *Channel) ExchangeUnbind(destination, source, routingKey string, noWait bool, args Table) (*Confirmation[struct{}], error) {
	return ch.simpleRPC(
		&encoding.ExchangeUnbind{Destination: destination, Source: source, RoutingKey: routingKey, NoWait: noWait, Arguments: args},
		noWait,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.ExchangeUnbindOk); return ok },
	)
}

func (ch *Channel) BasicQos(prefetchCount uint16, prefetchSize uint32, global bool) (*Confirmation[struct{}], error) {
	return ch.simpleRPC(
		&encoding.BasicQos{PrefetchSize: prefetchSize, PrefetchCount: prefetchCount, Global: global},
		false,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.BasicQosOk); return ok },
	)
}

func (ch *Channel) BasicCancel(tag string, noWait bool) (*Confirmation[struct{}], error) {
	c, err := ch.simpleRPC(
		&encoding.BasicCancel{ConsumerTag: tag, NoWait: noWait},
		noWait,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.BasicCancelOk); return ok },
	)
	ch.mu.Lock()
	consumer, ok := ch.consumersByTag[tag]
	delete(ch.consumersByTag, tag)
	ch.mu.Unlock()
	if ok {
		consumer.close()
	}
	return c, err
}

func (ch *Channel) Confirm(noWait bool) (*Confirmation[struct{}], error) {
	c, err := ch.simpleRPC(
		&encoding.ConfirmSelect{NoWait: noWait},
		noWait,
		func(reply encoding.Method) bool { _, ok := reply.(*encoding.ConfirmSelectOk); return ok },
	)
	ch.mu.Lock()
	ch.confirmMode = true
	ch.mu.Unlock()
	return c, err
}

// simpleRPC covers the common "send, wait for a no-field *Ok" shape shared
// by bind/unbind/declare/qos methods.
func (ch *Channel) simpleRPC(m encoding.Method, noWait bool, isOk func(encoding.Method) bool) (*Confirmation[struct{}], error) {
	c := NewConfirmation[struct{}]()
	if noWait {
		ch.sendMethod(m)
		c.Resolve(struct{}{}, nil)
		return c, nil
	}
	ch.enqueueRPC(m, func(reply encoding.Method) error {
		if !isOk(reply) {
			err := errors.Errorf("unexpected reply to %T: %T", m, reply)
			c.Resolve(struct{}{}, err)
			return err
		}
		return c.Resolve(struct{}{}, nil)
	}, func(err error) { c.Resolve(struct{}{}, err) })
	return c, nil
}

// BasicConsume registers a Consumer and emits basic.consume. A Consumer is
// returned immediately rather than via a Confirmation: its Deliveries
// channel is the live result, and deliveries for its tag begin flowing as
// soon as the broker starts pushing them.
func (ch *Channel) BasicConsume(queue, tag string, opts ConsumeOptions) (*Consumer, error) {
	if tag == "" {
		tag = newConsumerTag()
	}
	consumer := newConsumer(queue, tag)

	ch.mu.Lock()
	ch.consumersByTag[tag] = consumer
	if q, ok := ch.queues[queue]; ok {
		q.consumers[tag] = consumer
	}
	ch.mu.Unlock()

	m := &encoding.BasicConsume{
		Queue: queue, ConsumerTag: tag, NoLocal: opts.NoLocal, NoAck: opts.NoAck,
		Exclusive: opts.Exclusive, NoWait: opts.NoWait, Arguments: opts.Arguments,
	}
	if opts.NoWait {
		ch.sendMethod(m)
		return consumer, nil
	}
	ch.enqueueRPC(m, func(reply encoding.Method) error {
		if _, ok := reply.(*encoding.BasicConsumeOk); !ok {
			return errors.Errorf("unexpected reply to basic.consume: %T", reply)
		}
		return nil
	}, func(error) {})
	return consumer, nil
}

// BasicGet issues basic.get; the Confirmation resolves with a nil
// *GetResult on get-empty.
func (ch *Channel) BasicGet(queue string, noAck bool) (*Confirmation[*GetResult], error) {
	c := NewConfirmation[*GetResult]()
	ch.mu.Lock()
	if ch.pendingGet != nil {
		ch.mu.Unlock()
		return nil, ErrInvalidState
	}
	ch.pendingGet = c
	ch.pendingGetQueue = queue
	ch.mu.Unlock()
	ch.sendMethod(&encoding.BasicGet{Queue: queue, NoAck: noAck})
	return c, nil
}

func (ch *Channel) BasicAck(deliveryTag uint64, multiple bool) {
	ch.sendMethod(&encoding.BasicAck{DeliveryTag: deliveryTag, Multiple: multiple})
}

func (ch *Channel) BasicNack(deliveryTag uint64, multiple, requeue bool) {
	ch.sendMethod(&encoding.BasicNack{DeliveryTag: deliveryTag, Multiple: multiple, Requeue: requeue})
}

func (ch *Channel) BasicReject(deliveryTag uint64, requeue bool) {
	ch.sendMethod(&encoding.BasicReject{DeliveryTag: deliveryTag, Requeue: requeue})
}

// BasicPublish emits basic.publish, the content header, and body fragments
// no larger than the negotiated frame-max, walking the channel through
// SendingContent and back to Connected. In publisher-confirms mode it
// allocates a per-delivery-tag Confirmation resolved by a later
// basic.ack/basic.nack.
func (ch *Channel) BasicPublish(exchange, routingKey string, props Properties, body []byte, opts PublishOptions) (*Confirmation[DeliveryState], error) {
	ch.mu.Lock()
	if ch.status.Kind != ChannelStateConnected {
		ch.mu.Unlock()
		return nil, ErrInvalidState
	}
	ch.status = ch.status.OnPublish(uint64(len(body)))

	var confirmation *Confirmation[DeliveryState]
	if ch.confirmMode {
		ch.nextPublishSeq++
		confirmation = NewConfirmation[DeliveryState]()
		ch.pendingConfirms[ch.nextPublishSeq] = confirmation
	}
	ch.mu.Unlock()

	ch.sendMethod(&encoding.BasicPublish{Exchange: exchange, RoutingKey: routingKey, Mandatory: opts.Mandatory, Immediate: opts.Immediate})
	ch.sender.Send(frame.Header{Channel: ch.id, ClassID: wireconst.ClassBasic, BodySize: uint64(len(body)), Properties: props})

	maxFragment := int(ch.frameMax) - frameOverhead
	if maxFragment <= 0 {
		maxFragment = len(body)
		if maxFragment == 0 {
			maxFragment = 1
		}
	}

	remaining := body
	for len(remaining) > 0 {
		n := len(remaining)
		if n > maxFragment {
			n = maxFragment
		}
		fragment := remaining[:n]
		ch.sender.Send(frame.Body{Channel: ch.id, Payload: fragment})
		ch.mu.Lock()
		ch.status = ch.status.OnBodyEmitted(uint64(len(fragment)))
		ch.mu.Unlock()
		remaining = remaining[n:]
	}

	return confirmation, nil
}

func (ch *Channel) resolveConfirms(tag uint64, multiple bool, state DeliveryState) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if multiple {
		for seq, c := range ch.pendingConfirms {
			if seq <= tag {
				c.Resolve(state, nil)
				delete(ch.pendingConfirms, seq)
			}
		}
		return
	}
	if c, ok := ch.pendingConfirms[tag]; ok {
		c.Resolve(state, nil)
		delete(ch.pendingConfirms, tag)
	}
}

// ReceiveMethod dispatches one channel-level method: broker-pushed methods
// (deliver, return, cancel, ack/nack, close) are handled directly; every
// other reply is matched against the oldest pending RPC.
func (ch *Channel) ReceiveMethod(m encoding.Method) error {
	switch mm := m.(type) {
	case *encoding.BasicDeliver:
		ch.mu.Lock()
		queueName := ""
		if c, ok := ch.consumersByTag[mm.ConsumerTag]; ok {
			queueName = c.Queue
		}
		ch.assembly = &pendingAssembly{
			consumerTag: mm.ConsumerTag, deliveryTag: mm.DeliveryTag,
			redelivered: mm.Redelivered, exchange: mm.Exchange, routingKey: mm.RoutingKey,
		}
		ch.status = ch.status.OnDeliverLike(queueName, mm.ConsumerTag)
		errored := ch.status.Kind == ChannelStateError
		ch.mu.Unlock()
		if errored {
			return errors.Errorf("unexpected basic.deliver on channel %d", ch.id)
		}
		return nil

	case *encoding.BasicGetOk:
		ch.mu.Lock()
		ch.assembly = &pendingAssembly{
			deliveryTag: mm.DeliveryTag, redelivered: mm.Redelivered,
			exchange: mm.Exchange, routingKey: mm.RoutingKey,
			forGet: true, getMsgCount: mm.MessageCount,
		}
		ch.status = ch.status.OnDeliverLike(ch.pendingGetQueue, "")
		errored := ch.status.Kind == ChannelStateError
		ch.mu.Unlock()
		if errored {
			return errors.Errorf("unexpected basic.get-ok on channel %d", ch.id)
		}
		return nil

	case *encoding.BasicGetEmpty:
		ch.mu.Lock()
		g := ch.pendingGet
		ch.pendingGet = nil
		ch.mu.Unlock()
		if g != nil {
			g.Resolve(nil, nil)
		}
		return nil

	case *encoding.BasicReturn:
		ch.mu.Lock()
		ch.assembly = &pendingAssembly{exchange: mm.Exchange, routingKey: mm.RoutingKey}
		ch.status = ch.status.OnDeliverLike("", "")
		errored := ch.status.Kind == ChannelStateError
		ch.mu.Unlock()
		if errored {
			return errors.Errorf("unexpected basic.return on channel %d", ch.id)
		}
		return nil

	case *encoding.BasicAck:
		ch.resolveConfirms(mm.DeliveryTag, mm.Multiple, DeliveryStateAcked)
		return nil

	case *encoding.BasicNack:
		ch.resolveConfirms(mm.DeliveryTag, mm.Multiple, DeliveryStateNacked)
		return nil

	case *encoding.BasicCancel:
		ch.mu.Lock()
		consumer, ok := ch.consumersByTag[mm.ConsumerTag]
		delete(ch.consumersByTag, mm.ConsumerTag)
		ch.mu.Unlock()
		if ok {
			consumer.close()
		}
		if !mm.NoWait {
			ch.sendMethod(&encoding.BasicCancelOk{ConsumerTag: mm.ConsumerTag})
		}
		return nil

	case *encoding.ChannelClose:
		ch.mu.Lock()
		ch.status = ChannelStatus{Kind: ChannelStateClosed}
		ch.mu.Unlock()
		ch.sendMethod(&encoding.ChannelCloseOk{})
		return &ProtocolError{Code: mm.ReplyCode, Message: mm.ReplyText, ClassID: mm.ClassId, MethodID: mm.MethodId}

	default:
		p := ch.popPending()
		if p == nil {
			return nil
		}
		return p.resolve(m)
	}
}

// HandleContentHeaderFrame drives the content-assembly state from
// WillReceiveContent onward; a zero body size completes the delivery
// immediately.
func (ch *Channel) HandleContentHeaderFrame(bodySize uint64, props Properties) error {
	ch.mu.Lock()
	newStatus, done := ch.status.OnContentHeader(bodySize)
	ch.status = newStatus
	if ch.assembly != nil {
		ch.assembly.properties = props
	}
	errored := newStatus.Kind == ChannelStateError
	ch.mu.Unlock()
	if errored {
		return errors.Errorf("unexpected content header on channel %d", ch.id)
	}
	if done {
		ch.completeAssembly()
	}
	return nil
}

// HandleBodyFrame appends payload to the assembly buffer and delivers on
// completion.
func (ch *Channel) HandleBodyFrame(payload []byte) error {
	ch.mu.Lock()
	if ch.assembly != nil {
		ch.assembly.body = append(ch.assembly.body, payload...)
	}
	newStatus, done := ch.status.OnBody(uint64(len(payload)))
	ch.status = newStatus
	errored := newStatus.Kind == ChannelStateError
	ch.mu.Unlock()
	if errored {
		return errors.Errorf("unexpected body frame on channel %d", ch.id)
	}
	if done {
		ch.completeAssembly()
	}
	return nil
}

func (ch *Channel) completeAssembly() {
	ch.mu.Lock()
	a := ch.assembly
	ch.assembly = nil
	returns := ch.returns
	var consumer *Consumer
	var getConfirmation *Confirmation[*GetResult]
	if a != nil {
		if a.forGet {
			getConfirmation = ch.pendingGet
			ch.pendingGet = nil
		} else if a.consumerTag != "" {
			consumer = ch.consumersByTag[a.consumerTag]
		}
	}
	ch.mu.Unlock()

	if a == nil {
		return
	}
	d := Delivery{
		ConsumerTag: a.consumerTag, DeliveryTag: a.deliveryTag, Redelivered: a.redelivered,
		Exchange: a.exchange, RoutingKey: a.routingKey, Properties: a.properties, Body: a.body,
	}
	switch {
	case a.forGet:
		if getConfirmation != nil {
			getConfirmation.Resolve(&GetResult{Delivery: d, MessageCount: a.getMsgCount}, nil)
		}
	case consumer != nil:
		consumer.deliver(d)
	case returns != nil:
		select {
		case returns <- d:
		default:
		}
	}
}

// failPending resolves every confirmation this channel still owns with
// err, used when the channel or its connection transitions to Error or
// Closed. Every waiter hears the terminal error before the channel is
// abandoned.
func (ch *Channel) failPending(err error) {
	ch.mu.Lock()
	pending := ch.pending
	ch.pending = nil
	confirms := ch.pendingConfirms
	ch.pendingConfirms = make(map[uint64]*Confirmation[DeliveryState])
	get := ch.pendingGet
	ch.pendingGet = nil
	ch.status = ChannelStatus{Kind: ChannelStateError}
	ch.mu.Unlock()

	for _, p := range pending {
		p.fail(err)
	}
	for _, c := range confirms {
		c.Resolve(DeliveryStateNacked, err)
	}
	if get != nil {
		get.Resolve(nil, err)
	}
}
