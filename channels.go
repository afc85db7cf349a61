package amqp091core

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/amqp091core/amqp091core/internal/encoding"
	"github.com/amqp091core/amqp091core/internal/frame"
	"github.com/amqp091core/amqp091core/internal/outbound"
)

// Channels owns every live Channel, allocates ids out of 1..channel-max,
// and dispatches incoming method, header and body frames to the right one.
type Channels struct {
	mu sync.Mutex

	byID       map[uint16]*Channel
	channelMax uint16
	nextID     uint16

	sender   outbound.Sender
	frameMax uint32
}

func newChannels(sender outbound.Sender, channelMax uint16, frameMax uint32) *Channels {
	return &Channels{
		byID:       make(map[uint16]*Channel),
		channelMax: channelMax,
		sender:     sender,
		frameMax:   frameMax,
	}
}

// setLimits updates the registry's negotiated channel-max/frame-max after
// connection.tune completes.
func (cs *Channels) setLimits(channelMax uint16, frameMax uint32) {
	cs.mu.Lock()
	cs.channelMax = channelMax
	cs.frameMax = frameMax
	cs.mu.Unlock()
}

// Create allocates the next free channel id in 1..=channel_max.
func (cs *Channels) Create() (*Channel, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	max := cs.channelMax
	if max == 0 {
		max = 0xFFFF
	}
	for i := uint16(0); i < max; i++ {
		cs.nextID++
		if cs.nextID == 0 || cs.nextID > max {
			cs.nextID = 1
		}
		if _, taken := cs.byID[cs.nextID]; !taken {
			ch := newChannel(cs.nextID, cs.sender, cs.frameMax)
			cs.byID[cs.nextID] = ch
			return ch, nil
		}
	}
	return nil, ErrNoAvailableChannel
}

// Get returns the channel for id, if any.
func (cs *Channels) Get(id uint16) (*Channel, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	ch, ok := cs.byID[id]
	return ch, ok
}

// Remove drops id from the registry, freeing it for reuse.
func (cs *Channels) Remove(id uint16) {
	cs.mu.Lock()
	delete(cs.byID, id)
	cs.mu.Unlock()
}

// SendFrame enqueues fr onto the shared outbound queue, bypassing any
// particular channel, used for channel-0 bootstrap traffic.
func (cs *Channels) SendFrame(fr frame.Frame) {
	cs.sender.Send(fr)
}

// SendMethodFrame is a convenience wrapper around SendFrame for method
// frames.
func (cs *Channels) SendMethodFrame(id uint16, m encoding.Method) {
	cs.sender.Send(frame.Method{Channel: id, Method: m})
}

// ReceiveMethod dispatches a method frame by class into the channel's
// handler, promoting any resulting error up to the caller (the
// Connection), which is responsible for the transition to Error.
func (cs *Channels) ReceiveMethod(id uint16, m encoding.Method) error {
	ch, ok := cs.Get(id)
	if !ok {
		return errors.Errorf("amqp091core: method frame for unknown channel %d", id)
	}
	if err := ch.ReceiveMethod(m); err != nil {
		ch.failPending(err)
		return err
	}
	return nil
}

// HandleContentHeaderFrame routes a content header frame to its channel.
func (cs *Channels) HandleContentHeaderFrame(id uint16, bodySize uint64, props Properties) error {
	ch, ok := cs.Get(id)
	if !ok {
		return errors.Errorf("amqp091core: header frame for unknown channel %d", id)
	}
	if err := ch.HandleContentHeaderFrame(bodySize, props); err != nil {
		ch.failPending(err)
		return err
	}
	return nil
}

// HandleBodyFrame routes a body frame to its channel.
func (cs *Channels) HandleBodyFrame(id uint16, payload []byte) error {
	ch, ok := cs.Get(id)
	if !ok {
		return errors.Errorf("amqp091core: body frame for unknown channel %d", id)
	}
	if err := ch.HandleBodyFrame(payload); err != nil {
		ch.failPending(err)
		return err
	}
	return nil
}

// failAll resolves every channel's pending confirmations with err, called
// when the owning Connection transitions to Error or Closed.
func (cs *Channels) failAll(err error) {
	cs.mu.Lock()
	chs := make([]*Channel, 0, len(cs.byID))
	for _, ch := range cs.byID {
		chs = append(chs, ch)
	}
	cs.mu.Unlock()
	for _, ch := range chs {
		ch.failPending(err)
	}
}
