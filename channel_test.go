package amqp091core

import (
	"testing"
	"time"

	"github.com/amqp091core/amqp091core/internal/encoding"
	"github.com/amqp091core/amqp091core/internal/outbound"
)

func newTestChannel(t *testing.T, frameMax uint32) *Channel {
	t.Helper()
	q := outbound.New()
	ch := newChannel(1, q.Sender(), frameMax)
	if _, err := ch.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := ch.ReceiveMethod(&encoding.ChannelOpenOk{}); err != nil {
		t.Fatalf("open-ok: %v", err)
	}
	if got := ch.Status().Kind; got != ChannelStateConnected {
		t.Fatalf("status after open-ok = %v, want Connected", got)
	}
	return ch
}

func recvDelivery(t *testing.T, c *Consumer) Delivery {
	t.Helper()
	select {
	case d := <-c.Deliveries():
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}

// TestSmallPayloadConsume: a deliver, a two-byte content header, then a
// matching body frame assembles into one delivery and the channel returns
// to Connected.
func TestSmallPayloadConsume(t *testing.T) {
	ch := newTestChannel(t, 131072)

	consumer, err := ch.BasicConsume("myqueue", "", ConsumeOptions{NoWait: true})
	if err != nil {
		t.Fatalf("BasicConsume: %v", err)
	}

	if err := ch.ReceiveMethod(&encoding.BasicDeliver{
		ConsumerTag: consumer.Tag, DeliveryTag: 1, Exchange: "ex", RoutingKey: "rk",
	}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got := ch.Status().Kind; got != ChannelStateWillReceiveContent {
		t.Fatalf("status after deliver = %v, want WillReceiveContent", got)
	}

	if err := ch.HandleContentHeaderFrame(2, Properties{}); err != nil {
		t.Fatalf("content header: %v", err)
	}
	if got := ch.Status().Kind; got != ChannelStateReceivingContent {
		t.Fatalf("status after 2-byte header = %v, want ReceivingContent", got)
	}

	if err := ch.HandleBodyFrame([]byte("{}")); err != nil {
		t.Fatalf("body: %v", err)
	}
	if got := ch.Status().Kind; got != ChannelStateConnected {
		t.Fatalf("status after body = %v, want Connected", got)
	}

	d := recvDelivery(t, consumer)
	if string(d.Body) != "{}" {
		t.Fatalf("delivery body = %q, want {}", d.Body)
	}
	if d.DeliveryTag != 1 {
		t.Fatalf("delivery tag = %d, want 1", d.DeliveryTag)
	}
}

// TestEmptyPayloadConsume: a zero body-size content header completes the
// delivery on its own, with no body frame, and the channel never visits
// ReceivingContent.
func TestEmptyPayloadConsume(t *testing.T) {
	ch := newTestChannel(t, 131072)

	consumer, err := ch.BasicConsume("myqueue", "", ConsumeOptions{NoWait: true})
	if err != nil {
		t.Fatalf("BasicConsume: %v", err)
	}

	if err := ch.ReceiveMethod(&encoding.BasicDeliver{
		ConsumerTag: consumer.Tag, DeliveryTag: 1, Exchange: "ex", RoutingKey: "rk",
	}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if err := ch.HandleContentHeaderFrame(0, Properties{}); err != nil {
		t.Fatalf("content header: %v", err)
	}
	if got := ch.Status().Kind; got != ChannelStateConnected {
		t.Fatalf("status after 0-byte header = %v, want Connected", got)
	}

	d := recvDelivery(t, consumer)
	if len(d.Body) != 0 {
		t.Fatalf("delivery body = %q, want empty", d.Body)
	}
}

// TestUnexpectedFrameDuringConnectedIsError drives a body frame with no
// prior deliver/header, which the Channel Status FSM rejects.
func TestUnexpectedFrameDuringConnectedIsError(t *testing.T) {
	ch := newTestChannel(t, 131072)

	if err := ch.HandleBodyFrame([]byte("x")); err == nil {
		t.Fatal("expected error for body frame with no pending assembly")
	}
	if got := ch.Status().Kind; got != ChannelStateError {
		t.Fatalf("status = %v, want Error", got)
	}
}

// TestPublishWithConfirmsResolvesOnAck exercises confirm.select followed
// by a publish and its resolving basic.ack.
func TestPublishWithConfirmsResolvesOnAck(t *testing.T) {
	ch := newTestChannel(t, 131072)

	if _, err := ch.Confirm(true); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	confirmation, err := ch.BasicPublish("ex", "rk", Properties{}, []byte("hello"), PublishOptions{})
	if err != nil {
		t.Fatalf("BasicPublish: %v", err)
	}
	if confirmation == nil {
		t.Fatal("expected a non-nil confirmation in confirm mode")
	}
	if got := ch.Status().Kind; got != ChannelStateConnected {
		t.Fatalf("status after small publish = %v, want Connected", got)
	}

	if err := ch.ReceiveMethod(&encoding.BasicAck{DeliveryTag: 1, Multiple: false}); err != nil {
		t.Fatalf("ack: %v", err)
	}

	state, err, ok := confirmation.TryWait()
	if !ok {
		t.Fatal("confirmation did not resolve")
	}
	if err != nil {
		t.Fatalf("confirmation error = %v", err)
	}
	if state != DeliveryStateAcked {
		t.Fatalf("confirmation state = %v, want acked", state)
	}
}

// TestPublishFragmentsAcrossFrameMax checks a body larger than frame_max
// minus overhead is split into multiple body frames and still returns the
// channel to Connected once every fragment is emitted.
func TestPublishFragmentsAcrossFrameMax(t *testing.T) {
	ch := newTestChannel(t, 16) // frameOverhead=8, so 8-byte fragments

	body := make([]byte, 20)
	for i := range body {
		body[i] = byte(i)
	}

	if _, err := ch.BasicPublish("ex", "rk", Properties{}, body, PublishOptions{}); err != nil {
		t.Fatalf("BasicPublish: %v", err)
	}
	if got := ch.Status().Kind; got != ChannelStateConnected {
		t.Fatalf("status after fragmented publish = %v, want Connected", got)
	}
}

// TestBasicGetEmptyResolvesNil exercises the get-empty branch of BasicGet.
func TestBasicGetEmptyResolvesNil(t *testing.T) {
	ch := newTestChannel(t, 131072)

	confirmation, err := ch.BasicGet("myqueue", false)
	if err != nil {
		t.Fatalf("BasicGet: %v", err)
	}
	if err := ch.ReceiveMethod(&encoding.BasicGetEmpty{}); err != nil {
		t.Fatalf("get-empty: %v", err)
	}
	result, err, ok := confirmation.TryWait()
	if !ok {
		t.Fatal("get confirmation did not resolve")
	}
	if err != nil {
		t.Fatalf("get confirmation error = %v", err)
	}
	if result != nil {
		t.Fatalf("get result = %+v, want nil for empty queue", result)
	}
}

// TestBasicGetWhileGetPendingIsInvalidState checks the single-outstanding
// get guard.
func TestBasicGetWhileGetPendingIsInvalidState(t *testing.T) {
	ch := newTestChannel(t, 131072)

	if _, err := ch.BasicGet("myqueue", false); err != nil {
		t.Fatalf("first BasicGet: %v", err)
	}
	if _, err := ch.BasicGet("myqueue", false); err != ErrInvalidState {
		t.Fatalf("second BasicGet = %v, want ErrInvalidState", err)
	}
}
