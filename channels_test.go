package amqp091core

import (
	"testing"

	"github.com/amqp091core/amqp091core/internal/outbound"
)

func newTestChannels(channelMax uint16) (*Channels, *outbound.Queue) {
	q := outbound.New()
	return newChannels(q.Sender(), channelMax, 131072), q
}

func TestChannelsCreateAllocatesSequentialIDs(t *testing.T) {
	cs, _ := newTestChannels(0)

	a, err := cs.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := cs.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID() == b.ID() {
		t.Fatalf("Create returned duplicate ids: %d, %d", a.ID(), b.ID())
	}
	if a.ID() != 1 || b.ID() != 2 {
		t.Fatalf("Create returned ids %d, %d, want 1, 2", a.ID(), b.ID())
	}
}

func TestChannelsCreateExhaustion(t *testing.T) {
	cs, _ := newTestChannels(2)

	if _, err := cs.Create(); err != nil {
		t.Fatalf("Create 1: %v", err)
	}
	if _, err := cs.Create(); err != nil {
		t.Fatalf("Create 2: %v", err)
	}
	if _, err := cs.Create(); err != ErrNoAvailableChannel {
		t.Fatalf("Create 3 = %v, want ErrNoAvailableChannel", err)
	}
}

func TestChannelsRemoveFreesID(t *testing.T) {
	cs, _ := newTestChannels(1)

	a, err := cs.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cs.Remove(a.ID())

	if _, err := cs.Create(); err != nil {
		t.Fatalf("Create after Remove: %v", err)
	}
}

func TestChannelsGetUnknown(t *testing.T) {
	cs, _ := newTestChannels(0)
	if _, ok := cs.Get(99); ok {
		t.Fatal("Get reported a channel that was never created")
	}
}

func TestChannelsReceiveMethodUnknownChannel(t *testing.T) {
	cs, _ := newTestChannels(0)
	err := cs.ReceiveMethod(7, nil)
	if err == nil {
		t.Fatal("ReceiveMethod on an unknown channel did not error")
	}
}
