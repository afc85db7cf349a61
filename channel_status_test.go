package amqp091core

import "testing"

func TestChannelStatusSmallPayloadConsume(t *testing.T) {
	s := ChannelStatus{Kind: ChannelStateConnected}

	s = s.OnDeliverLike("consumed", "c")
	if s.Kind != ChannelStateWillReceiveContent || s.QueueName != "consumed" || s.ConsumerTag != "c" {
		t.Fatalf("after deliver: %+v", s)
	}

	s, done := s.OnContentHeader(2)
	if done {
		t.Fatal("non-zero body size reported done at header time")
	}
	if s.Kind != ChannelStateReceivingContent || s.Remaining != 2 {
		t.Fatalf("after header: %+v", s)
	}

	s, done = s.OnBody(2)
	if !done {
		t.Fatal("full body fragment did not complete the delivery")
	}
	if s.Kind != ChannelStateConnected {
		t.Fatalf("after body: %+v", s)
	}
}

func TestChannelStatusEmptyPayloadConsume(t *testing.T) {
	s := ChannelStatus{Kind: ChannelStateConnected}
	s = s.OnDeliverLike("consumed", "c")

	s, done := s.OnContentHeader(0)
	if !done {
		t.Fatal("zero body size did not report done at header time")
	}
	if s.Kind != ChannelStateConnected {
		t.Fatalf("after zero-length header: %+v", s)
	}
}

func TestChannelStatusPartialBodyFragments(t *testing.T) {
	s := ChannelStatus{Kind: ChannelStateConnected}
	s = s.OnDeliverLike("q", "")
	s, _ = s.OnContentHeader(10)

	s, done := s.OnBody(4)
	if done {
		t.Fatal("partial fragment reported done")
	}
	if s.Remaining != 6 {
		t.Fatalf("Remaining = %d, want 6", s.Remaining)
	}

	s, done = s.OnBody(6)
	if !done || s.Kind != ChannelStateConnected {
		t.Fatalf("final fragment did not complete: %+v done=%v", s, done)
	}
}

func TestChannelStatusUnexpectedFrameGoesError(t *testing.T) {
	s := ChannelStatus{Kind: ChannelStateConnected}
	// Body arriving before any header/deliver is unexpected.
	s, _ = s.OnBody(1)
	if s.Kind != ChannelStateError {
		t.Fatalf("Kind = %v, want Error", s.Kind)
	}
}

func TestChannelStatusSendingContentRoundTrip(t *testing.T) {
	s := ChannelStatus{Kind: ChannelStateConnected}
	s = s.OnPublish(5)
	if s.Kind != ChannelStateSendingContent || s.Remaining != 5 {
		t.Fatalf("after publish: %+v", s)
	}

	s = s.OnBodyEmitted(3)
	if s.Kind != ChannelStateSendingContent || s.Remaining != 2 {
		t.Fatalf("after partial emit: %+v", s)
	}

	s = s.OnBodyEmitted(2)
	if s.Kind != ChannelStateConnected {
		t.Fatalf("after final emit: %+v", s)
	}
}
