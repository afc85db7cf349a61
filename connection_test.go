package amqp091core

import (
	"testing"

	"github.com/fortytw2/leaktest"

	"github.com/amqp091core/amqp091core/internal/encoding"
	"github.com/amqp091core/amqp091core/internal/frame"
)

func mustNextMethod(t *testing.T, c *Connection) encoding.Method {
	t.Helper()
	fr, ok := c.NextFrame()
	if !ok {
		t.Fatal("NextFrame: no frame queued")
	}
	m, ok := fr.(frame.Method)
	if !ok {
		t.Fatalf("NextFrame: got %T, want frame.Method", fr)
	}
	return m.Method
}

// TestHappyHandshake walks the full connect sequence through to Connected,
// checking both the outbound method sequence and the state after every
// inbound reply.
func TestHappyHandshake(t *testing.T) {
	defer leaktest.Check(t)()

	c := New()
	if err := c.SetCredentials("guest", "guest"); err != nil {
		t.Fatalf("SetCredentials: %v", err)
	}

	state, err := c.Connect(ConnectionProperties{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if state.Kind != ConnectionStateConnecting || state.Connecting != ConnectingSentProtocolHeader {
		t.Fatalf("state after Connect = %+v", state)
	}

	fr, ok := c.NextFrame()
	if !ok {
		t.Fatal("expected protocol header frame queued")
	}
	if _, ok := fr.(frame.ProtocolHeader); !ok {
		t.Fatalf("first outbound frame = %T, want ProtocolHeader", fr)
	}

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionStart{
		VersionMajor: 0, VersionMinor: 9,
		Mechanisms: "PLAIN", Locales: "en_US",
	}}); err != nil {
		t.Fatalf("handling connection.start: %v", err)
	}
	if got := c.State(); got.Kind != ConnectionStateConnecting || got.Connecting != ConnectingSentStartOk {
		t.Fatalf("state after start = %+v", got)
	}
	if _, ok := mustNextMethod(t, c).(*encoding.ConnectionStartOk); !ok {
		t.Fatal("expected connection.start-ok queued")
	}

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionTune{
		ChannelMax: 2047, FrameMax: 131072, Heartbeat: 60,
	}}); err != nil {
		t.Fatalf("handling connection.tune: %v", err)
	}
	if got := c.State(); got.Kind != ConnectionStateConnecting || got.Connecting != ConnectingSentOpen {
		t.Fatalf("state after tune = %+v", got)
	}
	if _, ok := mustNextMethod(t, c).(*encoding.ConnectionTuneOk); !ok {
		t.Fatal("expected connection.tune-ok queued")
	}
	openMethod, ok := mustNextMethod(t, c).(*encoding.ConnectionOpen)
	if !ok {
		t.Fatal("expected connection.open queued")
	}
	if openMethod.VirtualHost != "/" {
		t.Fatalf("open vhost = %q, want /", openMethod.VirtualHost)
	}

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionOpenOk{}}); err != nil {
		t.Fatalf("handling connection.open-ok: %v", err)
	}
	if got := c.State(); got.Kind != ConnectionStateConnected {
		t.Fatalf("final state = %+v, want Connected", got)
	}
}

// TestTuneNegotiationZeroMeansMax: both sides propose {0,0,0} and the
// post-negotiation configuration raises channel-max and frame-max to their
// type maxima while leaving heartbeat at 0.
func TestTuneNegotiationZeroMeansMax(t *testing.T) {
	c := New()
	if err := c.SetClientConfig(Config{}); err != nil {
		t.Fatalf("SetClientConfig: %v", err)
	}
	if _, err := c.Connect(ConnectionProperties{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.NextFrame() // drain protocol header

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionStart{
		Mechanisms: "PLAIN", Locales: "en_US",
	}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.NextFrame() // drain start-ok

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionTune{
		ChannelMax: 0, FrameMax: 0, Heartbeat: 0,
	}}); err != nil {
		t.Fatalf("tune: %v", err)
	}

	got := c.Config()
	want := Config{ChannelMax: 0xFFFF, FrameMax: 0xFFFFFFFF, Heartbeat: 0}
	if got != want {
		t.Fatalf("negotiated config = %+v, want %+v", got, want)
	}
}

// TestSerializeBufferTooSmallRequeuesWithoutError pins the requeue
// contract: BufferTooSmall requeues the frame and reports the error, but
// does not transition to Error, so a retry with a larger buffer succeeds.
func TestSerializeBufferTooSmallRequeuesWithoutError(t *testing.T) {
	c := New()
	if _, err := c.Connect(ConnectionProperties{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	tiny := make([]byte, 1)
	_, state, err := c.Serialize(tiny)
	if err != ErrBufferTooSmall {
		t.Fatalf("Serialize with tiny buffer = %v, want ErrBufferTooSmall", err)
	}
	if state.Kind == ConnectionStateError {
		t.Fatal("Serialize with tiny buffer transitioned to Error; should allow retry")
	}

	big := make([]byte, 64)
	n, _, err := c.Serialize(big)
	if err != nil {
		t.Fatalf("Serialize with adequate buffer: %v", err)
	}
	if n != 8 {
		t.Fatalf("wrote %d bytes for protocol header, want 8", n)
	}
}

// TestUnexpectedMethodDuringHandshakeIsError: any non-tune method arriving
// while Connecting(SentStartOk) is a protocol violation that transitions
// the connection to Error.
func TestUnexpectedMethodDuringHandshakeIsError(t *testing.T) {
	c := New()
	if _, err := c.Connect(ConnectionProperties{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.NextFrame()

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionStart{
		Mechanisms: "PLAIN", Locales: "en_US",
	}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.NextFrame()

	err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionOpenOk{}})
	if err == nil {
		t.Fatal("expected error for unexpected method during SentStartOk")
	}
	if got := c.State(); got.Kind != ConnectionStateError {
		t.Fatalf("state = %+v, want Error", got)
	}
}

// TestConnectOutsideInitialIsInvalidState checks the Initial-only guard
// shared by Connect/SetCredentials/SetVhost.
func TestConnectOutsideInitialIsInvalidState(t *testing.T) {
	c := New()
	if _, err := c.Connect(ConnectionProperties{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := c.Connect(ConnectionProperties{}); err != ErrInvalidState {
		t.Fatalf("second Connect = %v, want ErrInvalidState", err)
	}
	if err := c.SetVhost("/other"); err != ErrInvalidState {
		t.Fatalf("SetVhost after Connect = %v, want ErrInvalidState", err)
	}
}

// TestLocalCloseHandshake exercises the Connected -> Closing(SentClose)
// -> Closed path.
func TestLocalCloseHandshake(t *testing.T) {
	c := New()
	if _, err := c.Connect(ConnectionProperties{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.NextFrame()
	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionStart{
		Mechanisms: "PLAIN", Locales: "en_US",
	}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.NextFrame()
	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionTune{}}); err != nil {
		t.Fatalf("tune: %v", err)
	}
	c.NextFrame()
	c.NextFrame()
	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionOpenOk{}}); err != nil {
		t.Fatalf("open-ok: %v", err)
	}

	confirm, err := c.Close(200, "bye")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := c.State(); got.Kind != ConnectionStateClosing || got.Closing != ClosingSentClose {
		t.Fatalf("state after Close = %+v", got)
	}
	if _, ok := mustNextMethod(t, c).(*encoding.ConnectionClose); !ok {
		t.Fatal("expected connection.close queued")
	}

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionCloseOk{}}); err != nil {
		t.Fatalf("close-ok: %v", err)
	}
	if got := c.State(); got.Kind != ConnectionStateClosed {
		t.Fatalf("final state = %+v, want Closed", got)
	}
	if _, err, ok := confirm.TryWait(); !ok || err != nil {
		t.Fatalf("close confirmation = (err=%v, ok=%v), want resolved nil error", err, ok)
	}
}

// TestBrokerInitiatedCloseReachesClosed pins the broker-initiated branch:
// Connected -> Closing(ReceivedClose) -> emit CloseOk ->
// Closing(SentCloseOk) -> Closed, without an Error detour.
func TestBrokerInitiatedCloseReachesClosed(t *testing.T) {
	c := New()
	if _, err := c.Connect(ConnectionProperties{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.NextFrame()
	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionStart{
		Mechanisms: "PLAIN", Locales: "en_US",
	}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.NextFrame()
	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionTune{}}); err != nil {
		t.Fatalf("tune: %v", err)
	}
	c.NextFrame()
	c.NextFrame()
	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionOpenOk{}}); err != nil {
		t.Fatalf("open-ok: %v", err)
	}

	if err := c.HandleFrame(frame.Method{Channel: 0, Method: &encoding.ConnectionClose{
		ReplyCode: 320, ReplyText: "CONNECTION_FORCED",
	}}); err != nil {
		t.Fatalf("broker close: %v", err)
	}
	if got := c.State(); got.Kind != ConnectionStateClosed {
		t.Fatalf("state after broker-initiated close = %+v, want Closed", got)
	}
	if _, ok := mustNextMethod(t, c).(*encoding.ConnectionCloseOk); !ok {
		t.Fatal("expected connection.close-ok queued in reply to broker close")
	}
}
