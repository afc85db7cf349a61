package amqp091core

import (
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/amqp091core/amqp091core/internal/debug"
	"github.com/amqp091core/amqp091core/internal/encoding"
	"github.com/amqp091core/amqp091core/internal/frame"
	"github.com/amqp091core/amqp091core/internal/outbound"
)

// ConnectionStateKind tags the top-level connection lifecycle state.
type ConnectionStateKind int

const (
	ConnectionStateInitial ConnectionStateKind = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateClosing
	ConnectionStateClosed
	ConnectionStateError
)

func (k ConnectionStateKind) String() string {
	switch k {
	case ConnectionStateInitial:
		return "Initial"
	case ConnectionStateConnecting:
		return "Connecting"
	case ConnectionStateConnected:
		return "Connected"
	case ConnectionStateClosing:
		return "Closing"
	case ConnectionStateClosed:
		return "Closed"
	case ConnectionStateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ConnectingStateKind is the handshake sub-state, valid only while Kind ==
// ConnectionStateConnecting.
type ConnectingStateKind int

const (
	ConnectingInitial ConnectingStateKind = iota
	ConnectingSentProtocolHeader
	ConnectingReceivedStart
	ConnectingSentStartOk
	ConnectingReceivedTune
	ConnectingSentTuneOk
	ConnectingSentOpen
	ConnectingReceivedSecure
	ConnectingSentSecure
	ConnectingReceivedSecondSecure
)

// ClosingStateKind is the close-handshake sub-state, valid only while Kind
// == ConnectionStateClosing.
type ClosingStateKind int

const (
	ClosingInitial ClosingStateKind = iota
	ClosingSentClose
	ClosingReceivedClose
	ClosingSentCloseOk
	ClosingReceivedCloseOk
)

// ConnectionState is the connection lifecycle state: a kind plus the
// sub-state that applies to it.
type ConnectionState struct {
	Kind       ConnectionStateKind
	Connecting ConnectingStateKind
	Closing    ClosingStateKind
}

// ConnectionProperties configures the handshake: the SASL mechanism (only
// PLAIN is implemented), locale, and client-properties field table merged
// with the defaults onConnectionStart fills in.
type ConnectionProperties struct {
	Mechanism        string
	Locale           string
	ClientProperties Table
}

// Connection is the top-level sans-I/O state machine: it owns the channels
// registry, the outbound frame queue, and the credentials slot. A transport
// drives it exclusively through Connect, NextFrame, Serialize, Parse and
// HandleFrame; the Connection never touches a socket itself.
type Connection struct {
	mu sync.Mutex

	state        ConnectionState
	clientConfig Config
	config       Config
	vhost        string
	credentials  Credentials
	props        ConnectionProperties

	channels  *Channels
	outboundQ *outbound.Queue
	sender    outbound.Sender

	pendingClose *Confirmation[struct{}]
}

// New returns a fresh Connection in state Initial.
func New() *Connection {
	q := outbound.New()
	sender := q.Sender()
	c := &Connection{
		state:        ConnectionState{Kind: ConnectionStateInitial},
		clientConfig: DefaultClientConfig,
		vhost:        "/",
		outboundQ:    q,
		sender:       sender,
	}
	c.channels = newChannels(sender, 0, DefaultClientConfig.FrameMax)
	return c
}

// State returns a snapshot of the connection's state.
func (c *Connection) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config returns the negotiated configuration. Zero value until the tune
// handshake step completes.
func (c *Connection) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetClientConfig overrides the channel-max/frame-max/heartbeat this
// Connection proposes during tune negotiation. Valid only in Initial.
func (c *Connection) SetClientConfig(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ConnectionStateInitial {
		return ErrInvalidState
	}
	c.clientConfig = cfg
	return nil
}

// SetCredentials stores a SASL PLAIN username/password, valid only in
// Initial.
func (c *Connection) SetCredentials(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ConnectionStateInitial {
		return ErrInvalidState
	}
	c.credentials = NewCredentials(username, password)
	return nil
}

// SetVhost sets the virtual host sent in connection.open, valid only in
// Initial.
func (c *Connection) SetVhost(vhost string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ConnectionStateInitial {
		return ErrInvalidState
	}
	c.vhost = vhost
	return nil
}

// Connect requires state Initial: it enqueues the protocol header on
// channel 0 and transitions to Connecting(SentProtocolHeader).
func (c *Connection) Connect(props ConnectionProperties) (ConnectionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ConnectionStateInitial {
		return c.state, ErrInvalidState
	}
	if props.Mechanism == "" {
		props.Mechanism = "PLAIN"
	}
	if props.Locale == "" {
		props.Locale = "en_US"
	}
	c.props = props
	c.sender.Send(frame.ProtocolHeader{})
	c.state = ConnectionState{Kind: ConnectionStateConnecting, Connecting: ConnectingSentProtocolHeader}
	return c.state, nil
}

// CreateChannel allocates a new Channel through the registry.
func (c *Connection) CreateChannel() (*Channel, error) {
	return c.channels.Create()
}

// NextFrame pops the next frame to transmit: priority deque first, then
// the shared outbound queue. Non-blocking.
func (c *Connection) NextFrame() (frame.Frame, bool) {
	return c.outboundQ.Next()
}

// Serialize pops one frame via NextFrame and generates it into buf. Whole
// frames only: if buf cannot hold the frame, nothing is written, the frame
// is requeued at the back of the priority deque, ErrBufferTooSmall is
// returned, and the connection state is left unchanged so the caller can
// retry with a larger buffer. Any other codec failure is fatal.
func (c *Connection) Serialize(buf []byte) (int, ConnectionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind == ConnectionStateError || c.state.Kind == ConnectionStateClosed {
		return 0, c.state, ErrInvalidState
	}

	fr, ok := c.outboundQ.Next()
	if !ok {
		return 0, c.state, ErrWouldBlock
	}

	written, err := frame.Gen(buf, fr)
	if err != nil {
		if errors.Is(err, frame.ErrBufferTooSmall) {
			c.outboundQ.PushBack(fr)
			return 0, c.state, ErrBufferTooSmall
		}
		c.state = ConnectionState{Kind: ConnectionStateError}
		return 0, c.state, err
	}
	return written, c.state, nil
}

// Parse invokes the frame codec on b. Incomplete leaves state unchanged
// and returns (0, state, nil); a decode failure transitions to Error and
// returns a *ParseError; otherwise the frame is dispatched via
// HandleFrame.
func (c *Connection) Parse(b []byte) (int, ConnectionState, error) {
	consumed, fr, err := frame.Parse(b)
	if err != nil {
		if errors.Is(err, frame.ErrIncomplete) {
			return 0, c.State(), nil
		}
		c.mu.Lock()
		c.state = ConnectionState{Kind: ConnectionStateError}
		st := c.state
		c.mu.Unlock()
		c.channels.failAll(&ParseError{Err: err})
		return 0, st, &ParseError{Err: err}
	}

	herr := c.HandleFrame(fr)
	return consumed, c.State(), herr
}

// HandleFrame dispatches by frame variant: Method(0, m) routes to
// handshake/global method handling, Method(id>0, m) and content frames
// route to the channels registry, ProtocolHeader is always an error, and
// Heartbeat is observed and ignored.
func (c *Connection) HandleFrame(fr frame.Frame) error {
	switch f := fr.(type) {
	case frame.ProtocolHeader:
		err := errors.New("amqp091core: unexpected protocol header from peer")
		c.transitionError(err)
		return err

	case frame.Method:
		if f.Channel == 0 {
			return c.handleGlobalMethod(f.Method)
		}
		if err := c.channels.ReceiveMethod(f.Channel, f.Method); err != nil {
			c.transitionError(err)
			return err
		}
		return nil

	case frame.Header:
		if err := c.channels.HandleContentHeaderFrame(f.Channel, f.BodySize, f.Properties); err != nil {
			c.transitionError(err)
			return err
		}
		return nil

	case frame.Body:
		if err := c.channels.HandleBodyFrame(f.Channel, f.Payload); err != nil {
			c.transitionError(err)
			return err
		}
		return nil

	case frame.Heartbeat:
		return nil

	default:
		return errors.Errorf("amqp091core: unknown frame type %T", fr)
	}
}

// SendPreemptiveFrame pushes fr to the front of the priority deque, for
// heartbeats originated by the transport layer.
func (c *Connection) SendPreemptiveFrame(fr frame.Frame) {
	c.outboundQ.PushFront(fr)
}

// RequeueFrame pushes fr to the back of the priority deque, for transient
// serialization failures.
func (c *Connection) RequeueFrame(fr frame.Frame) {
	c.outboundQ.PushBack(fr)
}

// HasPendingFrames reports whether NextFrame would return a frame.
func (c *Connection) HasPendingFrames() bool {
	return c.outboundQ.HasPending()
}

// Close requires state Connected: it emits connection.close and
// transitions to Closing(SentClose).
func (c *Connection) Close(code uint16, text string) (*Confirmation[struct{}], error) {
	c.mu.Lock()
	if c.state.Kind != ConnectionStateConnected {
		c.mu.Unlock()
		return nil, ErrInvalidState
	}
	confirm := NewConfirmation[struct{}]()
	c.pendingClose = confirm
	c.state = ConnectionState{Kind: ConnectionStateClosing, Closing: ClosingSentClose}
	c.mu.Unlock()

	c.channels.SendMethodFrame(0, &encoding.ConnectionClose{ReplyCode: code, ReplyText: text})
	return confirm, nil
}

func (c *Connection) transitionError(err error) {
	c.mu.Lock()
	c.state = ConnectionState{Kind: ConnectionStateError}
	pendingClose := c.pendingClose
	c.pendingClose = nil
	c.mu.Unlock()

	c.channels.failAll(err)
	if pendingClose != nil {
		pendingClose.Resolve(struct{}{}, err)
	}
}

func (c *Connection) finishClose(err error) {
	c.mu.Lock()
	c.state = ConnectionState{Kind: ConnectionStateClosed}
	pendingClose := c.pendingClose
	c.pendingClose = nil
	c.mu.Unlock()

	failErr := error(ErrConnectionClosed)
	if err != nil {
		failErr = err
	}
	c.channels.failAll(failErr)
	if pendingClose != nil {
		pendingClose.Resolve(struct{}{}, err)
	}
}

func (c *Connection) handleGlobalMethod(m encoding.Method) error {
	state := c.State()

	switch state.Kind {
	case ConnectionStateConnecting:
		return c.handleConnectingMethod(state.Connecting, m)
	case ConnectionStateConnected, ConnectionStateClosing:
		return c.handleConnectedOrClosingMethod(state, m)
	default:
		err := errors.Errorf("amqp091core: unexpected channel-0 method %T in state %v", m, state.Kind)
		c.transitionError(err)
		return err
	}
}

func (c *Connection) handleConnectingMethod(sub ConnectingStateKind, m encoding.Method) error {
	switch sub {
	case ConnectingSentProtocolHeader:
		start, ok := m.(*encoding.ConnectionStart)
		if !ok {
			err := errors.Errorf("amqp091core: expected connection.start, got %T", m)
			c.transitionError(err)
			return err
		}
		return c.onConnectionStart(start)

	case ConnectingSentStartOk:
		tune, ok := m.(*encoding.ConnectionTune)
		if !ok {
			err := errors.Errorf("amqp091core: expected connection.tune, got %T", m)
			c.transitionError(err)
			return err
		}
		return c.onConnectionTune(tune)

	case ConnectingSentOpen:
		if _, ok := m.(*encoding.ConnectionOpenOk); !ok {
			err := errors.Errorf("amqp091core: expected connection.open-ok, got %T", m)
			c.transitionError(err)
			return err
		}
		c.mu.Lock()
		c.state = ConnectionState{Kind: ConnectionStateConnected}
		c.mu.Unlock()
		return nil

	default:
		err := errors.Errorf("amqp091core: unexpected method %T during handshake sub-state %v", m, sub)
		c.transitionError(err)
		return err
	}
}

// onConnectionStart validates mechanism/locale against the server's
// offered lists (a mismatch is logged, never aborted on: the broker's
// rejection of start-ok is the authoritative signal), fills in
// client-properties defaults and capabilities, consumes stored credentials
// into a SASL-PLAIN response, and emits connection.start-ok.
func (c *Connection) onConnectionStart(start *encoding.ConnectionStart) error {
	c.mu.Lock()

	if !containsField(start.Mechanisms, c.props.Mechanism) {
		debug.Log(1, "amqp091core: server mechanisms %q do not include %q, proceeding anyway", start.Mechanisms, c.props.Mechanism)
	}
	if !containsField(start.Locales, c.props.Locale) {
		debug.Log(1, "amqp091core: server locales %q do not include %q, proceeding anyway", start.Locales, c.props.Locale)
	}

	clientProps := cloneTable(c.props.ClientProperties)
	if _, ok := clientProps["product"]; !ok {
		clientProps["product"] = "amqp091core"
	}
	if _, ok := clientProps["version"]; !ok {
		clientProps["version"] = "0.1.0"
	}
	clientProps["platform"] = runtime.Version()
	clientProps["capabilities"] = Table{
		"publisher_confirms":           true,
		"exchange_exchange_bindings":   true,
		"basic.nack":                   true,
		"consumer_cancel_notify":       true,
		"connection.blocked":           true,
		"authentication_failure_close": true,
	}

	creds, ok := TakeFrom(&c.credentials)
	if !ok {
		creds = NewCredentials("guest", "guest")
	}
	response := string(creds.PlainResponse())
	mechanism, locale := c.props.Mechanism, c.props.Locale

	c.state = ConnectionState{Kind: ConnectionStateConnecting, Connecting: ConnectingSentStartOk}
	c.mu.Unlock()

	c.channels.SendMethodFrame(0, &encoding.ConnectionStartOk{
		ClientProperties: clientProps,
		Mechanism:        mechanism,
		Response:         response,
		Locale:           locale,
	})
	return nil
}

// onConnectionTune negotiates limits against the server's tune values,
// propagates the result to the channels registry, and immediately emits
// both tune-ok and open (the handshake does not wait for a round trip in
// between).
func (c *Connection) onConnectionTune(tune *encoding.ConnectionTune) error {
	c.mu.Lock()
	server := Config{ChannelMax: tune.ChannelMax, FrameMax: tune.FrameMax, Heartbeat: tune.Heartbeat}
	negotiated := Negotiate(c.clientConfig, server)
	c.config = negotiated
	vhost := c.vhost
	c.state = ConnectionState{Kind: ConnectionStateConnecting, Connecting: ConnectingSentOpen}
	c.mu.Unlock()

	c.channels.setLimits(negotiated.ChannelMax, negotiated.FrameMax)

	c.channels.SendMethodFrame(0, &encoding.ConnectionTuneOk{
		ChannelMax: negotiated.ChannelMax,
		FrameMax:   negotiated.FrameMax,
		Heartbeat:  negotiated.Heartbeat,
	})
	c.channels.SendMethodFrame(0, &encoding.ConnectionOpen{VirtualHost: vhost})
	return nil
}

func (c *Connection) handleConnectedOrClosingMethod(state ConnectionState, m encoding.Method) error {
	switch mm := m.(type) {
	case *encoding.ConnectionClose:
		c.mu.Lock()
		c.state = ConnectionState{Kind: ConnectionStateClosing, Closing: ClosingReceivedClose}
		c.mu.Unlock()
		c.channels.SendMethodFrame(0, &encoding.ConnectionCloseOk{})
		c.mu.Lock()
		c.state = ConnectionState{Kind: ConnectionStateClosing, Closing: ClosingSentCloseOk}
		c.mu.Unlock()
		c.finishClose(&ProtocolError{Code: mm.ReplyCode, Message: mm.ReplyText, ClassID: mm.ClassId, MethodID: mm.MethodId})
		return nil

	case *encoding.ConnectionCloseOk:
		if state.Kind != ConnectionStateClosing || state.Closing != ClosingSentClose {
			err := errors.Errorf("amqp091core: unexpected connection.close-ok in state %v/%v", state.Kind, state.Closing)
			c.transitionError(err)
			return err
		}
		c.mu.Lock()
		c.state = ConnectionState{Kind: ConnectionStateClosing, Closing: ClosingReceivedCloseOk}
		c.mu.Unlock()
		c.finishClose(nil)
		return nil

	default:
		debug.Log(2, "amqp091core: ignoring channel-0 method %T in state %v", m, state.Kind)
		return nil
	}
}

func containsField(spaceSeparated, want string) bool {
	for _, f := range strings.Fields(spaceSeparated) {
		if f == want {
			return true
		}
	}
	return false
}

func cloneTable(t Table) Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
