package amqp091core

// Config holds the three values connection.tune/tune-ok negotiate:
// channel-max, frame-max and heartbeat.
type Config struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

// DefaultClientConfig is the client side of tune negotiation for a fresh
// Connection: Negotiate combines it with the server's connection.tune
// values, and the result is what connection.tune-ok carries. 0 means "no
// limit, let the peer decide" per the negotiation rule below.
var DefaultClientConfig = Config{
	ChannelMax: 2047,
	FrameMax:   131072,
	Heartbeat:  60,
}

// Negotiate applies the AMQP 0-9-1 tune rule field by field: if either side
// proposes 0 (no preference), the other side's value wins; otherwise the
// smaller of the two wins. After negotiation, a channel-max or frame-max of
// 0 is expanded to the protocol's maximum, since 0 no longer means "unset"
// once both sides have spoken; a negotiated heartbeat of 0 is left as 0,
// since for heartbeat that still means disabled.
func Negotiate(client, server Config) Config {
	return Config{
		ChannelMax: negotiateField(client.ChannelMax, server.ChannelMax, 0xFFFF),
		FrameMax:   negotiateField(client.FrameMax, server.FrameMax, 0xFFFFFFFF),
		Heartbeat:  negotiateField(client.Heartbeat, server.Heartbeat, 0),
	}
}

type uintField interface{ ~uint16 | ~uint32 }

// negotiateField applies the shared tune rule. max is substituted for a
// post-negotiation 0 result; pass 0 for fields where 0 keeps its "disabled"
// meaning (heartbeat) instead of being expanded.
func negotiateField[T uintField](client, server, max T) T {
	var v T
	switch {
	case client == 0 && server == 0:
		v = 0
	case client == 0:
		v = server
	case server == 0:
		v = client
	case client < server:
		v = client
	default:
		v = server
	}
	if v == 0 {
		v = max
	}
	return v
}
