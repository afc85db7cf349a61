package encoding

import (
	"github.com/pkg/errors"

	"github.com/amqp091core/amqp091core/internal/buffer"
	"github.com/amqp091core/amqp091core/internal/wireconst"
)

// Method is a typed AMQP 0-9-1 class/method argument list. Each concrete
// type below corresponds 1:1 to a method in the AMQP 0-9-1 grammar, with
// one Marshal/Unmarshal pair per method: arguments are a flat,
// order-significant list with consecutive booleans bit-packed into octets.
type Method interface {
	ClassID() uint16
	MethodID() uint16
	Marshal(wr *buffer.Buffer) error
	Unmarshal(r *buffer.Buffer) error
}

// ---- connection.* ----

type ConnectionStart struct {
	VersionMajor     uint8
	VersionMinor     uint8
	ServerProperties Table
	Mechanisms       string
	Locales          string
}

func (ConnectionStart) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionStart) MethodID() uint16 { return wireconst.ConnectionStart }

func (m ConnectionStart) Marshal(wr *buffer.Buffer) error {
	wr.WriteByte(m.VersionMajor)
	wr.WriteByte(m.VersionMinor)
	if err := WriteTable(wr, m.ServerProperties); err != nil {
		return err
	}
	if err := WriteLongStr(wr, m.Mechanisms); err != nil {
		return err
	}
	return WriteLongStr(wr, m.Locales)
}

func (m *ConnectionStart) Unmarshal(r *buffer.Buffer) error {
	var ok bool
	var b byte
	if b, ok = r.ReadByte(); !ok {
		return ErrMalformed
	}
	m.VersionMajor = b
	if b, ok = r.ReadByte(); !ok {
		return ErrMalformed
	}
	m.VersionMinor = b
	var err error
	if m.ServerProperties, err = ReadTable(r); err != nil {
		return err
	}
	if m.Mechanisms, err = ReadLongStr(r); err != nil {
		return err
	}
	m.Locales, err = ReadLongStr(r)
	return err
}

type ConnectionStartOk struct {
	ClientProperties Table
	Mechanism        string
	Response         string
	Locale           string
}

func (ConnectionStartOk) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionStartOk) MethodID() uint16 { return wireconst.ConnectionStartOk }

func (m ConnectionStartOk) Marshal(wr *buffer.Buffer) error {
	if err := WriteTable(wr, m.ClientProperties); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Mechanism); err != nil {
		return err
	}
	if err := WriteLongStr(wr, m.Response); err != nil {
		return err
	}
	return WriteShortStr(wr, m.Locale)
}

func (m *ConnectionStartOk) Unmarshal(r *buffer.Buffer) error {
	var err error
	if m.ClientProperties, err = ReadTable(r); err != nil {
		return err
	}
	if m.Mechanism, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Response, err = ReadLongStr(r); err != nil {
		return err
	}
	m.Locale, err = ReadShortStr(r)
	return err
}

type ConnectionTune struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (ConnectionTune) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionTune) MethodID() uint16 { return wireconst.ConnectionTune }

func (m ConnectionTune) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(m.ChannelMax)
	wr.WriteUint32(m.FrameMax)
	wr.WriteUint16(m.Heartbeat)
	return nil
}

func (m *ConnectionTune) Unmarshal(r *buffer.Buffer) error {
	var ok bool
	if m.ChannelMax, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	if m.FrameMax, ok = r.ReadUint32(); !ok {
		return ErrMalformed
	}
	if m.Heartbeat, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	return nil
}

// ConnectionTuneOk shares ConnectionTune's wire layout (channel-max,
// frame-max, heartbeat) but carries the distinct tune-ok method id.
type ConnectionTuneOk struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (ConnectionTuneOk) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionTuneOk) MethodID() uint16 { return wireconst.ConnectionTuneOk }

func (m ConnectionTuneOk) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(m.ChannelMax)
	wr.WriteUint32(m.FrameMax)
	wr.WriteUint16(m.Heartbeat)
	return nil
}

func (m *ConnectionTuneOk) Unmarshal(r *buffer.Buffer) error {
	var ok bool
	if m.ChannelMax, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	if m.FrameMax, ok = r.ReadUint32(); !ok {
		return ErrMalformed
	}
	if m.Heartbeat, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	return nil
}

type ConnectionOpen struct {
	VirtualHost  string
	Capabilities string
	Insist       bool
}

func (ConnectionOpen) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionOpen) MethodID() uint16 { return wireconst.ConnectionOpen }

func (m ConnectionOpen) Marshal(wr *buffer.Buffer) error {
	if err := WriteShortStr(wr, m.VirtualHost); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Capabilities); err != nil {
		return err
	}
	WriteBits(wr, m.Insist)
	return nil
}

func (m *ConnectionOpen) Unmarshal(r *buffer.Buffer) error {
	var err error
	if m.VirtualHost, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Capabilities, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Insist = bits[0]
	return nil
}

type ConnectionOpenOk struct {
	KnownHosts string
}

func (ConnectionOpenOk) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionOpenOk) MethodID() uint16 { return wireconst.ConnectionOpenOk }

func (m ConnectionOpenOk) Marshal(wr *buffer.Buffer) error {
	return WriteShortStr(wr, m.KnownHosts)
}

func (m *ConnectionOpenOk) Unmarshal(r *buffer.Buffer) error {
	var err error
	m.KnownHosts, err = ReadShortStr(r)
	return err
}

type ConnectionClose struct {
	ReplyCode uint16
	ReplyText string
	ClassId   uint16
	MethodId  uint16
}

func (ConnectionClose) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionClose) MethodID() uint16 { return wireconst.ConnectionClose }

func (m ConnectionClose) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(m.ReplyCode)
	if err := WriteShortStr(wr, m.ReplyText); err != nil {
		return err
	}
	wr.WriteUint16(m.ClassId)
	wr.WriteUint16(m.MethodId)
	return nil
}

func (m *ConnectionClose) Unmarshal(r *buffer.Buffer) error {
	var ok bool
	if m.ReplyCode, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.ReplyText, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.ClassId, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	if m.MethodId, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	return nil
}

type ConnectionCloseOk struct{}

func (ConnectionCloseOk) ClassID() uint16 { return wireconst.ClassConnection }
func (ConnectionCloseOk) MethodID() uint16 { return wireconst.ConnectionCloseOk }
func (ConnectionCloseOk) Marshal(*buffer.Buffer) error { return nil }
func (*ConnectionCloseOk) Unmarshal(*buffer.Buffer) error { return nil }

// ---- channel.* ----

type ChannelOpen struct{ OutOfBand string }

func (ChannelOpen) ClassID() uint16 { return wireconst.ClassChannel }
func (ChannelOpen) MethodID() uint16 { return wireconst.ChannelOpen }
func (m ChannelOpen) Marshal(wr *buffer.Buffer) error {
	return WriteShortStr(wr, m.OutOfBand)
}
func (m *ChannelOpen) Unmarshal(r *buffer.Buffer) error {
	var err error
	m.OutOfBand, err = ReadShortStr(r)
	return err
}

type ChannelOpenOk struct{ ChannelID string }

func (ChannelOpenOk) ClassID() uint16 { return wireconst.ClassChannel }
func (ChannelOpenOk) MethodID() uint16 { return wireconst.ChannelOpenOk }
func (m ChannelOpenOk) Marshal(wr *buffer.Buffer) error {
	return WriteLongStr(wr, m.ChannelID)
}
func (m *ChannelOpenOk) Unmarshal(r *buffer.Buffer) error {
	var err error
	m.ChannelID, err = ReadLongStr(r)
	return err
}

type ChannelFlow struct{ Active bool }

func (ChannelFlow) ClassID() uint16 { return wireconst.ClassChannel }
func (ChannelFlow) MethodID() uint16 { return wireconst.ChannelFlow }
func (m ChannelFlow) Marshal(wr *buffer.Buffer) error {
	WriteBits(wr, m.Active)
	return nil
}
func (m *ChannelFlow) Unmarshal(r *buffer.Buffer) error {
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Active = bits[0]
	return nil
}

type ChannelFlowOk struct{ Active bool }

func (ChannelFlowOk) ClassID() uint16 { return wireconst.ClassChannel }
func (ChannelFlowOk) MethodID() uint16 { return wireconst.ChannelFlowOk }
func (m ChannelFlowOk) Marshal(wr *buffer.Buffer) error {
	WriteBits(wr, m.Active)
	return nil
}
func (m *ChannelFlowOk) Unmarshal(r *buffer.Buffer) error {
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Active = bits[0]
	return nil
}

type ChannelClose struct {
	ReplyCode uint16
	ReplyText string
	ClassId   uint16
	MethodId  uint16
}

func (ChannelClose) ClassID() uint16 { return wireconst.ClassChannel }
func (ChannelClose) MethodID() uint16 { return wireconst.ChannelClose }
func (m ChannelClose) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(m.ReplyCode)
	if err := WriteShortStr(wr, m.ReplyText); err != nil {
		return err
	}
	wr.WriteUint16(m.ClassId)
	wr.WriteUint16(m.MethodId)
	return nil
}
func (m *ChannelClose) Unmarshal(r *buffer.Buffer) error {
	var ok bool
	if m.ReplyCode, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.ReplyText, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.ClassId, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	if m.MethodId, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	return nil
}

type ChannelCloseOk struct{}

func (ChannelCloseOk) ClassID() uint16 { return wireconst.ClassChannel }
func (ChannelCloseOk) MethodID() uint16 { return wireconst.ChannelCloseOk }
func (ChannelCloseOk) Marshal(*buffer.Buffer) error { return nil }
func (*ChannelCloseOk) Unmarshal(*buffer.Buffer) error { return nil }

// ---- exchange.* ----

type ExchangeDeclare struct {
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  Table
}

func (ExchangeDeclare) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeDeclare) MethodID() uint16 { return wireconst.ExchangeDeclare }
func (m ExchangeDeclare) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0) // reserved-1
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Type); err != nil {
		return err
	}
	WriteBits(wr, m.Passive, m.Durable, m.AutoDelete, m.Internal, m.NoWait)
	return WriteTable(wr, m.Arguments)
}
func (m *ExchangeDeclare) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Type, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 5)
	if err != nil {
		return err
	}
	m.Passive, m.Durable, m.AutoDelete, m.Internal, m.NoWait = bits[0], bits[1], bits[2], bits[3], bits[4]
	m.Arguments, err = ReadTable(r)
	return err
}

type ExchangeDeclareOk struct{}

func (ExchangeDeclareOk) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeDeclareOk) MethodID() uint16 { return wireconst.ExchangeDeclareOk }
func (ExchangeDeclareOk) Marshal(*buffer.Buffer) error { return nil }
func (*ExchangeDeclareOk) Unmarshal(*buffer.Buffer) error { return nil }

type ExchangeDelete struct {
	Exchange string
	IfUnused bool
	NoWait   bool
}

func (ExchangeDelete) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeDelete) MethodID() uint16 { return wireconst.ExchangeDelete }
func (m ExchangeDelete) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	WriteBits(wr, m.IfUnused, m.NoWait)
	return nil
}
func (m *ExchangeDelete) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 2)
	if err != nil {
		return err
	}
	m.IfUnused, m.NoWait = bits[0], bits[1]
	return nil
}

type ExchangeDeleteOk struct{}

func (ExchangeDeleteOk) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeDeleteOk) MethodID() uint16 { return wireconst.ExchangeDeleteOk }
func (ExchangeDeleteOk) Marshal(*buffer.Buffer) error { return nil }
func (*ExchangeDeleteOk) Unmarshal(*buffer.Buffer) error { return nil }

type ExchangeBind struct {
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (ExchangeBind) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeBind) MethodID() uint16 { return wireconst.ExchangeBind }
func (m ExchangeBind) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Destination); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Source); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.RoutingKey); err != nil {
		return err
	}
	WriteBits(wr, m.NoWait)
	return WriteTable(wr, m.Arguments)
}
func (m *ExchangeBind) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Destination, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Source, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.RoutingKey, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.NoWait = bits[0]
	m.Arguments, err = ReadTable(r)
	return err
}

type ExchangeBindOk struct{}

func (ExchangeBindOk) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeBindOk) MethodID() uint16 { return wireconst.ExchangeBindOk }
func (ExchangeBindOk) Marshal(*buffer.Buffer) error { return nil }
func (*ExchangeBindOk) Unmarshal(*buffer.Buffer) error { return nil }

type ExchangeUnbind struct {
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (ExchangeUnbind) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeUnbind) MethodID() uint16 { return wireconst.ExchangeUnbind }
func (m ExchangeUnbind) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Destination); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Source); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.RoutingKey); err != nil {
		return err
	}
	WriteBits(wr, m.NoWait)
	return WriteTable(wr, m.Arguments)
}
func (m *ExchangeUnbind) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Destination, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Source, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.RoutingKey, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.NoWait = bits[0]
	m.Arguments, err = ReadTable(r)
	return err
}

type ExchangeUnbindOk struct{}

func (ExchangeUnbindOk) ClassID() uint16 { return wireconst.ClassExchange }
func (ExchangeUnbindOk) MethodID() uint16 { return wireconst.ExchangeUnbindOk }
func (ExchangeUnbindOk) Marshal(*buffer.Buffer) error { return nil }
func (*ExchangeUnbindOk) Unmarshal(*buffer.Buffer) error { return nil }

// ---- queue.* ----

type QueueDeclare struct {
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  Table
}

func (QueueDeclare) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueDeclare) MethodID() uint16 { return wireconst.QueueDeclare }
func (m QueueDeclare) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	WriteBits(wr, m.Passive, m.Durable, m.Exclusive, m.AutoDelete, m.NoWait)
	return WriteTable(wr, m.Arguments)
}
func (m *QueueDeclare) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 5)
	if err != nil {
		return err
	}
	m.Passive, m.Durable, m.Exclusive, m.AutoDelete, m.NoWait = bits[0], bits[1], bits[2], bits[3], bits[4]
	m.Arguments, err = ReadTable(r)
	return err
}

type QueueDeclareOk struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func (QueueDeclareOk) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueDeclareOk) MethodID() uint16 { return wireconst.QueueDeclareOk }
func (m QueueDeclareOk) Marshal(wr *buffer.Buffer) error {
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	wr.WriteUint32(m.MessageCount)
	wr.WriteUint32(m.ConsumerCount)
	return nil
}
func (m *QueueDeclareOk) Unmarshal(r *buffer.Buffer) error {
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	var ok bool
	if m.MessageCount, ok = r.ReadUint32(); !ok {
		return ErrMalformed
	}
	if m.ConsumerCount, ok = r.ReadUint32(); !ok {
		return ErrMalformed
	}
	return nil
}

type QueueBind struct {
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  Table
}

func (QueueBind) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueBind) MethodID() uint16 { return wireconst.QueueBind }
func (m QueueBind) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.RoutingKey); err != nil {
		return err
	}
	WriteBits(wr, m.NoWait)
	return WriteTable(wr, m.Arguments)
}
func (m *QueueBind) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.RoutingKey, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.NoWait = bits[0]
	m.Arguments, err = ReadTable(r)
	return err
}

type QueueBindOk struct{}

func (QueueBindOk) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueBindOk) MethodID() uint16 { return wireconst.QueueBindOk }
func (QueueBindOk) Marshal(*buffer.Buffer) error { return nil }
func (*QueueBindOk) Unmarshal(*buffer.Buffer) error { return nil }

type QueueUnbind struct {
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  Table
}

func (QueueUnbind) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueUnbind) MethodID() uint16 { return wireconst.QueueUnbind }
func (m QueueUnbind) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.RoutingKey); err != nil {
		return err
	}
	return WriteTable(wr, m.Arguments)
}
func (m *QueueUnbind) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.RoutingKey, err = ReadShortStr(r); err != nil {
		return err
	}
	m.Arguments, err = ReadTable(r)
	return err
}

type QueueUnbindOk struct{}

func (QueueUnbindOk) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueUnbindOk) MethodID() uint16 { return wireconst.QueueUnbindOk }
func (QueueUnbindOk) Marshal(*buffer.Buffer) error { return nil }
func (*QueueUnbindOk) Unmarshal(*buffer.Buffer) error { return nil }

type QueuePurge struct {
	Queue  string
	NoWait bool
}

func (QueuePurge) ClassID() uint16 { return wireconst.ClassQueue }
func (QueuePurge) MethodID() uint16 { return wireconst.QueuePurge }
func (m QueuePurge) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	WriteBits(wr, m.NoWait)
	return nil
}
func (m *QueuePurge) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.NoWait = bits[0]
	return nil
}

type QueuePurgeOk struct{ MessageCount uint32 }

func (QueuePurgeOk) ClassID() uint16 { return wireconst.ClassQueue }
func (QueuePurgeOk) MethodID() uint16 { return wireconst.QueuePurgeOk }
func (m QueuePurgeOk) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint32(m.MessageCount)
	return nil
}
func (m *QueuePurgeOk) Unmarshal(r *buffer.Buffer) error {
	v, ok := r.ReadUint32()
	if !ok {
		return ErrMalformed
	}
	m.MessageCount = v
	return nil
}

type QueueDelete struct {
	Queue    string
	IfUnused bool
	IfEmpty  bool
	NoWait   bool
}

func (QueueDelete) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueDelete) MethodID() uint16 { return wireconst.QueueDelete }
func (m QueueDelete) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	WriteBits(wr, m.IfUnused, m.IfEmpty, m.NoWait)
	return nil
}
func (m *QueueDelete) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 3)
	if err != nil {
		return err
	}
	m.IfUnused, m.IfEmpty, m.NoWait = bits[0], bits[1], bits[2]
	return nil
}

type QueueDeleteOk struct{ MessageCount uint32 }

func (QueueDeleteOk) ClassID() uint16 { return wireconst.ClassQueue }
func (QueueDeleteOk) MethodID() uint16 { return wireconst.QueueDeleteOk }
func (m QueueDeleteOk) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint32(m.MessageCount)
	return nil
}
func (m *QueueDeleteOk) Unmarshal(r *buffer.Buffer) error {
	v, ok := r.ReadUint32()
	if !ok {
		return ErrMalformed
	}
	m.MessageCount = v
	return nil
}

// ---- basic.* ----

type BasicQos struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (BasicQos) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicQos) MethodID() uint16 { return wireconst.BasicQos }
func (m BasicQos) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint32(m.PrefetchSize)
	wr.WriteUint16(m.PrefetchCount)
	WriteBits(wr, m.Global)
	return nil
}
func (m *BasicQos) Unmarshal(r *buffer.Buffer) error {
	var ok bool
	if m.PrefetchSize, ok = r.ReadUint32(); !ok {
		return ErrMalformed
	}
	if m.PrefetchCount, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Global = bits[0]
	return nil
}

type BasicQosOk struct{}

func (BasicQosOk) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicQosOk) MethodID() uint16 { return wireconst.BasicQosOk }
func (BasicQosOk) Marshal(*buffer.Buffer) error { return nil }
func (*BasicQosOk) Unmarshal(*buffer.Buffer) error { return nil }

type BasicConsume struct {
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   Table
}

func (BasicConsume) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicConsume) MethodID() uint16 { return wireconst.BasicConsume }
func (m BasicConsume) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.ConsumerTag); err != nil {
		return err
	}
	WriteBits(wr, m.NoLocal, m.NoAck, m.Exclusive, m.NoWait)
	return WriteTable(wr, m.Arguments)
}
func (m *BasicConsume) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.ConsumerTag, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 4)
	if err != nil {
		return err
	}
	m.NoLocal, m.NoAck, m.Exclusive, m.NoWait = bits[0], bits[1], bits[2], bits[3]
	m.Arguments, err = ReadTable(r)
	return err
}

type BasicConsumeOk struct{ ConsumerTag string }

func (BasicConsumeOk) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicConsumeOk) MethodID() uint16 { return wireconst.BasicConsumeOk }
func (m BasicConsumeOk) Marshal(wr *buffer.Buffer) error {
	return WriteShortStr(wr, m.ConsumerTag)
}
func (m *BasicConsumeOk) Unmarshal(r *buffer.Buffer) error {
	var err error
	m.ConsumerTag, err = ReadShortStr(r)
	return err
}

type BasicCancel struct {
	ConsumerTag string
	NoWait      bool
}

func (BasicCancel) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicCancel) MethodID() uint16 { return wireconst.BasicCancel }
func (m BasicCancel) Marshal(wr *buffer.Buffer) error {
	if err := WriteShortStr(wr, m.ConsumerTag); err != nil {
		return err
	}
	WriteBits(wr, m.NoWait)
	return nil
}
func (m *BasicCancel) Unmarshal(r *buffer.Buffer) error {
	var err error
	if m.ConsumerTag, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.NoWait = bits[0]
	return nil
}

type BasicCancelOk struct{ ConsumerTag string }

func (BasicCancelOk) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicCancelOk) MethodID() uint16 { return wireconst.BasicCancelOk }
func (m BasicCancelOk) Marshal(wr *buffer.Buffer) error {
	return WriteShortStr(wr, m.ConsumerTag)
}
func (m *BasicCancelOk) Unmarshal(r *buffer.Buffer) error {
	var err error
	m.ConsumerTag, err = ReadShortStr(r)
	return err
}

type BasicPublish struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (BasicPublish) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicPublish) MethodID() uint16 { return wireconst.BasicPublish }
func (m BasicPublish) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.RoutingKey); err != nil {
		return err
	}
	WriteBits(wr, m.Mandatory, m.Immediate)
	return nil
}
func (m *BasicPublish) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.RoutingKey, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 2)
	if err != nil {
		return err
	}
	m.Mandatory, m.Immediate = bits[0], bits[1]
	return nil
}

type BasicReturn struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (BasicReturn) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicReturn) MethodID() uint16 { return wireconst.BasicReturn }
func (m BasicReturn) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(m.ReplyCode)
	if err := WriteShortStr(wr, m.ReplyText); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	return WriteShortStr(wr, m.RoutingKey)
}
func (m *BasicReturn) Unmarshal(r *buffer.Buffer) error {
	var ok bool
	if m.ReplyCode, ok = r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.ReplyText, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	m.RoutingKey, err = ReadShortStr(r)
	return err
}

type BasicDeliver struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func (BasicDeliver) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicDeliver) MethodID() uint16 { return wireconst.BasicDeliver }
func (m BasicDeliver) Marshal(wr *buffer.Buffer) error {
	if err := WriteShortStr(wr, m.ConsumerTag); err != nil {
		return err
	}
	wr.WriteUint64(m.DeliveryTag)
	WriteBits(wr, m.Redelivered)
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	return WriteShortStr(wr, m.RoutingKey)
}
func (m *BasicDeliver) Unmarshal(r *buffer.Buffer) error {
	var err error
	if m.ConsumerTag, err = ReadShortStr(r); err != nil {
		return err
	}
	dt, ok := r.ReadUint64()
	if !ok {
		return ErrMalformed
	}
	m.DeliveryTag = dt
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Redelivered = bits[0]
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	m.RoutingKey, err = ReadShortStr(r)
	return err
}

type BasicGet struct {
	Queue string
	NoAck bool
}

func (BasicGet) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicGet) MethodID() uint16 { return wireconst.BasicGet }
func (m BasicGet) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint16(0)
	if err := WriteShortStr(wr, m.Queue); err != nil {
		return err
	}
	WriteBits(wr, m.NoAck)
	return nil
}
func (m *BasicGet) Unmarshal(r *buffer.Buffer) error {
	if _, ok := r.ReadUint16(); !ok {
		return ErrMalformed
	}
	var err error
	if m.Queue, err = ReadShortStr(r); err != nil {
		return err
	}
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.NoAck = bits[0]
	return nil
}

type BasicGetOk struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func (BasicGetOk) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicGetOk) MethodID() uint16 { return wireconst.BasicGetOk }
func (m BasicGetOk) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint64(m.DeliveryTag)
	WriteBits(wr, m.Redelivered)
	if err := WriteShortStr(wr, m.Exchange); err != nil {
		return err
	}
	if err := WriteShortStr(wr, m.RoutingKey); err != nil {
		return err
	}
	wr.WriteUint32(m.MessageCount)
	return nil
}
func (m *BasicGetOk) Unmarshal(r *buffer.Buffer) error {
	dt, ok := r.ReadUint64()
	if !ok {
		return ErrMalformed
	}
	m.DeliveryTag = dt
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Redelivered = bits[0]
	if m.Exchange, err = ReadShortStr(r); err != nil {
		return err
	}
	if m.RoutingKey, err = ReadShortStr(r); err != nil {
		return err
	}
	mc, ok := r.ReadUint32()
	if !ok {
		return ErrMalformed
	}
	m.MessageCount = mc
	return nil
}

type BasicGetEmpty struct{ Reserved1 string }

func (BasicGetEmpty) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicGetEmpty) MethodID() uint16 { return wireconst.BasicGetEmpty }
func (m BasicGetEmpty) Marshal(wr *buffer.Buffer) error {
	return WriteShortStr(wr, m.Reserved1)
}
func (m *BasicGetEmpty) Unmarshal(r *buffer.Buffer) error {
	var err error
	m.Reserved1, err = ReadShortStr(r)
	return err
}

type BasicAck struct {
	DeliveryTag uint64
	Multiple    bool
}

func (BasicAck) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicAck) MethodID() uint16 { return wireconst.BasicAck }
func (m BasicAck) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint64(m.DeliveryTag)
	WriteBits(wr, m.Multiple)
	return nil
}
func (m *BasicAck) Unmarshal(r *buffer.Buffer) error {
	dt, ok := r.ReadUint64()
	if !ok {
		return ErrMalformed
	}
	m.DeliveryTag = dt
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Multiple = bits[0]
	return nil
}

type BasicReject struct {
	DeliveryTag uint64
	Requeue     bool
}

func (BasicReject) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicReject) MethodID() uint16 { return wireconst.BasicReject }
func (m BasicReject) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint64(m.DeliveryTag)
	WriteBits(wr, m.Requeue)
	return nil
}
func (m *BasicReject) Unmarshal(r *buffer.Buffer) error {
	dt, ok := r.ReadUint64()
	if !ok {
		return ErrMalformed
	}
	m.DeliveryTag = dt
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Requeue = bits[0]
	return nil
}

type BasicRecoverAsync struct{ Requeue bool }

func (BasicRecoverAsync) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicRecoverAsync) MethodID() uint16 { return wireconst.BasicRecoverAsync }
func (m BasicRecoverAsync) Marshal(wr *buffer.Buffer) error {
	WriteBits(wr, m.Requeue)
	return nil
}
func (m *BasicRecoverAsync) Unmarshal(r *buffer.Buffer) error {
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Requeue = bits[0]
	return nil
}

type BasicRecover struct{ Requeue bool }

func (BasicRecover) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicRecover) MethodID() uint16 { return wireconst.BasicRecover }
func (m BasicRecover) Marshal(wr *buffer.Buffer) error {
	WriteBits(wr, m.Requeue)
	return nil
}
func (m *BasicRecover) Unmarshal(r *buffer.Buffer) error {
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.Requeue = bits[0]
	return nil
}

type BasicRecoverOk struct{}

func (BasicRecoverOk) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicRecoverOk) MethodID() uint16 { return wireconst.BasicRecoverOk }
func (BasicRecoverOk) Marshal(*buffer.Buffer) error { return nil }
func (*BasicRecoverOk) Unmarshal(*buffer.Buffer) error { return nil }

type BasicNack struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (BasicNack) ClassID() uint16 { return wireconst.ClassBasic }
func (BasicNack) MethodID() uint16 { return wireconst.BasicNack }
func (m BasicNack) Marshal(wr *buffer.Buffer) error {
	wr.WriteUint64(m.DeliveryTag)
	WriteBits(wr, m.Multiple, m.Requeue)
	return nil
}
func (m *BasicNack) Unmarshal(r *buffer.Buffer) error {
	dt, ok := r.ReadUint64()
	if !ok {
		return ErrMalformed
	}
	m.DeliveryTag = dt
	bits, err := ReadBits(r, 2)
	if err != nil {
		return err
	}
	m.Multiple, m.Requeue = bits[0], bits[1]
	return nil
}

// ---- confirm.* ----

type ConfirmSelect struct{ NoWait bool }

func (ConfirmSelect) ClassID() uint16 { return wireconst.ClassConfirm }
func (ConfirmSelect) MethodID() uint16 { return wireconst.ConfirmSelect }
func (m ConfirmSelect) Marshal(wr *buffer.Buffer) error {
	WriteBits(wr, m.NoWait)
	return nil
}
func (m *ConfirmSelect) Unmarshal(r *buffer.Buffer) error {
	bits, err := ReadBits(r, 1)
	if err != nil {
		return err
	}
	m.NoWait = bits[0]
	return nil
}

type ConfirmSelectOk struct{}

func (ConfirmSelectOk) ClassID() uint16 { return wireconst.ClassConfirm }
func (ConfirmSelectOk) MethodID() uint16 { return wireconst.ConfirmSelectOk }
func (ConfirmSelectOk) Marshal(*buffer.Buffer) error { return nil }
func (*ConfirmSelectOk) Unmarshal(*buffer.Buffer) error { return nil }

// DecodeMethod allocates the concrete Method for (classID, methodID) and
// unmarshals its arguments from r. It is the single dispatch point the
// frame codec uses to turn a Method frame's payload into a typed value.
func DecodeMethod(classID, methodID uint16, r *buffer.Buffer) (Method, error) {
	m := newMethod(classID, methodID)
	if m == nil {
		return nil, errors.Errorf("encoding: unknown method class=%d method=%d", classID, methodID)
	}
	if err := m.Unmarshal(r); err != nil {
		return nil, err
	}
	return m, nil
}

func newMethod(classID, methodID uint16) Method {
	switch classID {
	case wireconst.ClassConnection:
		switch methodID {
		case wireconst.ConnectionStart:
			return &ConnectionStart{}
		case wireconst.ConnectionStartOk:
			return &ConnectionStartOk{}
		case wireconst.ConnectionTune:
			return &ConnectionTune{}
		case wireconst.ConnectionTuneOk:
			return &ConnectionTuneOk{}
		case wireconst.ConnectionOpen:
			return &ConnectionOpen{}
		case wireconst.ConnectionOpenOk:
			return &ConnectionOpenOk{}
		case wireconst.ConnectionClose:
			return &ConnectionClose{}
		case wireconst.ConnectionCloseOk:
			return &ConnectionCloseOk{}
		}
	case wireconst.ClassChannel:
		switch methodID {
		case wireconst.ChannelOpen:
			return &ChannelOpen{}
		case wireconst.ChannelOpenOk:
			return &ChannelOpenOk{}
		case wireconst.ChannelFlow:
			return &ChannelFlow{}
		case wireconst.ChannelFlowOk:
			return &ChannelFlowOk{}
		case wireconst.ChannelClose:
			return &ChannelClose{}
		case wireconst.ChannelCloseOk:
			return &ChannelCloseOk{}
		}
	case wireconst.ClassExchange:
		switch methodID {
		case wireconst.ExchangeDeclare:
			return &ExchangeDeclare{}
		case wireconst.ExchangeDeclareOk:
			return &ExchangeDeclareOk{}
		case wireconst.ExchangeDelete:
			return &ExchangeDelete{}
		case wireconst.ExchangeDeleteOk:
			return &ExchangeDeleteOk{}
		case wireconst.ExchangeBind:
			return &ExchangeBind{}
		case wireconst.ExchangeBindOk:
			return &ExchangeBindOk{}
		case wireconst.ExchangeUnbind:
			return &ExchangeUnbind{}
		case wireconst.ExchangeUnbindOk:
			return &ExchangeUnbindOk{}
		}
	case wireconst.ClassQueue:
		switch methodID {
		case wireconst.QueueDeclare:
			return &QueueDeclare{}
		case wireconst.QueueDeclareOk:
			return &QueueDeclareOk{}
		case wireconst.QueueBind:
			return &QueueBind{}
		case wireconst.QueueBindOk:
			return &QueueBindOk{}
		case wireconst.QueueUnbind:
			return &QueueUnbind{}
		case wireconst.QueueUnbindOk:
			return &QueueUnbindOk{}
		case wireconst.QueuePurge:
			return &QueuePurge{}
		case wireconst.QueuePurgeOk:
			return &QueuePurgeOk{}
		case wireconst.QueueDelete:
			return &QueueDelete{}
		case wireconst.QueueDeleteOk:
			return &QueueDeleteOk{}
		}
	case wireconst.ClassBasic:
		switch methodID {
		case wireconst.BasicQos:
			return &BasicQos{}
		case wireconst.BasicQosOk:
			return &BasicQosOk{}
		case wireconst.BasicConsume:
			return &BasicConsume{}
		case wireconst.BasicConsumeOk:
			return &BasicConsumeOk{}
		case wireconst.BasicCancel:
			return &BasicCancel{}
		case wireconst.BasicCancelOk:
			return &BasicCancelOk{}
		case wireconst.BasicPublish:
			return &BasicPublish{}
		case wireconst.BasicReturn:
			return &BasicReturn{}
		case wireconst.BasicDeliver:
			return &BasicDeliver{}
		case wireconst.BasicGet:
			return &BasicGet{}
		case wireconst.BasicGetOk:
			return &BasicGetOk{}
		case wireconst.BasicGetEmpty:
			return &BasicGetEmpty{}
		case wireconst.BasicAck:
			return &BasicAck{}
		case wireconst.BasicReject:
			return &BasicReject{}
		case wireconst.BasicRecoverAsync:
			return &BasicRecoverAsync{}
		case wireconst.BasicRecover:
			return &BasicRecover{}
		case wireconst.BasicRecoverOk:
			return &BasicRecoverOk{}
		case wireconst.BasicNack:
			return &BasicNack{}
		}
	case wireconst.ClassConfirm:
		switch methodID {
		case wireconst.ConfirmSelect:
			return &ConfirmSelect{}
		case wireconst.ConfirmSelectOk:
			return &ConfirmSelectOk{}
		}
	}
	return nil
}
