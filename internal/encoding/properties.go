package encoding

import (
	"github.com/amqp091core/amqp091core/internal/buffer"
)

// Properties is the AMQP 0-9-1 basic content-header property list. Fields
// are optional; presence is tracked by the property-flags bitmask on the
// wire, not by Go zero values, so a Properties round-trips exactly.
type Properties struct {
	ContentType     string
	ContentEncoding string
	Headers         Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       int64
	Type            string
	UserID          string
	AppID           string

	hasContentType     bool
	hasContentEncoding bool
	hasHeaders         bool
	hasDeliveryMode    bool
	hasPriority        bool
	hasCorrelationID   bool
	hasReplyTo         bool
	hasExpiration      bool
	hasMessageID       bool
	hasTimestamp       bool
	hasType            bool
	hasUserID          bool
	hasAppID           bool
}

// property-flag bits, high bit of the 16-bit flag word first, matching the
// order the AMQP 0-9-1 spec defines basic properties in.
const (
	flagContentType     = 1 << 15
	flagContentEncoding = 1 << 14
	flagHeaders         = 1 << 13
	flagDeliveryMode    = 1 << 12
	flagPriority        = 1 << 11
	flagCorrelationID   = 1 << 10
	flagReplyTo         = 1 << 9
	flagExpiration      = 1 << 8
	flagMessageID       = 1 << 7
	flagTimestamp       = 1 << 6
	flagType            = 1 << 5
	flagUserID          = 1 << 4
	flagAppID           = 1 << 3
)

func (p *Properties) SetContentType(v string) { p.ContentType = v; p.hasContentType = true }
func (p *Properties) SetContentEncoding(v string) { p.ContentEncoding = v; p.hasContentEncoding = true }
func (p *Properties) SetHeaders(v Table) { p.Headers = v; p.hasHeaders = true }
func (p *Properties) SetDeliveryMode(v uint8) { p.DeliveryMode = v; p.hasDeliveryMode = true }
func (p *Properties) SetPriority(v uint8) { p.Priority = v; p.hasPriority = true }
func (p *Properties) SetCorrelationID(v string) { p.CorrelationID = v; p.hasCorrelationID = true }
func (p *Properties) SetReplyTo(v string) { p.ReplyTo = v; p.hasReplyTo = true }
func (p *Properties) SetExpiration(v string) { p.Expiration = v; p.hasExpiration = true }
func (p *Properties) SetMessageID(v string) { p.MessageID = v; p.hasMessageID = true }
func (p *Properties) SetTimestamp(v int64) { p.Timestamp = v; p.hasTimestamp = true }
func (p *Properties) SetType(v string) { p.Type = v; p.hasType = true }
func (p *Properties) SetUserID(v string) { p.UserID = v; p.hasUserID = true }
func (p *Properties) SetAppID(v string) { p.AppID = v; p.hasAppID = true }

func (p Properties) Marshal(wr *buffer.Buffer) error {
	var flags uint16
	if p.hasContentType {
		flags |= flagContentType
	}
	if p.hasContentEncoding {
		flags |= flagContentEncoding
	}
	if p.hasHeaders {
		flags |= flagHeaders
	}
	if p.hasDeliveryMode {
		flags |= flagDeliveryMode
	}
	if p.hasPriority {
		flags |= flagPriority
	}
	if p.hasCorrelationID {
		flags |= flagCorrelationID
	}
	if p.hasReplyTo {
		flags |= flagReplyTo
	}
	if p.hasExpiration {
		flags |= flagExpiration
	}
	if p.hasMessageID {
		flags |= flagMessageID
	}
	if p.hasTimestamp {
		flags |= flagTimestamp
	}
	if p.hasType {
		flags |= flagType
	}
	if p.hasUserID {
		flags |= flagUserID
	}
	if p.hasAppID {
		flags |= flagAppID
	}
	wr.WriteUint16(flags)

	if p.hasContentType {
		if err := WriteShortStr(wr, p.ContentType); err != nil {
			return err
		}
	}
	if p.hasContentEncoding {
		if err := WriteShortStr(wr, p.ContentEncoding); err != nil {
			return err
		}
	}
	if p.hasHeaders {
		if err := WriteTable(wr, p.Headers); err != nil {
			return err
		}
	}
	if p.hasDeliveryMode {
		wr.WriteByte(p.DeliveryMode)
	}
	if p.hasPriority {
		wr.WriteByte(p.Priority)
	}
	if p.hasCorrelationID {
		if err := WriteShortStr(wr, p.CorrelationID); err != nil {
			return err
		}
	}
	if p.hasReplyTo {
		if err := WriteShortStr(wr, p.ReplyTo); err != nil {
			return err
		}
	}
	if p.hasExpiration {
		if err := WriteShortStr(wr, p.Expiration); err != nil {
			return err
		}
	}
	if p.hasMessageID {
		if err := WriteShortStr(wr, p.MessageID); err != nil {
			return err
		}
	}
	if p.hasTimestamp {
		wr.WriteUint64(uint64(p.Timestamp))
	}
	if p.hasType {
		if err := WriteShortStr(wr, p.Type); err != nil {
			return err
		}
	}
	if p.hasUserID {
		if err := WriteShortStr(wr, p.UserID); err != nil {
			return err
		}
	}
	if p.hasAppID {
		if err := WriteShortStr(wr, p.AppID); err != nil {
			return err
		}
	}
	return nil
}

func UnmarshalProperties(r *buffer.Buffer) (Properties, error) {
	var p Properties
	flags, ok := r.ReadUint16()
	if !ok {
		return p, ErrMalformed
	}
	var err error
	if flags&flagContentType != 0 {
		if p.ContentType, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasContentType = true
	}
	if flags&flagContentEncoding != 0 {
		if p.ContentEncoding, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasContentEncoding = true
	}
	if flags&flagHeaders != 0 {
		if p.Headers, err = ReadTable(r); err != nil {
			return p, err
		}
		p.hasHeaders = true
	}
	if flags&flagDeliveryMode != 0 {
		b, ok := r.ReadByte()
		if !ok {
			return p, ErrMalformed
		}
		p.DeliveryMode = b
		p.hasDeliveryMode = true
	}
	if flags&flagPriority != 0 {
		b, ok := r.ReadByte()
		if !ok {
			return p, ErrMalformed
		}
		p.Priority = b
		p.hasPriority = true
	}
	if flags&flagCorrelationID != 0 {
		if p.CorrelationID, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasCorrelationID = true
	}
	if flags&flagReplyTo != 0 {
		if p.ReplyTo, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasReplyTo = true
	}
	if flags&flagExpiration != 0 {
		if p.Expiration, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasExpiration = true
	}
	if flags&flagMessageID != 0 {
		if p.MessageID, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasMessageID = true
	}
	if flags&flagTimestamp != 0 {
		v, ok := r.ReadUint64()
		if !ok {
			return p, ErrMalformed
		}
		p.Timestamp = int64(v)
		p.hasTimestamp = true
	}
	if flags&flagType != 0 {
		if p.Type, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasType = true
	}
	if flags&flagUserID != 0 {
		if p.UserID, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasUserID = true
	}
	if flags&flagAppID != 0 {
		if p.AppID, err = ReadShortStr(r); err != nil {
			return p, err
		}
		p.hasAppID = true
	}
	return p, nil
}
