// Package encoding implements the AMQP 0-9-1 primitive wire types
// (shortstr, longstr, field-table, field-array, bit-packed booleans) and
// the content-header Properties struct, plus the typed class/method
// argument lists in methods.go. Each wire type gets one marshal and one
// unmarshal function threaded through a shared *buffer.Buffer cursor.
package encoding

import (
	"math"

	"github.com/pkg/errors"

	"github.com/amqp091core/amqp091core/internal/buffer"
)

// ErrMalformed is returned by the primitive decoders when a field runs past
// the end of its payload, so callers can distinguish "needs more bytes"
// (handled one level up, in internal/frame) from "the bytes we have are not
// valid AMQP". An unknown field-table tag yields a separate error.
var ErrMalformed = errors.New("amqp091core: malformed field")

func WriteShortStr(wr *buffer.Buffer, s string) error {
	if len(s) > math.MaxUint8 {
		return errors.Errorf("shortstr exceeds 255 bytes: %d", len(s))
	}
	wr.WriteByte(byte(len(s)))
	wr.Write([]byte(s))
	return nil
}

func ReadShortStr(r *buffer.Buffer) (string, error) {
	n, ok := r.ReadByte()
	if !ok {
		return "", ErrMalformed
	}
	p, ok := r.Next(int(n))
	if !ok {
		return "", ErrMalformed
	}
	return string(p), nil
}

func WriteLongStr(wr *buffer.Buffer, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return errors.Errorf("longstr exceeds 4GiB: %d", len(s))
	}
	wr.WriteUint32(uint32(len(s)))
	wr.Write([]byte(s))
	return nil
}

func ReadLongStr(r *buffer.Buffer) (string, error) {
	n, ok := r.ReadUint32()
	if !ok {
		return "", ErrMalformed
	}
	p, ok := r.Next(int(n))
	if !ok {
		return "", ErrMalformed
	}
	return string(p), nil
}

func WriteLongBytes(wr *buffer.Buffer, b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return errors.Errorf("longstr exceeds 4GiB: %d", len(b))
	}
	wr.WriteUint32(uint32(len(b)))
	wr.Write(b)
	return nil
}

func ReadLongBytes(r *buffer.Buffer) ([]byte, error) {
	n, ok := r.ReadUint32()
	if !ok {
		return nil, ErrMalformed
	}
	p, ok := r.Next(int(n))
	if !ok {
		return nil, ErrMalformed
	}
	return append([]byte(nil), p...), nil
}

// Table is an AMQP field-table: shortstr-named entries of typed values.
type Table map[string]interface{}

// field-value type tags used on the wire (subset of the 0-9-1 table spec,
// matching the tags amqp091-go's writeField/readField recognize).
const (
	tagBoolean    = 't'
	tagShortShort = 'b'
	tagShort      = 'U'
	tagLong       = 'I'
	tagLongLong   = 'L'
	tagFloat      = 'f'
	tagDouble     = 'd'
	tagDecimal    = 'D'
	tagShortStr   = 's'
	tagLongStr    = 'S'
	tagFieldArray = 'A'
	tagTimestamp  = 'T'
	tagFieldTable = 'F'
	tagVoid       = 'V'
	tagByteArray  = 'x'
)

func WriteTable(wr *buffer.Buffer, t Table) error {
	inner := &buffer.Buffer{}
	for k, v := range t {
		if err := WriteShortStr(inner, k); err != nil {
			return err
		}
		if err := WriteFieldValue(inner, v); err != nil {
			return err
		}
	}
	return WriteLongBytes(wr, inner.Detach())
}

func ReadTable(r *buffer.Buffer) (Table, error) {
	raw, err := ReadLongBytes(r)
	if err != nil {
		return nil, err
	}
	inner := buffer.New(raw)
	t := Table{}
	for inner.Len() > 0 {
		k, err := ReadShortStr(inner)
		if err != nil {
			return nil, err
		}
		v, err := ReadFieldValue(inner)
		if err != nil {
			return nil, err
		}
		t[k] = v
	}
	return t, nil
}

func WriteFieldValue(wr *buffer.Buffer, v interface{}) error {
	switch t := v.(type) {
	case nil:
		wr.WriteByte(tagVoid)
	case bool:
		wr.WriteByte(tagBoolean)
		if t {
			wr.WriteByte(1)
		} else {
			wr.WriteByte(0)
		}
	case int8:
		wr.WriteByte(tagShortShort)
		wr.WriteByte(byte(t))
	case int16:
		wr.WriteByte(tagShort)
		wr.WriteUint16(uint16(t))
	case int32:
		wr.WriteByte(tagLong)
		wr.WriteUint32(uint32(t))
	case int:
		wr.WriteByte(tagLong)
		wr.WriteUint32(uint32(t))
	case int64:
		wr.WriteByte(tagLongLong)
		wr.WriteUint64(uint64(t))
	case float32:
		wr.WriteByte(tagFloat)
		wr.WriteUint32(math.Float32bits(t))
	case float64:
		wr.WriteByte(tagDouble)
		wr.WriteUint64(math.Float64bits(t))
	case string:
		wr.WriteByte(tagLongStr)
		return WriteLongStr(wr, t)
	case []byte:
		wr.WriteByte(tagByteArray)
		return WriteLongBytes(wr, t)
	case Table:
		wr.WriteByte(tagFieldTable)
		return WriteTable(wr, t)
	case map[string]interface{}:
		wr.WriteByte(tagFieldTable)
		return WriteTable(wr, Table(t))
	case []interface{}:
		wr.WriteByte(tagFieldArray)
		return writeFieldArray(wr, t)
	default:
		return errors.Errorf("encoding: unsupported field-table value type %T", v)
	}
	return nil
}

func writeFieldArray(wr *buffer.Buffer, arr []interface{}) error {
	inner := &buffer.Buffer{}
	for _, v := range arr {
		if err := WriteFieldValue(inner, v); err != nil {
			return err
		}
	}
	return WriteLongBytes(wr, inner.Detach())
}

func ReadFieldValue(r *buffer.Buffer) (interface{}, error) {
	tag, ok := r.ReadByte()
	if !ok {
		return nil, ErrMalformed
	}
	switch tag {
	case tagVoid:
		return nil, nil
	case tagBoolean:
		b, ok := r.ReadByte()
		if !ok {
			return nil, ErrMalformed
		}
		return b != 0, nil
	case tagShortShort:
		b, ok := r.ReadByte()
		if !ok {
			return nil, ErrMalformed
		}
		return int8(b), nil
	case tagShort:
		v, ok := r.ReadUint16()
		if !ok {
			return nil, ErrMalformed
		}
		return int16(v), nil
	case tagLong:
		v, ok := r.ReadUint32()
		if !ok {
			return nil, ErrMalformed
		}
		return int32(v), nil
	case tagLongLong:
		v, ok := r.ReadUint64()
		if !ok {
			return nil, ErrMalformed
		}
		return int64(v), nil
	case tagFloat:
		v, ok := r.ReadUint32()
		if !ok {
			return nil, ErrMalformed
		}
		return math.Float32frombits(v), nil
	case tagDouble:
		v, ok := r.ReadUint64()
		if !ok {
			return nil, ErrMalformed
		}
		return math.Float64frombits(v), nil
	case tagShortStr:
		return ReadShortStr(r)
	case tagLongStr:
		return ReadLongStr(r)
	case tagByteArray:
		return ReadLongBytes(r)
	case tagFieldTable:
		return ReadTable(r)
	case tagFieldArray:
		return readFieldArray(r)
	case tagTimestamp:
		v, ok := r.ReadUint64()
		if !ok {
			return nil, ErrMalformed
		}
		return v, nil
	case tagDecimal:
		if _, ok := r.ReadByte(); !ok {
			return nil, ErrMalformed
		}
		v, ok := r.ReadUint32()
		if !ok {
			return nil, ErrMalformed
		}
		return v, nil
	default:
		return nil, errors.Errorf("encoding: unsupported field-table tag %q", tag)
	}
}

func readFieldArray(r *buffer.Buffer) ([]interface{}, error) {
	raw, err := ReadLongBytes(r)
	if err != nil {
		return nil, err
	}
	inner := buffer.New(raw)
	var out []interface{}
	for inner.Len() > 0 {
		v, err := ReadFieldValue(inner)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Bits packs up to 8 booleans into a single octet, the AMQP 0-9-1 rule for
// consecutive bit-typed method arguments.
type Bits []bool

func WriteBits(wr *buffer.Buffer, bits ...bool) {
	var b byte
	for i, v := range bits {
		if v {
			b |= 1 << uint(i)
		}
	}
	wr.WriteByte(b)
}

func ReadBits(r *buffer.Buffer, n int) ([]bool, error) {
	b, ok := r.ReadByte()
	if !ok {
		return nil, ErrMalformed
	}
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = b&(1<<uint(i)) != 0
	}
	return out, nil
}
