// Package buffer provides the small growable byte buffer the frame codec
// and method encoders read and write through: Len, Bytes, Next, the typed
// Write* helpers, and Reset for reuse across calls.
package buffer

import "encoding/binary"

// Buffer is a growable byte buffer with big-endian integer helpers.
// The zero value is ready to use.
type Buffer struct {
	b   []byte
	off int // read offset, used by Next/ReadByte
}

// New wraps an existing slice for reading.
func New(b []byte) *Buffer {
	return &Buffer{b: b}
}

func (b *Buffer) Reset() {
	b.b = b.b[:0]
	b.off = 0
}

func (b *Buffer) Len() int {
	return len(b.b) - b.off
}

// Bytes returns the unread portion of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.b[b.off:]
}

// Detach returns the full written slice, ignoring the read offset.
func (b *Buffer) Detach() []byte {
	return b.b
}

func (b *Buffer) Write(p []byte) {
	b.b = append(b.b, p...)
}

func (b *Buffer) WriteByte(c byte) {
	b.b = append(b.b, c)
}

func (b *Buffer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.Write(tmp[:])
}

func (b *Buffer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func (b *Buffer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.Write(tmp[:])
}

// ReadByte consumes and returns the next byte.
func (b *Buffer) ReadByte() (byte, bool) {
	if b.off >= len(b.b) {
		return 0, false
	}
	c := b.b[b.off]
	b.off++
	return c, true
}

// Next consumes and returns the next n bytes. ok is false if fewer than n
// bytes remain, in which case no bytes are consumed.
func (b *Buffer) Next(n int) (p []byte, ok bool) {
	if b.Len() < n {
		return nil, false
	}
	p = b.b[b.off : b.off+n]
	b.off += n
	return p, true
}

func (b *Buffer) ReadUint16() (uint16, bool) {
	p, ok := b.Next(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(p), true
}

func (b *Buffer) ReadUint32() (uint32, bool) {
	p, ok := b.Next(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(p), true
}

func (b *Buffer) ReadUint64() (uint64, bool) {
	p, ok := b.Next(8)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(p), true
}
