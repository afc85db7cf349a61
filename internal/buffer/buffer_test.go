package buffer

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	wr := &Buffer{}
	wr.WriteByte(0x7F)
	wr.WriteUint16(0x1234)
	wr.WriteUint32(0xDEADBEEF)
	wr.WriteUint64(0x0102030405060708)
	wr.Write([]byte("tail"))

	r := New(wr.Detach())

	b, ok := r.ReadByte()
	if !ok || b != 0x7F {
		t.Fatalf("ReadByte = %x, %v", b, ok)
	}
	u16, ok := r.ReadUint16()
	if !ok || u16 != 0x1234 {
		t.Fatalf("ReadUint16 = %x, %v", u16, ok)
	}
	u32, ok := r.ReadUint32()
	if !ok || u32 != 0xDEADBEEF {
		t.Fatalf("ReadUint32 = %x, %v", u32, ok)
	}
	u64, ok := r.ReadUint64()
	if !ok || u64 != 0x0102030405060708 {
		t.Fatalf("ReadUint64 = %x, %v", u64, ok)
	}
	tail, ok := r.Next(4)
	if !ok || string(tail) != "tail" {
		t.Fatalf("Next(4) = %q, %v", tail, ok)
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestReadPastEndFails(t *testing.T) {
	r := New([]byte{0x01})
	if _, ok := r.ReadUint32(); ok {
		t.Fatal("ReadUint32 on 1 byte should fail")
	}
	// A failed read must not consume bytes.
	b, ok := r.ReadByte()
	if !ok || b != 0x01 {
		t.Fatalf("ReadByte after failed ReadUint32 = %x, %v, want 0x01, true", b, ok)
	}
}

func TestResetClearsBuffer(t *testing.T) {
	b := &Buffer{}
	b.WriteByte(1)
	b.Reset()
	if b.Len() != 0 || len(b.Bytes()) != 0 {
		t.Fatalf("Reset left Len=%d Bytes=%v", b.Len(), b.Bytes())
	}
}
