package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/amqp091core/amqp091core/internal/encoding"
)

func roundTrip(t *testing.T, fr Frame) (Frame, int) {
	t.Helper()
	buf := make([]byte, 4096)
	n, err := Gen(buf, fr)
	if err != nil {
		t.Fatalf("Gen: %v", err)
	}
	consumed, got, err := Parse(buf[:n])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed = %d, want %d (bytes written)", consumed, n)
	}
	return got, n
}

func TestProtocolHeaderRoundTrip(t *testing.T) {
	got, n := roundTrip(t, ProtocolHeader{})
	if n != protocolHeaderLen {
		t.Fatalf("written = %d, want %d", n, protocolHeaderLen)
	}
	if _, ok := got.(ProtocolHeader); !ok {
		t.Fatalf("got %T, want ProtocolHeader", got)
	}
}

func TestMethodFrameRoundTrip(t *testing.T) {
	want := Method{
		Channel: 0,
		Method: &encoding.ConnectionStartOk{
			ClientProperties: encoding.Table{"product": "amqp091core"},
			Mechanism:        "PLAIN",
			Locale:           "en_US",
			Response:         "\x00guest\x00guest",
		},
	}
	got, _ := roundTrip(t, want)
	gotM, ok := got.(Method)
	if !ok {
		t.Fatalf("got %T, want Method", got)
	}
	if diff := cmp.Diff(want, gotM); diff != "" {
		t.Fatalf("method frame round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderFrameRoundTrip(t *testing.T) {
	var props encoding.Properties
	props.SetContentType("application/json")
	props.SetDeliveryMode(2)

	want := Header{Channel: 7, ClassID: 60, BodySize: 1234, Properties: props}
	got, _ := roundTrip(t, want)
	gotH, ok := got.(Header)
	if !ok {
		t.Fatalf("got %T, want Header", got)
	}
	if diff := cmp.Diff(want, gotH, cmp.AllowUnexported(encoding.Properties{})); diff != "" {
		t.Fatalf("header frame round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBodyFrameRoundTrip(t *testing.T) {
	want := Body{Channel: 7, Payload: []byte("hello world")}
	got, _ := roundTrip(t, want)
	gotB, ok := got.(Body)
	if !ok {
		t.Fatalf("got %T, want Body", got)
	}
	if diff := cmp.Diff(want, gotB); diff != "" {
		t.Fatalf("body frame round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHeartbeatFrameRoundTrip(t *testing.T) {
	got, n := roundTrip(t, Heartbeat{Channel: 0})
	if n != frameHeaderLen+1 {
		t.Fatalf("written = %d, want %d (empty payload + frame-end)", n, frameHeaderLen+1)
	}
	if _, ok := got.(Heartbeat); !ok {
		t.Fatalf("got %T, want Heartbeat", got)
	}
}

func TestParseIncompleteReturnsZeroConsumed(t *testing.T) {
	buf := make([]byte, 64)
	n, err := Gen(buf, Body{Channel: 1, Payload: []byte("abcdef")})
	if err != nil {
		t.Fatalf("Gen: %v", err)
	}
	full := buf[:n]
	for i := 0; i < n; i++ {
		consumed, fr, err := Parse(full[:i])
		if err != ErrIncomplete {
			t.Fatalf("Parse(%d bytes) = (%d, %v, %v), want ErrIncomplete", i, consumed, fr, err)
		}
		if consumed != 0 {
			t.Fatalf("Parse(%d bytes) consumed %d, want 0", i, consumed)
		}
	}
}

func TestParseMissingFrameEndIsError(t *testing.T) {
	buf := make([]byte, 64)
	n, err := Gen(buf, Body{Channel: 1, Payload: []byte("x")})
	if err != nil {
		t.Fatalf("Gen: %v", err)
	}
	buf[n-1] = 0x00 // corrupt the frame-end octet
	if _, _, err := Parse(buf[:n]); err == nil {
		t.Fatal("expected error for missing frame-end octet")
	}
}

func TestGenBufferTooSmall(t *testing.T) {
	buf := make([]byte, 2)
	if _, err := Gen(buf, Body{Channel: 1, Payload: []byte("hello")}); err != ErrBufferTooSmall {
		t.Fatalf("Gen with undersized buffer = %v, want ErrBufferTooSmall", err)
	}
}

func TestGenWritesNothingOnBufferTooSmall(t *testing.T) {
	buf := []byte{0xFF, 0xFF}
	before := append([]byte(nil), buf...)
	if _, err := Gen(buf, Body{Channel: 1, Payload: []byte("hello")}); err != ErrBufferTooSmall {
		t.Fatalf("Gen = %v, want ErrBufferTooSmall", err)
	}
	if diff := cmp.Diff(before, buf); diff != "" {
		t.Fatalf("Gen wrote into an undersized buffer (-before +after):\n%s", diff)
	}
}
