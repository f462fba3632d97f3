package wire

import (
	"bytes"
	"testing"
)

func TestWriterBytesLayout(t *testing.T) {
	w := NewWriter(16)
	w.WriteByte(0x01)
	w.WriteUint16(0x0203)
	w.WriteUint32(0x04050607)

	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	if got := w.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %v, want %v", got, want)
	}
}

func TestWriterStringLengthPrefix(t *testing.T) {
	w := NewWriter(8)
	w.WriteString("ab")
	want := []byte{0x00, 0x02, 'a', 'b'}
	if got := w.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %v, want %v", got, want)
	}
}

func TestWriterBytesLengthPrefix(t *testing.T) {
	w := NewWriter(8)
	w.WriteBytes([]byte{0xAA, 0xBB})
	want := []byte{0x00, 0x00, 0x00, 0x02, 0xAA, 0xBB}
	if got := w.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %v, want %v", got, want)
	}
}
