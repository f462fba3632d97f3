package wire

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(32)
	w.WriteByte(0x42)
	w.WriteUint16(1234)
	w.WriteUint32(567890)
	w.WriteUint64(123456789012)
	w.WriteString("hello")
	w.WriteBytes([]byte{1, 2, 3, 4})

	r := NewReader(w.Bytes())

	if b, err := r.ReadByte(); err != nil || b != 0x42 {
		t.Fatalf("ReadByte() = (%v, %v), want (0x42, nil)", b, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 1234 {
		t.Fatalf("ReadUint16() = (%v, %v), want (1234, nil)", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 567890 {
		t.Fatalf("ReadUint32() = (%v, %v), want (567890, nil)", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != 123456789012 {
		t.Fatalf("ReadUint64() = (%v, %v), want (123456789012, nil)", v, err)
	}
	if s, err := r.ReadString(); err != nil || s != "hello" {
		t.Fatalf("ReadString() = (%q, %v), want (\"hello\", nil)", s, err)
	}
	if b, err := r.ReadBytes(); err != nil || string(b) != "\x01\x02\x03\x04" {
		t.Fatalf("ReadBytes() = (%v, %v), want ([1 2 3 4], nil)", b, err)
	}
	if rem := r.Remaining(); rem != 0 {
		t.Errorf("Remaining() = %d, want 0", rem)
	}
}

func TestReaderRejectsShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadUint32(); err == nil {
		t.Error("expected error reading uint32 from 1-byte buffer")
	}
}

func TestReaderRejectsTruncatedString(t *testing.T) {
	w := NewWriter(8)
	w.WriteString("hello")
	buf := w.Bytes()[:4]
	r := NewReader(buf)
	if _, err := r.ReadString(); err == nil {
		t.Error("expected error reading a string whose declared length exceeds the buffer")
	}
}

func TestReaderRejectsTruncatedBytes(t *testing.T) {
	w := NewWriter(8)
	w.WriteUint32(100)
	buf := w.Bytes()
	r := NewReader(buf)
	if _, err := r.ReadBytes(); err == nil {
		t.Error("expected error reading bytes whose declared length exceeds the buffer")
	}
}

func TestReaderEmptyStringRoundTrip(t *testing.T) {
	w := NewWriter(4)
	w.WriteString("")
	r := NewReader(w.Bytes())
	s, err := r.ReadString()
	if err != nil || s != "" {
		t.Errorf("ReadString() = (%q, %v), want (\"\", nil)", s, err)
	}
}
