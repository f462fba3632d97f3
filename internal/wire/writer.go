package wire

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates a record's encoded bytes. The shape (a growable buffer
// behind typed Write* helpers) follows the teacher pack's own hand-rolled
// binary packet writer rather than a general-purpose serialization library,
// since none of the retrieved repos reach for one for this kind of
// fixed-schema tagged record.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer with capacity pre-reserved.
func NewWriter(capacity int) *Writer {
	w := &Writer{}
	w.buf.Grow(capacity)
	return w
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) WriteByte(b byte) {
	w.buf.WriteByte(b)
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteString writes a uint16-length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) {
	w.WriteUint16(uint16(len(s)))
	w.buf.WriteString(s)
}

// WriteBytes writes a uint32-length-prefixed opaque byte slice.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}
