// Package wire implements Tempest's framing and binary record encoding:
// 4-byte big-endian length-delimited frames, and the tagged-variant record
// catalogue exchanged once a connection's Noise session is established.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload a single frame may carry, per
// spec §4.A/§6.
const MaxFrameSize = 65535

// ReadFrame reads one length-prefixed frame from r and returns its raw
// payload (still Noise-ciphertext at the transport layer; internal/transport
// decrypts it before handing bytes to the record decoder).
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("wire: frame length %d exceeds max %d", n, MaxFrameSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload as one length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("wire: payload length %d exceeds max %d", len(payload), MaxFrameSize)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
