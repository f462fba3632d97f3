package transport

import (
	"errors"
	"io"

	"github.com/flynn/noise"

	"tempest/internal/wire"
)

var errWorkerClosed = errors.New("transport: encryption worker closed")

// Conn is one established, post-handshake secure channel: a framed byte
// stream plus the encryption worker that owns its cipher state. It exposes
// only raw encrypt-then-frame / read-frame-then-decrypt; Sender/Receiver
// add the record-level typing on top.
type Conn struct {
	rw     io.ReadWriter
	closer io.Closer
	worker *worker
}

// NewServerConn completes the responder side of a Noise XX handshake over
// rw and returns the resulting secure connection. static is the server
// process's long-lived keypair (see StaticKeypair).
func NewServerConn(rw io.ReadWriter, closer io.Closer, static noise.DHKey) (*Conn, error) {
	hr, err := ServerHandshake(rw, static)
	if err != nil {
		return nil, err
	}
	return &Conn{rw: rw, closer: closer, worker: newWorker(hr)}, nil
}

// NewClientConn completes the initiator side. Used by tests that drive
// both ends of a handshake in-process.
func NewClientConn(rw io.ReadWriter, closer io.Closer, static noise.DHKey) (*Conn, error) {
	hr, err := ClientHandshake(rw, static)
	if err != nil {
		return nil, err
	}
	return &Conn{rw: rw, closer: closer, worker: newWorker(hr)}, nil
}

// SendRaw encrypts payload and writes it as one length-delimited frame.
func (c *Conn) SendRaw(payload []byte) error {
	ciphertext, err := c.worker.encrypt(payload)
	if err != nil {
		return err
	}
	return wire.WriteFrame(c.rw, ciphertext)
}

// RecvRaw reads one frame and decrypts it.
func (c *Conn) RecvRaw() ([]byte, error) {
	frame, err := wire.ReadFrame(c.rw)
	if err != nil {
		return nil, err
	}
	return c.worker.decrypt(frame)
}

// Close stops the encryption worker and closes the underlying connection.
func (c *Conn) Close() error {
	c.worker.stop()
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Sender is a phantom-typed send-only handle onto a Conn: it can only ever
// encode and send values of T, giving the compile-time per-direction
// guarantee spec §9 asks for (the server-side handle sends ServerMessage
// and never ClientMessage, and vice versa for a client).
type Sender[T any] struct {
	conn   *Conn
	encode func(T) []byte
}

// NewSender wraps conn for sending values of T using encode.
func NewSender[T any](conn *Conn, encode func(T) []byte) *Sender[T] {
	return &Sender[T]{conn: conn, encode: encode}
}

func (s *Sender[T]) Send(v T) error {
	return s.conn.SendRaw(s.encode(v))
}

// Receiver is the receive-only counterpart of Sender.
type Receiver[T any] struct {
	conn   *Conn
	decode func([]byte) (T, error)
}

// NewReceiver wraps conn for receiving values of T using decode.
func NewReceiver[T any](conn *Conn, decode func([]byte) (T, error)) *Receiver[T] {
	return &Receiver[T]{conn: conn, decode: decode}
}

func (r *Receiver[T]) Recv() (T, error) {
	var zero T
	buf, err := r.conn.RecvRaw()
	if err != nil {
		return zero, err
	}
	return r.decode(buf)
}
