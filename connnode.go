package main

import (
	"errors"
	"log"
	"net"
	"time"

	"github.com/flynn/noise"

	"tempest/internal/dispatcher"
	"tempest/internal/transport"
	"tempest/internal/wire"
)

var errConnClosed = errors.New("connnode: connection closed")

// connOutbox is the channel-backed ServerOutbox handed to the dispatcher
// and to any game actor a user joins. Routing every outbound record
// through this channel, rather than handing out the raw
// transport.Sender, keeps the connection's single outbound-writer loop as
// the only goroutine that ever writes to the socket — the dispatcher and a
// user's game actor can both enqueue without racing each other's frames.
type connOutbox struct {
	ch   chan wire.ServerMessage
	done chan struct{}
}

func newConnOutbox(size int) *connOutbox {
	return &connOutbox{ch: make(chan wire.ServerMessage, size), done: make(chan struct{})}
}

func (o *connOutbox) Send(msg wire.ServerMessage) error {
	select {
	case o.ch <- msg:
		return nil
	case <-o.done:
		return errConnClosed
	}
}

func (o *connOutbox) close() {
	select {
	case <-o.done:
	default:
		close(o.done)
	}
}

// handleConnection drives one accepted socket through the Noise handshake,
// the timed authentication window, and then its inbound/outbound loops,
// per spec §4.B.
func handleConnection(sock net.Conn, static noise.DHKey, disp *dispatcher.Dispatcher, authTimeout time.Duration) {
	defer sock.Close()
	addr := sock.RemoteAddr()

	secure, err := transport.NewServerConn(sock, sock, static)
	if err != nil {
		log.Printf("[conn %s] handshake failed: %v", addr, err)
		return
	}
	defer secure.Close()

	in := transport.NewReceiver(secure, wire.DecodeClientMessage)
	out := transport.NewSender(secure, wire.EncodeServerMessage)

	outbox := newConnOutbox(connOutboxSize)
	defer outbox.close()

	handle, ok := authenticate(addr, in, outbox, disp, authTimeout)
	if !ok {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		outboundLoop(out, outbox)
	}()

	inboundLoop(addr, handle, in, disp)

	outbox.close()
	<-writerDone
}

// authenticate enforces the 30-second auth window: the first record
// received must be Authenticate(name), after which the dispatcher assigns
// a handle. Any other outcome — timeout, transport error, or a
// non-Authenticate first record — closes the connection without
// registering it.
func authenticate(addr net.Addr, in *transport.Receiver[wire.ClientMessage], outbox *connOutbox, disp *dispatcher.Dispatcher, authTimeout time.Duration) (uint32, bool) {
	type result struct {
		msg wire.ClientMessage
		err error
	}
	recvCh := make(chan result, 1)
	go func() {
		msg, err := in.Recv()
		recvCh <- result{msg: msg, err: err}
	}()

	select {
	case <-time.After(authTimeout):
		log.Printf("[conn %s] auth timeout", addr)
		return 0, false
	case r := <-recvCh:
		if r.err != nil {
			log.Printf("[conn %s] transport error before auth: %v", addr, r.err)
			return 0, false
		}
		auth, ok := r.msg.(wire.Authenticate)
		if !ok {
			log.Printf("[conn %s] first record was not Authenticate, closing", addr)
			return 0, false
		}

		resp := make(chan uint32, 1)
		disp.Inbox() <- dispatcher.RegisterUser{
			Name: auth.Name,
			Addr: addr,
			Outbox: registerRespondingOutbox{inner: outbox, resp: resp},
		}
		handle := <-resp
		return handle, true
	}
}

// registerRespondingOutbox wraps a connOutbox so that the very first
// message the dispatcher sends through it (always AuthResponse, per
// §4.C's RegisterUser handling) is also captured into resp, letting
// authenticate learn its own assigned handle without a second channel
// round trip through the dispatcher's event model.
type registerRespondingOutbox struct {
	inner *connOutbox
	resp  chan uint32
}

func (o registerRespondingOutbox) Send(msg wire.ServerMessage) error {
	if ar, ok := msg.(wire.AuthResponse); ok {
		select {
		case o.resp <- ar.Handle:
		default:
		}
	}
	return o.inner.Send(msg)
}

// inboundLoop forwards every Authed command to the dispatcher until the
// transport errors or the peer closes the connection, at which point it
// reports Disconnected and returns.
func inboundLoop(addr net.Addr, handle uint32, in *transport.Receiver[wire.ClientMessage], disp *dispatcher.Dispatcher) {
	for {
		msg, err := in.Recv()
		if err != nil {
			disp.Inbox() <- dispatcher.Disconnected{Addr: addr}
			return
		}
		switch m := msg.(type) {
		case wire.Authed:
			disp.Inbox() <- dispatcher.Auth{Addr: addr, Handle: m.Handle, Command: m.Command}
		case wire.Authenticate:
			log.Printf("[conn %s] dropping stray Authenticate after auth", addr)
		default:
			log.Printf("[conn %s] dropping unrecognized client message for handle %d", addr, handle)
		}
	}
}

// outboundLoop drains outbox and writes each record to the wire until the
// connection closes.
func outboundLoop(out *transport.Sender[wire.ServerMessage], outbox *connOutbox) {
	for {
		select {
		case msg := <-outbox.ch:
			if err := out.Send(msg); err != nil {
				log.Printf("[conn] outbound write failed: %v", err)
				return
			}
		case <-outbox.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case msg := <-outbox.ch:
					_ = out.Send(msg)
				default:
					return
				}
			}
		}
	}
}
