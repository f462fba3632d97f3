package transport

import (
	"net"
	"testing"

	"tempest/internal/wire"
)

func dialPair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	clientSock, serverSock := net.Pipe()

	static, err := StaticKeypair()
	if err != nil {
		t.Fatalf("StaticKeypair: %v", err)
	}

	type result struct {
		conn *Conn
		err  error
	}
	serverCh := make(chan result, 1)
	go func() {
		c, err := NewServerConn(serverSock, serverSock, static)
		serverCh <- result{c, err}
	}()

	clientStatic, err := StaticKeypair()
	if err != nil {
		t.Fatalf("StaticKeypair: %v", err)
	}
	client, err := NewClientConn(clientSock, clientSock, clientStatic)
	if err != nil {
		t.Fatalf("NewClientConn: %v", err)
	}

	srv := <-serverCh
	if srv.err != nil {
		t.Fatalf("NewServerConn: %v", srv.err)
	}
	return client, srv.conn
}

func TestHandshakeThenRawRoundTrip(t *testing.T) {
	client, server := dialPair(t)
	defer client.Close()
	defer server.Close()

	msg := []byte("hello over noise")
	errCh := make(chan error, 1)
	go func() { errCh <- client.SendRaw(msg) }()

	got, err := server.RecvRaw()
	if err != nil {
		t.Fatalf("RecvRaw: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("SendRaw: %v", err)
	}
	if string(got) != string(msg) {
		t.Errorf("RecvRaw() = %q, want %q", got, msg)
	}
}

func TestHandshakeIsBidirectional(t *testing.T) {
	client, server := dialPair(t)
	defer client.Close()
	defer server.Close()

	serverMsg := []byte("server speaks first")
	errCh := make(chan error, 1)
	go func() { errCh <- server.SendRaw(serverMsg) }()

	got, err := client.RecvRaw()
	if err != nil {
		t.Fatalf("RecvRaw: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("SendRaw: %v", err)
	}
	if string(got) != string(serverMsg) {
		t.Errorf("client RecvRaw() = %q, want %q", got, serverMsg)
	}
}

func TestSenderReceiverTypedRoundTrip(t *testing.T) {
	client, server := dialPair(t)
	defer client.Close()
	defer server.Close()

	clientSender := NewSender(client, wire.EncodeClientMessage)
	serverReceiver := NewReceiver(server, wire.DecodeClientMessage)

	want := wire.Authenticate{Name: "alice"}
	errCh := make(chan error, 1)
	go func() { errCh <- clientSender.Send(want) }()

	got, err := serverReceiver.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Send: %v", err)
	}
	auth, ok := got.(wire.Authenticate)
	if !ok || auth.Name != want.Name {
		t.Errorf("Recv() = %#v, want %#v", got, want)
	}
}

func TestConnCloseStopsWorker(t *testing.T) {
	client, server := dialPair(t)
	defer server.Close()

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.SendRaw([]byte("x")); err == nil {
		t.Error("expected SendRaw to fail after Close")
	}
}
