package main

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/flynn/noise"

	"tempest/internal/dispatcher"
)

// Server is the TCP accept loop: one listener, spawning one connection node
// goroutine per accepted socket, per spec §4.B/§5.
type Server struct {
	addr        string
	static      noise.DHKey
	disp        *dispatcher.Dispatcher
	authTimeout time.Duration
}

// NewServer creates a server bound to addr, backed by disp's lobby
// dispatcher and static's long-lived Noise identity. Each accepted
// connection gets authTimeout to send its Authenticate record.
func NewServer(addr string, static noise.DHKey, disp *dispatcher.Dispatcher, authTimeout time.Duration) *Server {
	return &Server{addr: addr, static: static, disp: disp, authTimeout: authTimeout}
}

// Run listens on s.addr and accepts connections until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	log.Printf("[server] listening on %s", s.addr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Printf("[server] accept error: %v", err)
				return err
			}
		}
		go handleConnection(conn, s.static, s.disp, s.authTimeout)
	}
}
