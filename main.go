package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"tempest/internal/dispatcher"
	"tempest/internal/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9000", "TCP listen address")
	authTimeout := flag.Duration("auth-timeout", defaultAuthTimeout, "time a connection has to authenticate before it is closed")
	flag.Parse()

	static, err := transport.StaticKeypair()
	if err != nil {
		log.Fatalf("[server] generate static keypair: %v", err)
	}

	disp := dispatcher.New()
	go disp.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("[server] shutting down...")
		cancel()
	}()

	go RunMetrics(ctx, disp, metricsLogInterval)

	srv := NewServer(*addr, static, disp, *authTimeout)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("[server] %v", err)
	}
}
