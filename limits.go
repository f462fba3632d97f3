package main

import "time"

// Operational limits — named constants for values that would otherwise be
// scattered across the connection and listener code.
const (
	// defaultAuthTimeout is how long a freshly handshaken connection has to
	// send its Authenticate record before the node closes it, absent an
	// -auth-timeout override.
	defaultAuthTimeout = 30 * time.Second

	// connOutboxSize is the buffer depth of a connection node's outbox
	// channel; the dispatcher and game actors write to it, the outbound
	// loop drains it.
	connOutboxSize = 64

	// metricsLogInterval controls how often RunMetrics logs dispatcher-wide
	// counts.
	metricsLogInterval = 30 * time.Second
)
