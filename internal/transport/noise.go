// Package transport implements Tempest's Component A: a length-delimited
// framed byte stream wrapped in a Noise_XX_25519_ChaChaPoly_BLAKE2s
// session. Handshake sequencing follows the original Rust implementation's
// encr crate (built on snow); the Go handshake calls themselves follow the
// github.com/flynn/noise usage shown in the retrieval pack's Noise
// reference material.
package transport

import (
	"fmt"
	"io"

	"github.com/flynn/noise"

	"tempest/internal/wire"
)

// cipherSuite is fixed for the whole process: Noise_XX_25519_ChaChaPoly_BLAKE2s,
// per spec §4.A.
var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2s)

// StaticKeypair generates the single long-lived X25519 keypair the server
// process uses as its Noise static identity for every connection's
// handshake. Called once at process startup.
func StaticKeypair() (noise.DHKey, error) {
	return cipherSuite.GenerateKeypair(nil)
}

// handshakeResult holds the two directional cipher states produced once
// the three-message XX exchange completes.
type handshakeResult struct {
	send *noise.CipherState
	recv *noise.CipherState
}

// ServerHandshake runs the responder side of the Noise XX handshake over
// rw: read msg1, write msg2, read msg3. static is the server process's
// long-lived keypair; a fresh ephemeral keypair is generated internally
// per connection by the CipherSuite.
func ServerHandshake(rw io.ReadWriter, static noise.DHKey) (*handshakeResult, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Pattern:       noise.HandshakeXX,
		Initiator:     false,
		StaticKeypair: static,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: init responder handshake: %w", err)
	}

	msg1, err := wire.ReadFrame(rw)
	if err != nil {
		return nil, fmt.Errorf("transport: read handshake msg1: %w", err)
	}
	if _, _, _, err := hs.ReadMessage(nil, msg1); err != nil {
		return nil, fmt.Errorf("transport: decode handshake msg1: %w", err)
	}

	msg2, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: encode handshake msg2: %w", err)
	}
	if err := wire.WriteFrame(rw, msg2); err != nil {
		return nil, fmt.Errorf("transport: send handshake msg2: %w", err)
	}

	msg3, err := wire.ReadFrame(rw)
	if err != nil {
		return nil, fmt.Errorf("transport: read handshake msg3: %w", err)
	}
	_, cs1, cs2, err := hs.ReadMessage(nil, msg3)
	if err != nil {
		return nil, fmt.Errorf("transport: decode handshake msg3: %w", err)
	}

	// cs1 = initiator(client)->responder(server), cs2 = responder->initiator.
	// The server decrypts with cs1 and encrypts with cs2.
	return &handshakeResult{send: cs2, recv: cs1}, nil
}

// ClientHandshake runs the initiator side. Provided for symmetry and for
// tests that drive both ends of a handshake in-process; the production
// server only ever calls ServerHandshake.
func ClientHandshake(rw io.ReadWriter, static noise.DHKey) (*handshakeResult, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Pattern:       noise.HandshakeXX,
		Initiator:     true,
		StaticKeypair: static,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: init initiator handshake: %w", err)
	}

	msg1, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: encode handshake msg1: %w", err)
	}
	if err := wire.WriteFrame(rw, msg1); err != nil {
		return nil, fmt.Errorf("transport: send handshake msg1: %w", err)
	}

	msg2, err := wire.ReadFrame(rw)
	if err != nil {
		return nil, fmt.Errorf("transport: read handshake msg2: %w", err)
	}
	if _, _, _, err := hs.ReadMessage(nil, msg2); err != nil {
		return nil, fmt.Errorf("transport: decode handshake msg2: %w", err)
	}

	msg3, cs1, cs2, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: encode handshake msg3: %w", err)
	}
	if err := wire.WriteFrame(rw, msg3); err != nil {
		return nil, fmt.Errorf("transport: send handshake msg3: %w", err)
	}

	// cs1 = initiator->responder (client encrypt), cs2 = responder->initiator (client decrypt).
	return &handshakeResult{send: cs1, recv: cs2}, nil
}
