package transport

import "github.com/flynn/noise"

// worker owns one connection's completed Noise transport-mode cipher pair
// exclusively, serving encrypt/decrypt requests over channels so the
// connection's independent reader and writer goroutines never need a
// mutex around the CipherState — the Go equivalent of the original
// implementation's dedicated encryption-worker task fed by oneshot
// channels, per spec §4.A and §9.
type worker struct {
	send *noise.CipherState
	recv *noise.CipherState

	encryptReq chan encryptRequest
	decryptReq chan decryptRequest
	done       chan struct{}
}

type encryptRequest struct {
	plaintext []byte
	resp      chan encryptResult
}

type encryptResult struct {
	ciphertext []byte
	err        error
}

type decryptRequest struct {
	ciphertext []byte
	resp       chan decryptResult
}

type decryptResult struct {
	plaintext []byte
	err       error
}

func newWorker(hr *handshakeResult) *worker {
	w := &worker{
		send:       hr.send,
		recv:       hr.recv,
		encryptReq: make(chan encryptRequest),
		decryptReq: make(chan decryptRequest),
		done:       make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *worker) run() {
	for {
		select {
		case <-w.done:
			return
		case req := <-w.encryptReq:
			ct, err := w.send.Encrypt(nil, nil, req.plaintext)
			req.resp <- encryptResult{ciphertext: ct, err: err}
		case req := <-w.decryptReq:
			pt, err := w.recv.Decrypt(nil, nil, req.ciphertext)
			req.resp <- decryptResult{plaintext: pt, err: err}
		}
	}
}

// encrypt submits plaintext to the worker and blocks for the ciphertext.
// Safe to call from any number of goroutines; the worker serializes
// access to the underlying CipherState's sequential nonce counter.
func (w *worker) encrypt(plaintext []byte) ([]byte, error) {
	req := encryptRequest{plaintext: plaintext, resp: make(chan encryptResult, 1)}
	select {
	case w.encryptReq <- req:
	case <-w.done:
		return nil, errWorkerClosed
	}
	res := <-req.resp
	return res.ciphertext, res.err
}

func (w *worker) decrypt(ciphertext []byte) ([]byte, error) {
	req := decryptRequest{ciphertext: ciphertext, resp: make(chan decryptResult, 1)}
	select {
	case w.decryptReq <- req:
	case <-w.done:
		return nil, errWorkerClosed
	}
	res := <-req.resp
	return res.plaintext, res.err
}

func (w *worker) stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}
