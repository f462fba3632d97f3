package dispatcher

import (
	"sync"
	"testing"
	"time"

	"tempest/internal/uno"
	"tempest/internal/wire"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

type fakeOutbox struct {
	mu  sync.Mutex
	got []wire.ServerMessage
}

func (f *fakeOutbox) Send(msg wire.ServerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, msg)
	return nil
}

func (f *fakeOutbox) messages() []wire.ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wire.ServerMessage(nil), f.got...)
}

func (f *fakeOutbox) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func registerUser(t *testing.T, d *Dispatcher, addr fakeAddr, name string) (uint32, *fakeOutbox) {
	t.Helper()
	ob := &fakeOutbox{}
	d.Inbox() <- RegisterUser{Name: name, Addr: addr, Outbox: ob}
	waitFor(t, func() bool { return ob.count() > 0 })
	resp, ok := ob.messages()[0].(wire.AuthResponse)
	if !ok {
		t.Fatalf("first message to %q = %#v, want AuthResponse", name, ob.messages()[0])
	}
	return resp.Handle, ob
}

func TestRegisterUserAssignsHandleAndBroadcastsLobby(t *testing.T) {
	d := New()
	go d.Run()

	handle, ob := registerUser(t, d, "127.0.0.1:1", "alice")
	if handle == 0 {
		t.Error("expected a non-zero handle")
	}
	if ob.count() < 1 {
		t.Fatal("expected at least an AuthResponse")
	}
	waitFor(t, func() bool { return ob.count() >= 2 })
	if _, ok := ob.messages()[1].(wire.LobbyState); !ok {
		t.Errorf("second message to alice = %#v, want LobbyState", ob.messages()[1])
	}

	stats := d.Stats()
	if stats.Users != 1 {
		t.Errorf("Stats().Users = %d, want 1", stats.Users)
	}
}

func TestCreateGameSpawnsGameAndNotifiesJoiner(t *testing.T) {
	d := New()
	go d.Run()

	handle, ob := registerUser(t, d, "127.0.0.1:2", "alice")
	before := ob.count()
	d.Inbox() <- Auth{Addr: fakeAddr("127.0.0.1:2"), Handle: handle, Command: wire.CreateGame{Name: "table", Kind: wire.GameTypeUno}}

	waitFor(t, func() bool { return ob.count() > before })
	found := false
	for _, m := range ob.messages()[before:] {
		if jg, ok := m.(wire.JoinedGame); ok && jg.LobbyName == "table" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a JoinedGame message after CreateGame, got %#v", ob.messages())
	}

	waitFor(t, func() bool { return d.Stats().Games == 1 })
}

func TestJoinGameRoutesSecondUserIntoExistingGame(t *testing.T) {
	d := New()
	go d.Run()

	h1, _ := registerUser(t, d, "127.0.0.1:3", "alice")
	d.Inbox() <- Auth{Addr: fakeAddr("127.0.0.1:3"), Handle: h1, Command: wire.CreateGame{Name: "table", Kind: wire.GameTypeUno}}
	waitFor(t, func() bool { return d.Stats().Games == 1 })

	h2, ob2 := registerUser(t, d, "127.0.0.1:4", "bob")
	before := ob2.count()
	d.Inbox() <- Auth{Addr: fakeAddr("127.0.0.1:4"), Handle: h2, Command: wire.JoinGame{GameID: 2}}

	waitFor(t, func() bool { return ob2.count() > before })
	found := false
	for _, m := range ob2.messages()[before:] {
		if jg, ok := m.(wire.JoinedGame); ok && jg.LobbyName == "table" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bob to receive JoinedGame, got %#v", ob2.messages())
	}
}

func TestAuthWithMismatchedAddressIsDropped(t *testing.T) {
	d := New()
	go d.Run()

	handle, ob := registerUser(t, d, "127.0.0.1:5", "alice")
	before := ob.count()
	d.Inbox() <- Auth{Addr: fakeAddr("10.0.0.1:9"), Handle: handle, Command: wire.CreateGame{Name: "table", Kind: wire.GameTypeUno}}

	time.Sleep(20 * time.Millisecond)
	if ob.count() != before {
		t.Errorf("spoofed-address command should be dropped, got %d new messages", ob.count()-before)
	}
	if d.Stats().Games != 0 {
		t.Errorf("Stats().Games = %d, want 0", d.Stats().Games)
	}
}

// TestJoinGameAgainstFullGameDoesNotStrandTheUser reproduces filling a game
// to uno.MaxPlayers and then having one more user attempt to join it: the
// game actor rejects the seat, and the rejected user must not be pinned to
// a game they were never seated in — they keep receiving lobby broadcasts
// and a later CreateGame from them must still succeed.
func TestJoinGameAgainstFullGameDoesNotStrandTheUser(t *testing.T) {
	d := New()
	go d.Run()

	host, _ := registerUser(t, d, "127.0.0.1:10", "host")
	d.Inbox() <- Auth{Addr: fakeAddr("127.0.0.1:10"), Handle: host, Command: wire.CreateGame{Name: "table", Kind: wire.GameTypeUno}}
	waitFor(t, func() bool { return d.Stats().Games == 1 })

	var gameID uint32 = 2 // allocID sequence: host=1, game=2
	for i := 0; i < uno.MaxPlayers-1; i++ {
		addr := fakeAddr("127.0.0.1:" + string(rune('A'+i)))
		h, ob := registerUser(t, d, addr, "filler")
		before := ob.count()
		d.Inbox() <- Auth{Addr: addr, Handle: h, Command: wire.JoinGame{GameID: gameID}}
		waitFor(t, func() bool { return ob.count() > before })
	}

	latecomerAddr := fakeAddr("127.0.0.1:99")
	latecomer, ob := registerUser(t, d, latecomerAddr, "latecomer")
	beforeLobby := ob.count()
	d.Inbox() <- Auth{Addr: latecomerAddr, Handle: latecomer, Command: wire.JoinGame{GameID: gameID}}

	time.Sleep(20 * time.Millisecond)
	for _, m := range ob.messages()[beforeLobby:] {
		if _, ok := m.(wire.JoinedGame); ok {
			t.Fatalf("rejected join should not send JoinedGame, got %#v", ob.messages())
		}
	}

	// The rejected user is still a lobby member, not stranded in the full
	// game: a fresh CreateGame on their handle must succeed.
	beforeCreate := ob.count()
	d.Inbox() <- Auth{Addr: latecomerAddr, Handle: latecomer, Command: wire.CreateGame{Name: "second-table", Kind: wire.GameTypeUno}}
	waitFor(t, func() bool { return ob.count() > beforeCreate })
	found := false
	for _, m := range ob.messages()[beforeCreate:] {
		if jg, ok := m.(wire.JoinedGame); ok && jg.LobbyName == "second-table" {
			found = true
		}
	}
	if !found {
		t.Errorf("latecomer should still be able to create their own game after a rejected join, got %#v", ob.messages())
	}
	if d.Stats().Games != 2 {
		t.Errorf("Stats().Games = %d, want 2", d.Stats().Games)
	}
}

func TestDisconnectedRemovesUserAndBroadcastsLobby(t *testing.T) {
	d := New()
	go d.Run()

	_, _ = registerUser(t, d, "127.0.0.1:6", "alice")
	waitFor(t, func() bool { return d.Stats().Users == 1 })

	d.Inbox() <- Disconnected{Addr: fakeAddr("127.0.0.1:6")}
	waitFor(t, func() bool { return d.Stats().Users == 0 })
}
