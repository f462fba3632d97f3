// Package dispatcher implements Tempest's Component C: the singleton lobby
// hub. It owns the user table, the game table, and the global handle
// counter, and is the only writer of either table — every mutation arrives
// as a tagged event on its inbox and is processed strictly in order.
// Grounded on the original implementation's Dispatcher actor in
// server/src/main.rs and on the select-loop idiom in the retrieval pack's
// AI manager actor.
package dispatcher

import (
	"log"
	"math/rand"
	"net"

	"tempest/internal/game"
	"tempest/internal/uno"
	"tempest/internal/wire"
)

// Event is the tagged payload of one dispatcher inbox item.
type Event interface {
	isEvent()
}

// RegisterUser requests a fresh handle for a newly authenticated
// connection.
type RegisterUser struct {
	Name   string
	Addr   net.Addr
	Outbox wire.ServerOutbox
}

// Auth carries an authenticated command from a connection node, along with
// the remote address the node observed, so the dispatcher can reject
// spoofed handles.
type Auth struct {
	Addr    net.Addr
	Handle  uint32
	Command wire.AuthedCommand
}

// Disconnected reports a connection node's inbound loop exiting.
type Disconnected struct {
	Addr net.Addr
}

// updateGameServer is how a game actor reports its registration entry back
// to the dispatcher.
type updateGameServer struct {
	ID   uint32
	Reg  game.Registration
}

type userJoinedGame struct {
	Handle uint32
	GameID uint32
}

type userLeftGame struct {
	Handle uint32
}

type gameFinished struct {
	GameID uint32
}

// Stats is a point-in-time snapshot of registry sizes, used only for
// periodic logging.
type Stats struct {
	Users int
	Games int
}

type statsQuery struct {
	resp chan Stats
}

func (RegisterUser) isEvent()     {}
func (Auth) isEvent()             {}
func (Disconnected) isEvent()     {}
func (updateGameServer) isEvent() {}
func (userJoinedGame) isEvent()   {}
func (userLeftGame) isEvent()     {}
func (gameFinished) isEvent()     {}
func (statsQuery) isEvent()       {}

// user is the dispatcher's private view of one connected client.
type user struct {
	handle uint32
	name   string
	addr   net.Addr
	outbox wire.ServerOutbox
	gameID *uint32
}

// gameEntry is the dispatcher's private view of one active game.
type gameEntry struct {
	id     uint32
	name   string
	kind   wire.GameType
	phase  uno.Phase
	active int
	inbox  chan<- game.Message
}

// Dispatcher is the singleton lobby hub. Run it in its own goroutine; every
// other component only ever holds a send side of Inbox.
type Dispatcher struct {
	inbox   chan Event
	users   map[uint32]*user
	games   map[uint32]*gameEntry
	nextID  uint32
}

// New creates a dispatcher with an empty registry. Call Run in a goroutine
// to start processing.
func New() *Dispatcher {
	return &Dispatcher{
		inbox: make(chan Event, 256),
		users: make(map[uint32]*user),
		games: make(map[uint32]*gameEntry),
	}
}

// Inbox returns the send-only capability other components use to enqueue
// events. The dispatcher itself is the sole receiver.
func (d *Dispatcher) Inbox() chan<- Event {
	return d.inbox
}

// Stats blocks until the dispatcher loop reports its current registry
// sizes. Safe to call from any goroutine; the query is just another event
// serialized through the loop, so it never races the maps it reads.
func (d *Dispatcher) Stats() Stats {
	resp := make(chan Stats, 1)
	d.inbox <- statsQuery{resp: resp}
	return <-resp
}

// Run processes events until the inbox is closed. Intended to run for the
// lifetime of the process in its own goroutine.
func (d *Dispatcher) Run() {
	for ev := range d.inbox {
		d.handle(ev)
	}
}

func (d *Dispatcher) handle(ev Event) {
	switch e := ev.(type) {
	case RegisterUser:
		d.handleRegisterUser(e)
	case Auth:
		d.handleAuth(e)
	case Disconnected:
		d.handleDisconnected(e)
	case updateGameServer:
		d.handleUpdateGameServer(e)
	case userJoinedGame:
		if u, ok := d.users[e.Handle]; ok {
			id := e.GameID
			u.gameID = &id
		}
	case userLeftGame:
		if u, ok := d.users[e.Handle]; ok {
			u.gameID = nil
		}
	case gameFinished:
		delete(d.games, e.GameID)
		d.broadcastLobby()
	case statsQuery:
		e.resp <- Stats{Users: len(d.users), Games: len(d.games)}
	}
}

func (d *Dispatcher) allocID() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Dispatcher) handleRegisterUser(e RegisterUser) {
	id := d.allocID()
	d.users[id] = &user{handle: id, name: e.Name, addr: e.Addr, outbox: e.Outbox}
	if err := e.Outbox.Send(wire.AuthResponse{Handle: id}); err != nil {
		log.Printf("[dispatcher] auth response to %q failed: %v", e.Name, err)
	}
	d.broadcastLobby()
}

func (d *Dispatcher) handleDisconnected(e Disconnected) {
	removed := false
	for handle, u := range d.users {
		if sameAddr(u.addr, e.Addr) {
			delete(d.users, handle)
			removed = true
		}
	}
	if removed {
		d.broadcastLobby()
	}
}

func sameAddr(a, b net.Addr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

func (d *Dispatcher) handleUpdateGameServer(e updateGameServer) {
	g, ok := d.games[e.ID]
	if !ok {
		return
	}
	g.name = e.Reg.Name
	g.kind = e.Reg.Kind
	g.phase = e.Reg.Phase
	g.active = e.Reg.ActivePlayers
	d.broadcastLobby()
}

func (d *Dispatcher) handleAuth(e Auth) {
	u, ok := d.users[e.Handle]
	if !ok {
		log.Printf("[dispatcher] auth event for unknown handle %d", e.Handle)
		return
	}
	if !sameAddr(u.addr, e.Addr) {
		log.Printf("[dispatcher] address mismatch for handle %d, dropping command", e.Handle)
		return
	}
	switch cmd := e.Command.(type) {
	case wire.CreateGame:
		d.handleCreateGame(u, cmd)
	case wire.JoinGame:
		d.handleJoinGame(u, cmd)
	case wire.GameCommand:
		d.handleGameCommand(u, cmd)
	}
}

func (d *Dispatcher) handleCreateGame(u *user, cmd wire.CreateGame) {
	if u.gameID != nil {
		log.Printf("[dispatcher] %d tried to create a game while already in one", u.handle)
		return
	}
	id := d.allocID()
	rng := rand.New(rand.NewSource(int64(id)*2654435761 + 1))
	hooks := d.hooksFor(id)
	inbox := game.Spawn(id, cmd.Name, rng, hooks)
	d.games[id] = &gameEntry{id: id, name: cmd.Name, kind: cmd.Kind, phase: uno.PhaseSetup, inbox: inbox}

	gameID := id
	u.gameID = &gameID
	if err := u.outbox.Send(wire.JoinedGame{LobbyName: cmd.Name, Kind: cmd.Kind}); err != nil {
		log.Printf("[dispatcher] joined-game notice to %d failed: %v", u.handle, err)
	}
	inbox <- game.Message{UserHandle: u.handle, Command: game.UserJoin{Name: u.name, Outbox: u.outbox}}
	d.broadcastLobby()
}

// handleJoinGame only forwards UserJoin to the game's actor — unlike
// handleCreateGame, the actor may reject this seat (game full or no
// longer in Setup), so the dispatcher must not confirm the join or pin
// u.gameID until the actor accepts it and reports back through
// NotifyJoined. The actor itself sends wire.JoinedGame on acceptance.
func (d *Dispatcher) handleJoinGame(u *user, cmd wire.JoinGame) {
	if u.gameID != nil {
		log.Printf("[dispatcher] %d tried to join a game while already in one", u.handle)
		return
	}
	g, ok := d.games[cmd.GameID]
	if !ok {
		log.Printf("[dispatcher] %d tried to join unknown game %d", u.handle, cmd.GameID)
		return
	}
	g.inbox <- game.Message{UserHandle: u.handle, Command: game.UserJoin{Name: u.name, Outbox: u.outbox, Confirm: true}}
}

func (d *Dispatcher) handleGameCommand(u *user, cmd wire.GameCommand) {
	if u.gameID == nil {
		log.Printf("[dispatcher] %d sent a game command while not in a game", u.handle)
		return
	}
	g, ok := d.games[*u.gameID]
	if !ok {
		return
	}
	switch gc := cmd.Cmd.(type) {
	case wire.GameStart:
		g.inbox <- game.Message{UserHandle: u.handle, Command: game.Start{}}
	case wire.GameLeave:
		g.inbox <- game.Message{UserHandle: u.handle, Command: game.Leave{}}
	case wire.GameRaw:
		g.inbox <- game.Message{UserHandle: u.handle, Command: game.Raw{Bytes: gc.Bytes}}
	}
}

// broadcastLobby computes the current LobbyState and sends it to every user
// not presently seated in a game.
func (d *Dispatcher) broadcastLobby() {
	state := wire.LobbyState{PlayerCount: uint32(len(d.users))}
	for _, g := range d.games {
		if g.phase != uno.PhaseSetup || g.active >= uno.MaxPlayers {
			continue
		}
		state.Games = append(state.Games, wire.LobbyGame{
			Name:          g.name,
			ID:            g.id,
			Kind:          g.kind,
			Phase:         wire.PhaseSetup,
			ActivePlayers: uint32(g.active),
		})
	}
	for _, u := range d.users {
		if u.gameID != nil {
			continue
		}
		if err := u.outbox.Send(state); err != nil {
			log.Printf("[dispatcher] lobby update to %d failed: %v", u.handle, err)
		}
	}
}

// hooksFor builds the game.Hooks closures a spawned actor uses to report
// back to this dispatcher, routed back through its own inbox so every
// mutation still passes through the dispatcher's single serial loop.
func (d *Dispatcher) hooksFor(gameID uint32) game.Hooks {
	return game.Hooks{
		NotifyJoined: func(handle uint32) {
			d.inbox <- userJoinedGame{Handle: handle, GameID: gameID}
		},
		NotifyLeft: func(handle uint32) {
			d.inbox <- userLeftGame{Handle: handle}
		},
		NotifyUpdate: func(reg game.Registration) {
			d.inbox <- updateGameServer{ID: gameID, Reg: reg}
		},
		NotifyFinished: func() {
			d.inbox <- gameFinished{GameID: gameID}
		},
	}
}
