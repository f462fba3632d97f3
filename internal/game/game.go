// Package game implements Tempest's Component D: one actor per active
// game. Each actor owns an inbound message channel and the full
// authoritative uno.State for its game, processes messages strictly in
// arrival order, and pushes per-player broadcasts through outboxes
// supplied at join time. Grounded on the original implementation's
// ServerUno::start_server message loop.
package game

import (
	"log"
	"math/rand"

	"tempest/internal/uno"
	"tempest/internal/wire"
)

// Command is the tagged payload of one Message, mirroring
// GameServerMessage::command in the original implementation.
type Command interface {
	isCommand()
}

// UserJoin seats a new player, carrying the capability to push state back
// to them. Confirm controls whether the actor itself sends wire.JoinedGame
// to Outbox once the seat is accepted: set for a join against an existing
// game, where the dispatcher can't know in advance whether the actor will
// accept it; unset for game creation, where the dispatcher already sent
// the confirmation synchronously because a freshly created game can never
// reject its own host.
type UserJoin struct {
	Name    string
	Outbox  wire.ServerOutbox
	Confirm bool
}

// Start requests the Setup->Active transition.
type Start struct{}

// Leave requests voluntary departure.
type Leave struct{}

// Raw is an inner Uno client action (PickupCard/PlayCard), still encoded —
// decoded inside the actor so the dispatcher never needs the per-game inner
// schema, per spec §9.
type Raw struct{ Bytes []byte }

func (UserJoin) isCommand() {}
func (Start) isCommand()    {}
func (Leave) isCommand()    {}
func (Raw) isCommand()      {}

// Message is one inbound item: the sender's handle plus their command.
type Message struct {
	UserHandle uint32
	Command    Command
}

// Hooks are the dispatcher-side callbacks a game actor uses to report back
// without importing the dispatcher package — avoids an import cycle, and
// keeps the actor's only coupling to its owner a set of closures, in the
// spirit of the outbox-capability pattern in spec §9.
type Hooks struct {
	NotifyJoined  func(userHandle uint32)
	NotifyLeft    func(userHandle uint32)
	NotifyUpdate  func(snapshot Registration)
	NotifyFinished func()
}

// Registration is what a game actor reports to the dispatcher's game
// registry after any state change that might affect lobby visibility.
type Registration struct {
	Name          string
	Kind          wire.GameType
	Phase         uno.Phase
	ActivePlayers int
}

// Actor is one game's private state plus its inbox. Spawn starts its loop
// goroutine and returns the send side of the inbox; the actor itself holds
// the only receive side, per the outbox-capability pattern.
type Actor struct {
	id       uint32
	name     string
	state    *uno.State
	outboxes map[uint32]wire.ServerOutbox
	inbox    chan Message
	hooks    Hooks
}

// Spawn creates a game actor and starts its message loop in a new
// goroutine. The returned channel is the capability the dispatcher installs
// into its game registry entry.
func Spawn(id uint32, name string, rng *rand.Rand, hooks Hooks) chan<- Message {
	a := &Actor{
		id:       id,
		name:     name,
		state:    uno.NewState(rng),
		outboxes: make(map[uint32]wire.ServerOutbox),
		inbox:    make(chan Message, 32),
		hooks:    hooks,
	}
	go a.run()
	return a.inbox
}

func (a *Actor) run() {
	for msg := range a.inbox {
		a.handle(msg)
		if len(a.outboxes) == 0 {
			a.hooks.NotifyFinished()
			return
		}
	}
}

func (a *Actor) registration() Registration {
	return Registration{
		Name:          a.name,
		Kind:          wire.GameTypeUno,
		Phase:         a.state.Phase,
		ActivePlayers: len(a.state.Active),
	}
}

func (a *Actor) handle(msg Message) {
	switch cmd := msg.Command.(type) {
	case UserJoin:
		a.handleJoin(msg.UserHandle, cmd)
	case Start:
		a.handleStart(msg.UserHandle)
	case Leave:
		a.handleLeave(msg.UserHandle)
	case Raw:
		a.handleRaw(msg.UserHandle, cmd.Bytes)
	}
}

func (a *Actor) handleJoin(handle uint32, cmd UserJoin) {
	if err := a.state.Join(handle, cmd.Name); err != nil {
		log.Printf("[game %d] join rejected for %q: %v", a.id, cmd.Name, err)
		return
	}
	a.outboxes[handle] = cmd.Outbox
	if cmd.Confirm {
		if err := cmd.Outbox.Send(wire.JoinedGame{LobbyName: a.name, Kind: wire.GameTypeUno}); err != nil {
			log.Printf("[game %d] joined-game notice to %d failed: %v", a.id, handle, err)
		}
	}
	a.broadcast()
	a.hooks.NotifyJoined(handle)
	a.hooks.NotifyUpdate(a.registration())
}

func (a *Actor) handleStart(handle uint32) {
	if err := a.state.Start(handle); err != nil {
		log.Printf("[game %d] start rejected: %v", a.id, err)
		return
	}
	a.hooks.NotifyUpdate(a.registration())
	a.broadcast()
}

func (a *Actor) handleLeave(handle uint32) {
	if _, ok := a.outboxes[handle]; !ok {
		return
	}
	a.state.Leave(handle)
	delete(a.outboxes, handle)
	a.hooks.NotifyLeft(handle)
	a.hooks.NotifyUpdate(a.registration())
	a.broadcast()
}

func (a *Actor) handleRaw(handle uint32, raw []byte) {
	if a.state.Phase != uno.PhaseActive {
		log.Printf("[game %d] dropping game action from %d: not active", a.id, handle)
		return
	}
	action, err := wire.DecodeUnoClientAction(raw)
	if err != nil {
		log.Printf("[game %d] dropping malformed game action from %d: %v", a.id, handle, err)
		return
	}
	switch act := action.(type) {
	case wire.UnoPickupCard:
		if err := a.state.PickupCard(handle); err != nil {
			log.Printf("[game %d] pickup rejected for %d: %v", a.id, handle, err)
			return
		}
	case wire.UnoPlayCard:
		if err := a.state.PlayCard(handle, act.Card); err != nil {
			log.Printf("[game %d] play rejected for %d: %v", a.id, handle, err)
			return
		}
	default:
		return
	}
	a.broadcast()
}

// broadcast drains the action log once and pushes a per-recipient snapshot
// to every seated outbox, per spec §4.E.
func (a *Actor) broadcast() {
	actions := a.state.DrainActionLog()
	for handle, outbox := range a.outboxes {
		snap := a.state.SnapshotFor(handle, actions)
		var hand []uno.Card
		if snap.Hand != nil {
			hand = snap.Hand
		}
		payload := wire.EncodeUnoGameState(hand, snap)
		if err := outbox.Send(wire.GameState{Bytes: payload}); err != nil {
			log.Printf("[game %d] broadcast to %d failed: %v", a.id, handle, err)
		}
	}
}
