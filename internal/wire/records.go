package wire

import (
	"fmt"

	"tempest/internal/uno"
)

// GameType identifies the kind of game a lobby entry hosts. Uno is
// presently the only variant; the byte tag leaves room for more without a
// wire format change.
type GameType uint8

const GameTypeUno GameType = 0

// GamePhase mirrors uno.Phase on the wire.
type GamePhase uint8

const (
	PhaseSetup  GamePhase = 0
	PhaseActive GamePhase = 1
	PhaseEnding GamePhase = 2
)

func phaseToWire(p uno.Phase) GamePhase {
	switch p {
	case uno.PhaseActive:
		return PhaseActive
	case uno.PhaseEnding:
		return PhaseEnding
	default:
		return PhaseSetup
	}
}

// ---- Client -> Server ----

// ClientMessage is the outermost tagged union of every record a client may
// send.
type ClientMessage interface {
	isClientMessage()
}

type Authenticate struct {
	Name string
}

type Authed struct {
	Handle  uint32
	Command AuthedCommand
}

func (Authenticate) isClientMessage() {}
func (Authed) isClientMessage()       {}

// AuthedCommand is the command carried by an Authed envelope.
type AuthedCommand interface {
	isAuthedCommand()
}

type CreateGame struct {
	Name string
	Kind GameType
}

type JoinGame struct {
	GameID uint32
}

type GameCommand struct {
	Cmd GameCmd
}

func (CreateGame) isAuthedCommand()  {}
func (JoinGame) isAuthedCommand()    {}
func (GameCommand) isAuthedCommand() {}

// GameCmd is the payload of Authed{..., Game(cmd)}.
type GameCmd interface {
	isGameCmd()
}

type GameStart struct{}
type GameLeave struct{}
type GameRaw struct{ Bytes []byte }

func (GameStart) isGameCmd() {}
func (GameLeave) isGameCmd() {}
func (GameRaw) isGameCmd()   {}

const (
	opClientAuthenticate byte = 0x01
	opClientAuthed       byte = 0x02

	opAuthedCreateGame byte = 0x01
	opAuthedJoinGame   byte = 0x02
	opAuthedGame       byte = 0x03

	opGameStart byte = 0x01
	opGameLeave byte = 0x02
	opGameRaw   byte = 0x03
)

// EncodeClientMessage encodes msg into its tagged binary form.
func EncodeClientMessage(msg ClientMessage) []byte {
	w := NewWriter(64)
	switch m := msg.(type) {
	case Authenticate:
		w.WriteByte(opClientAuthenticate)
		w.WriteString(m.Name)
	case Authed:
		w.WriteByte(opClientAuthed)
		w.WriteUint32(m.Handle)
		encodeAuthedCommand(w, m.Command)
	}
	return w.Bytes()
}

func encodeAuthedCommand(w *Writer, cmd AuthedCommand) {
	switch c := cmd.(type) {
	case CreateGame:
		w.WriteByte(opAuthedCreateGame)
		w.WriteString(c.Name)
		w.WriteByte(byte(c.Kind))
	case JoinGame:
		w.WriteByte(opAuthedJoinGame)
		w.WriteUint32(c.GameID)
	case GameCommand:
		w.WriteByte(opAuthedGame)
		switch g := c.Cmd.(type) {
		case GameStart:
			w.WriteByte(opGameStart)
		case GameLeave:
			w.WriteByte(opGameLeave)
		case GameRaw:
			w.WriteByte(opGameRaw)
			w.WriteBytes(g.Bytes)
		}
	}
}

// DecodeClientMessage decodes a frame payload into a ClientMessage.
func DecodeClientMessage(buf []byte) (ClientMessage, error) {
	r := NewReader(buf)
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch op {
	case opClientAuthenticate:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return Authenticate{Name: name}, nil
	case opClientAuthed:
		handle, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		cmd, err := decodeAuthedCommand(r)
		if err != nil {
			return nil, err
		}
		return Authed{Handle: handle, Command: cmd}, nil
	default:
		return nil, fmt.Errorf("wire: unknown client opcode %#02x", op)
	}
}

func decodeAuthedCommand(r *Reader) (AuthedCommand, error) {
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch op {
	case opAuthedCreateGame:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return CreateGame{Name: name, Kind: GameType(kind)}, nil
	case opAuthedJoinGame:
		id, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return JoinGame{GameID: id}, nil
	case opAuthedGame:
		gop, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch gop {
		case opGameStart:
			return GameCommand{Cmd: GameStart{}}, nil
		case opGameLeave:
			return GameCommand{Cmd: GameLeave{}}, nil
		case opGameRaw:
			b, err := r.ReadBytes()
			if err != nil {
				return nil, err
			}
			return GameCommand{Cmd: GameRaw{Bytes: b}}, nil
		default:
			return nil, fmt.Errorf("wire: unknown game-command opcode %#02x", gop)
		}
	default:
		return nil, fmt.Errorf("wire: unknown authed-command opcode %#02x", op)
	}
}

// ---- Server -> Client ----

// ServerMessage is the outermost tagged union of every record the server
// may send.
type ServerMessage interface {
	isServerMessage()
}

// ServerOutbox is the capability held by the dispatcher and by game actors
// to enqueue one record for delivery to a specific user, without knowing
// how that user's connection is implemented. A *transport.Sender[ServerMessage]
// satisfies this directly; connection nodes instead hand out a
// channel-backed implementation so that a user's dispatcher-origin and
// game-origin messages never race each other onto the same socket write.
type ServerOutbox interface {
	Send(ServerMessage) error
}

type AuthResponse struct {
	Handle uint32
}

type LobbyGame struct {
	Name          string
	ID            uint32
	Kind          GameType
	Phase         GamePhase
	ActivePlayers uint32
}

type LobbyState struct {
	PlayerCount uint32
	Games       []LobbyGame
}

// NewPlayerCount is reserved per spec §6 and never sent by this
// implementation; kept so the wire opcode space matches the catalogue.
type NewPlayerCount struct {
	Count uint32
}

type JoinedGame struct {
	LobbyName string
	Kind      GameType
}

// GameState carries an opaque, independently-encoded inner payload — see
// EncodeUnoGameState — so the dispatcher/connection layer never needs to
// know the per-game-kind inner schema.
type GameState struct {
	Bytes []byte
}

func (AuthResponse) isServerMessage()   {}
func (LobbyState) isServerMessage()     {}
func (NewPlayerCount) isServerMessage() {}
func (JoinedGame) isServerMessage()     {}
func (GameState) isServerMessage()      {}

const (
	opServerAuthResponse    byte = 0x01
	opServerLobbyState      byte = 0x02
	opServerNewPlayerCount  byte = 0x03
	opServerJoinedGame      byte = 0x04
	opServerGameState       byte = 0x05
)

// EncodeServerMessage encodes msg into its tagged binary form.
func EncodeServerMessage(msg ServerMessage) []byte {
	w := NewWriter(128)
	switch m := msg.(type) {
	case AuthResponse:
		w.WriteByte(opServerAuthResponse)
		w.WriteUint32(m.Handle)
	case LobbyState:
		w.WriteByte(opServerLobbyState)
		w.WriteUint32(m.PlayerCount)
		w.WriteUint16(uint16(len(m.Games)))
		for _, g := range m.Games {
			w.WriteString(g.Name)
			w.WriteUint32(g.ID)
			w.WriteByte(byte(g.Kind))
			w.WriteByte(byte(g.Phase))
			w.WriteUint32(g.ActivePlayers)
		}
	case NewPlayerCount:
		w.WriteByte(opServerNewPlayerCount)
		w.WriteUint32(m.Count)
	case JoinedGame:
		w.WriteByte(opServerJoinedGame)
		w.WriteString(m.LobbyName)
		w.WriteByte(byte(m.Kind))
	case GameState:
		w.WriteByte(opServerGameState)
		w.WriteBytes(m.Bytes)
	}
	return w.Bytes()
}

// DecodeServerMessage decodes a frame payload into a ServerMessage. Used by
// the client side of the wire and by tests exercising round-trips; the
// server itself only ever encodes these.
func DecodeServerMessage(buf []byte) (ServerMessage, error) {
	r := NewReader(buf)
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch op {
	case opServerAuthResponse:
		h, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return AuthResponse{Handle: h}, nil
	case opServerLobbyState:
		count, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		games := make([]LobbyGame, 0, n)
		for i := 0; i < int(n); i++ {
			name, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			id, err := r.ReadUint32()
			if err != nil {
				return nil, err
			}
			kind, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			phase, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			active, err := r.ReadUint32()
			if err != nil {
				return nil, err
			}
			games = append(games, LobbyGame{Name: name, ID: id, Kind: GameType(kind), Phase: GamePhase(phase), ActivePlayers: active})
		}
		return LobbyState{PlayerCount: count, Games: games}, nil
	case opServerNewPlayerCount:
		c, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return NewPlayerCount{Count: c}, nil
	case opServerJoinedGame:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return JoinedGame{LobbyName: name, Kind: GameType(kind)}, nil
	case opServerGameState:
		b, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		return GameState{Bytes: b}, nil
	default:
		return nil, fmt.Errorf("wire: unknown server opcode %#02x", op)
	}
}
