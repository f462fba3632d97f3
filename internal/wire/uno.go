package wire

import (
	"fmt"

	"tempest/internal/uno"
)

// UnoClientAction is the inner payload of a client's Authed(Game(Raw(bytes)))
// command once decoded, matching spec §6's "Inner Uno records".
type UnoClientAction interface {
	isUnoClientAction()
}

type UnoPickupCard struct{}
type UnoPlayCard struct{ Card uno.Card }

func (UnoPickupCard) isUnoClientAction() {}
func (UnoPlayCard) isUnoClientAction()   {}

const (
	opUnoPickupCard byte = 0x01
	opUnoPlayCard   byte = 0x02
)

// EncodeUnoClientAction encodes a client action for the Raw(bytes) payload
// of a Game command.
func EncodeUnoClientAction(a UnoClientAction) []byte {
	w := NewWriter(4)
	switch v := a.(type) {
	case UnoPickupCard:
		w.WriteByte(opUnoPickupCard)
	case UnoPlayCard:
		w.WriteByte(opUnoPlayCard)
		w.WriteByte(byte(v.Card))
	}
	return w.Bytes()
}

// DecodeUnoClientAction decodes the Raw(bytes) payload of a Game command.
func DecodeUnoClientAction(buf []byte) (UnoClientAction, error) {
	r := NewReader(buf)
	op, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch op {
	case opUnoPickupCard:
		return UnoPickupCard{}, nil
	case opUnoPlayCard:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return UnoPlayCard{Card: uno.Card(b)}, nil
	default:
		return nil, fmt.Errorf("wire: unknown uno client-action opcode %#02x", op)
	}
}

const (
	opUnoActionUserJoined    byte = 0x01
	opUnoActionUserLeft      byte = 0x02
	opUnoActionUserPickup    byte = 0x03
	opUnoActionUserPlaceCard byte = 0x04
	opUnoActionUserFinished  byte = 0x05
	opUnoActionUserBust      byte = 0x06
	opUnoActionGameEnded     byte = 0x07
)

func encodeUnoAction(w *Writer, a uno.Action) {
	switch a.Kind {
	case uno.ActionUserJoined:
		w.WriteByte(opUnoActionUserJoined)
		w.WriteString(a.Name)
	case uno.ActionUserLeft:
		w.WriteByte(opUnoActionUserLeft)
		w.WriteString(a.Name)
	case uno.ActionUserPickup:
		w.WriteByte(opUnoActionUserPickup)
		w.WriteString(a.Name)
		w.WriteUint16(uint16(a.Count))
	case uno.ActionUserPlaceCard:
		w.WriteByte(opUnoActionUserPlaceCard)
		w.WriteString(a.Name)
		w.WriteByte(byte(a.Card))
	case uno.ActionUserFinished:
		w.WriteByte(opUnoActionUserFinished)
		w.WriteString(a.Name)
	case uno.ActionUserBust:
		w.WriteByte(opUnoActionUserBust)
		w.WriteString(a.Name)
	case uno.ActionGameEnded:
		w.WriteByte(opUnoActionGameEnded)
	}
}

func decodeUnoAction(r *Reader) (uno.Action, error) {
	op, err := r.ReadByte()
	if err != nil {
		return uno.Action{}, err
	}
	switch op {
	case opUnoActionUserJoined:
		name, err := r.ReadString()
		return uno.Action{Kind: uno.ActionUserJoined, Name: name}, err
	case opUnoActionUserLeft:
		name, err := r.ReadString()
		return uno.Action{Kind: uno.ActionUserLeft, Name: name}, err
	case opUnoActionUserPickup:
		name, err := r.ReadString()
		if err != nil {
			return uno.Action{}, err
		}
		count, err := r.ReadUint16()
		return uno.Action{Kind: uno.ActionUserPickup, Name: name, Count: int(count)}, err
	case opUnoActionUserPlaceCard:
		name, err := r.ReadString()
		if err != nil {
			return uno.Action{}, err
		}
		card, err := r.ReadByte()
		return uno.Action{Kind: uno.ActionUserPlaceCard, Name: name, Card: uno.Card(card)}, err
	case opUnoActionUserFinished:
		name, err := r.ReadString()
		return uno.Action{Kind: uno.ActionUserFinished, Name: name}, err
	case opUnoActionUserBust:
		name, err := r.ReadString()
		return uno.Action{Kind: uno.ActionUserBust, Name: name}, err
	case opUnoActionGameEnded:
		return uno.Action{Kind: uno.ActionGameEnded}, nil
	default:
		return uno.Action{}, fmt.Errorf("wire: unknown uno action opcode %#02x", op)
	}
}

func encodeNamedRecord(w *Writer, rec uno.NamedRecord) {
	w.WriteUint32(rec.Handle)
	w.WriteString(rec.Name)
}

func decodeNamedRecord(r *Reader) (uno.NamedRecord, error) {
	handle, err := r.ReadUint32()
	if err != nil {
		return uno.NamedRecord{}, err
	}
	name, err := r.ReadString()
	return uno.NamedRecord{Handle: handle, Name: name}, err
}

func encodePlayerSummary(w *Writer, p uno.PlayerSummary) {
	w.WriteUint32(p.Handle)
	w.WriteString(p.Name)
	w.WriteUint16(uint16(p.HandSize))
}

func decodePlayerSummary(r *Reader) (uno.PlayerSummary, error) {
	handle, err := r.ReadUint32()
	if err != nil {
		return uno.PlayerSummary{}, err
	}
	name, err := r.ReadString()
	if err != nil {
		return uno.PlayerSummary{}, err
	}
	handSize, err := r.ReadUint16()
	return uno.PlayerSummary{Handle: handle, Name: name, HandSize: int(handSize)}, err
}

// EncodeUnoGameState encodes the inner ServerUnoCommand::GameState(hand,
// state) payload that fills a wire.GameState's opaque Bytes. It is
// independently encoded so the outer server-message router never needs to
// know the per-game-kind schema, per spec §9.
func EncodeUnoGameState(hand []uno.Card, snap uno.Snapshot) []byte {
	w := NewWriter(256)

	w.WriteUint16(uint16(len(hand)))
	for _, c := range hand {
		w.WriteByte(byte(c))
	}

	w.WriteByte(byte(phaseToWire(snap.Phase)))

	w.WriteUint16(uint16(len(snap.Actions)))
	for _, a := range snap.Actions {
		encodeUnoAction(w, a)
	}
	w.WriteUint16(uint16(len(snap.Finished)))
	for _, f := range snap.Finished {
		encodeNamedRecord(w, f)
	}
	w.WriteUint16(uint16(len(snap.Bust)))
	for _, b := range snap.Bust {
		encodeNamedRecord(w, b)
	}
	w.WriteUint16(uint16(len(snap.Active)))
	for _, p := range snap.Active {
		encodePlayerSummary(w, p)
	}
	w.WriteUint32(snap.Host)
	w.WriteUint16(uint16(snap.Turn))
	if snap.Direction == uno.Reverse {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
	w.WriteByte(byte(snap.LastCard))

	return w.Bytes()
}

// DecodedUnoGameState is the client-side decode of EncodeUnoGameState's
// output.
type DecodedUnoGameState struct {
	Hand  []uno.Card
	State UnoClientGameState
}

// UnoClientGameState is the per-recipient broadcast view, matching spec
// §4.E's description exactly (phase, drained action log, finished/bust
// lists, active-user summaries, host, turn, direction, last_card).
type UnoClientGameState struct {
	Phase     GamePhase
	Actions   []uno.Action
	Finished  []uno.NamedRecord
	Bust      []uno.NamedRecord
	Active    []uno.PlayerSummary
	Host      uint32
	Turn      int
	Direction uno.Direction
	LastCard  uno.Card
}

// DecodeUnoGameState decodes a GameState's inner Bytes. Provided for
// symmetry and for tests that assert round-trip correctness; the server
// itself only ever encodes.
func DecodeUnoGameState(buf []byte) (DecodedUnoGameState, error) {
	r := NewReader(buf)
	var out DecodedUnoGameState

	n, err := r.ReadUint16()
	if err != nil {
		return out, err
	}
	out.Hand = make([]uno.Card, n)
	for i := range out.Hand {
		b, err := r.ReadByte()
		if err != nil {
			return out, err
		}
		out.Hand[i] = uno.Card(b)
	}

	phase, err := r.ReadByte()
	if err != nil {
		return out, err
	}
	out.State.Phase = GamePhase(phase)

	na, err := r.ReadUint16()
	if err != nil {
		return out, err
	}
	out.State.Actions = make([]uno.Action, na)
	for i := range out.State.Actions {
		a, err := decodeUnoAction(r)
		if err != nil {
			return out, err
		}
		out.State.Actions[i] = a
	}

	nf, err := r.ReadUint16()
	if err != nil {
		return out, err
	}
	out.State.Finished = make([]uno.NamedRecord, nf)
	for i := range out.State.Finished {
		f, err := decodeNamedRecord(r)
		if err != nil {
			return out, err
		}
		out.State.Finished[i] = f
	}

	nb, err := r.ReadUint16()
	if err != nil {
		return out, err
	}
	out.State.Bust = make([]uno.NamedRecord, nb)
	for i := range out.State.Bust {
		b, err := decodeNamedRecord(r)
		if err != nil {
			return out, err
		}
		out.State.Bust[i] = b
	}

	np, err := r.ReadUint16()
	if err != nil {
		return out, err
	}
	out.State.Active = make([]uno.PlayerSummary, np)
	for i := range out.State.Active {
		p, err := decodePlayerSummary(r)
		if err != nil {
			return out, err
		}
		out.State.Active[i] = p
	}

	host, err := r.ReadUint32()
	if err != nil {
		return out, err
	}
	out.State.Host = host

	turn, err := r.ReadUint16()
	if err != nil {
		return out, err
	}
	out.State.Turn = int(turn)

	dir, err := r.ReadByte()
	if err != nil {
		return out, err
	}
	if dir == 1 {
		out.State.Direction = uno.Reverse
	} else {
		out.State.Direction = uno.Forward
	}

	lastCard, err := r.ReadByte()
	if err != nil {
		return out, err
	}
	out.State.LastCard = uno.Card(lastCard)

	return out, nil
}
