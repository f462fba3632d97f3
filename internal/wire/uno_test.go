package wire

import (
	"testing"

	"tempest/internal/uno"
)

func TestUnoClientActionRoundTrip(t *testing.T) {
	card := uno.MustEncode(false, uno.ColourRed, 7)
	cases := []UnoClientAction{
		UnoPickupCard{},
		UnoPlayCard{Card: card},
	}
	for _, c := range cases {
		buf := EncodeUnoClientAction(c)
		got, err := DecodeUnoClientAction(buf)
		if err != nil {
			t.Fatalf("DecodeUnoClientAction(%v): %v", c, err)
		}
		switch cv := c.(type) {
		case UnoPickupCard:
			if _, ok := got.(UnoPickupCard); !ok {
				t.Errorf("round trip = %#v, want UnoPickupCard", got)
			}
		case UnoPlayCard:
			gv, ok := got.(UnoPlayCard)
			if !ok || gv.Card != cv.Card {
				t.Errorf("round trip = %#v, want %#v", got, c)
			}
		}
	}
}

func TestDecodeUnoClientActionRejectsUnknownOpcode(t *testing.T) {
	if _, err := DecodeUnoClientAction([]byte{0xFF}); err == nil {
		t.Error("expected error decoding unknown uno client-action opcode")
	}
}

func TestUnoGameStateRoundTrip(t *testing.T) {
	hand := []uno.Card{
		uno.MustEncode(false, uno.ColourRed, 3),
		uno.MustEncode(false, uno.ColourBlue, 9),
	}
	last := uno.MustEncode(true, uno.ColourGreen, uint8(uno.PowerSkip))
	snap := uno.Snapshot{
		Phase: uno.PhaseActive,
		Actions: []uno.Action{
			{Kind: uno.ActionUserJoined, Name: "alice"},
			{Kind: uno.ActionUserPickup, Name: "bob", Count: 2},
			{Kind: uno.ActionUserPlaceCard, Name: "bob", Card: last},
			{Kind: uno.ActionGameEnded},
		},
		Finished: []uno.NamedRecord{{Handle: 1, Name: "alice"}},
		Bust:     []uno.NamedRecord{{Handle: 2, Name: "carol"}},
		Active: []uno.PlayerSummary{
			{Handle: 3, Name: "bob", HandSize: 4},
		},
		Host:      1,
		Turn:      2,
		Direction: uno.Reverse,
		LastCard:  last,
	}

	buf := EncodeUnoGameState(hand, snap)
	decoded, err := DecodeUnoGameState(buf)
	if err != nil {
		t.Fatalf("DecodeUnoGameState: %v", err)
	}

	if len(decoded.Hand) != len(hand) {
		t.Fatalf("hand length = %d, want %d", len(decoded.Hand), len(hand))
	}
	for i, c := range hand {
		if decoded.Hand[i] != c {
			t.Errorf("hand[%d] = %v, want %v", i, decoded.Hand[i], c)
		}
	}

	if decoded.State.Phase != phaseToWire(snap.Phase) {
		t.Errorf("phase = %v, want %v", decoded.State.Phase, phaseToWire(snap.Phase))
	}
	if len(decoded.State.Actions) != len(snap.Actions) {
		t.Fatalf("actions length = %d, want %d", len(decoded.State.Actions), len(snap.Actions))
	}
	if decoded.State.Actions[1].Count != 2 {
		t.Errorf("pickup count = %d, want 2", decoded.State.Actions[1].Count)
	}
	if decoded.State.Actions[2].Card != last {
		t.Errorf("play card = %v, want %v", decoded.State.Actions[2].Card, last)
	}
	if len(decoded.State.Finished) != 1 || decoded.State.Finished[0].Name != "alice" {
		t.Errorf("finished = %v", decoded.State.Finished)
	}
	if len(decoded.State.Bust) != 1 || decoded.State.Bust[0].Name != "carol" {
		t.Errorf("bust = %v", decoded.State.Bust)
	}
	if len(decoded.State.Active) != 1 || decoded.State.Active[0].HandSize != 4 {
		t.Errorf("active = %v", decoded.State.Active)
	}
	if decoded.State.Host != snap.Host {
		t.Errorf("host = %d, want %d", decoded.State.Host, snap.Host)
	}
	if decoded.State.Turn != snap.Turn {
		t.Errorf("turn = %d, want %d", decoded.State.Turn, snap.Turn)
	}
	if decoded.State.Direction != uno.Reverse {
		t.Errorf("direction = %v, want Reverse", decoded.State.Direction)
	}
	if decoded.State.LastCard != last {
		t.Errorf("last card = %v, want %v", decoded.State.LastCard, last)
	}
}
