package uno

import "math/rand"

// DeckSize is the total number of cards in a Uno deck, and the number of
// populated bit positions (of 128 available) in each bitset.
const DeckSize = 108

// bitset128 is a 128-slot bitset split across two uint64 words: word 0
// covers positions 0-63, word 1 covers positions 64-127. Chosen, as in the
// original implementation, because it beats allocating a 108-element byte
// array and keeps set/clear/test operations to plain word arithmetic.
type bitset128 struct {
	lo, hi uint64
}

func fullBitset() bitset128 {
	// positions 0-107 set, 108-127 left clear (20 unused high bits).
	return bitset128{lo: ^uint64(0), hi: (uint64(1) << (DeckSize - 64)) - 1}
}

func (b bitset128) test(pos int) bool {
	if pos < 64 {
		return b.lo&(uint64(1)<<uint(pos)) != 0
	}
	return b.hi&(uint64(1)<<uint(pos-64)) != 0
}

func (b *bitset128) set(pos int) {
	if pos < 64 {
		b.lo |= uint64(1) << uint(pos)
	} else {
		b.hi |= uint64(1) << uint(pos-64)
	}
}

func (b *bitset128) clear(pos int) {
	if pos < 64 {
		b.lo &^= uint64(1) << uint(pos)
	} else {
		b.hi &^= uint64(1) << uint(pos-64)
	}
}

func (b bitset128) isEmpty() bool {
	return b.lo == 0 && b.hi == 0
}

// count returns the number of set bits, used only by tests that check card
// conservation.
func (b bitset128) count() int {
	n := 0
	for i := 0; i < DeckSize; i++ {
		if b.test(i) {
			n++
		}
	}
	return n
}

// Deck is the 108-card Uno deck, represented as a pair of 128-bit bitsets:
// "present in main" and "present in discard". Drawing clears a bit from
// main; discarding sets a bit in discard. When main empties, the two
// bitsets swap (reshuffle).
type Deck struct {
	main, discard bitset128
}

// NewDeck returns a fresh deck with all 108 cards in main and an empty
// discard pile.
func NewDeck() *Deck {
	return &Deck{main: fullBitset()}
}

// IsEmpty reports whether the main pile has no cards left to draw.
func (d *Deck) IsEmpty() bool {
	return d.main.isEmpty()
}

// posToCard maps a deck slot position to the card stored there, per the
// layout fixed in spec §3:
//
//	[0,72)    numeric 1-9, two copies per colour (8 slots per value)
//	[72,76)   numeric 0, one per colour
//	[76,100)  coloured power cards (PlusTwo/Skip/Reverse), two copies per colour
//	[100,104) PlusFour wilds
//	[104,108) ClrChange wilds
func posToCard(pos int) Card {
	switch {
	case pos < 72:
		value := uint8(pos/8) + 1
		colour := Colour(pos % 4)
		return MustEncode(false, colour, value)
	case pos < 76:
		colour := Colour(pos - 72)
		return MustEncode(false, colour, 0)
	case pos < 100:
		power := Power((pos - 76) / 8)
		colour := Colour((pos - 76) % 4)
		return MustEncode(true, colour, uint8(power))
	case pos < 104:
		return MustEncode(true, ColourRed, uint8(PowerPlusFour))
	default:
		return MustEncode(true, ColourRed, uint8(PowerClrChange))
	}
}

// cardToPos returns the candidate discard slot(s) for a card, in the order
// they should be tried: a canonical slot, then (for cards with two copies)
// the second copy's slot 4 positions further into the same value/power's
// 8-slot block. Black wilds instead return the four slots reserved for
// that power, to be scanned for a free one.
func cardToPos(c Card) []int {
	power, colour, value := c.Decode()
	if power && Power(value).IsWild() {
		base := 100
		if Power(value) == PowerClrChange {
			base = 104
		}
		return []int{base, base + 1, base + 2, base + 3}
	}
	if !power {
		if value == 0 {
			return []int{72 + int(colour)}
		}
		canonical := int(value-1)*8 + int(colour)
		return []int{canonical, canonical + 4}
	}
	// Coloured power card. Forward mapping (posToCard) computes, for
	// pos in [76,100), power=(pos-76)/8 and colour=(pos-76)%4 — so the
	// canonical slot for (power, colour) is 76 + power*8 + colour, and the
	// second copy lives at an offset of 4 (the next colour block for the
	// same power).
	canonical := 76 + int(value)*8 + int(colour)
	return []int{canonical, canonical + 4}
}

// drawSlot picks a uniformly random starting slot in [0, DeckSize) and
// scans forward, wrapping, for the next set bit in main, clearing it and
// returning the card it represents. If main is empty the caller is
// expected to have reshuffled first; drawSlot itself never reshuffles so
// that Reshuffle's own card-conservation behaviour stays in one place.
func (d *Deck) drawSlot(rng *rand.Rand) (Card, bool) {
	if d.main.isEmpty() {
		return 0, false
	}
	start := rng.Intn(DeckSize)
	for i := 0; i < DeckSize; i++ {
		pos := (start + i) % DeckSize
		if d.main.test(pos) {
			d.main.clear(pos)
			return posToCard(pos), true
		}
	}
	return 0, false
}

// Reshuffle moves every card in discard back into main, leaving discard
// empty. Called automatically by Draw when main runs dry.
func (d *Deck) Reshuffle() {
	d.main = d.discard
	d.discard = bitset128{}
}

// Draw removes and returns one random card from main, reshuffling from
// discard first if main is empty. Returns false only if both piles are
// empty, which cannot happen while the 108-card invariant holds and at
// least one card is outstanding in discard or hands.
func (d *Deck) Draw(rng *rand.Rand) (Card, bool) {
	if d.main.isEmpty() {
		d.Reshuffle()
	}
	return d.drawSlot(rng)
}

// Discard places a card (in its canonical storage form) back into the
// discard bitset, trying each of cardToPos's candidate slots in order and
// reporting (via the returned ok=false, without logging) if all candidates are already
// occupied — an internal-invariant violation that should never happen
// given card conservation, but which the engine tolerates per spec §7
// rather than crashing.
func (d *Deck) Discard(c Card) bool {
	canon := c.Canonical()
	for _, pos := range cardToPos(canon) {
		if !d.discard.test(pos) {
			d.discard.set(pos)
			return true
		}
	}
	return false
}
