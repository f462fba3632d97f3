// Package uno implements the Uno rules engine: the bit-packed card
// encoding, the 108-card two-bitset deck, and the legality/turn-advancement
// logic run by a game actor.
package uno

import "fmt"

// Colour is one of the four suit colours. Wild cards are canonically
// stored with ColourRed; their chosen colour lives only in the top-of-discard
// slot once played.
type Colour uint8

const (
	ColourRed Colour = iota
	ColourBlue
	ColourGreen
	ColourYellow
)

func (c Colour) String() string {
	switch c {
	case ColourRed:
		return "red"
	case ColourBlue:
		return "blue"
	case ColourGreen:
		return "green"
	case ColourYellow:
		return "yellow"
	default:
		return fmt.Sprintf("colour(%d)", uint8(c))
	}
}

// Power is the action a power card performs. Numeric cards don't have one;
// the power flag on Card distinguishes the two families.
type Power uint8

const (
	PowerPlusTwo Power = iota
	PowerSkip
	PowerReverse
	PowerPlusFour
	PowerClrChange
)

func (p Power) String() string {
	switch p {
	case PowerPlusTwo:
		return "+2"
	case PowerSkip:
		return "skip"
	case PowerReverse:
		return "reverse"
	case PowerPlusFour:
		return "+4"
	case PowerClrChange:
		return "colour-change"
	default:
		return fmt.Sprintf("power(%d)", uint8(p))
	}
}

// IsWild reports whether p is one of the two black (colourless-until-played)
// powers.
func (p Power) IsWild() bool {
	return p == PowerPlusFour || p == PowerClrChange
}

// Card is a bit-packed Uno card: bit 7 is the power flag, bits 6-5 are the
// colour, bits 4-0 are the value (0-9 numeric, or a Power for power cards).
type Card uint8

// Encode packs a card from its decoded fields. value must be 0-9 for
// numeric cards or a valid Power (0-4) for power cards; colour must be 0-3.
// Callers that already have valid components can ignore the returned error.
func Encode(power bool, colour Colour, value uint8) (Card, error) {
	if colour > ColourYellow {
		return 0, fmt.Errorf("uno: colour %d out of range", colour)
	}
	if power {
		if value > uint8(PowerClrChange) {
			return 0, fmt.Errorf("uno: power value %d out of range", value)
		}
	} else if value > 9 {
		return 0, fmt.Errorf("uno: numeric value %d out of range", value)
	}
	var b uint8
	if power {
		b |= 1 << 7
	}
	b |= uint8(colour&0b11) << 5
	b |= value & 0b11111
	return Card(b), nil
}

// MustEncode is Encode but panics on an invalid triple. Only safe for
// call sites with statically-known-valid arguments (deck construction,
// tests).
func MustEncode(power bool, colour Colour, value uint8) Card {
	c, err := Encode(power, colour, value)
	if err != nil {
		panic(err)
	}
	return c
}

// Decode unpacks a card into its power flag, colour, and value.
func (c Card) Decode() (power bool, colour Colour, value uint8) {
	power = c&(1<<7) != 0
	colour = Colour((c >> 5) & 0b11)
	value = uint8(c) & 0b11111
	return
}

// IsPower reports whether c is an action card (as opposed to numeric).
func (c Card) IsPower() bool {
	power, _, _ := c.Decode()
	return power
}

// Colour returns c's stored colour. For an un-played wild this is always
// ColourRed (the canonical storage form).
func (c Card) Colour() Colour {
	_, colour, _ := c.Decode()
	return colour
}

// Value returns c's numeric value, or its Power encoded as a uint8 for
// power cards.
func (c Card) Value() uint8 {
	_, _, value := c.Decode()
	return value
}

// Power returns c's Power. Only meaningful when IsPower is true.
func (c Card) Power() Power {
	return Power(c.Value())
}

// IsWild reports whether c is a black (PlusFour/ClrChange) card.
func (c Card) IsWild() bool {
	power, _, value := c.Decode()
	return power && Power(value).IsWild()
}

// Validate reports whether c's bit pattern decodes to an in-range
// colour/value combination.
func (c Card) Validate() error {
	power, colour, value := c.Decode()
	if colour > ColourYellow {
		return fmt.Errorf("uno: card %#02x has invalid colour %d", uint8(c), colour)
	}
	if power {
		if value > uint8(PowerClrChange) {
			return fmt.Errorf("uno: card %#02x has invalid power %d", uint8(c), value)
		}
		return nil
	}
	if value > 9 {
		return fmt.Errorf("uno: card %#02x has invalid numeric value %d", uint8(c), value)
	}
	return nil
}

// Canonical returns c with its colour forced to ColourRed if c is a wild.
// Non-wild cards are returned unchanged. This is the storage form used in
// hands and the deck bitsets; only the top-of-discard carries a wild's
// chosen colour.
func (c Card) Canonical() Card {
	if !c.IsWild() {
		return c
	}
	canon, err := Encode(true, ColourRed, c.Value())
	if err != nil {
		// unreachable: c was already validated as a power card with a
		// valid value.
		panic(err)
	}
	return canon
}

func (c Card) String() string {
	power, colour, value := c.Decode()
	if power {
		p := Power(value)
		if p.IsWild() {
			return p.String()
		}
		return fmt.Sprintf("%s %s", colour, p)
	}
	return fmt.Sprintf("%s %d", colour, value)
}
