package uno

import (
	"errors"
	"fmt"
	"math/rand"
)

// Phase is the game's coarse lifecycle stage.
type Phase uint8

const (
	PhaseSetup Phase = iota
	PhaseActive
	PhaseEnding
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseActive:
		return "active"
	case PhaseEnding:
		return "ending"
	default:
		return "unknown"
	}
}

// Direction is the current turn-order direction.
type Direction int8

const (
	Forward Direction = 1
	Reverse Direction = -1
)

// MaxPlayers is the largest active-player roster a Setup game accepts.
const MaxPlayers = 4

// MinPlayersToStart is the smallest active-player roster the host may
// transition from Setup to Active.
const MinPlayersToStart = 2

// HandDealSize is the number of cards dealt to a newly joined player.
const HandDealSize = 10

// BustThreshold is the largest hand an active player may hold; a hand of
// more than BustThreshold cards gets the player evicted as busted.
const BustThreshold = 20

var (
	ErrGameFull        = errors.New("uno: game is full")
	ErrNotInSetup      = errors.New("uno: game is not in setup")
	ErrNotActive       = errors.New("uno: game is not active")
	ErrNotHost         = errors.New("uno: only the host may start the game")
	ErrTooFewPlayers   = errors.New("uno: need at least two players to start")
	ErrNotYourTurn     = errors.New("uno: not your turn")
	ErrIllegalCard     = errors.New("uno: card doesn't match colour or value")
	ErrCardNotHeld     = errors.New("uno: card not in hand")
	ErrUnknownPlayer   = errors.New("uno: unknown player")
	ErrInvalidEncoding = errors.New("uno: invalid card encoding")
)

// ActionKind tags the variant of a logged Action.
type ActionKind uint8

const (
	ActionUserJoined ActionKind = iota
	ActionUserLeft
	ActionUserPickup
	ActionUserPlaceCard
	ActionUserFinished
	ActionUserBust
	ActionGameEnded
)

// Action is one entry in the per-broadcast action log. Only the fields
// relevant to Kind are meaningful.
type Action struct {
	Kind  ActionKind
	Name  string
	Card  Card
	Count int
}

// Player is one seated, still-playing participant.
type Player struct {
	Handle uint32
	Name   string
	Hand   []Card
}

// NamedRecord is a finished or busted player: the hand is gone, only the
// name is retained for display.
type NamedRecord struct {
	Handle uint32
	Name   string
}

// PlayerSummary is the public view of an active player included in a
// broadcast snapshot: everything but their hand contents.
type PlayerSummary struct {
	Handle   uint32
	Name     string
	HandSize int
}

// Snapshot is the per-recipient view of a game's state, built fresh for
// every broadcast. Hand is only populated for the recipient, and only
// while Phase is Active.
type Snapshot struct {
	Phase     Phase
	Actions   []Action
	Finished  []NamedRecord
	Bust      []NamedRecord
	Active    []PlayerSummary
	Host      uint32
	Turn      int
	Direction Direction
	LastCard  Card
	Hand      []Card
}

// State is the full authoritative state of one Uno game, owned exclusively
// by its game actor. No method here performs I/O; the caller (internal/game)
// is responsible for outboxes, dispatcher notifications, and logging.
type State struct {
	Active    []*Player
	Finished  []NamedRecord
	Bust      []NamedRecord
	Host      uint32
	Turn      int
	Direction Direction
	LastCard  Card
	Phase     Phase
	deck        *Deck
	actionLog   []Action
	rng         *rand.Rand
	lastCardSet bool
}

// NewState creates a fresh, empty Setup-phase game whose host will be the
// first player to Join. rng drives every random draw for this game's
// lifetime; pass a source seeded independently per game so concurrent
// games don't share mutable rand state.
func NewState(rng *rand.Rand) *State {
	return &State{
		Phase:     PhaseSetup,
		Direction: Forward,
		deck:      NewDeck(),
		rng:       rng,
	}
}

func (s *State) log(a Action) {
	s.actionLog = append(s.actionLog, a)
}

// findActive returns the active player with the given handle and their
// index, or (nil, -1, false).
func (s *State) findActive(handle uint32) (*Player, int, bool) {
	for i, p := range s.Active {
		if p.Handle == handle {
			return p, i, true
		}
	}
	return nil, -1, false
}

// removeCardAt removes the card at index i from hand, preserving order is
// not required so this swaps with the last element.
func removeCardAt(hand []Card, i int) []Card {
	hand[i] = hand[len(hand)-1]
	return hand[:len(hand)-1]
}

// Join seats a new player with a freshly dealt hand. Rejects once the
// roster is full or the game has left Setup.
func (s *State) Join(handle uint32, name string) error {
	if len(s.Active) >= MaxPlayers {
		return ErrGameFull
	}
	if s.Phase != PhaseSetup {
		return ErrNotInSetup
	}
	if len(s.Active) == 0 {
		s.Host = handle
	}
	hand := make([]Card, 0, HandDealSize)
	for i := 0; i < HandDealSize; i++ {
		card, ok := s.deck.Draw(s.rng)
		if !ok {
			break
		}
		hand = append(hand, card)
	}
	s.Active = append(s.Active, &Player{Handle: handle, Name: name, Hand: hand})
	if !s.lastCardSet && len(s.Active) == 1 {
		if top, ok := s.deck.Draw(s.rng); ok {
			s.LastCard = top.Canonical()
			s.lastCardSet = true
		}
	}
	s.log(Action{Kind: ActionUserJoined, Name: name})
	return nil
}

// Start transitions Setup to Active. Only the host may call this, and only
// once at least two players are seated.
func (s *State) Start(by uint32) error {
	if s.Phase != PhaseSetup {
		return ErrNotInSetup
	}
	if by != s.Host {
		return ErrNotHost
	}
	if len(s.Active) < MinPlayersToStart {
		return ErrTooFewPlayers
	}
	s.Phase = PhaseActive
	return nil
}

func (s *State) advanceTurn() {
	n := len(s.Active)
	if n == 0 {
		s.Turn = 0
		return
	}
	s.Turn = ((s.Turn+int(s.Direction))%n + n) % n
}

// PickupCard draws one card for the sender, who must hold the current
// turn. Rejecting an out-of-turn pickup (rather than warning and dealing
// the card anyway) is a deliberate deviation from the original reference
// implementation's apparent bug; see spec §9.
func (s *State) PickupCard(by uint32) error {
	if s.Phase != PhaseActive {
		return ErrNotActive
	}
	player, idx, ok := s.findActive(by)
	if !ok {
		return ErrUnknownPlayer
	}
	if idx != s.Turn {
		return ErrNotYourTurn
	}
	card, drew := s.deck.Draw(s.rng)
	if !drew {
		return nil
	}
	player.Hand = append(player.Hand, card)
	s.log(Action{Kind: ActionUserPickup, Name: player.Name, Count: 1})
	s.advanceTurn()
	return nil
}

// PlayCard runs submit then commit for a card play, and the downstream
// user_finished/check_bust passes the spec requires after a successful
// play. card is exactly what the player submitted: for a wild, its colour
// bits already carry the player's chosen active colour, which is what
// ends up on last_card; the hand/deck matching underneath uses card's
// canonical (colour-forced-to-Red) form. Returns nil on success (even
// when downstream effects like a bust occur); any rejection leaves state
// untouched.
func (s *State) PlayCard(by uint32, card Card) error {
	if s.Phase != PhaseActive {
		return ErrNotActive
	}
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	canonical := card.Canonical()
	_, currColour, currValue := s.LastCard.Decode()
	if !canonical.IsWild() {
		_, colour, value := canonical.Decode()
		if colour != currColour && value != currValue {
			return ErrIllegalCard
		}
	}

	player, idx, ok := s.findActive(by)
	if !ok {
		return ErrUnknownPlayer
	}
	if idx != s.Turn {
		return ErrNotYourTurn
	}

	handIdx := -1
	for i, c := range player.Hand {
		if c == canonical {
			handIdx = i
			break
		}
	}
	if handIdx == -1 {
		return ErrCardNotHeld
	}
	player.Hand = removeCardAt(player.Hand, handIdx)

	playedCard := card

	if !s.deck.Discard(canonical) {
		// Internal invariant violation (no free discard slot for a card
		// that must have one, by card conservation). The play goes ahead
		// rather than aborting the game; the lost discard is neither
		// logged nor reported to the caller.
	}
	s.log(Action{Kind: ActionUserPlaceCard, Name: player.Name, Card: playedCard})

	s.commit(playedCard)

	if len(player.Hand) == 0 {
		s.userFinished(by)
	}
	s.checkBust()
	return nil
}

// commit applies a played card's turn-order and draw effects. card is the
// played form (wild's chosen colour already applied).
func (s *State) commit(card Card) {
	s.LastCard = card
	s.lastCardSet = true
	power, _, value := card.Decode()
	if !power {
		s.advanceTurn()
		return
	}
	switch Power(value) {
	case PowerPlusTwo:
		s.advanceTurn()
		s.pickupFor(s.Turn, 2)
		s.advanceTurn()
	case PowerSkip:
		s.advanceTurn()
		s.advanceTurn()
	case PowerReverse:
		s.Direction = -s.Direction
		s.advanceTurn()
	case PowerPlusFour:
		s.advanceTurn()
		s.pickupFor(s.Turn, 4)
		s.advanceTurn()
	case PowerClrChange:
		s.advanceTurn()
	}
}

// pickupFor deals n cards to the active player at idx, logging a single
// UserPickup entry for the batch.
func (s *State) pickupFor(idx, n int) {
	if idx < 0 || idx >= len(s.Active) {
		return
	}
	target := s.Active[idx]
	drawn := 0
	for i := 0; i < n; i++ {
		card, ok := s.deck.Draw(s.rng)
		if !ok {
			break
		}
		target.Hand = append(target.Hand, card)
		drawn++
	}
	if drawn > 0 {
		s.log(Action{Kind: ActionUserPickup, Name: target.Name, Count: drawn})
	}
}

// userFinished moves the player at handle from active to finished and
// re-derives the turn index for the shrunk roster.
func (s *State) userFinished(handle uint32) {
	player, idx, ok := s.findActive(handle)
	if !ok {
		return
	}
	s.Active = append(s.Active[:idx], s.Active[idx+1:]...)
	s.Finished = append(s.Finished, NamedRecord{Handle: player.Handle, Name: player.Name})
	s.log(Action{Kind: ActionUserFinished, Name: player.Name})
	s.turnFromLeaver(idx)
}

// checkBust evicts every active player whose hand has grown past
// BustThreshold, discarding their hand back into the deck.
func (s *State) checkBust() {
	// Walk Active by index, since eviction removes entries from it.
	i := 0
	for i < len(s.Active) {
		p := s.Active[i]
		if len(p.Hand) <= BustThreshold {
			i++
			continue
		}
		for _, c := range p.Hand {
			s.deck.Discard(c.Canonical())
		}
		s.Active = append(s.Active[:i], s.Active[i+1:]...)
		s.Bust = append(s.Bust, NamedRecord{Handle: p.Handle, Name: p.Name})
		s.log(Action{Kind: ActionUserBust, Name: p.Name})
		s.turnFromLeaver(i)
		// Don't advance i: the slice shifted left.
	}
}

// turnFromLeaver re-derives the turn index after the active player at idx
// departed (finished or busted), then checks for game end.
func (s *State) turnFromLeaver(idx int) {
	n := len(s.Active)
	switch {
	case n == 0:
		s.Turn = 0
	case s.Turn == n:
		s.Turn = n - 1
	case s.Turn > idx:
		s.Turn--
	}
	s.checkOver()
}

// checkOver ends the game once at most one active player remains.
func (s *State) checkOver() {
	if len(s.Active) > 1 || s.Phase == PhaseEnding {
		return
	}
	for _, p := range s.Active {
		s.Finished = append(s.Finished, NamedRecord{Handle: p.Handle, Name: p.Name})
	}
	s.Active = nil
	s.log(Action{Kind: ActionGameEnded})
	s.Phase = PhaseEnding
}

// Leave removes handle from whichever roster they occupy. A departure
// during Setup is neither busted nor counted; a departure once the game
// has left Setup busts the leaver, per spec §9.
func (s *State) Leave(handle uint32) {
	if player, idx, ok := s.findActive(handle); ok {
		s.Active = append(s.Active[:idx], s.Active[idx+1:]...)
		for _, c := range player.Hand {
			s.deck.Discard(c.Canonical())
		}
		if s.Phase != PhaseSetup {
			s.Bust = append(s.Bust, NamedRecord{Handle: player.Handle, Name: player.Name})
			s.log(Action{Kind: ActionUserLeft, Name: player.Name})
			s.turnFromLeaver(idx)
			return
		}
		s.log(Action{Kind: ActionUserLeft, Name: player.Name})
		s.checkOver()
		return
	}
	for i, f := range s.Finished {
		if f.Handle == handle {
			s.Finished = append(s.Finished[:i], s.Finished[i+1:]...)
			s.log(Action{Kind: ActionUserLeft, Name: f.Name})
			return
		}
	}
	for i, b := range s.Bust {
		if b.Handle == handle {
			s.Bust = append(s.Bust[:i], s.Bust[i+1:]...)
			s.log(Action{Kind: ActionUserLeft, Name: b.Name})
			return
		}
	}
}

// DrainActionLog returns and clears the accumulated action log. Called
// once per broadcast; every recipient's Snapshot shares the same drained
// slice.
func (s *State) DrainActionLog() []Action {
	drained := s.actionLog
	s.actionLog = nil
	return drained
}

// SnapshotFor builds one recipient's view of the current state. actions
// should be the (already drained, shared) log for this broadcast.
func (s *State) SnapshotFor(handle uint32, actions []Action) Snapshot {
	active := make([]PlayerSummary, len(s.Active))
	for i, p := range s.Active {
		active[i] = PlayerSummary{Handle: p.Handle, Name: p.Name, HandSize: len(p.Hand)}
	}
	snap := Snapshot{
		Phase:     s.Phase,
		Actions:   actions,
		Finished:  append([]NamedRecord(nil), s.Finished...),
		Bust:      append([]NamedRecord(nil), s.Bust...),
		Active:    active,
		Host:      s.Host,
		Turn:      s.Turn,
		Direction: s.Direction,
		LastCard:  s.LastCard,
	}
	if s.Phase != PhaseActive {
		snap.LastCard = MustEncode(false, ColourRed, 0)
	}
	if s.Phase == PhaseActive {
		if p, _, ok := s.findActive(handle); ok {
			snap.Hand = append([]Card(nil), p.Hand...)
		}
	}
	return snap
}

// IsEmpty reports whether no user (active, finished, or bust) remains
// seated at the table. The game actor does not use it: it terminates when
// its own outbox map is empty.
func (s *State) IsEmpty() bool {
	return len(s.Active) == 0 && len(s.Finished) == 0 && len(s.Bust) == 0
}

// TotalCards returns the multiset size across main deck, discard deck, all
// active hands, and the last-played card (when Active) — used by tests to
// assert the 108-card conservation invariant.
func (s *State) TotalCards() int {
	total := s.deck.main.count() + s.deck.discard.count()
	for _, p := range s.Active {
		total += len(p.Hand)
	}
	if s.Phase == PhaseActive && s.lastCardSet {
		total++
	}
	return total
}
