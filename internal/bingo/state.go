package bingo

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"dailybingo/internal/types"
)

// ErrMalformedSnapshot is returned by FromSnapshot for data that cannot be a board.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// State is one player's board for one game day. Transitions return a new
// State and never write through to the receiver's Cards.
type State struct {
	DayKey   string
	Cards    []types.Card
	WasBingo bool
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	cards := make([]types.Card, len(s.Cards))
	copy(cards, s.Cards)
	return State{DayKey: s.DayKey, Cards: cards, WasBingo: s.WasBingo}
}

// Snapshot converts s to its persisted form.
func (s State) Snapshot() types.Snapshot {
	c := s.Clone()
	return types.Snapshot{Date: c.DayKey, Phrases: c.Cards, WasBingo: c.WasBingo}
}

// FromSnapshot validates a persisted snapshot and converts it to a State.
func FromSnapshot(snap types.Snapshot) (State, error) {
	if snap.Date == "" {
		return State{}, fmt.Errorf("%w: missing date", ErrMalformedSnapshot)
	}
	if _, err := time.Parse(DayKeyLayout, snap.Date); err != nil {
		return State{}, fmt.Errorf("%w: bad date %q", ErrMalformedSnapshot, snap.Date)
	}
	if len(snap.Phrases) != CardCount {
		return State{}, fmt.Errorf("%w: %d cards, want %d", ErrMalformedSnapshot, len(snap.Phrases), CardCount)
	}
	if lo.SomeBy(snap.Phrases, func(c types.Card) bool { return c.Text == "" }) {
		return State{}, fmt.Errorf("%w: empty phrase", ErrMalformedSnapshot)
	}
	texts := lo.Map(snap.Phrases, func(c types.Card, _ int) string { return c.Text })
	if dup := lo.FindDuplicates(texts); len(dup) > 0 {
		return State{}, fmt.Errorf("%w: duplicate phrase %q", ErrMalformedSnapshot, dup[0])
	}
	s := State{DayKey: snap.Date, Cards: snap.Phrases, WasBingo: snap.WasBingo}
	return s.Clone(), nil
}

// Controller decides whether a stored board is still current and deals a new
// one when it is not.
type Controller struct {
	dealer       *Dealer
	boundaryHour int
}

// NewController returns a Controller that rolls the day over at boundaryHour UTC.
func NewController(dealer *Dealer, boundaryHour int) *Controller {
	return &Controller{dealer: dealer, boundaryHour: boundaryHour}
}

// BoundaryHour returns the UTC hour at which a new game day starts.
func (c *Controller) BoundaryHour() int {
	return c.boundaryHour
}

// DayKey returns the game day for now.
func (c *Controller) DayKey(now time.Time) string {
	return ResolveDayKey(now, c.boundaryHour)
}

// Initialize returns persisted if it belongs to today's game day. Otherwise
// it deals a fresh board for today; dealt reports which happened.
func (c *Controller) Initialize(persisted *State, now time.Time) (state State, dealt bool, err error) {
	today := c.DayKey(now)
	if persisted != nil && persisted.DayKey == today {
		return *persisted, false, nil
	}
	cards, err := c.dealer.Deal(CardCount)
	if err != nil {
		return State{}, false, err
	}
	return State{DayKey: today, Cards: cards}, true, nil
}

// ValidIndex reports whether i addresses a card on the board.
func ValidIndex(i int) bool {
	return i >= 0 && i < CardCount
}

// Toggle flips the selection of the card at index. Callers must pass an
// index for which ValidIndex is true.
func Toggle(s State, index int) State {
	if index < 0 || index >= len(s.Cards) {
		panic(fmt.Sprintf("bingo: toggle index %d out of range [0,%d)", index, len(s.Cards)))
	}
	next := s.Clone()
	next.Cards[index].Selected = !next.Cards[index].Selected
	return next
}

// AfterChange re-evaluates the win state. notify is true only when the board
// has just become a bingo; leaving the won state re-arms it.
func AfterChange(s State) (next State, notify bool) {
	next = s.Clone()
	if !IsBingo(next.Cards) {
		next.WasBingo = false
		return next, false
	}
	if next.WasBingo {
		return next, false
	}
	next.WasBingo = true
	return next, true
}
