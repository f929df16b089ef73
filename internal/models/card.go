package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Suit is one of the four French suits.
type Suit uint8

const (
	Spade Suit = iota
	Club
	Heart
	Diamond
)

var suitNames = [...]string{"Spade", "Club", "Heart", "Diamond"}
var suitCodes = "SCHD"

func (s Suit) String() string {
	if int(s) >= len(suitNames) {
		return fmt.Sprintf("Suit(%d)", uint8(s))
	}
	return suitNames[s]
}

// Code returns the single letter used in card codes ("S", "C", "H", "D").
func (s Suit) Code() string {
	if int(s) >= len(suitCodes) {
		return "?"
	}
	return suitCodes[s : s+1]
}

// IsRed reports whether the suit is a red suit.
func (s Suit) IsRed() bool {
	return s == Heart || s == Diamond
}

// Rank is the card type, ordered Ace through King.
type Rank uint8

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = [...]string{
	"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
	"Eight", "Nine", "Ten", "Jack", "Queen", "King",
}
var rankCodes = "A23456789TJQK"

func (r Rank) String() string {
	if int(r) >= len(rankNames) {
		return fmt.Sprintf("Rank(%d)", uint8(r))
	}
	return rankNames[r]
}

// Code returns the single character used in card codes ("A", "2".."9", "T", "J", "Q", "K").
func (r Rank) Code() string {
	if int(r) >= len(rankCodes) {
		return "?"
	}
	return rankCodes[r : r+1]
}

// Point is a position in render space. The core only stores it.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Card is a single playing card. FaceUp, Position, Order and Alpha are observable so
// renderers can react to changes without polling.
type Card struct {
	ID   uuid.UUID
	Suit Suit
	Rank Rank

	FaceUp   *Property[bool]
	Position *Property[Point]
	Order    *Property[int]
	Alpha    *Property[float64]

	// Drag state is transient and owned by the input layer.
	DragOrigin     Point
	DragOffset     Point
	OrderToRestore int
	IsDragged      bool

	// pile does not own the card; the pile's card list is authoritative.
	pile *Pile
}

// NewCard creates a face-down card outside of any pile.
func NewCard(suit Suit, rank Rank) *Card {
	id, _ := uuid.NewRandom()
	return &Card{
		ID:       id,
		Suit:     suit,
		Rank:     rank,
		FaceUp:   NewProperty(false),
		Position: NewProperty(Point{}),
		Order:    NewProperty(0),
		Alpha:    NewProperty(1.0),
	}
}

// NewDeck returns the 52 cards of one game session in suit then rank order.
func NewDeck() []*Card {
	deck := make([]*Card, 0, 52)
	for s := Spade; s <= Diamond; s++ {
		for r := Ace; r <= King; r++ {
			deck = append(deck, NewCard(s, r))
		}
	}
	return deck
}

// ParseCode parses a two character card code such as "AS", "TD" or "KH".
func ParseCode(code string) (Suit, Rank, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return 0, 0, fmt.Errorf("invalid card code %q", code)
	}
	r := strings.IndexByte(rankCodes, code[0])
	s := strings.IndexByte(suitCodes, code[1])
	if r < 0 || s < 0 {
		return 0, 0, fmt.Errorf("invalid card code %q", code)
	}
	return Suit(s), Rank(r), nil
}

// Code returns the card's two character code, rank first.
func (c *Card) Code() string {
	return c.Rank.Code() + c.Suit.Code()
}

// Pile returns the pile currently holding the card, or nil.
func (c *Card) Pile() *Pile {
	return c.pile
}

func (c *Card) IsInPile() bool {
	return c.pile != nil
}

func (c *Card) IsOnTop() bool {
	return c.pile != nil && c.pile.TopCard() == c
}

func (c *Card) IsOnBottom() bool {
	return c.pile != nil && c.pile.BottomCard() == c
}

func (c *Card) IsFaceUp() bool {
	return c.FaceUp.Value()
}

// IsMoveable reports whether the card may be picked up: it must be face up, and on a
// waste pile only the top card qualifies.
func (c *Card) IsMoveable() bool {
	if !c.IsInPile() || !c.IsFaceUp() {
		return false
	}
	return !c.pile.IsWaste() || c.IsOnTop()
}

// IsDrawable reports whether the card is the face-down top card of the stock.
func (c *Card) IsDrawable() bool {
	return c.IsInPile() && c.pile.IsStock() && c.IsOnTop() && !c.IsFaceUp()
}

// Value is the card's point value: face cards 10, Ace 11, others their pip count.
func (c *Card) Value() int {
	switch c.Rank {
	case Jack, Queen, King:
		return 10
	case Ace:
		return 11
	}
	return int(c.Rank) + 1
}

// Flip toggles the face orientation.
func (c *Card) Flip() {
	c.FaceUp.Set(!c.FaceUp.Value())
}

// Reset prepares the card for a new deal. It does not touch the pile's card list; callers
// reset piles separately.
func (c *Card) Reset(position Point) {
	c.pile = nil
	c.FaceUp.Set(false)
	c.Position.Set(position)
	c.Order.Set(0)
	c.Alpha.Set(1)
	c.DragOrigin = Point{}
	c.DragOffset = Point{}
	c.OrderToRestore = 0
	c.IsDragged = false
}

func (c *Card) String() string {
	return fmt.Sprintf("%s %s", c.Suit, c.Rank)
}
