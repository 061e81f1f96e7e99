// Package baccarat implements the game-resolution engine: shoe derivation,
// dealing under the fixed third-card rules, and bet settlement.
package baccarat

import (
	"fmt"
	"strings"
)

// Suit is irrelevant to scoring but kept so a dealt card can be displayed.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Rank runs from Ace (1) to King (13).
type Rank int

const (
	Ace   Rank = 1
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if r >= 2 && r <= 10 {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// Card is a single playing card.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// NewCard creates a card from a rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Value returns the baccarat point value: tens and faces count zero.
func (c Card) Value() int {
	if c.Rank >= Ten {
		return 0
	}
	return int(c.Rank)
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Hand is the ordered set of cards dealt to one side, two or three long.
type Hand []Card

// Total is the sum of card values mod 10.
func (h Hand) Total() int {
	total := 0
	for _, c := range h {
		total += c.Value()
	}
	return total % 10
}

// IsNatural reports an initial two-card total of 8 or 9.
func (h Hand) IsNatural() bool {
	return len(h) == 2 && h.Total() >= 8
}

// Ranks returns the ranks in deal order, the form events carry.
func (h Hand) Ranks() []int {
	ranks := make([]int, len(h))
	for i, c := range h {
		ranks[i] = int(c.Rank)
	}
	return ranks
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
