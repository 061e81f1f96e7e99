package baccarat

const (
	CardsPerDeck = 52
	MinDecks     = 1
	MaxDecks     = 8
)

// Shoe is an ordered sequence of cards and the position of the next undealt card.
type Shoe struct {
	cards []Card
	next  int
}

// NewShoe wraps an explicit card order. The slice is copied.
func NewShoe(cards []Card) *Shoe {
	return &Shoe{cards: append([]Card(nil), cards...)}
}

// orderedShoe builds decks in canonical order: per deck, suits then ranks.
func orderedShoe(decks int) []Card {
	cards := make([]Card, 0, decks*CardsPerDeck)
	for d := 0; d < decks; d++ {
		for suit := Spades; suit <= Clubs; suit++ {
			for rank := Ace; rank <= King; rank++ {
				cards = append(cards, NewCard(rank, suit))
			}
		}
	}
	return cards
}

// Draw consumes the next undealt card.
func (s *Shoe) Draw() (Card, error) {
	if s.next >= len(s.cards) {
		return Card{}, ErrShoeExhausted
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}

// Position returns the index of the next undealt card.
func (s *Shoe) Position() int {
	return s.next
}

// Len returns the total shoe size.
func (s *Shoe) Len() int {
	return len(s.cards)
}

// Cards returns a copy of the full shoe order, dealt cards included.
func (s *Shoe) Cards() []Card {
	return append([]Card(nil), s.cards...)
}
