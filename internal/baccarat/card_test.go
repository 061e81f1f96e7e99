package baccarat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardValue(t *testing.T) {
	tests := []struct {
		rank     Rank
		expected int
	}{
		{Ace, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5},
		{6, 6}, {7, 7}, {8, 8}, {9, 9},
		{Ten, 0}, {Jack, 0}, {Queen, 0}, {King, 0},
	}

	for _, tt := range tests {
		for suit := Spades; suit <= Clubs; suit++ {
			assert.Equal(t, tt.expected, NewCard(tt.rank, suit).Value(), "rank %s suit %s", tt.rank, suit)
		}
	}
}

func TestHandTotal(t *testing.T) {
	tests := []struct {
		name    string
		hand    Hand
		total   int
		natural bool
	}{
		{"king seven", Hand{{Rank: King}, {Rank: 7}}, 7, false},
		{"nine five wraps", Hand{{Rank: 9}, {Rank: 5}}, 4, false},
		{"natural nine", Hand{{Rank: 4}, {Rank: 5}}, 9, true},
		{"natural eight from faces", Hand{{Rank: Queen}, {Rank: 8}}, 8, true},
		{"baccarat", Hand{{Rank: Ten}, {Rank: Jack}}, 0, false},
		{"three cards are never natural", Hand{{Rank: 2}, {Rank: 3}, {Rank: 3}}, 8, false},
		{"three cards wrap", Hand{{Rank: 9}, {Rank: 9}, {Rank: 9}}, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.total, tt.hand.Total())
			assert.Equal(t, tt.natural, tt.hand.IsNatural())
		})
	}
}

func TestHandTotalRange(t *testing.T) {
	for a := Ace; a <= King; a++ {
		for b := Ace; b <= King; b++ {
			for c := Ace; c <= King; c++ {
				total := Hand{{Rank: a}, {Rank: b}, {Rank: c}}.Total()
				assert.GreaterOrEqual(t, total, 0)
				assert.LessOrEqual(t, total, 9)
			}
		}
	}
}

func TestHandRanksAndString(t *testing.T) {
	h := Hand{{Rank: Ace, Suit: Hearts}, {Rank: King, Suit: Spades}, {Rank: 7, Suit: Clubs}}
	assert.Equal(t, []int{1, 13, 7}, h.Ranks())
	assert.Equal(t, "A♥ K♠ 7♣", h.String())
}
