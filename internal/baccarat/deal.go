package baccarat

// Round is the result of dealing one coup from a shoe.
type Round struct {
	Player      Hand `json:"player_hand"`
	Banker      Hand `json:"banker_hand"`
	PlayerTotal int  `json:"player_total"`
	BankerTotal int  `json:"banker_total"`
	Natural     bool `json:"natural"`
	CardsUsed   int  `json:"cards_used"`
}

// PlayerDraws reports whether Player takes a third card on a non-natural total.
func PlayerDraws(playerTotal int) bool {
	return playerTotal <= 5
}

// BankerDraws applies the banker third-card table. playerThird is nil when
// Player stood.
func BankerDraws(bankerTotal int, playerThird *Card) bool {
	if playerThird == nil {
		return bankerTotal <= 5
	}

	v := playerThird.Value()
	switch bankerTotal {
	case 0, 1, 2:
		return true
	case 3:
		return v != 8
	case 4:
		return v >= 2 && v <= 7
	case 5:
		return v >= 4 && v <= 7
	case 6:
		return v == 6 || v == 7
	default:
		return false
	}
}

// Deal plays one coup from the shoe's current position. Cards are consumed
// strictly in order; on ErrShoeExhausted the shoe keeps whatever was drawn.
func Deal(shoe *Shoe) (Round, error) {
	start := shoe.Position()
	player := make(Hand, 0, 3)
	banker := make(Hand, 0, 3)

	for i := 0; i < 2; i++ {
		c, err := shoe.Draw()
		if err != nil {
			return Round{}, err
		}
		player = append(player, c)

		c, err = shoe.Draw()
		if err != nil {
			return Round{}, err
		}
		banker = append(banker, c)
	}

	round := Round{Natural: player.IsNatural() || banker.IsNatural()}

	if !round.Natural {
		var playerThird *Card
		if PlayerDraws(player.Total()) {
			c, err := shoe.Draw()
			if err != nil {
				return Round{}, err
			}
			player = append(player, c)
			playerThird = &c
		}

		if BankerDraws(banker.Total(), playerThird) {
			c, err := shoe.Draw()
			if err != nil {
				return Round{}, err
			}
			banker = append(banker, c)
		}
	}

	round.Player = player
	round.Banker = banker
	round.PlayerTotal = player.Total()
	round.BankerTotal = banker.Total()
	round.CardsUsed = shoe.Position() - start
	return round, nil
}
