package baccarat

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// BetType is the side a player backs. Winner uses the same enumeration.
type BetType int

const (
	BetPlayer BetType = iota
	BetBanker
	BetTie
)

type Winner = BetType

const (
	WinnerPlayer = BetPlayer
	WinnerBanker = BetBanker
	WinnerTie    = BetTie
)

// ParseBetType validates a wire bet code.
func ParseBetType(code int) (BetType, error) {
	b := BetType(code)
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBetType, code)
	}
	return b, nil
}

func (b BetType) Valid() bool {
	return b >= BetPlayer && b <= BetTie
}

func (b BetType) String() string {
	switch b {
	case BetPlayer:
		return "player"
	case BetBanker:
		return "banker"
	case BetTie:
		return "tie"
	default:
		return "unknown"
	}
}

func (b BetType) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBetType, int(b))
	}
	return json.Marshal(b.String())
}

// UnmarshalText accepts the names player, banker and tie.
func (b *BetType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "player":
		*b = BetPlayer
	case "banker":
		*b = BetBanker
	case "tie":
		*b = BetTie
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBetType, string(text))
	}
	return nil
}

// UnmarshalJSON accepts either a name or a numeric code.
func (b *BetType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return b.UnmarshalText([]byte(name))
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBetType, string(data))
	}
	parsed, err := ParseBetType(code)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// DetermineWinner compares the two totals.
func DetermineWinner(playerTotal, bankerTotal int) Winner {
	switch {
	case playerTotal > bankerTotal:
		return WinnerPlayer
	case bankerTotal > playerTotal:
		return WinnerBanker
	default:
		return WinnerTie
	}
}

// TiePolicy decides what happens to Player and Banker bets when the coup ties.
type TiePolicy string

const (
	TiePush    TiePolicy = "push"
	TieForfeit TiePolicy = "forfeit"
)

func ParseTiePolicy(s string) (TiePolicy, error) {
	switch TiePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case TiePush:
		return TiePush, nil
	case TieForfeit:
		return TieForfeit, nil
	default:
		return "", fmt.Errorf("unknown tie policy %q", s)
	}
}

// Ratio is a payout multiplier expressed as Num/Den, applied with floor division.
type Ratio struct {
	Num uint64 `json:"num"`
	Den uint64 `json:"den"`
}

// PayoutTable is the total returned (stake included) for a winning bet.
type PayoutTable struct {
	Player    Ratio     `json:"player"`
	Banker    Ratio     `json:"banker"`
	Tie       Ratio     `json:"tie"`
	TiePolicy TiePolicy `json:"tie_policy"`
}

// DefaultPayoutTable pays Player 1:1, Banker 1:1 less 5% commission, Tie 8:1,
// and pushes Player/Banker bets on a tie.
func DefaultPayoutTable() PayoutTable {
	return PayoutTable{
		Player:    Ratio{Num: 2, Den: 1},
		Banker:    Ratio{Num: 195, Den: 100},
		Tie:       Ratio{Num: 9, Den: 1},
		TiePolicy: TiePush,
	}
}

func (t PayoutTable) ratio(b BetType) Ratio {
	switch b {
	case BetPlayer:
		return t.Player
	case BetBanker:
		return t.Banker
	default:
		return t.Tie
	}
}

// Outcome is the settlement of one bet against a dealt round.
type Outcome struct {
	Winner Winner       `json:"winner"`
	Payout sdkmath.Uint `json:"payout"`
	Push   bool         `json:"push"`
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// MaxAmount is the largest representable ledger amount, 2^256-1.
func MaxAmount() sdkmath.Uint {
	return sdkmath.NewUintFromBigInt(new(big.Int).Set(maxUint256))
}

// Resolve settles a bet. Arithmetic is integer-only; the Banker commission is
// rounded down to the smallest ledger unit.
func Resolve(round Round, bet BetType, stake sdkmath.Uint, table PayoutTable) (Outcome, error) {
	if !bet.Valid() {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidBetType, int(bet))
	}
	if stake.IsNil() || stake.IsZero() {
		return Outcome{}, ErrZeroStake
	}

	winner := DetermineWinner(round.PlayerTotal, round.BankerTotal)
	out := Outcome{Winner: winner, Payout: sdkmath.ZeroUint()}

	switch {
	case bet == winner:
		payout, err := applyRatio(stake, table.ratio(bet))
		if err != nil {
			return Outcome{}, err
		}
		out.Payout = payout
	case winner == WinnerTie && table.TiePolicy == TiePush:
		out.Payout = stake
		out.Push = true
	}

	return out, nil
}

func applyRatio(stake sdkmath.Uint, r Ratio) (sdkmath.Uint, error) {
	if r.Den == 0 {
		return sdkmath.Uint{}, fmt.Errorf("payout ratio %d/0", r.Num)
	}
	v := new(big.Int).Mul(stake.BigInt(), new(big.Int).SetUint64(r.Num))
	v.Quo(v, new(big.Int).SetUint64(r.Den))
	if v.Cmp(maxUint256) > 0 {
		return sdkmath.Uint{}, ErrPayoutOverflow
	}
	return sdkmath.NewUintFromBigInt(v), nil
}

// Play runs derivation, dealing and settlement for one committed bet.
func Play(seedCommitment, revealEntropy [32]byte, decks int, bet BetType, stake sdkmath.Uint, table PayoutTable) (Round, Outcome, error) {
	shoe, err := Derive(seedCommitment, revealEntropy, decks)
	if err != nil {
		return Round{}, Outcome{}, err
	}
	round, err := Deal(shoe)
	if err != nil {
		return Round{}, Outcome{}, err
	}
	outcome, err := Resolve(round, bet, stake, table)
	if err != nil {
		return Round{}, Outcome{}, err
	}
	return round, outcome, nil
}
