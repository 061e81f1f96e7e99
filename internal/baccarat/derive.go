package baccarat

import (
	"crypto/sha256"
	"encoding/binary"
)

// Keep stable: changing the domain changes every derived shoe.
const shoeDomain = "baccarat/v1/shoe"

// Derive combines the player's commitment with post-commit entropy and
// expands the result into a Fisher-Yates shuffle of the shoe. Identical inputs
// always produce an identical shoe.
func Derive(seedCommitment, revealEntropy [32]byte, decks int) (*Shoe, error) {
	if decks < MinDecks || decks > MaxDecks {
		return nil, ErrInvalidDeckCount
	}

	seed := ShoeSeed(seedCommitment, revealEntropy, decks)
	rng := newHashRNG(seed)

	cards := orderedShoe(decks)
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(uint64(i + 1))
		cards[i], cards[j] = cards[j], cards[i]
	}

	return &Shoe{cards: cards}, nil
}

// ShoeSeed is the mixing step of Derive, exposed for audit tooling.
func ShoeSeed(seedCommitment, revealEntropy [32]byte, decks int) [32]byte {
	var d [4]byte
	binary.LittleEndian.PutUint32(d[:], uint32(decks))
	return hashDomain(shoeDomain, seedCommitment[:], revealEntropy[:], d[:])
}

func hashDomain(domain string, parts ...[]byte) [32]byte {
	h := sha256.New()
	_, _ = h.Write([]byte(domain))

	// Length-prefix each part so concatenations cannot collide.
	var lenBuf [4]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(p)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// hashRNG is a deterministic byte stream of sha256(seed || counter).
type hashRNG struct {
	seed    [32]byte
	counter uint64
	buf     [32]byte
	bufPos  int
}

func newHashRNG(seed [32]byte) *hashRNG {
	return &hashRNG{seed: seed, bufPos: sha256.Size}
}

func (r *hashRNG) read(p []byte) {
	for len(p) > 0 {
		if r.bufPos >= len(r.buf) {
			r.refill()
		}
		n := copy(p, r.buf[r.bufPos:])
		r.bufPos += n
		p = p[n:]
	}
}

func (r *hashRNG) refill() {
	var in [32 + 8]byte
	copy(in[:32], r.seed[:])
	binary.LittleEndian.PutUint64(in[32:], r.counter)
	r.counter++
	r.buf = sha256.Sum256(in[:])
	r.bufPos = 0
}

func (r *hashRNG) uint64() uint64 {
	var b [8]byte
	r.read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Intn returns a uniform value in [0, n). Draws at or above the largest
// multiple of n are rejected so no residue is favoured.
func (r *hashRNG) Intn(n uint64) uint64 {
	if n <= 1 {
		return 0
	}
	limit := ^uint64(0) - (^uint64(0) % n)
	for {
		v := r.uint64()
		if v < limit {
			return v % n
		}
	}
}
