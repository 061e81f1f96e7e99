package services

import (
	"context"
	"crypto/rand"
	"fmt"
)

// EntropySource supplies reveal entropy. It is sampled only after the
// player's commitment is durable, so its value is unknowable at commit time.
type EntropySource interface {
	Sample(ctx context.Context) ([32]byte, error)
}

type CryptoEntropy struct{}

func (CryptoEntropy) Sample(ctx context.Context) ([32]byte, error) {
	var out [32]byte
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if _, err := rand.Read(out[:]); err != nil {
		return out, fmt.Errorf("failed to read entropy: %w", err)
	}
	return out, nil
}

// EntropyFunc adapts a function to EntropySource.
type EntropyFunc func(ctx context.Context) ([32]byte, error)

func (f EntropyFunc) Sample(ctx context.Context) ([32]byte, error) {
	return f(ctx)
}
