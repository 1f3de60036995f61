package shortcode

import (
	"context"
	"log"
	"math"
)

// Oracle answers whether a code is already in permanent use, backed by the
// persistent link store's uniqueness index.
type Oracle interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// Allocator is the slow-path fallback when the pool is empty: generate a
// candidate, ask the oracle, repeat within a bounded budget.
type Allocator struct {
	gen        *Generator
	maxRetries int
}

func NewAllocator(gen *Generator, maxRetries int) *Allocator {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Allocator{gen: gen, maxRetries: maxRetries}
}

// AllocateUnique returns a code the oracle has not seen. The retry budget
// counts oracle calls: a candidate that fails its own validity check is a
// wasted generation and retries without consuming an oracle call. Oracle
// errors count as "not confirmed" and the loop continues; they are never
// fatal on their own.
func (a *Allocator) AllocateUnique(ctx context.Context, oracle Oracle) (string, error) {
	genFailures := 0

	for attempts := 0; attempts < a.maxRetries; {
		code, err := a.gen.Generate()
		if err != nil {
			// Generation-level failure means misconfiguration; give up
			// once it proves persistent rather than spinning.
			genFailures++
			if genFailures >= a.maxRetries {
				return "", err
			}
			continue
		}

		attempts++
		exists, err := oracle.Exists(ctx, code)
		if err != nil {
			log.Printf("shortcode: uniqueness check failed for %q, retrying: %v", code, err)
			continue
		}
		if !exists {
			return code, nil
		}
	}

	return "", &RetriesExhaustedError{Attempts: a.maxRetries}
}

// EstimateCollisionProbability approximates the chance that at least one
// collision exists among k random codes drawn from a space of
// alphabetSize^codeLength, using the birthday bound
// p = 1 - e^(-k(k-1) / 2N). The result is clamped to [0, 1]; once k
// reaches the size of the code space the answer is exactly 1.
func (a *Allocator) EstimateCollisionProbability(existingCount int64) float64 {
	if existingCount <= 0 {
		return 0
	}

	k := float64(existingCount)
	n := math.Pow(float64(a.gen.AlphabetSize()), float64(a.gen.CodeLength()))
	if k >= n {
		return 1
	}

	exponent := -k * (k - 1) / (2 * n)
	p := 1 - math.Exp(exponent)
	if math.IsNaN(p) || p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
