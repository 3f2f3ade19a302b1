package engine

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/priceforge/priceforge/internal/store"
)

// AssignVariant deterministically routes a user to a variant of an active
// experiment. The same (userID, experimentID) pair always lands on the
// same variant for the lifetime of the variant list: the bucket is a pure
// function of the two ids, with no randomness and no stored assignment.
//
// Returns nil (and no error) when the experiment is missing or not active.
func (e *Engine) AssignVariant(ctx context.Context, experimentID, userID string) (*store.Variant, error) {
	exp, err := e.store.GetExperiment(ctx, experimentID, "")
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if exp.Status != store.StatusActive || len(exp.Variants) == 0 {
		return nil, nil
	}

	v := pickVariant(exp.Variants, Bucket(userID, experimentID))
	return &v, nil
}

// Bucket hashes "{userID}:{experimentID}" with 32-bit FNV-1a and reduces
// it to an integer in [0,100).
func Bucket(userID, experimentID string) float64 {
	h := fnv.New32a()
	h.Write([]byte(userID + ":" + experimentID))
	return float64(h.Sum32() % 100)
}

// pickVariant walks the variants in declaration order accumulating weight;
// the first variant whose cumulative weight exceeds the bucket wins. If
// rounding leaves the weights summing slightly under 100 and no variant
// claims the bucket, the first variant is the fallback.
func pickVariant(variants []store.Variant, bucket float64) store.Variant {
	cumulative := 0.0
	for _, v := range variants {
		cumulative += v.Weight
		if bucket < cumulative {
			return v
		}
	}
	return variants[0]
}
