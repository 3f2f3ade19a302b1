package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceforge/priceforge/internal/store"
)

func seedActiveExperiment(t *testing.T, s *store.MemoryStore) *store.Experiment {
	t.Helper()
	now := time.Now()
	exp := &store.Experiment{
		ID:       "exp-pricing",
		TenantID: "acme",
		Name:     "checkout pricing",
		Status:   store.StatusActive,
		Variants: []store.Variant{
			{ID: "v-control", Name: "control", Price: 29.99, Weight: 50},
			{ID: "v-premium", Name: "premium", Price: 39.99, Weight: 50},
		},
		StartDate: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateExperiment(context.Background(), exp))
	return exp
}

func TestAssignVariant_Deterministic(t *testing.T) {
	ctx := context.Background()

	// Rebuild the store from scratch each round: assignment depends only
	// on the user and experiment identifiers, never on stored state.
	var first string
	for round := 0; round < 5; round++ {
		s := store.NewMemoryStore()
		seedActiveExperiment(t, s)
		e := New(s)

		v, err := e.AssignVariant(ctx, "exp-pricing", "user-42")
		require.NoError(t, err)
		require.NotNil(t, v)

		if round == 0 {
			first = v.ID
			continue
		}
		assert.Equal(t, first, v.ID, "round %d diverged", round)
	}
}

func TestAssignVariant_BothVariantsReceiveTraffic(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seedActiveExperiment(t, s)
	e := New(s)

	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		v, err := e.AssignVariant(ctx, "exp-pricing", fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		require.NotNil(t, v)
		seen[v.ID]++
	}

	assert.Greater(t, seen["v-control"], 0)
	assert.Greater(t, seen["v-premium"], 0)
}

func TestAssignVariant_InactiveOrMissing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	exp := seedActiveExperiment(t, s)
	e := New(s)

	v, err := e.AssignVariant(ctx, "no-such-experiment", "user-1")
	require.NoError(t, err)
	assert.Nil(t, v)

	exp.Status = store.StatusPaused
	require.NoError(t, s.UpdateExperiment(ctx, exp))

	v, err = e.AssignVariant(ctx, "exp-pricing", "user-1")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBucket_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		b := Bucket(fmt.Sprintf("user-%d", i), "exp-pricing")
		if b < 0 || b >= 100 {
			t.Fatalf("bucket %f out of [0,100)", b)
		}
	}
}

func TestBucket_DiffersAcrossExperiments(t *testing.T) {
	// The same user should not land in the same bucket everywhere.
	distinct := map[float64]bool{}
	for i := 0; i < 50; i++ {
		distinct[Bucket("user-42", fmt.Sprintf("exp-%d", i))] = true
	}
	assert.Greater(t, len(distinct), 1)
}

func TestPickVariant_CumulativeWalk(t *testing.T) {
	variants := []store.Variant{
		{ID: "a", Weight: 10},
		{ID: "b", Weight: 30},
		{ID: "c", Weight: 60},
	}

	cases := []struct {
		bucket float64
		want   string
	}{
		{0, "a"},
		{9.99, "a"},
		{10, "b"},
		{39.99, "b"},
		{40, "c"},
		{99.99, "c"},
	}
	for _, tc := range cases {
		if got := pickVariant(variants, tc.bucket); got.ID != tc.want {
			t.Errorf("pickVariant(%.2f) = %s, want %s", tc.bucket, got.ID, tc.want)
		}
	}
}

func TestPickVariant_FallsBackToFirst(t *testing.T) {
	// Rounding error can leave the cumulative total just under the
	// bucket; the walk must still return a variant.
	variants := []store.Variant{
		{ID: "a", Weight: 49.99},
		{ID: "b", Weight: 49.99},
	}
	got := pickVariant(variants, 99.99)
	assert.Equal(t, "a", got.ID)
}
