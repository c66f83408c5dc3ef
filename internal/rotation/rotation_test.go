package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorewheel/internal/model"
)

const (
	alice int64 = 11
	bob   int64 = 22
	carol int64 = 33
	dave  int64 = 44
)

var (
	monday = time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	abc    = []int64{alice, bob, carol}
)

var allPatterns = []model.RotationPattern{
	model.RotationRoundRobin,
	model.RotationRandom,
	model.RotationWeighted,
}

func TestSelect_EmptyPool(t *testing.T) {
	for _, p := range allPatterns {
		_, err := Select(p, nil, []int64{alice}, monday)
		require.ErrorIs(t, err, ErrEmptyPool, "pattern %s", p)
	}
}

func TestSelect_SingleMember(t *testing.T) {
	for _, p := range allPatterns {
		got, err := Select(p, []int64{dave}, []int64{alice, bob}, monday)
		require.NoError(t, err)
		assert.Equal(t, dave, got, "pattern %s", p)
	}
}

func TestSelect_UnknownPattern(t *testing.T) {
	_, err := Select(model.RotationPattern("lottery"), abc, nil, monday)
	require.ErrorIs(t, err, ErrUnknownPattern)
}

func TestRoundRobin(t *testing.T) {
	tests := []struct {
		name   string
		recent []int64
		want   int64
	}{
		{"no history starts at first member", nil, alice},
		{"advances after most recent", []int64{bob, alice}, carol},
		{"wraps to first", []int64{carol, bob}, alice},
		{"removed member restarts at first", []int64{dave, carol}, alice},
		{"only newest entry matters", []int64{alice, carol, carol}, bob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(model.RotationRoundRobin, abc, tt.recent, monday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundRobin_CyclesThroughPool(t *testing.T) {
	pool := []int64{alice, bob, carol, dave}
	var history []int64
	seen := make(map[int64]int)

	for i := 0; i < len(pool); i++ {
		got, err := Select(model.RotationRoundRobin, pool, history, monday.AddDate(0, 0, 7*i))
		require.NoError(t, err)
		seen[got]++
		history = append([]int64{got}, history...)
	}

	for _, id := range pool {
		assert.Equal(t, 1, seen[id], "member %d", id)
	}
}

func TestRandom_DeterministicPerPeriod(t *testing.T) {
	for i := 0; i < 50; i++ {
		start := monday.AddDate(0, 0, i)
		first, err := Select(model.RotationRandom, abc, nil, start)
		require.NoError(t, err)

		// History is irrelevant for the seeded choice.
		again, err := Select(model.RotationRandom, abc, []int64{first, first}, start)
		require.NoError(t, err)
		assert.Equal(t, first, again, "period %s", start.Format(time.DateOnly))
		assert.Contains(t, abc, first)
	}
}

func TestRandom_VariesAcrossPeriods(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 60; i++ {
		got, err := Select(model.RotationRandom, abc, nil, monday.AddDate(0, 0, i))
		require.NoError(t, err)
		seen[got] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSeed_StableForCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	assert.Equal(t, Seed(monday), Seed(time.Date(2026, 2, 2, 0, 0, 0, 0, loc)))
	assert.NotEqual(t, Seed(monday), Seed(monday.AddDate(0, 0, 1)))
}

func TestWeighted(t *testing.T) {
	tests := []struct {
		name   string
		recent []int64
		want   int64
	}{
		{"no history picks lowest sort order", nil, alice},
		{"fewest assignments wins", []int64{alice, bob, alice, carol, bob}, carol},
		{"unassigned member wins", []int64{alice, bob, alice, bob}, carol},
		{"tie between absent members goes to lowest sort order", []int64{carol}, alice},
		{"tie goes to member assigned longest ago", []int64{bob, carol, alice}, alice},
		{"removed members are ignored", []int64{dave, dave, alice, bob}, carol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(model.RotationWeighted, abc, tt.recent, monday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeighted_Convergence(t *testing.T) {
	const window = 10

	for size := 2; size <= 8; size++ {
		pool := make([]int64, size)
		for i := range pool {
			pool[i] = int64(100 + i)
		}

		var history []int64
		totals := make(map[int64]int)
		for n := 0; n < 400; n++ {
			recent := history[:min(window, len(history))]
			got, err := Select(model.RotationWeighted, pool, recent, monday.AddDate(0, 0, n))
			require.NoError(t, err)

			history = append([]int64{got}, history...)
			totals[got]++

			if n < size {
				continue
			}
			lo, hi := totals[pool[0]], totals[pool[0]]
			for _, id := range pool {
				lo = min(lo, totals[id])
				hi = max(hi, totals[id])
			}
			require.LessOrEqual(t, hi-lo, 1, "pool size %d after %d periods", size, n+1)
		}
	}
}
