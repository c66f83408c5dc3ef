// Package rotation picks the household member responsible for one period of a
// chore. Selection is a pure function of its inputs so regenerating a period
// always yields the same assignee.
package rotation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/dukerupert/chorewheel/internal/model"
)

var (
	ErrEmptyPool      = errors.New("assignee pool is empty")
	ErrUnknownPattern = errors.New("unknown rotation pattern")
)

// Select returns the member to assign for the period starting at periodStart.
//
// pool holds member ids in rotation order (ascending sort order). recent holds
// the assignees of prior instances, newest first; it is a bounded window, not
// the full history.
func Select(pattern model.RotationPattern, pool, recent []int64, periodStart time.Time) (int64, error) {
	if len(pool) == 0 {
		return 0, ErrEmptyPool
	}
	if len(pool) == 1 {
		return pool[0], nil
	}

	switch pattern {
	case model.RotationRoundRobin:
		return roundRobin(pool, recent), nil
	case model.RotationRandom:
		return seeded(pool, periodStart), nil
	case model.RotationWeighted:
		return leastAssigned(pool, recent), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPattern, pattern)
}

func roundRobin(pool, recent []int64) int64 {
	if len(recent) == 0 {
		return pool[0]
	}
	i := slices.Index(pool, recent[0])
	if i < 0 {
		// Last assignee left the pool.
		return pool[0]
	}
	return pool[(i+1)%len(pool)]
}

// seeded shuffles a copy of the pool with a PRNG keyed on the period's
// calendar date and returns the first member.
func seeded(pool []int64, periodStart time.Time) int64 {
	seed := Seed(periodStart)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	shuffled := slices.Clone(pool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[0]
}

// Seed hashes the YYYY-MM-DD form of day.
func Seed(day time.Time) uint64 {
	return xxh3.HashString(day.Format(time.DateOnly))
}

// leastAssigned picks the member with the fewest assignments in the window.
// Ties go to the member whose last assignment is oldest (absent from the
// window counts as oldest), then to the lowest sort order.
func leastAssigned(pool, recent []int64) int64 {
	counts := make(map[int64]int, len(pool))
	lastSeen := make(map[int64]int, len(pool))
	for i, id := range recent {
		counts[id]++
		if _, ok := lastSeen[id]; !ok {
			lastSeen[id] = i
		}
	}
	age := func(id int64) int {
		if i, ok := lastSeen[id]; ok {
			return i
		}
		return len(recent)
	}

	best := pool[0]
	for _, id := range pool[1:] {
		switch {
		case counts[id] < counts[best]:
			best = id
		case counts[id] == counts[best] && age(id) > age(best):
			best = id
		}
	}
	return best
}
