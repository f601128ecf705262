package engine

import (
	"hash/fnv"
	"math/rand"
)

// MaxBonus is the largest additional-pattern bonus a BonusSource may award.
const MaxBonus = 2

// BonusSource awards the small "additional pattern" bonus to users that
// already scored. Implementations must be deterministic for a given input so
// analyses stay reproducible.
type BonusSource interface {
	Bonus(username string) int
}

// NoBonus disables the bonus. It is the engine default.
type NoBonus struct{}

func (NoBonus) Bonus(string) int { return 0 }

// SeededBonus draws a bonus in [0, MaxBonus] from an RNG seeded with the
// run seed and the username, so the draw does not depend on scoring order.
type SeededBonus struct {
	seed int64
}

func NewSeededBonus(seed int64) *SeededBonus {
	return &SeededBonus{seed: seed}
}

func (s *SeededBonus) Bonus(username string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(username))
	rng := rand.New(rand.NewSource(int64(h.Sum64()) ^ s.seed))
	return rng.Intn(MaxBonus + 1)
}
