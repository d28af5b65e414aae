package scheduler

import (
	"math/rand"
	"time"
)

// NextBackoff computes the delay before a source is retried after its n-th
// consecutive failure: min(max, base*2^(n-1)) plus jitter bounded by
// base/4, with the total clamped to max. Pure in (failures, base, max) and
// the rng state, so it tests without real time.
func NextBackoff(failures int, base, max time.Duration, rng *rand.Rand) time.Duration {
	if failures < 1 {
		failures = 1
	}
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}

	delay := base
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}

	if rng != nil {
		delay += time.Duration(rng.Int63n(int64(base)/4 + 1))
	}
	if delay > max {
		delay = max
	}
	return delay
}
