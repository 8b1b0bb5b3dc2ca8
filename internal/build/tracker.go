package build

import "time"

// tracker is the timer-free core of a build: linear progress over a fixed
// number of ticks with an early exit once the record is found past floor.
type tracker struct {
	steps int
	step  int
	floor float64
}

func newTracker(total, tick time.Duration, floor float64) tracker {
	steps := 1
	if tick > 0 && total > tick {
		steps = int(total / tick)
	}
	return tracker{steps: steps, floor: floor}
}

func (t *tracker) progress() float64 {
	if t.step >= t.steps {
		return 1
	}
	return float64(t.step) / float64(t.steps)
}

// tick advances one step and evaluates completion.
func (t *tracker) tick(found bool) (complete, early bool) {
	if t.step < t.steps {
		t.step++
	}
	return t.check(found)
}

// check evaluates completion without advancing. Early completion jumps
// progress to 1.
func (t *tracker) check(found bool) (complete, early bool) {
	if t.progress() >= 1 {
		return true, false
	}
	if found && t.progress() > t.floor {
		t.step = t.steps
		return true, true
	}
	return false, false
}
