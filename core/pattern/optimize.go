package pattern

import "github.com/chordcue/chordcue/core/song"

// Optimize compresses a measure list into a (multiplier, reduced) pair for
// compact display. While the list is longer than one measure and of even
// length, it is split into halves; deeply equal halves collapse to the
// first half with the multiplier doubled. An irreducible list is returned
// unchanged with multiplier 1.
func Optimize(measures []song.Measure) (int, []song.Measure) {
	multiplier := 1
	working := measures
	for len(working) > 1 && len(working)%2 == 0 {
		half := len(working) / 2
		if !measuresEqual(working[:half], working[half:]) {
			break
		}
		working = working[:half]
		multiplier *= 2
	}
	return multiplier, working
}

func measuresEqual(a, b []song.Measure) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
