package pattern

import "github.com/chordcue/chordcue/core/song"

// Stack applies a section's structural modifiers to its expanded flat
// measure list. The order is fixed: repeat, cut from the front, cut from
// the back, prepend the before pattern, append the after pattern.
// Reordering these steps changes results.
//
// Cuts count whole display slots: a cut with a partial-beat remainder still
// consumes one full measure slot. Cuts larger than the list empty it.
func Stack(measures []song.Measure, mods song.SectionModifiers) []song.Measure {
	repeat := mods.EffectiveRepeat()
	out := make([]song.Measure, 0, len(measures)*repeat)
	for r := 0; r < repeat; r++ {
		for _, m := range measures {
			out = append(out, m.Clone())
		}
	}

	if n := mods.CutStart.DisplayMeasures(); n > 0 {
		if n >= len(out) {
			out = out[:0]
		} else {
			out = out[n:]
		}
	}
	if n := mods.CutEnd.DisplayMeasures(); n > 0 {
		if n >= len(out) {
			out = out[:0]
		} else {
			out = out[:len(out)-n]
		}
	}

	if !mods.Before.IsEmpty() {
		out = append(Expand(mods.Before), out...)
	}
	if !mods.After.IsEmpty() {
		out = append(out, Expand(mods.After)...)
	}
	return out
}
