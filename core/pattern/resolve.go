package pattern

import (
	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/song"
)

// ResolveRepeats replaces every repeat shorthand (%) in a flat measure list
// with real content.
//
// A % filling an entire measure takes the whole previous resolved measure.
// A % inside a multi-position measure takes the immediately preceding
// resolved position of the same measure; when it is the measure's first
// position, it falls back to the whole previous measure's content. The
// within-measure rule always wins when a preceding position exists.
//
// Fails with RepeatWithNoPrior when a % appears before any measure has
// been resolved. The input is not mutated.
func ResolveRepeats(measures []song.Measure) ([]song.Measure, error) {
	out := make([]song.Measure, 0, len(measures))
	var prev *song.Measure // most recently resolved non-empty measure

	for _, m := range measures {
		var resolved song.Measure
		if m.IsWholeRepeat() {
			if prev == nil {
				return nil, errors.NewCompileAt(errors.CodeRepeatWithNoPrior, -1, m.String(),
					"repeat symbol with no prior measure to repeat")
			}
			resolved = prev.Clone()
		} else {
			resolved.Positions = make([]song.ChordPosition, 0, m.Len())
			for _, pos := range m.Positions {
				if pos.Kind != song.PositionRepeat {
					resolved.Positions = append(resolved.Positions, clonePosition(pos))
					continue
				}
				if n := len(resolved.Positions); n > 0 {
					resolved.Positions = append(resolved.Positions, clonePosition(resolved.Positions[n-1]))
					continue
				}
				if prev == nil {
					return nil, errors.NewCompileAt(errors.CodeRepeatWithNoPrior, -1, m.String(),
						"repeat symbol with no prior measure to repeat")
				}
				resolved.Positions = append(resolved.Positions, prev.Clone().Positions...)
			}
		}

		out = append(out, resolved)
		if resolved.Len() > 0 {
			c := resolved.Clone()
			prev = &c
		}
	}
	return out, nil
}

func clonePosition(p song.ChordPosition) song.ChordPosition {
	if p.Chord != nil {
		chord := *p.Chord
		p.Chord = &chord
	}
	return p
}
