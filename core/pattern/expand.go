package pattern

import "github.com/chordcue/chordcue/core/song"

// Expand flattens a compiled pattern into its literal measure sequence.
// Loops expand to repeat-count copies of their recursively expanded
// interior; line breaks are dropped. Every returned measure is an
// independent clone, so later pipeline stages may rewrite them freely.
func Expand(p *song.CompiledPattern) []song.Measure {
	if p.IsEmpty() {
		return nil
	}
	return expandElements(p.Elements)
}

func expandElements(elements []song.PatternElement) []song.Measure {
	var out []song.Measure
	i := 0
	for i < len(elements) {
		switch elements[i].Kind {
		case song.ElementMeasure:
			out = append(out, elements[i].Measure.Clone())
			i++
		case song.ElementLoopStart:
			end := matchingLoopEnd(elements, i)
			if end < 0 {
				i++
				continue
			}
			inner := expandElements(elements[i+1 : end])
			for r := 0; r < elements[end].Repeat; r++ {
				for _, m := range inner {
					out = append(out, m.Clone())
				}
			}
			i = end + 1
		default:
			// Line breaks exist only for source readability.
			i++
		}
	}
	return out
}
