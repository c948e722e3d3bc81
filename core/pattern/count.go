package pattern

import "github.com/chordcue/chordcue/core/song"

// Count returns the total measure count of an element list. Raw measures
// contribute 1, line breaks 0, and each loop contributes the count of its
// interior times its repeat count, recursively.
func Count(elements []song.PatternElement) int {
	total := 0
	i := 0
	for i < len(elements) {
		switch elements[i].Kind {
		case song.ElementMeasure:
			total++
			i++
		case song.ElementLoopStart:
			end := matchingLoopEnd(elements, i)
			if end < 0 {
				// Compile guarantees balance; skip the stray marker.
				i++
				continue
			}
			total += elements[end].Repeat * Count(elements[i+1:end])
			i = end + 1
		default:
			i++
		}
	}
	return total
}

// matchingLoopEnd returns the index of the loop_end matching the loop_start
// at open, or -1 if there is none.
func matchingLoopEnd(elements []song.PatternElement, open int) int {
	depth := 0
	for i := open; i < len(elements); i++ {
		switch elements[i].Kind {
		case song.ElementLoopStart:
			depth++
		case song.ElementLoopEnd:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
