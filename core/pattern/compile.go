package pattern

import (
	"strconv"
	"strings"

	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/song"
)

// maxLoopDepth bounds loop nesting so that adversarial input cannot exhaust
// the stack. Real songs use one level; the format allows arbitrary nesting.
const maxLoopDepth = 100

// Compile parses a raw pattern string into a CompiledPattern. An empty or
// whitespace-only input yields an empty pattern, not an error.
func Compile(source string) (*song.CompiledPattern, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return &song.CompiledPattern{Source: ""}, nil
	}

	if strings.Count(trimmed, "[") != strings.Count(trimmed, "]") {
		return nil, errors.NewCompileAt(errors.CodeMismatchedBrackets, -1, trimmed,
			"loop brackets do not balance")
	}

	elements, err := compileElements(trimmed, 0, 0)
	if err != nil {
		return nil, err
	}

	return &song.CompiledPattern{
		Source:       trimmed,
		Elements:     elements,
		MeasureCount: Count(elements),
	}, nil
}

// compileElements compiles one region of pattern text. base is the byte
// offset of s within the full source, used for error positions. depth is
// the current loop nesting depth.
func compileElements(s string, base, depth int) ([]song.PatternElement, error) {
	if depth > maxLoopDepth {
		return nil, errors.NewUnsupported("pattern", "loop nesting deeper than 100 levels")
	}

	var elements []song.PatternElement
	measureStart := -1 // start offset of the measure text being accumulated

	flush := func(end int) error {
		if measureStart < 0 {
			return nil
		}
		text := strings.TrimSpace(s[measureStart:end])
		start := measureStart
		measureStart = -1
		if text == "" {
			return nil
		}
		m, err := parseMeasure(text, base+start)
		if err != nil {
			return err
		}
		elements = append(elements, song.MeasureElement(m))
		return nil
	}

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '[':
			if err := flush(i); err != nil {
				return nil, err
			}
			close := matchingBracket(s, i)
			if close < 0 {
				return nil, errors.NewCompileAt(errors.CodeMismatchedBrackets, base+i, s[i:],
					"loop bracket is never closed")
			}
			inner, err := compileElements(s[i+1:close], base+i+1, depth+1)
			if err != nil {
				return nil, err
			}
			j := close + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			if j == close+1 {
				return nil, errors.NewCompileAt(errors.CodeMissingRepeatCount, base+close, s[i:j],
					"loop must be followed by a repeat count")
			}
			repeat, err := strconv.Atoi(s[close+1 : j])
			if err != nil || repeat < 1 {
				return nil, errors.NewCompileAt(errors.CodeMissingRepeatCount, base+close+1, s[close+1:j],
					"loop repeat count must be a positive integer")
			}
			elements = append(elements, song.LoopStartElement())
			elements = append(elements, inner...)
			elements = append(elements, song.LoopEndElement(repeat))
			i = j

		case c == ':':
			if err := flush(i); err != nil {
				return nil, err
			}
			elements = append(elements, song.LineBreakElement())
			i++

		case c == ';':
			if err := flush(i); err != nil {
				return nil, err
			}
			i++

		case (c == ' ' || c == '\t' || c == '\n' || c == '\r') && measureStart < 0:
			// Whitespace outside measure content.
			i++

		default:
			if measureStart < 0 {
				measureStart = i
			}
			i++
		}
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}

	return elements, nil
}

// matchingBracket returns the index of the ']' matching the '[' at open,
// or -1 if there is none.
func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseMeasure splits trimmed measure text on whitespace into positions.
// pos is the byte offset of the measure text in the full source.
func parseMeasure(text string, pos int) (song.Measure, error) {
	var m song.Measure
	for _, token := range strings.Fields(text) {
		switch token {
		case "%":
			m.Positions = append(m.Positions, song.RepeatPosition())
		case "_", "-":
			m.Positions = append(m.Positions, song.SilencePosition())
		case "=":
			if len(m.Positions) == 0 {
				return song.Measure{}, errors.NewCompileAt(errors.CodeRemoverMisplaced, pos, text,
					"remover must follow another position in the same measure")
			}
			m.Positions = append(m.Positions, song.RemoverPosition())
		default:
			chord, err := ParseChord(token)
			if err != nil {
				var ce *errors.CompileError
				if errors.As(err, &ce) {
					ce.Pos = pos
				}
				return song.Measure{}, err
			}
			m.Positions = append(m.Positions, song.NewChordPosition(chord))
		}
	}
	return m, nil
}
