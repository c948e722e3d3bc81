package pattern

import (
	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/song"
)

// ParseChord parses a single chord token into its root and extension.
// The root is a natural note letter A-G, optionally followed by an
// accidental (# or b) and a minor marker. An 'm' directly followed by 'a'
// is not a minor marker: it begins a "maj..." extension.
func ParseChord(token string) (song.ChordToken, error) {
	if token == "" {
		return song.ChordToken{}, errors.NewCompile(errors.CodeInvalidChord, "empty chord token")
	}
	if token[0] < 'A' || token[0] > 'G' {
		return song.ChordToken{}, errors.NewCompileAt(errors.CodeInvalidChord, 0, token,
			"chord root must be a natural note letter A-G")
	}

	i := 1
	if i < len(token) && (token[i] == '#' || token[i] == 'b') {
		i++
	}
	if i < len(token) && token[i] == 'm' && !(i+1 < len(token) && token[i+1] == 'a') {
		i++
	}

	return song.ChordToken{Root: token[:i], Extension: token[i:]}, nil
}
