package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/song"
)

// ValidateMeasure checks that one measure's positions divide the time
// signature's beats evenly, accounting for removers.
//
// With removers present and an uneven division, the all-beats-removed check
// runs first so the more specific diagnostic wins over the generic division
// failure: beats are shared across the non-remover positions, and if the
// removers would subtract everything the measure is rejected with
// AllBeatsRemoved. Silence (_) and repeat (%) symbols count as ordinary
// positions here; the repeat shorthand is resolved to real content later.
func ValidateMeasure(m song.Measure, ts song.TimeSignature) error {
	positions := m.Len()
	if positions == 0 {
		return nil
	}
	beats := ts.Beats
	removers := m.RemoverCount()

	if removers > 0 && beats%positions != 0 {
		nonRemovers := positions - removers
		if nonRemovers > 0 {
			removed := removers * (beats / nonRemovers)
			if removed >= beats {
				return errors.NewCompileAt(errors.CodeAllBeatsRemoved, -1, m.String(),
					fmt.Sprintf("removers subtract all %d beats of the measure", beats))
			}
		}
	}

	if beats%positions != 0 {
		return errors.NewCompileAt(errors.CodeDivisionError, -1, m.String(),
			fmt.Sprintf("%d positions do not evenly divide %d beats", positions, beats))
	}

	removed := removers * (beats / positions)
	if beats-removed <= 0 {
		return errors.NewCompileAt(errors.CodeAllBeatsRemoved, -1, m.String(),
			fmt.Sprintf("removers subtract all %d beats of the measure", beats))
	}
	return nil
}

// ValidatePattern checks every measure of a compiled pattern, including
// those inside loops, against the time signature.
func ValidatePattern(p *song.CompiledPattern, ts song.TimeSignature) error {
	if p.IsEmpty() {
		return nil
	}
	for _, e := range p.Elements {
		if e.Kind != song.ElementMeasure {
			continue
		}
		if err := ValidateMeasure(*e.Measure, ts); err != nil {
			return err
		}
	}
	return nil
}

// SectionBudget computes a section's final expected measure count: the
// pattern's count times the repeat modifier, minus the display slots
// consumed by the cuts, plus the before/after splice counts.
func SectionBudget(patternMeasures int, mods song.SectionModifiers) int {
	final := patternMeasures * mods.EffectiveRepeat()
	final -= mods.CutStart.DisplayMeasures()
	final -= mods.CutEnd.DisplayMeasures()
	if !mods.Before.IsEmpty() {
		final += mods.Before.MeasureCount
	}
	if !mods.After.IsEmpty() {
		final += mods.After.MeasureCount
	}
	return final
}

// ParseLyricTiming extracts the trailing _<digits> timing marker from a raw
// lyric line, returning the lyric text (trailing whitespace trimmed) and the
// measure count.
func ParseLyricTiming(raw string) (string, int, error) {
	idx := strings.LastIndexByte(raw, '_')
	if idx < 0 {
		return "", 0, errors.NewCompileAt(errors.CodeMissingTiming, -1, raw,
			"lyric line has no trailing _<measures> timing marker")
	}
	suffix := raw[idx+1:]
	if suffix == "" {
		return "", 0, errors.NewCompileAt(errors.CodeBadTimingFormat, idx, raw,
			"timing marker has no digits after the underscore")
	}
	count, err := strconv.Atoi(suffix)
	if err != nil {
		return "", 0, errors.NewCompileAt(errors.CodeBadTimingFormat, idx, raw,
			"timing marker must be digits")
	}
	if count <= 0 {
		return "", 0, errors.NewCompileAt(errors.CodeNonPositiveTiming, idx, raw,
			"timing marker must be a positive measure count")
	}
	return strings.TrimRight(raw[:idx], " \t"), count, nil
}

// ValidateLyricTiming checks that a section's lyric timings sum to its
// final measure count. Sections with no lyric lines are instrumental and
// exempt.
func ValidateLyricTiming(lines []song.LyricLine, final int) error {
	if len(lines) == 0 {
		return nil
	}
	sum := 0
	for _, line := range lines {
		sum += line.MeasureCount
	}
	if sum != final {
		return errors.NewCompile(errors.CodeTimingMismatch,
			fmt.Sprintf("lyric timings sum to %d measures, section plays %d", sum, final))
	}
	return nil
}
