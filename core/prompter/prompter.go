package prompter

import (
	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/pattern"
	"github.com/chordcue/chordcue/core/song"
)

// Build populates doc.Prompter from the document's sections and pattern
// table. Any previous stream is replaced.
//
// Each section runs the full measure pipeline: expand the compiled pattern,
// apply the section modifiers, resolve repeat symbols, then slice the result
// by the lyric timing markers and optimize each slice. Instrumental sections
// produce a single content unit covering the whole section.
func Build(doc *song.Document) error {
	units := make([]*song.DisplayUnit, 0, 1+2*len(doc.Sections))

	time := doc.Metadata.Time
	units = append(units, &song.DisplayUnit{
		Kind:  song.UnitMeta,
		Title: doc.Metadata.Title,
		Tempo: doc.Metadata.Tempo,
		Time:  &time,
	})

	for _, section := range doc.Sections {
		sectionUnits, err := buildSection(doc, section)
		if err != nil {
			return errors.Wrapf(err, "section %q", section.Name)
		}
		units = append(units, sectionUnits...)
	}

	doc.Prompter = units
	return nil
}

// buildSection produces the header unit and content units for one section.
func buildSection(doc *song.Document, section *song.Section) ([]*song.DisplayUnit, error) {
	compiled, ok := doc.Patterns[section.PatternID]
	if !ok {
		return nil, errors.NewNotFound("pattern", section.PatternID)
	}

	measures, err := pattern.ResolveRepeats(pattern.Stack(pattern.Expand(compiled), section.Modifiers))
	if err != nil {
		return nil, err
	}

	units := []*song.DisplayUnit{{
		Kind:  song.UnitHeader,
		Title: section.Name,
	}}

	if section.Instrumental() {
		units = append(units, contentUnit(nil, measures))
		return units, nil
	}

	offset := 0
	for i := range section.Lyrics {
		lyric := section.Lyrics[i]
		end := offset + lyric.MeasureCount
		if end > len(measures) {
			return nil, errors.Wrapf(errors.ErrInternal,
				"lyric timing overruns section: need %d measures, have %d", end, len(measures))
		}
		units = append(units, contentUnit(&lyric, measures[offset:end]))
		offset = end
	}
	return units, nil
}

func contentUnit(lyric *song.LyricLine, measures []song.Measure) *song.DisplayUnit {
	multiplier, optimized := pattern.Optimize(measures)
	return &song.DisplayUnit{
		Kind:       song.UnitContent,
		Lyric:      lyric,
		Multiplier: multiplier,
		Measures:   optimized,
	}
}
