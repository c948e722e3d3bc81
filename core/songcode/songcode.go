package songcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/pattern"
	"github.com/chordcue/chordcue/core/song"
)

// Metadata field limits.
const (
	minTempo = 20
	maxTempo = 400
	maxCapo  = 12
)

// defaultTime is assumed when the header has no time field.
var defaultTime = song.TimeSignature{Beats: 4, Unit: 4}

// Parse compiles a complete songcode document into a song.Document.
// The returned document has its pattern table, sections, and measure
// budgets fully validated; the prompter stream is built separately.
//
// Parsing is fail-fast: the first error anywhere in compilation or
// validation aborts the conversion.
func Parse(text string) (*song.Document, error) {
	doc := &song.Document{
		Metadata: song.Metadata{
			Tempo: 120,
			Time:  defaultTime,
		},
		Patterns:      make(map[string]*song.CompiledPattern),
		PatternSource: make(map[string]string),
	}

	alloc := newAllocator()
	var current *song.Section
	var currentRawLyrics []string

	finishSection := func() error {
		if current == nil {
			return nil
		}
		defer func() {
			current = nil
			currentRawLyrics = nil
		}()
		for _, raw := range currentRawLyrics {
			line, err := parseLyricLine(raw)
			if err != nil {
				return errors.Wrapf(err, "section %q", current.Name)
			}
			current.Lyrics = append(current.Lyrics, line)
		}
		if err := pattern.ValidateLyricTiming(current.Lyrics, current.MeasureCount); err != nil {
			return errors.Wrapf(err, "section %q", current.Name)
		}
		return nil
	}

	for _, raw := range strings.Split(normalize(text), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "" || strings.HasPrefix(line, "//"):
			continue

		case strings.HasPrefix(line, "$"):
			if err := finishSection(); err != nil {
				return nil, err
			}
			if err := definePattern(doc, alloc, line); err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, "@"):
			if err := finishSection(); err != nil {
				return nil, err
			}
			section, err := beginSection(doc, alloc, line)
			if err != nil {
				return nil, err
			}
			doc.Sections = append(doc.Sections, section)
			current = section

		case current != nil:
			currentRawLyrics = append(currentRawLyrics, line)

		default:
			if err := setMetadata(&doc.Metadata, line); err != nil {
				return nil, err
			}
		}
	}
	if err := finishSection(); err != nil {
		return nil, err
	}

	if doc.Metadata.Title == "" {
		return nil, errors.NewValidation("title", "document has no title field")
	}
	return doc, nil
}

// normalize converts all line endings to \n.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// setMetadata parses one "key: value" header line into the metadata.
func setMetadata(meta *song.Metadata, line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return errors.NewParse("songcode", "", fmt.Sprintf("expected key: value header line, got %q", line))
	}
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	switch key {
	case "title":
		meta.Title = value
	case "artist":
		meta.Artist = value
	case "tempo":
		tempo, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewValidation("tempo", fmt.Sprintf("not a number: %q", value))
		}
		if tempo < minTempo || tempo > maxTempo {
			return errors.NewValidation("tempo", fmt.Sprintf("%d out of range %d-%d", tempo, minTempo, maxTempo))
		}
		meta.Tempo = tempo
	case "time":
		ts, err := song.ParseTimeSignature(value)
		if err != nil {
			return errors.NewValidation("time", err.Error())
		}
		meta.Time = ts
	case "capo":
		capo, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewValidation("capo", fmt.Sprintf("not a number: %q", value))
		}
		if capo < 0 || capo > maxCapo {
			return errors.NewValidation("capo", fmt.Sprintf("%d out of range 0-%d", capo, maxCapo))
		}
		meta.Capo = capo
	case "key":
		chord, err := pattern.ParseChord(value)
		if err != nil {
			return errors.NewValidation("key", fmt.Sprintf("invalid key chord %q", value))
		}
		meta.Key = &chord
	default:
		if meta.Attributes == nil {
			meta.Attributes = make(map[string]string)
		}
		meta.Attributes[key] = value
	}
	return nil
}

// definePattern parses a "$name: <pattern>" line, compiles the pattern, and
// registers it under its allocated ID.
func definePattern(doc *song.Document, alloc *allocator, line string) error {
	name, source, ok := strings.Cut(line[1:], ":")
	if !ok {
		return errors.NewParse("songcode", "", fmt.Sprintf("expected $name: pattern, got %q", line))
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.Trim(name, "abcdefghijklmnopqrstuvwxyz") != "" {
		return errors.NewValidation("pattern name", fmt.Sprintf("%q must be lowercase letters", name))
	}
	source = strings.TrimSpace(source)

	id, hash := alloc.define(name, source)
	if _, exists := doc.Patterns[id]; exists {
		return nil // identical body already compiled
	}

	compiled, err := pattern.Compile(source)
	if err != nil {
		return errors.Wrapf(err, "pattern $%s", name)
	}
	compiled.Hash = hash
	if err := pattern.ValidatePattern(compiled, doc.Metadata.Time); err != nil {
		return errors.Wrapf(err, "pattern $%s", name)
	}

	doc.Patterns[id] = compiled
	doc.PatternSource[id] = source
	return nil
}

// beginSection parses an "@Name | arrangement" line into a section with its
// modifiers resolved and its measure budget computed.
func beginSection(doc *song.Document, alloc *allocator, line string) (*song.Section, error) {
	name, clause, ok := strings.Cut(line[1:], "|")
	if !ok {
		return nil, errors.NewParse("songcode", "", fmt.Sprintf("section header needs '| arrangement': %q", line))
	}
	name = strings.TrimSpace(name)

	header, err := parseHeader(name, strings.TrimSpace(clause))
	if err != nil {
		return nil, errors.Wrapf(err, "section %q", name)
	}

	resolve := func(userName string) (*song.CompiledPattern, string, error) {
		id, ok := alloc.lookup(userName)
		if !ok {
			return nil, "", errors.NewNotFound("pattern", userName)
		}
		return doc.Patterns[id], id, nil
	}

	compiled, id, err := resolve(header.PatternID)
	if err != nil {
		return nil, errors.Wrapf(err, "section %q", name)
	}

	mods := song.SectionModifiers{
		Repeat:   header.Repeat,
		CutStart: header.CutStart,
		CutEnd:   header.CutEnd,
	}
	if header.Before != "" {
		before, _, err := resolve(header.Before)
		if err != nil {
			return nil, errors.Wrapf(err, "section %q before", name)
		}
		mods.Before = before
	}
	if header.After != "" {
		after, _, err := resolve(header.After)
		if err != nil {
			return nil, errors.Wrapf(err, "section %q after", name)
		}
		mods.After = after
	}

	return &song.Section{
		Name:         name,
		PatternID:    id,
		Modifiers:    mods,
		MeasureCount: pattern.SectionBudget(compiled.MeasureCount, mods),
	}, nil
}

// parseLyricLine extracts the style prefix and timing marker from a raw
// lyric line. Lines starting with * are info lines; > marks musician cues.
func parseLyricLine(raw string) (song.LyricLine, error) {
	style := song.LyricNormal
	switch {
	case strings.HasPrefix(raw, "*"):
		style = song.LyricInfo
		raw = strings.TrimSpace(raw[1:])
	case strings.HasPrefix(raw, ">"):
		style = song.LyricMusician
		raw = strings.TrimSpace(raw[1:])
	}

	text, count, err := pattern.ParseLyricTiming(raw)
	if err != nil {
		return song.LyricLine{}, err
	}
	return song.LyricLine{Text: text, MeasureCount: count, Style: style}, nil
}
