package song

// types.go - Consolidated document model type definitions.
// All pipeline stages and format handlers should import these types from
// core/song rather than defining their own.

import (
	"fmt"
	"strconv"
	"strings"
)

// PositionKind identifies what a single beat slot within a measure holds.
type PositionKind string

// Position kind constants.
const (
	PositionChord   PositionKind = "chord"
	PositionRepeat  PositionKind = "repeat"
	PositionSilence PositionKind = "silence"
	PositionRemover PositionKind = "remover"
)

// validPositionKinds is the set of valid position kinds.
var validPositionKinds = map[PositionKind]bool{
	PositionChord:   true,
	PositionRepeat:  true,
	PositionSilence: true,
	PositionRemover: true,
}

// IsValid returns true if the position kind is valid.
func (k PositionKind) IsValid() bool {
	return validPositionKinds[k]
}

// ChordToken is a parsed chord symbol. Root carries the note letter plus any
// accidental and minor marker (e.g. "A", "F#", "Bbm"); Extension is the
// remaining suffix (e.g. "7", "maj7sus4", "").
type ChordToken struct {
	Root      string `json:"root"`
	Extension string `json:"extension,omitempty"`
}

// String returns the chord as written in pattern code.
func (c ChordToken) String() string {
	return c.Root + c.Extension
}

/// ChordPosition is one slot within a measure: a chord, or one of the bare
// symbols (repeat %, silence _, remover =).
type ChordPosition struct {
	// Kind indicates what this position holds.
	Kind PositionKind `json:"kind"`

	// Chord is set only when Kind is PositionChord.
	Chord *ChordToken `json:"chord,omitempty"`
}

// NewChordPosition creates a chord position holding the given token.
func NewChordPosition(token ChordToken) ChordPosition {
	return ChordPosition{Kind: PositionChord, Chord: &token}
}

// RepeatPosition creates a repeat-shorthand (%) position.
func RepeatPosition() ChordPosition {
	return ChordPosition{Kind: PositionRepeat}
}

// SilencePosition creates a silence (_) position.
func SilencePosition() ChordPosition {
	return ChordPosition{Kind: PositionSilence}
}

// RemoverPosition creates a remover (=) position.
func RemoverPosition() ChordPosition {
	return ChordPosition{Kind: PositionRemover}
}

// Equal reports whether two positions hold the same kind and, for chords,
// the same (root, extension) tuple. Bare symbol kinds are distinct from one
// another and from any chord.
func (p ChordPosition) Equal(other ChordPosition) bool {
	if p.Kind != other.Kind {
		return false
	}
	if p.Kind != PositionChord {
		return true
	}
	if p.Chord == nil || other.Chord == nil {
		return p.Chord == other.Chord
	}
	return *p.Chord == *other.Chord
}

// String renders the position in pattern-code notation.
func (p ChordPosition) String() string {
	switch p.Kind {
	case PositionChord:
		if p.Chord != nil {
			return p.Chord.String()
		}
		return ""
	case PositionRepeat:
		return "%"
	case PositionSilence:
		return "_"
	case PositionRemover:
		return "="
	}
	return ""
}

// Measure is one bar's worth of chord positions, in beat order.
type Measure struct {
	Positions []ChordPosition `json:"positions"`
}

// Len returns the number of positions in the measure.
func (m Measure) Len() int {
	return len(m.Positions)
}

// RemoverCount returns how many remover (=) positions the measure holds.
func (m Measure) RemoverCount() int {
	n := 0
	for _, p := range m.Positions {
		if p.Kind == PositionRemover {
			n++
		}
	}
	return n
}

// IsWholeRepeat reports whether the measure is a single repeat symbol.
func (m Measure) IsWholeRepeat() bool {
	return len(m.Positions) == 1 && m.Positions[0].Kind == PositionRepeat
}

// Equal reports position-by-position equality with another measure.
func (m Measure) Equal(other Measure) bool {
	if len(m.Positions) != len(other.Positions) {
		return false
	}
	for i, p := range m.Positions {
		if !p.Equal(other.Positions[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the measure.
func (m Measure) Clone() Measure {
	out := Measure{Positions: make([]ChordPosition, len(m.Positions))}
	for i, p := range m.Positions {
		out.Positions[i] = p
		if p.Chord != nil {
			chord := *p.Chord
			out.Positions[i].Chord = &chord
		}
	}
	return out
}

// String renders the measure in pattern-code notation.
func (m Measure) String() string {
	parts := make([]string, len(m.Positions))
	for i, p := range m.Positions {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

// ElementKind identifies the variant of a PatternElement.
type ElementKind string

// Pattern element kind constants.
const (
	ElementMeasure   ElementKind = "measure"
	ElementLoopStart ElementKind = "loop_start"
	ElementLoopEnd   ElementKind = "loop_end"
	ElementLineBreak ElementKind = "line_break"
)

// validElementKinds is the set of valid element kinds.
var validElementKinds = map[ElementKind]bool{
	ElementMeasure:   true,
	ElementLoopStart: true,
	ElementLoopEnd:   true,
	ElementLineBreak: true,
}

// IsValid returns true if the element kind is valid.
func (k ElementKind) IsValid() bool {
	return validElementKinds[k]
}

// PatternElement is one entry of a compiled pattern: a measure, a loop
// marker, or a line break. Every loop_start has exactly one matching
// loop_end at the same nesting depth; loop_end always carries Repeat >= 1.
type PatternElement struct {
	Kind ElementKind `json:"kind"`

	// Measure is set only when Kind is ElementMeasure.
	Measure *Measure `json:"measure,omitempty"`

	// Repeat is the loop repeat count, set only when Kind is ElementLoopEnd.
	Repeat int `json:"repeat,omitempty"`
}

// MeasureElement wraps a measure as a pattern element.
func MeasureElement(m Measure) PatternElement {
	return PatternElement{Kind: ElementMeasure, Measure: &m}
}

// LoopStartElement creates a loop-open marker.
func LoopStartElement() PatternElement {
	return PatternElement{Kind: ElementLoopStart}
}

// LoopEndElement creates a loop-close marker with the given repeat count.
func LoopEndElement(repeat int) PatternElement {
	return PatternElement{Kind: ElementLoopEnd, Repeat: repeat}
}

// LineBreakElement creates an explicit display line break.
func LineBreakElement() PatternElement {
	return PatternElement{Kind: ElementLineBreak}
}

// CompiledPattern is the structured form of one pattern string.
type CompiledPattern struct {
	// Source is the normalized pattern text this was compiled from.
	Source string `json:"source"`

	// Elements is the ordered element list.
	Elements []PatternElement `json:"elements"`

	// MeasureCount is the derived total measure count, with loops counted
	// as inner-count x repeat, recursively.
	MeasureCount int `json:"measure_count"`

	// Hash is the BLAKE3 hash of the normalized source, used for
	// pattern deduplication.
	Hash string `json:"hash,omitempty"`
}

// IsEmpty reports whether the pattern contains no elements.
func (p *CompiledPattern) IsEmpty() bool {
	return p == nil || len(p.Elements) == 0
}

// TimeSignature is the song or section meter. Unit must be 2 or 4.
type TimeSignature struct {
	Beats int `json:"beats"`
	Unit  int `json:"unit"`
}

// IsValid returns true if the signature has positive beats and a supported unit.
func (ts TimeSignature) IsValid() bool {
	return ts.Beats > 0 && (ts.Unit == 2 || ts.Unit == 4)
}

// String returns the usual "N/U" rendering.
func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.Unit)
}

// ParseTimeSignature parses "N/U" where N is a positive integer and U is 2 or 4.
func ParseTimeSignature(s string) (TimeSignature, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return TimeSignature{}, fmt.Errorf("invalid time signature %q: want N/U", s)
	}
	beats, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeSignature{}, fmt.Errorf("invalid time signature %q: %w", s, err)
	}
	unit, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeSignature{}, fmt.Errorf("invalid time signature %q: %w", s, err)
	}
	ts := TimeSignature{Beats: beats, Unit: unit}
	if !ts.IsValid() {
		return TimeSignature{}, fmt.Errorf("invalid time signature %q: beats must be positive, unit 2 or 4", s)
	}
	return ts, nil
}

// BeatCut describes how much to trim from one end of a section: whole
// measures plus a partial-measure remainder in beats.
type BeatCut struct {
	Measures int `json:"measures,omitempty"`
	Beats    int `json:"beats,omitempty"`
}

// IsZero reports whether the cut trims nothing.
func (c BeatCut) IsZero() bool {
	return c.Measures == 0 && c.Beats == 0
}

// DisplayMeasures returns how many whole display slots the cut consumes.
// A partial-beat cut still consumes one whole slot.
func (c BeatCut) DisplayMeasures() int {
	n := c.Measures
	if c.Beats > 0 {
		n++
	}
	return n
}

// SectionModifiers are the structural modifiers applied to a section's
// pattern. Missing modifiers default to their identity: Repeat=1, zero
// cuts, nil before/after.
type SectionModifiers struct {
	Repeat   int              `json:"repeat,omitempty"`
	CutStart BeatCut          `json:"cut_start,omitempty"`
	CutEnd   BeatCut          `json:"cut_end,omitempty"`
	Before   *CompiledPattern `json:"before,omitempty"`
	After    *CompiledPattern `json:"after,omitempty"`
}

// EffectiveRepeat returns Repeat, treating the zero value as 1.
func (m SectionModifiers) EffectiveRepeat() int {
	if m.Repeat < 1 {
		return 1
	}
	return m.Repeat
}

// LyricStyle tags how a lyric line is displayed.
type LyricStyle string

// Lyric style constants.
const (
	LyricNormal   LyricStyle = "normal"
	LyricInfo     LyricStyle = "info"
	LyricMusician LyricStyle = "musician"
)

// validLyricStyles is the set of valid lyric styles.
var validLyricStyles = map[LyricStyle]bool{
	LyricNormal:   true,
	LyricInfo:     true,
	LyricMusician: true,
}

// IsValid returns true if the lyric style is valid.
func (s LyricStyle) IsValid() bool {
	return validLyricStyles[s]
}

// LyricLine is one displayed lyric line with its timing marker already
// parsed: MeasureCount is how many measures the line spans.
type LyricLine struct {
	Text         string     `json:"text"`
	MeasureCount int        `json:"measure_count"`
	Style        LyricStyle `json:"style"`
}

// Section is one arrangement unit of a song.
type Section struct {
	// Name is the section heading as displayed (e.g. "Verse 1").
	Name string `json:"name"`

	// PatternID references the document's pattern table.
	PatternID string `json:"pattern_id"`

	// Modifiers are the structural modifiers for this section.
	Modifiers SectionModifiers `json:"modifiers"`

	// Lyrics are the section's lyric lines, in display order. A section
	// with no lyrics is instrumental.
	Lyrics []LyricLine `json:"lyrics,omitempty"`

	// MeasureCount is the section's final measure count after modifiers.
	MeasureCount int `json:"measure_count"`
}

// Instrumental reports whether the section has no lyric lines.
func (s *Section) Instrumental() bool {
	return len(s.Lyrics) == 0
}

// Metadata is the song-level header information.
type Metadata struct {
	Title  string        `json:"title"`
	Artist string        `json:"artist,omitempty"`
	Tempo  int           `json:"tempo"`
	Time   TimeSignature `json:"time"`
	Capo   int           `json:"capo,omitempty"`
	Key    *ChordToken   `json:"key,omitempty"`

	// Attributes holds additional free-form header fields.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DisplayUnitKind identifies the variant of a prompter display unit.
type DisplayUnitKind string

// Display unit kind constants.
const (
	UnitMeta    DisplayUnitKind = "meta"
	UnitHeader  DisplayUnitKind = "header"
	UnitContent DisplayUnitKind = "content"
)

// validDisplayUnitKinds is the set of valid display unit kinds.
var validDisplayUnitKinds = map[DisplayUnitKind]bool{
	UnitMeta:    true,
	UnitHeader:  true,
	UnitContent: true,
}

// IsValid returns true if the display unit kind is valid.
func (k DisplayUnitKind) IsValid() bool {
	return validDisplayUnitKinds[k]
}

// DisplayUnit is one entry of the linear prompter stream.
type DisplayUnit struct {
	Kind DisplayUnitKind `json:"kind"`

	// Title is the section name (header units) or song title (meta units).
	Title string `json:"title,omitempty"`

	// Tempo and Time are set on meta units.
	Tempo int            `json:"tempo,omitempty"`
	Time  *TimeSignature `json:"time,omitempty"`

	// Lyric is the line shown with a content unit (nil for instrumentals).
	Lyric *LyricLine `json:"lyric,omitempty"`

	// Multiplier and Measures are the optimized chord content of a content
	// unit: play Measures Multiplier times.
	Multiplier int       `json:"multiplier,omitempty"`
	Measures   []Measure `json:"measures,omitempty"`
}

// Document is the final compiled output for one song.
type Document struct {
	// ID is the stable identifier assigned when the document is stored.
	ID string `json:"id,omitempty"`

	// Metadata is the parsed song header.
	Metadata Metadata `json:"metadata"`

	// Patterns maps pattern IDs ("a", "b", ...) to compiled patterns.
	Patterns map[string]*CompiledPattern `json:"patterns"`

	// PatternSource maps pattern IDs to their normalized source text.
	PatternSource map[string]string `json:"pattern_source,omitempty"`

	// Sections is the ordered arrangement.
	Sections []*Section `json:"sections"`

	// Prompter is the linearized display stream.
	Prompter []*DisplayUnit `json:"prompter,omitempty"`
}
