// Package song defines the canonical document model for ChordCue.
//
// A song document is built from pattern code in three layers:
//
//   - CompiledPattern: the structured form of one pattern string, an ordered
//     list of PatternElements (measures, loop markers, line breaks) plus the
//     derived total measure count.
//   - Section: a named arrangement unit referencing a pattern by ID, with
//     structural modifiers (repeat, cuts, before/after splices) and lyric
//     lines carrying timing markers.
//   - Document: metadata, the pattern table, the ordered sections, and the
//     linearized prompter display stream.
//
// All types are plain JSON-taggable structs. Compiled patterns are created
// once per distinct pattern source and never mutated afterwards; pipeline
// stages that need to rewrite measures (repeat resolution, stacking) operate
// on cloned flat measure lists.
package song
