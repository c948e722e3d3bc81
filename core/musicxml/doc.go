// Package musicxml imports chord progressions from MusicXML scores.
//
// Only the harmony layer of a score is read: <harmony> elements carry the
// chord symbols and <measure> boundaries carry the grid. The importer is
// best-effort: chord kinds without a direct symbol mapping fall back to the
// kind text as the chord extension, and measures without a harmony repeat
// the previous one. The result is songcode text that feeds the normal
// compile pipeline, so anything the importer gets wrong surfaces as a
// regular compile error.
package musicxml
