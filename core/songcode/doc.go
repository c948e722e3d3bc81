// Package songcode parses complete pattern-code documents into song
// documents.
//
// A songcode document has three parts, in order:
//
//	title: Wild Horses          // metadata header, key: value lines
//	tempo: 110
//	time: 4/4
//
//	$verse: A D;G C             // named pattern definitions
//	$outro: [A;G]2
//
//	@Verse 1 | verse x2 cut-end 1
//	First lyric line _4         // lyric lines with trailing timing markers
//	Second lyric line _4
//
// Lines starting with // are comments. Lyric lines starting with * are
// info lines and lines starting with > are musician cues. Pattern names
// are lowercase letters; identical pattern bodies share one canonical
// pattern ID regardless of how many names refer to them.
package songcode
